package totalsdk

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// LocalFile is a file on disk about to be staged
type LocalFile struct {
	Path string
	// Name overrides the filename sent to the server
	Name string
	// ModifiedAt overrides the file's own mtime
	ModifiedAt time.Time
	// ContentType overrides content sniffing
	ContentType string
}

func (f LocalFile) filename() string {
	if f.Name != "" {
		return f.Name
	}
	return filepath.Base(f.Path)
}

// stat fills in size and modification time from the file's metadata
func (f LocalFile) stat() (size int64, modTime time.Time, err error) {
	info, err := os.Stat(f.Path)
	if err != nil {
		return 0, time.Time{}, err
	}
	if info.IsDir() {
		return 0, time.Time{}, fmt.Errorf("%s is a directory", f.Path)
	}
	modTime = info.ModTime()
	if !f.ModifiedAt.IsZero() {
		modTime = f.ModifiedAt
	}
	return info.Size(), modTime, nil
}

type UploadTempRequest struct {
	Files   []LocalFile
	BatchID string
}

type CommitRequest struct {
	Owner   Owner
	TempIDs []string
	// Overwrite is only sent when set
	Overwrite *bool
}

type DownloadZipRequest struct {
	FileIDs []string `json:"fileIds"`
}

// Bool returns a pointer to b, for CommitRequest.Overwrite
func Bool(b bool) *bool {
	return &b
}
