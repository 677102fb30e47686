package totalsdk

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"

	"github.com/imroc/req/v3"
	"github.com/totalapp/tenantfiles/internal/utils"
)

const (
	filesTemp        = "/files/temp"
	filesCommit      = "/files/commit"
	filesList        = "/files"
	filesDownload    = "/files/{id}"
	filesDownloadZip = "/files/download-zip"
)

// FilesAPI covers the staging, commit and download endpoints
type FilesAPI struct {
	c *Client
}

func newFilesAPI(c *Client) *FilesAPI {
	return &FilesAPI{c: c}
}

// UploadTemp stages files in a single multipart request. Each file part is
// paired by position with a modifiedAt field taken from the file's metadata.
func (f *FilesAPI) UploadTemp(ctx context.Context, params *UploadTempRequest) ([]StagedFile, error) {
	if params == nil || len(params.Files) == 0 {
		return nil, ErrNoFiles
	}

	uploads := make([]req.FileUpload, 0, len(params.Files))
	form := url.Values{}

	for _, file := range params.Files {
		size, modTime, err := file.stat()
		if err != nil {
			return nil, fmt.Errorf("sdk: upload temp: %w", err)
		}

		contentType := file.ContentType
		if contentType == "" {
			contentType = utils.DetectContentType(file.Path)
		}

		path := file.Path
		uploads = append(uploads, req.FileUpload{
			ParamName: "files",
			FileName:  file.filename(),
			FileSize:  size,
			GetFileContent: func() (io.ReadCloser, error) {
				return os.Open(path)
			},
			ContentType: contentType,
		})
		form.Add("modifiedAt", FormatTimestamp(modTime))
	}

	if params.BatchID != "" {
		form.Set("batchId", params.BatchID)
	}

	var staged []StagedFile
	err := f.c.call(ctx, "upload temp", func(r *req.Request) (*req.Response, error) {
		staged = nil
		return r.
			SetFileUpload(uploads...).
			SetFormDataFromValues(form).
			SetSuccessResult(&staged).
			Post(filesTemp)
	})
	if err != nil {
		return nil, err
	}

	f.c.log.Debug("files staged", "count", len(staged), "batchId", params.BatchID)
	return staged, nil
}

// Commit links staged files to an owner
func (f *FilesAPI) Commit(ctx context.Context, params *CommitRequest) ([]CommittedFile, error) {
	if params == nil || len(params.TempIDs) == 0 {
		return nil, ErrNoTempIDs
	}
	if err := params.Owner.Validate(); err != nil {
		return nil, err
	}

	var committed []CommittedFile
	err := f.c.call(ctx, "commit files", func(r *req.Request) (*req.Response, error) {
		committed = nil
		r.SetQueryParam("ownerType", params.Owner.Type.String()).
			SetQueryParam("ownerId", strconv.FormatInt(params.Owner.ID, 10))
		for _, id := range params.TempIDs {
			r.AddQueryParam("tempIds", id)
		}
		if params.Overwrite != nil {
			r.SetQueryParam("overwrite", strconv.FormatBool(*params.Overwrite))
		}
		return r.SetSuccessResult(&committed).Post(filesCommit)
	})
	if err != nil {
		return nil, err
	}

	return committed, nil
}

// List returns every file committed to owner
func (f *FilesAPI) List(ctx context.Context, owner Owner) ([]CommittedFile, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}

	var files []CommittedFile
	err := f.c.call(ctx, "list files", func(r *req.Request) (*req.Response, error) {
		files = nil
		return r.
			SetQueryParam("ownerType", owner.Type.String()).
			SetQueryParam("ownerId", strconv.FormatInt(owner.ID, 10)).
			SetSuccessResult(&files).
			Get(filesList)
	})
	if err != nil {
		return nil, err
	}

	return files, nil
}

// Download streams one file to destPath
func (f *FilesAPI) Download(ctx context.Context, fileID string, destPath string) error {
	if fileID == "" {
		return ErrNoFileIDs
	}
	return f.download(ctx, "download file", destPath, func(r *req.Request) (*req.Response, error) {
		return r.SetPathParam("id", fileID).Get(filesDownload)
	})
}

// DownloadZip streams an archive of the given files to destPath
func (f *FilesAPI) DownloadZip(ctx context.Context, fileIDs []string, destPath string) error {
	if len(fileIDs) == 0 {
		return ErrNoFileIDs
	}
	return f.download(ctx, "download zip", destPath, func(r *req.Request) (*req.Response, error) {
		return r.SetBody(&DownloadZipRequest{FileIDs: fileIDs}).Post(filesDownloadZip)
	})
}

// download writes to a sibling .part file and renames on success. On error
// req writes the error body into the output file, so it is decoded from there.
func (f *FilesAPI) download(ctx context.Context, operation string, destPath string, do requestFunc) error {
	destPath, err := utils.ResolvePath(destPath)
	if err != nil {
		return fmt.Errorf("sdk: %s: %w", operation, err)
	}
	if err := utils.EnsureParent(destPath); err != nil {
		return fmt.Errorf("sdk: %s: %w", operation, err)
	}

	partPath := destPath + ".part"
	defer os.Remove(partPath)

	resp, err := f.c.send(ctx, operation, func(r *req.Request) (*req.Response, error) {
		return do(r.SetOutputFile(partPath))
	})
	if err != nil {
		return err
	}

	if resp.IsErrorState() {
		return fmt.Errorf("sdk: %s: %w", operation, decodeAPIErrorFile(resp, partPath))
	}

	if err := os.Rename(partPath, destPath); err != nil {
		return fmt.Errorf("sdk: %s: %w", operation, err)
	}

	f.c.log.Debug("downloaded", "operation", operation, "path", destPath)
	return nil
}
