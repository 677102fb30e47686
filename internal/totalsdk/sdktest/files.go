package sdktest

import (
	"archive/zip"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/totalapp/tenantfiles/internal/totalsdk"
)

// CommitCall records one /files/commit request
type CommitCall struct {
	Owner     totalsdk.Owner
	TempIDs   []string
	Overwrite *bool
}

// Commits returns every commit request received, in arrival order
func (s *Server) Commits() []CommitCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]CommitCall, len(s.commits))
	copy(out, s.commits)
	return out
}

func (s *Server) uploadTemp(ctx *gin.Context) {
	form, err := ctx.MultipartForm()
	if err != nil {
		abortWithError(ctx, http.StatusBadRequest, codeInvalidRequest, err.Error())
		return
	}

	headers := form.File["files"]
	if len(headers) == 0 {
		abortWithError(ctx, http.StatusBadRequest, codeInvalidRequest, "no files")
		return
	}

	modified := form.Value["modifiedAt"]
	batchID := uuid.NewString()
	if v := form.Value["batchId"]; len(v) > 0 && v[0] != "" {
		batchID = v[0]
	}

	result := make([]totalsdk.StagedFile, 0, len(headers))
	entries := make([]*staged, 0, len(headers))

	for i, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			abortWithError(ctx, http.StatusBadRequest, codeInvalidRequest, err.Error())
			return
		}
		content, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			abortWithError(ctx, http.StatusBadRequest, codeInvalidRequest, err.Error())
			return
		}

		file := totalsdk.StagedFile{
			TempID:      uuid.NewString(),
			BatchID:     batchID,
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			SizeBytes:   int64(len(content)),
		}
		if i < len(modified) {
			if t, err := time.Parse(time.RFC3339Nano, modified[i]); err == nil {
				file.ModifiedAt = &t
			}
		}

		entries = append(entries, &staged{file: file, content: content})
		result = append(result, file)
	}

	s.mu.Lock()
	for _, e := range entries {
		s.staged[e.file.TempID] = e
	}
	s.mu.Unlock()

	ctx.PureJSON(http.StatusOK, result)
}

func (s *Server) commitFiles(ctx *gin.Context) {
	owner, ok := bindOwner(ctx)
	if !ok {
		return
	}

	tempIDs := ctx.QueryArray("tempIds")
	if len(tempIDs) == 0 {
		abortWithError(ctx, http.StatusBadRequest, codeInvalidRequest, "tempIds required")
		return
	}

	var overwrite *bool
	if raw, ok := ctx.GetQuery("overwrite"); ok {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			abortWithError(ctx, http.StatusBadRequest, codeInvalidRequest, "overwrite must be a boolean")
			return
		}
		overwrite = &v
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.commits = append(s.commits, CommitCall{Owner: owner, TempIDs: append([]string(nil), tempIDs...), Overwrite: overwrite})

	for _, id := range tempIDs {
		if _, ok := s.staged[id]; !ok {
			abortWithError(ctx, http.StatusBadRequest, codeInvalidRequest, fmt.Sprintf("unknown temp id %s", id))
			return
		}
	}

	result := make([]totalsdk.CommittedFile, 0, len(tempIDs))
	for _, id := range tempIDs {
		entry := s.staged[id]
		delete(s.staged, id)

		if overwrite != nil && *overwrite {
			s.removeByNameLocked(owner, entry.file.Filename)
		}
		result = append(result, s.storeLocked(owner, entry.file, entry.content))
	}

	ctx.PureJSON(http.StatusOK, result)
}

func (s *Server) listFiles(ctx *gin.Context) {
	owner, ok := bindOwner(ctx)
	if !ok {
		return
	}

	s.mu.Lock()
	files := s.listLocked(owner)
	s.mu.Unlock()

	if files == nil {
		files = []totalsdk.CommittedFile{}
	}
	ctx.PureJSON(http.StatusOK, files)
}

func (s *Server) downloadFile(ctx *gin.Context) {
	s.mu.Lock()
	f := s.findLocked(ctx.Param("id"))
	s.mu.Unlock()

	if f == nil {
		abortWithError(ctx, http.StatusNotFound, codeNotFound, "Fisierul nu a fost gasit")
		return
	}

	ctx.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", f.file.Filename))
	ctx.Data(http.StatusOK, f.file.ContentType, f.content)
}

func (s *Server) downloadZip(ctx *gin.Context) {
	var body totalsdk.DownloadZipRequest
	if err := ctx.ShouldBindJSON(&body); err != nil || len(body.FileIDs) == 0 {
		abortWithError(ctx, http.StatusBadRequest, codeInvalidRequest, "fileIds required")
		return
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	s.mu.Lock()
	for _, id := range body.FileIDs {
		f := s.findLocked(id)
		if f == nil {
			s.mu.Unlock()
			abortWithError(ctx, http.StatusNotFound, codeNotFound, fmt.Sprintf("file %s not found", id))
			return
		}
		w, err := zw.Create(f.file.Filename)
		if err == nil {
			_, err = w.Write(f.content)
		}
		if err != nil {
			s.mu.Unlock()
			abortWithError(ctx, http.StatusInternalServerError, codeInvalidRequest, err.Error())
			return
		}
	}
	s.mu.Unlock()

	if err := zw.Close(); err != nil {
		abortWithError(ctx, http.StatusInternalServerError, codeInvalidRequest, err.Error())
		return
	}

	ctx.Data(http.StatusOK, "application/zip", buf.Bytes())
}

func (s *Server) storeLocked(owner totalsdk.Owner, file totalsdk.StagedFile, content []byte) totalsdk.CommittedFile {
	s.nextFileID++
	now := time.Now().UTC()
	sum := sha256.Sum256(content)

	id := fmt.Sprintf("file-%04d", s.nextFileID)
	committed := totalsdk.CommittedFile{
		ID:          id,
		OwnerType:   owner.Type,
		OwnerID:     owner.ID,
		Filename:    file.Filename,
		ContentType: file.ContentType,
		SizeBytes:   int64(len(content)),
		Checksum:    hex.EncodeToString(sum[:]),
		DownloadURL: s.URL + "/files/" + id,
		ModifiedAt:  file.ModifiedAt,
		UploadedAt:  &now,
	}
	s.committed = append(s.committed, &stored{file: committed, content: content})
	return committed
}

func (s *Server) removeByNameLocked(owner totalsdk.Owner, filename string) {
	kept := s.committed[:0]
	for _, f := range s.committed {
		sameOwner := f.file.OwnerType == owner.Type && f.file.OwnerID == owner.ID
		if sameOwner && strings.EqualFold(f.file.Filename, filename) {
			continue
		}
		kept = append(kept, f)
	}
	s.committed = kept
}

func (s *Server) findLocked(id string) *stored {
	for _, f := range s.committed {
		if f.file.ID == id {
			return f
		}
	}
	return nil
}

func bindOwner(ctx *gin.Context) (totalsdk.Owner, bool) {
	ownerType, err := totalsdk.ParseOwnerType(ctx.Query("ownerType"))
	if err != nil {
		abortWithError(ctx, http.StatusBadRequest, codeInvalidRequest, err.Error())
		return totalsdk.Owner{}, false
	}

	ownerID, err := strconv.ParseInt(ctx.Query("ownerId"), 10, 64)
	if err != nil || ownerID <= 0 {
		abortWithError(ctx, http.StatusBadRequest, codeInvalidRequest, "ownerId must be a positive integer")
		return totalsdk.Owner{}, false
	}

	return totalsdk.Owner{Type: ownerType, ID: ownerID}, true
}
