package totalsdk_test

import (
	"archive/zip"
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/totalapp/tenantfiles/internal/totalsdk"
	"github.com/totalapp/tenantfiles/internal/totalsdk/sdktest"
)

var tenant42 = totalsdk.Owner{Type: totalsdk.OwnerTenant, ID: 42}

func writeFile(t *testing.T, dir, name, content string, mtime time.Time) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	if !mtime.IsZero() {
		require.NoError(t, os.Chtimes(p, mtime, mtime))
	}
	return p
}

func TestFiles_UploadTempAndCommit(t *testing.T) {
	srv := sdktest.New(t)
	client := srv.Client(t)
	ctx := context.Background()
	dir := t.TempDir()

	mtime := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	a := writeFile(t, dir, "contract.pdf", "%PDF-1.4 contract", mtime)
	b := writeFile(t, dir, "notes.txt", "hello", time.Time{})

	staged, err := client.Files.UploadTemp(ctx, &totalsdk.UploadTempRequest{
		Files:   []totalsdk.LocalFile{{Path: a}, {Path: b}},
		BatchID: "batch-1",
	})
	require.NoError(t, err)
	require.Len(t, staged, 2)

	assert.Equal(t, "contract.pdf", staged[0].Filename)
	assert.Equal(t, "batch-1", staged[0].BatchID)
	assert.Equal(t, int64(len("%PDF-1.4 contract")), staged[0].SizeBytes)
	assert.Equal(t, "application/pdf", staged[0].ContentType)
	require.NotNil(t, staged[0].ModifiedAt)
	assert.True(t, mtime.Equal(*staged[0].ModifiedAt))
	assert.Equal(t, 2, srv.StagedCount())

	committed, err := client.Files.Commit(ctx, &totalsdk.CommitRequest{
		Owner:   tenant42,
		TempIDs: []string{staged[0].TempID, staged[1].TempID},
	})
	require.NoError(t, err)
	require.Len(t, committed, 2)
	assert.Equal(t, totalsdk.OwnerTenant, committed[0].OwnerType)
	assert.Equal(t, int64(42), committed[0].OwnerID)
	assert.NotEmpty(t, committed[0].Checksum)
	assert.Equal(t, 0, srv.StagedCount())

	calls := srv.Commits()
	require.Len(t, calls, 1)
	assert.Nil(t, calls[0].Overwrite, "overwrite is omitted when unset")

	listed, err := client.Files.List(ctx, tenant42)
	require.NoError(t, err)
	assert.Len(t, listed, 2)
}

func TestFiles_CommitOverwriteFlag(t *testing.T) {
	srv := sdktest.New(t)
	client := srv.Client(t)
	ctx := context.Background()

	srv.SeedCommitted(tenant42, "Invoice.PDF", []byte("old"))
	p := writeFile(t, t.TempDir(), "invoice.pdf", "new", time.Time{})

	staged, err := client.Files.UploadTemp(ctx, &totalsdk.UploadTempRequest{Files: []totalsdk.LocalFile{{Path: p}}})
	require.NoError(t, err)

	_, err = client.Files.Commit(ctx, &totalsdk.CommitRequest{
		Owner:     tenant42,
		TempIDs:   []string{staged[0].TempID},
		Overwrite: totalsdk.Bool(true),
	})
	require.NoError(t, err)

	calls := srv.Commits()
	require.Len(t, calls, 1)
	require.NotNil(t, calls[0].Overwrite)
	assert.True(t, *calls[0].Overwrite)

	files := srv.Committed(tenant42)
	require.Len(t, files, 1)
	assert.Equal(t, "invoice.pdf", files[0].Filename)
}

func TestFiles_Validation(t *testing.T) {
	srv := sdktest.New(t)
	client := srv.Client(t)
	ctx := context.Background()

	_, err := client.Files.UploadTemp(ctx, &totalsdk.UploadTempRequest{})
	assert.ErrorIs(t, err, totalsdk.ErrNoFiles)

	_, err = client.Files.Commit(ctx, &totalsdk.CommitRequest{Owner: tenant42})
	assert.ErrorIs(t, err, totalsdk.ErrNoTempIDs)

	_, err = client.Files.List(ctx, totalsdk.Owner{Type: "NOPE", ID: 1})
	assert.ErrorIs(t, err, totalsdk.ErrInvalidOwnerType)

	_, err = client.Files.UploadTemp(ctx, &totalsdk.UploadTempRequest{
		Files: []totalsdk.LocalFile{{Path: filepath.Join(t.TempDir(), "missing.pdf")}},
	})
	assert.Error(t, err)
	assert.Equal(t, 0, srv.Calls(http.MethodPost, "/files/temp"), "nothing is sent when a file cannot be read")
}

func TestFiles_ServerErrorMessage(t *testing.T) {
	srv := sdktest.New(t)
	client := srv.Client(t)

	srv.Fail(http.MethodPost, "/files/temp", http.StatusInternalServerError, "Spatiu de stocare epuizat", nil)
	p := writeFile(t, t.TempDir(), "a.txt", "a", time.Time{})

	_, err := client.Files.UploadTemp(context.Background(), &totalsdk.UploadTempRequest{Files: []totalsdk.LocalFile{{Path: p}}})
	require.Error(t, err)

	var apiErr *totalsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "Spatiu de stocare epuizat", totalsdk.UserMessage(err, "error staging files"))
	assert.Equal(t, 1, srv.Calls(http.MethodPost, "/files/temp"), "no automatic retry")
}

func TestFiles_Download(t *testing.T) {
	srv := sdktest.New(t)
	client := srv.Client(t)
	ctx := context.Background()
	dir := t.TempDir()

	a := srv.SeedCommitted(tenant42, "a.txt", []byte("alpha"))
	b := srv.SeedCommitted(tenant42, "b.txt", []byte("beta"))

	dest := filepath.Join(dir, "out", "a.txt")
	require.NoError(t, client.Files.Download(ctx, a.ID, dest))
	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "alpha", string(got))
	assert.NoFileExists(t, dest+".part")

	zipPath := filepath.Join(dir, "files.zip")
	require.NoError(t, client.Files.DownloadZip(ctx, []string{a.ID, b.ID}, zipPath))

	zr, err := zip.OpenReader(zipPath)
	require.NoError(t, err)
	defer zr.Close()
	require.Len(t, zr.File, 2)
	assert.Equal(t, "a.txt", zr.File[0].Name)
	assert.Equal(t, "b.txt", zr.File[1].Name)

	missing := filepath.Join(dir, "missing.bin")
	err = client.Files.Download(ctx, "file-9999", missing)
	var apiErr *totalsdk.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsNotFound())
	assert.NoFileExists(t, missing)
}
