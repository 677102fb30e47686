package staging

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/totalapp/tenantfiles/internal/totalsdk"
	"github.com/totalapp/tenantfiles/internal/totalsdk/sdktest"
)

func writeLocal(t *testing.T, dir, name, content string) totalsdk.LocalFile {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return totalsdk.LocalFile{Path: p}
}

func TestSession_AgainstAPI(t *testing.T) {
	srv := sdktest.New(t)
	client := srv.Client(t)
	ctx := context.Background()
	dir := t.TempDir()

	tenant := totalsdk.Owner{Type: totalsdk.OwnerTenant, ID: 42}
	srv.SeedCommitted(tenant, "Invoice.PDF", []byte("old invoice"))

	s, err := Begin(ctx, client.Files, tenant)
	require.NoError(t, err)
	require.NoError(t, s.LoadFiles(ctx))

	_, err = s.Upload(ctx, []totalsdk.LocalFile{
		writeLocal(t, dir, "invoice.pdf", "%PDF-1.7 new invoice"),
		writeLocal(t, dir, "lease.pdf", "%PDF-1.7 lease"),
	})
	require.NoError(t, err)

	res, err := s.Commit(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"lease.pdf"}, committedNames(res.Committed))
	require.NotNil(t, res.Resolution)

	t1 := res.Resolution.Candidates()[0].Staged.TempID
	res.Resolution.Toggle(t1)

	_, err = s.ConfirmResolution(ctx)
	require.NoError(t, err)

	assert.Empty(t, s.Staged())
	assert.ElementsMatch(t, []string{"Invoice.PDF", "lease.pdf", "invoice.pdf"}, committedNames(s.Committed()))
	assert.ElementsMatch(t, committedNames(srv.Committed(tenant)), committedNames(s.Committed()))

	calls := srv.Commits()
	require.Len(t, calls, 2)
	assert.False(t, *calls[0].Overwrite)
	assert.Equal(t, []string{t1}, calls[1].TempIDs)
	assert.False(t, *calls[1].Overwrite)
}

func TestSession_AgainstAPI_PartialFailure(t *testing.T) {
	srv := sdktest.New(t)
	client := srv.Client(t)
	ctx := context.Background()
	dir := t.TempDir()

	tenant := totalsdk.Owner{Type: totalsdk.OwnerTenant, ID: 7}
	srv.SeedCommitted(tenant, "a.txt", []byte("a"))
	srv.SeedCommitted(tenant, "b.txt", []byte("b"))

	s, err := Begin(ctx, client.Files, tenant)
	require.NoError(t, err)
	require.NoError(t, s.LoadFiles(ctx))

	up, err := s.Upload(ctx, []totalsdk.LocalFile{writeLocal(t, dir, "a.txt", "a2"), writeLocal(t, dir, "b.txt", "b2")})
	require.NoError(t, err)

	res, err := s.Commit(ctx)
	require.NoError(t, err)
	res.Resolution.Toggle(up[1].TempID)

	srv.Fail(http.MethodPost, "/files/commit", http.StatusConflict, "Versiune blocata", func(r *http.Request) bool {
		return r.URL.Query().Get("overwrite") == "false"
	})

	_, err = s.ConfirmResolution(ctx)
	var partial *PartialCommitError
	require.ErrorAs(t, err, &partial)
	assert.Error(t, partial.KeepBothErr)
	assert.NoError(t, partial.OverwriteErr)

	assert.Equal(t, []string{up[1].TempID}, tempIDs(s.Staged()))
	assert.Equal(t, "Versiune blocata", s.Err())
	assert.ElementsMatch(t, []string{"a.txt", "b.txt"}, committedNames(s.Committed()))

	// retry once the server recovers
	srv.ClearFailures()
	res, err = s.Commit(ctx)
	require.NoError(t, err)
	require.NotNil(t, res.Resolution)
	res.Resolution.SetAll(false)
	_, err = s.ConfirmResolution(ctx)
	require.NoError(t, err)
	assert.Empty(t, s.Staged())
	assert.Len(t, s.Committed(), 3)
}
