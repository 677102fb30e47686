package dropzone

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

type batches struct {
	mu  sync.Mutex
	all [][]string
	err error
}

func (b *batches) handle(_ context.Context, paths []string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.all = append(b.all, paths)
	return b.err
}

func (b *batches) names() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []string
	for _, batch := range b.all {
		for _, p := range batch {
			out = append(out, filepath.Base(p))
		}
	}
	return out
}

func TestNew_NotDirectory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file.txt")
	writeFile(t, file, "x")

	_, err := New(file)
	assert.ErrorIs(t, err, ErrNotDirectory)
}

func TestWatcher_Existing(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.pdf"), "a")
	writeFile(t, filepath.Join(dir, "nested", "b.pdf"), "b")
	writeFile(t, filepath.Join(dir, "c.pdf.part"), "partial")
	writeFile(t, filepath.Join(dir, ".git", "HEAD"), "ref")

	w, err := New(dir)
	require.NoError(t, err)

	paths, err := w.Existing()
	require.NoError(t, err)
	require.Len(t, paths, 2)
	assert.Equal(t, "a.pdf", filepath.Base(paths[0]))
	assert.Equal(t, "b.pdf", filepath.Base(paths[1]))

	// already seen
	paths, err = w.Existing()
	require.NoError(t, err)
	assert.Empty(t, paths)
}

func TestWatcher_SettleSkipsUnchanged(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.pdf")
	writeFile(t, path, "one")

	w, err := New(dir)
	require.NoError(t, err)

	assert.Len(t, w.settle([]string{path}), 1)
	assert.Empty(t, w.settle([]string{path}))

	writeFile(t, path, "changed content")
	assert.Len(t, w.settle([]string{path}), 1)

	assert.Empty(t, w.settle([]string{filepath.Join(dir, "missing.pdf")}))
	assert.Empty(t, w.settle([]string{dir}))
}

func TestWatcher_RunBatchesNewFiles(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir, WithQuietPeriod(100*time.Millisecond))
	require.NoError(t, err)

	got := &batches{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, got.handle) }()

	// give the watch time to register
	time.Sleep(200 * time.Millisecond)

	writeFile(t, filepath.Join(w.Dir(), "invoice.pdf"), "pdf")
	writeFile(t, filepath.Join(w.Dir(), "photo.jpg"), "jpg")
	writeFile(t, filepath.Join(w.Dir(), "download.crdownload"), "partial")

	assert.Eventually(t, func() bool {
		return len(got.names()) == 2
	}, 5*time.Second, 50*time.Millisecond)
	assert.ElementsMatch(t, []string{"invoice.pdf", "photo.jpg"}, got.names())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatcher_RunRetriesAfterHandlerError(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir, WithQuietPeriod(100*time.Millisecond))
	require.NoError(t, err)

	got := &batches{err: errors.New("server down")}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx, got.handle) }()
	time.Sleep(200 * time.Millisecond)

	path := filepath.Join(w.Dir(), "invoice.pdf")
	writeFile(t, path, "pdf")
	assert.Eventually(t, func() bool { return len(got.names()) >= 1 }, 5*time.Second, 50*time.Millisecond)

	// the failed file is not remembered as seen
	assert.Eventually(t, func() bool {
		_, ok := w.seen.Get(path)
		return !ok
	}, 2*time.Second, 20*time.Millisecond)
}
