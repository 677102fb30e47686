// Package dropzone watches a directory and hands new or changed files to a
// callback in batches, once writes to them have settled.
package dropzone

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rjeczalik/notify"
	"github.com/totalapp/tenantfiles/internal/utils"
)

const (
	DefaultQuietPeriod = 500 * time.Millisecond
	eventBufferSize    = 64
	seenCacheSize      = 4096
	seenCacheTTL       = 30 * time.Minute
)

var ErrNotDirectory = errors.New("dropzone: not a directory")

// Handler receives absolute paths of settled files
type Handler func(ctx context.Context, paths []string) error

// fileStamp identifies one version of a file
type fileStamp struct {
	size    int64
	modTime int64
}

type Option func(*Watcher)

// WithQuietPeriod sets how long the directory must be quiet before a batch is handed over
func WithQuietPeriod(d time.Duration) Option {
	return func(w *Watcher) {
		w.quiet = d
	}
}

type Watcher struct {
	dir    string
	quiet  time.Duration
	ignore *IgnoreList
	// files already handed over, so repeated events for an unchanged file are dropped
	seen *expirable.LRU[string, fileStamp]
}

func New(dir string, opts ...Option) (*Watcher, error) {
	abs, err := utils.ResolvePath(dir)
	if err != nil {
		return nil, err
	}
	// notify reports resolved paths
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	if !utils.DirExists(abs) {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, abs)
	}

	w := &Watcher{
		dir:    abs,
		quiet:  DefaultQuietPeriod,
		ignore: NewIgnoreList(abs),
		seen:   expirable.NewLRU[string, fileStamp](seenCacheSize, nil, seenCacheTTL),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.ignore.Load()
	return w, nil
}

func (w *Watcher) Dir() string {
	return w.dir
}

// Existing lists files already in the directory that are not ignored, and
// marks them seen.
func (w *Watcher) Existing() ([]string, error) {
	var paths []string
	err := filepath.WalkDir(w.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == w.dir {
			return nil
		}
		rel, _ := filepath.Rel(w.dir, path)
		if w.ignore.ShouldIgnore(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("dropzone: scan %s: %w", w.dir, err)
	}
	return w.settle(paths), nil
}

// Run watches until ctx is done. Handler errors are logged and do not stop
// the watch; files in a failed batch are handed over again on their next change.
func (w *Watcher) Run(ctx context.Context, handle Handler) error {
	raw := make(chan notify.EventInfo, eventBufferSize)
	if err := notify.Watch(filepath.Join(w.dir, "..."), raw, notify.Create, notify.Write, notify.Rename); err != nil {
		return fmt.Errorf("dropzone: watch %s: %w", w.dir, err)
	}
	defer notify.Stop(raw)

	slog.Info("dropzone watching", "dir", w.dir, "ignoreRules", w.ignore.Rules())

	pending := make(map[string]struct{})
	timer := time.NewTimer(w.quiet)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event := <-raw:
			path := event.Path()
			if filepath.Base(path) == IgnoreFile {
				w.ignore.Load()
				continue
			}
			if !w.accept(path) {
				continue
			}
			pending[path] = struct{}{}
			// bursts of writes keep pushing the batch out until they stop
			timer.Reset(w.quiet)

		case <-timer.C:
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			pending = make(map[string]struct{})

			batch := w.settle(paths)
			if len(batch) == 0 {
				continue
			}
			slog.Debug("dropzone batch", "count", len(batch))
			if err := handle(ctx, batch); err != nil {
				slog.Warn("dropzone handler failed", "count", len(batch), "error", err)
				for _, p := range batch {
					w.seen.Remove(p)
				}
			}
		}
	}
}

func (w *Watcher) accept(path string) bool {
	rel, err := filepath.Rel(w.dir, path)
	if err != nil || rel == "." {
		return false
	}
	return !w.ignore.ShouldIgnore(rel)
}

// settle keeps regular files whose current stamp has not been handed over yet
func (w *Watcher) settle(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		stamp := fileStamp{size: info.Size(), modTime: info.ModTime().UnixNano()}
		if prev, ok := w.seen.Get(p); ok && prev == stamp {
			continue
		}
		w.seen.Add(p, stamp)
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
