// Package watch rescans the features tree when it changes on disk.
// Intended for long-lived development processes; production deployments
// scan once at startup.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceInterval coalesces bursts of filesystem events (editors often
// write several) into a single rescan.
const debounceInterval = 250 * time.Millisecond

// Watcher monitors a features directory and invokes a callback after
// changes settle. Safe for a single Start call; run Start in its own
// goroutine.
type Watcher struct {
	dir      string
	watcher  *fsnotify.Watcher
	onChange func()
	logger   *slog.Logger
}

// New creates a Watcher over dir. onChange runs after each debounced
// change burst; it should rescan and reset the convention cache.
func New(dir string, onChange func(), logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		dir:      dir,
		watcher:  fsw,
		onChange: onChange,
		logger:   logger,
	}, nil
}

// Start watches the tree until ctx is cancelled. Directories created
// while watching are added to the watch set so new features are picked
// up too.
func (w *Watcher) Start(ctx context.Context) {
	defer func() {
		if err := w.watcher.Close(); err != nil {
			w.logger.Warn("failed to close features watcher", "error", err)
		}
	}()

	if err := w.addRecursive(w.dir); err != nil {
		w.logger.Error("failed to watch features tree", "dir", w.dir, "error", err)
		return
	}
	w.logger.Info("watching features tree", "dir", w.dir)

	var timer *time.Timer
	var pending <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addRecursive(event.Name); err != nil {
						w.logger.Warn("failed to watch new directory",
							"dir", event.Name, "error", err)
					}
				}
			}
			w.logger.Debug("features tree changed", "file", event.Name, "op", event.Op)
			if timer == nil {
				timer = time.NewTimer(debounceInterval)
			} else {
				timer.Reset(debounceInterval)
			}
			pending = timer.C

		case <-pending:
			pending = nil
			w.onChange()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("features watcher error", "error", err)
		}
	}
}

// addRecursive registers dir and every subdirectory with the watcher.
func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.watcher.Add(p)
		}
		return nil
	})
}
