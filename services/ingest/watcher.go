package ingest

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DebounceWindow is how long DocWatcher waits after the last filesystem
// event before triggering a re-ingestion run.
const DebounceWindow = 2 * time.Second

// DocWatcher watches a doc root for changes and triggers a debounced
// callback — typically Pipeline.Run — so operators don't have to remember
// to call /api/ingest after editing documentation. It's additive
// convenience on top of the explicit endpoint, not a replacement for it.
type DocWatcher struct {
	root     string
	watcher  *fsnotify.Watcher
	onChange func()

	stopOnce sync.Once
	done     chan struct{}
}

// NewDocWatcher constructs a watcher rooted at root. onChange is invoked
// after the debounce window following the last detected change; it is
// called from a background goroutine and must not block indefinitely.
func NewDocWatcher(root string, onChange func()) (*DocWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// fsnotify watches are not recursive, so every directory under root
	// (the category folders included) is added on its own.
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
	if err != nil {
		w.Close()
		return nil, err
	}
	return &DocWatcher{
		root:     root,
		watcher:  w,
		onChange: onChange,
		done:     make(chan struct{}),
	}, nil
}

// Start begins watching in the background. Call Stop to release the
// underlying OS watch handles.
func (w *DocWatcher) Start(ctx context.Context) {
	go w.loop(ctx)
}

// Stop releases the watcher. Safe to call multiple times.
func (w *DocWatcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		w.watcher.Close()
	})
}

func (w *DocWatcher) loop(ctx context.Context) {
	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Ext(event.Name) != ".md" && filepath.Ext(event.Name) != ".txt" {
				continue
			}
			slog.Debug("ingest: doc root change detected", "path", event.Name, "op", event.Op.String())
			if timer == nil {
				timer = time.NewTimer(DebounceWindow)
				timerC = timer.C
			} else {
				timer.Reset(DebounceWindow)
			}
		case <-timerC:
			timer = nil
			timerC = nil
			if w.onChange != nil {
				w.onChange()
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("ingest: watcher error", "error", err)
		}
	}
}
