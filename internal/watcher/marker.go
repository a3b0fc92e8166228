package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// MarkerWatcher reports debounced changes to a single file. It watches the
// file's parent directory with fsnotify, so replacing the file by rename is
// seen too, and falls back to polling when fsnotify cannot be used.
type MarkerWatcher struct {
	path        string
	fsWatcher   *fsnotify.Watcher
	pollWatcher *PollingWatcher
	debouncer   *Debouncer
	events      chan []FileEvent
	errors      chan error
	stopCh      chan struct{}
	opts        Options
	mu          sync.RWMutex
	stopped     bool
}

// NewMarkerWatcher creates a watcher for the file at path.
func NewMarkerWatcher(path string, opts Options) (*MarkerWatcher, error) {
	opts = opts.WithDefaults()

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve absolute path: %w", err)
	}

	w := &MarkerWatcher{
		path:      absPath,
		debouncer: NewDebouncer(opts.Debounce),
		events:    make(chan []FileEvent, 10),
		errors:    make(chan error, 10),
		stopCh:    make(chan struct{}),
		opts:      opts,
	}

	if !opts.ForcePolling {
		fsw, err := fsnotify.NewWatcher()
		if err == nil {
			if err := fsw.Add(filepath.Dir(absPath)); err == nil {
				w.fsWatcher = fsw
			} else {
				_ = fsw.Close()
				slog.Warn("fsnotify unavailable, polling instead",
					slog.String("dir", filepath.Dir(absPath)),
					slog.String("error", err.Error()))
			}
		}
	}
	if w.fsWatcher == nil {
		w.pollWatcher = NewPollingWatcher(absPath, opts.PollInterval)
	}

	return w, nil
}

// Start watches until ctx is done or Stop is called.
func (w *MarkerWatcher) Start(ctx context.Context) error {
	go w.forwardDebouncedEvents(ctx)

	if w.fsWatcher != nil {
		return w.startFsnotify(ctx)
	}
	return w.startPolling(ctx)
}

func (w *MarkerWatcher) startFsnotify(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			_ = w.Stop()
			return ctx.Err()
		case <-w.stopCh:
			return nil
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleFsnotifyEvent(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.emitError(err)
		}
	}
}

func (w *MarkerWatcher) startPolling(ctx context.Context) error {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-w.stopCh:
				return
			case event, ok := <-w.pollWatcher.Events():
				if !ok {
					return
				}
				w.debouncer.Add(event)
			}
		}
	}()

	return w.pollWatcher.Start(ctx)
}

// handleFsnotifyEvent converts events for the marker and ignores the rest
// of the directory.
func (w *MarkerWatcher) handleFsnotifyEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}

	var op Operation
	switch {
	case event.Op&fsnotify.Create != 0:
		op = OpCreate
	case event.Op&fsnotify.Write != 0:
		op = OpModify
	case event.Op&fsnotify.Remove != 0:
		op = OpDelete
	case event.Op&fsnotify.Rename != 0:
		op = OpRename
	case event.Op&fsnotify.Chmod != 0:
		// Attribute changes include a touched modification time, which is
		// what cache freshness compares.
		op = OpModify
	default:
		return
	}

	w.debouncer.Add(FileEvent{
		Path:      w.path,
		Operation: op,
		Timestamp: time.Now(),
	})
}

func (w *MarkerWatcher) forwardDebouncedEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case events, ok := <-w.debouncer.Output():
			if !ok {
				return
			}
			w.emitEvents(events)
		}
	}
}

func (w *MarkerWatcher) emitEvents(events []FileEvent) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.stopped {
		return
	}

	select {
	case w.events <- events:
	default:
		slog.Warn("event buffer full, dropping batch",
			slog.Int("batch_size", len(events)))
	}
}

func (w *MarkerWatcher) emitError(err error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.stopped {
		return
	}

	select {
	case w.errors <- err:
	default:
	}
}

// Stop stops the watcher and releases resources.
func (w *MarkerWatcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return nil
	}

	w.stopped = true
	close(w.stopCh)
	w.debouncer.Stop()

	if w.fsWatcher != nil {
		_ = w.fsWatcher.Close()
	}
	if w.pollWatcher != nil {
		_ = w.pollWatcher.Stop()
	}

	close(w.events)
	close(w.errors)
	return nil
}

// Events returns the channel of debounced event batches.
func (w *MarkerWatcher) Events() <-chan []FileEvent {
	return w.events
}

// Errors returns the channel of non-fatal watcher errors.
func (w *MarkerWatcher) Errors() <-chan error {
	return w.errors
}

// WatcherType returns "fsnotify" or "polling".
func (w *MarkerWatcher) WatcherType() string {
	if w.fsWatcher != nil {
		return "fsnotify"
	}
	return "polling"
}

// Path returns the watched file.
func (w *MarkerWatcher) Path() string {
	return w.path
}
