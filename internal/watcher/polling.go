package watcher

import (
	"context"
	"os"
	"sync"
	"time"
)

// PollingWatcher watches one file by periodically stating it.
// Used as a fallback when fsnotify is not available or fails.
type PollingWatcher struct {
	interval time.Duration
	path     string
	last     fileSnapshot
	events   chan FileEvent
	stopCh   chan struct{}
	mu       sync.Mutex
	stopped  bool
}

type fileSnapshot struct {
	exists  bool
	modTime time.Time
	size    int64
}

// NewPollingWatcher creates a polling watcher for path.
func NewPollingWatcher(path string, interval time.Duration) *PollingWatcher {
	return &PollingWatcher{
		interval: interval,
		path:     path,
		events:   make(chan FileEvent, 10),
		stopCh:   make(chan struct{}),
	}
}

// Start polls until ctx is done or Stop is called. The file's state at
// start is the baseline and produces no event.
func (p *PollingWatcher) Start(ctx context.Context) error {
	p.last = snapshot(p.path)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = p.Stop()
			return ctx.Err()
		case <-p.stopCh:
			return nil
		case <-ticker.C:
			p.detectChange()
		}
	}
}

func snapshot(path string) fileSnapshot {
	info, err := os.Stat(path)
	if err != nil {
		return fileSnapshot{}
	}
	return fileSnapshot{exists: true, modTime: info.ModTime(), size: info.Size()}
}

func (p *PollingWatcher) detectChange() {
	current := snapshot(p.path)
	prev := p.last
	p.last = current

	var op Operation
	switch {
	case !prev.exists && current.exists:
		op = OpCreate
	case prev.exists && !current.exists:
		op = OpDelete
	case current.exists && (!current.modTime.Equal(prev.modTime) || current.size != prev.size):
		op = OpModify
	default:
		return
	}

	p.emitEvent(FileEvent{Path: p.path, Operation: op, Timestamp: time.Now()})
}

// Stop stops the polling watcher.
func (p *PollingWatcher) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return nil
	}

	p.stopped = true
	close(p.stopCh)
	close(p.events)
	return nil
}

// Events returns the channel of file events.
func (p *PollingWatcher) Events() <-chan FileEvent {
	return p.events
}

func (p *PollingWatcher) emitEvent(event FileEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return
	}

	select {
	case p.events <- event:
	default:
	}
}
