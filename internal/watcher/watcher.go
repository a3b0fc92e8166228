package watcher

import (
	"context"
	"time"

	"github.com/Aman-CERP/panamax-search/internal/index"
)

// Operation represents a file system operation type.
type Operation int

const (
	// OpCreate indicates the file was created.
	OpCreate Operation = iota
	// OpModify indicates the file's content or modification time changed.
	OpModify
	// OpDelete indicates the file was deleted.
	OpDelete
	// OpRename indicates the file was renamed away.
	OpRename
)

// String returns a human-readable representation of the operation.
func (op Operation) String() string {
	switch op {
	case OpCreate:
		return "CREATE"
	case OpModify:
		return "MODIFY"
	case OpDelete:
		return "DELETE"
	case OpRename:
		return "RENAME"
	default:
		return "UNKNOWN"
	}
}

// FileEvent represents a file system event.
type FileEvent struct {
	// Path is the absolute path of the file.
	Path string

	// Operation is the type of file system operation.
	Operation Operation

	// Timestamp is when the event was detected.
	Timestamp time.Time
}

// Store is the part of index.Store the watcher drives.
type Store interface {
	MarkerPath() string
	CacheFresh() bool
	Update(ctx context.Context) (*index.Index, error)
}

var _ Store = (*index.Store)(nil)

// Options configures the watcher behavior.
type Options struct {
	// Debounce is the quiet period after the last event before rebuilding.
	// Default: 2s
	Debounce time.Duration

	// PollInterval is the interval for polling mode (fallback).
	// Default: 5s
	PollInterval time.Duration

	// ForcePolling skips fsnotify, for file systems that do not deliver
	// events (network mounts, some container volumes).
	ForcePolling bool

	// SkipInitialUpdate disables the rebuild at start when the cache is
	// not fresh.
	SkipInitialUpdate bool
}

// DefaultOptions returns the default watcher options.
func DefaultOptions() Options {
	return Options{
		Debounce:     2 * time.Second,
		PollInterval: 5 * time.Second,
	}
}

// WithDefaults returns options with defaults applied for zero values.
func (o Options) WithDefaults() Options {
	defaults := DefaultOptions()
	if o.Debounce <= 0 {
		o.Debounce = defaults.Debounce
	}
	if o.PollInterval <= 0 {
		o.PollInterval = defaults.PollInterval
	}
	return o
}
