package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// RotatingWriter appends log records to a file and shifts it to
// path.1 .. path.N once it would grow past a size limit. Every record is
// synced so `panamax-search logs -f` sees it immediately.
type RotatingWriter struct {
	path     string
	maxBytes int64
	keep     int

	mu      sync.Mutex
	file    *os.File
	written int64
}

// NewRotatingWriter opens path for appending, creating its directory.
// keep is the number of rotated files retained next to path.
func NewRotatingWriter(path string, maxBytes int64, keep int) (*RotatingWriter, error) {
	if maxBytes <= 0 || keep < 1 {
		return nil, fmt.Errorf("invalid log rotation: max %d bytes, keep %d", maxBytes, keep)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	w := &RotatingWriter{path: path, maxBytes: maxBytes, keep: keep}
	if err := w.open(); err != nil {
		return nil, err
	}
	return w, nil
}

// Write appends p, rotating first when p would overflow a non-empty file.
// A failed rotation is reported on stderr and the current file keeps growing.
func (w *RotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return 0, os.ErrClosed
	}
	if w.written > 0 && w.written+int64(len(p)) > w.maxBytes {
		if err := w.rotate(); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "log rotation failed: %v\n", err)
			if w.file == nil {
				return 0, err
			}
		}
	}

	n, err := w.file.Write(p)
	w.written += int64(n)
	if err != nil {
		return n, err
	}
	return n, w.file.Sync()
}

// Close closes the current file. Writes after Close fail.
func (w *RotatingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}

// RotatedPath is the name of the n-th rotated file, 1 being the newest.
func RotatedPath(path string, n int) string {
	return fmt.Sprintf("%s.%d", path, n)
}

func (w *RotatingWriter) open() error {
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to stat log file: %w", err)
	}
	w.file = f
	w.written = info.Size()
	return nil
}

// rotate drops the oldest file and shifts the rest up by one, so path
// becomes path.1. Readers following path see a new file appear.
func (w *RotatingWriter) rotate() error {
	if err := w.file.Close(); err != nil {
		w.file = nil
		return w.reopen(fmt.Errorf("failed to close log file: %w", err))
	}
	w.file = nil

	_ = os.Remove(RotatedPath(w.path, w.keep))
	for n := w.keep - 1; n >= 1; n-- {
		_ = os.Rename(RotatedPath(w.path, n), RotatedPath(w.path, n+1))
	}
	if err := os.Rename(w.path, RotatedPath(w.path, 1)); err != nil && !os.IsNotExist(err) {
		return w.reopen(fmt.Errorf("failed to rotate log file: %w", err))
	}
	return w.open()
}

// reopen keeps logging to path after a failed rotation.
func (w *RotatingWriter) reopen(cause error) error {
	if err := w.open(); err != nil {
		return fmt.Errorf("%w; %w", cause, err)
	}
	return cause
}
