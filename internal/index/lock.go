package index

import (
	"fmt"

	"github.com/gofrs/flock"
)

// cacheLock serializes cache writers across processes, for example a
// `watch` process and a concurrent `panamax-search -U`.
// The lock file lives next to the cache at <cache>.lock.
type cacheLock struct {
	flock  *flock.Flock
	locked bool
}

func newCacheLock(cachePath string) *cacheLock {
	return &cacheLock{flock: flock.New(cachePath + ".lock")}
}

// Lock blocks until the lock is held.
func (l *cacheLock) Lock() error {
	if err := l.flock.Lock(); err != nil {
		return fmt.Errorf("failed to acquire cache lock: %w", err)
	}
	l.locked = true
	return nil
}

// Unlock releases the lock. Calling it on an unlocked cacheLock is a no-op.
func (l *cacheLock) Unlock() error {
	if !l.locked {
		return nil
	}
	l.locked = false
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release cache lock: %w", err)
	}
	return nil
}

// Path returns the lock file path.
func (l *cacheLock) Path() string {
	return l.flock.Path()
}
