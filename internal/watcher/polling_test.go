package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nextPollEvent(t *testing.T, w *PollingWatcher) FileEvent {
	t.Helper()
	select {
	case event := <-w.Events():
		return event
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for poll event")
		return FileEvent{}
	}
}

func TestPollingWatcher_DetectsLifecycle(t *testing.T) {
	// Given: a polling watcher on a file that does not exist yet
	path := filepath.Join(t.TempDir(), "config.json")
	w := NewPollingWatcher(path, 20*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Start(ctx) }()
	time.Sleep(50 * time.Millisecond)

	// When: the file is created
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))

	// Then: a CREATE event is detected
	event := nextPollEvent(t, w)
	assert.Equal(t, OpCreate, event.Operation)
	assert.Equal(t, path, event.Path)

	// When: its modification time changes
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(path, future, future))

	// Then: a MODIFY event is detected
	assert.Equal(t, OpModify, nextPollEvent(t, w).Operation)

	// When: it is removed
	require.NoError(t, os.Remove(path))

	// Then: a DELETE event is detected
	assert.Equal(t, OpDelete, nextPollEvent(t, w).Operation)

	require.NoError(t, w.Stop())
}

func TestPollingWatcher_BaselineProducesNoEvent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o644))
	w := NewPollingWatcher(path, 20*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Start(ctx) }()

	select {
	case event := <-w.Events():
		t.Fatalf("unexpected event: %v", event)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestPollingWatcher_StopsOnContextCancel(t *testing.T) {
	w := NewPollingWatcher(filepath.Join(t.TempDir(), "x"), 10*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop")
	}
	require.NoError(t, w.Stop())
}
