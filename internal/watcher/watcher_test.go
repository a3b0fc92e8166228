package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/panamax-search/internal/errors"
	"github.com/Aman-CERP/panamax-search/internal/index"
	"github.com/Aman-CERP/panamax-search/internal/testutil"
)

func nextBatch(t *testing.T, w *MarkerWatcher) []FileEvent {
	t.Helper()
	select {
	case events := <-w.Events():
		return events
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for marker events")
		return nil
	}
}

func TestMarkerWatcher(t *testing.T) {
	for _, polling := range []bool{false, true} {
		name := "fsnotify"
		if polling {
			name = "polling"
		}
		t.Run(name, func(t *testing.T) {
			// Given: a watched marker next to an unrelated file
			dir := t.TempDir()
			marker := filepath.Join(dir, "config.json")
			require.NoError(t, os.WriteFile(marker, []byte("{}"), 0o644))

			w, err := NewMarkerWatcher(marker, Options{
				Debounce:     50 * time.Millisecond,
				PollInterval: 20 * time.Millisecond,
				ForcePolling: polling,
			})
			require.NoError(t, err)
			assert.Equal(t, name, w.WatcherType())

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			go func() { _ = w.Start(ctx) }()
			time.Sleep(100 * time.Millisecond)

			// When: the unrelated file changes, then the marker is rewritten
			require.NoError(t, os.WriteFile(filepath.Join(dir, "other"), []byte("x"), 0o644))
			require.NoError(t, os.WriteFile(marker, []byte(`{"dl":"x"}`), 0o644))

			// Then: one batch naming only the marker arrives
			events := nextBatch(t, w)
			require.Len(t, events, 1)
			assert.Equal(t, w.Path(), events[0].Path)

			require.NoError(t, w.Stop())
			require.NoError(t, w.Stop())
		})
	}
}

func TestMarkerWatcher_SeesReplacementByRename(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(marker, []byte("{}"), 0o644))

	w, err := NewMarkerWatcher(marker, Options{Debounce: 50 * time.Millisecond})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Start(ctx) }()
	time.Sleep(50 * time.Millisecond)

	tmp := filepath.Join(dir, "config.json.tmp")
	require.NoError(t, os.WriteFile(tmp, []byte(`{"dl":"y"}`), 0o644))
	require.NoError(t, os.Rename(tmp, marker))

	events := nextBatch(t, w)
	require.NotEmpty(t, events)
	assert.Equal(t, w.Path(), events[0].Path)
}

// fakeStore counts updates and can fail them.
type fakeStore struct {
	marker  string
	fresh   bool
	fail    atomic.Bool
	updates atomic.Int32
}

func (f *fakeStore) MarkerPath() string { return f.marker }
func (f *fakeStore) CacheFresh() bool   { return f.fresh }

func (f *fakeStore) Update(context.Context) (*index.Index, error) {
	f.updates.Add(1)
	if f.fail.Load() {
		return nil, errors.New(errors.ErrCodeMetadataCorrupt, "metadata has no usable version", nil)
	}
	return index.New(nil)
}

func TestRunner_RebuildsOncePerBurst(t *testing.T) {
	// Given: a runner over a fresh cache
	dir := t.TempDir()
	store := &fakeStore{marker: filepath.Join(dir, "config.json"), fresh: true}
	require.NoError(t, os.WriteFile(store.marker, []byte("{}"), 0o644))

	var mu sync.Mutex
	var results []error
	updated := make(chan struct{}, 10)
	r := NewRunner(store, Options{Debounce: 100 * time.Millisecond}, func(_ *index.Index, err error) {
		mu.Lock()
		results = append(results, err)
		mu.Unlock()
		updated <- struct{}{}
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()
	time.Sleep(100 * time.Millisecond)

	// When: the marker is written several times in quick succession
	for i := range 3 {
		require.NoError(t, os.WriteFile(store.marker, []byte{byte('0' + i)}, 0o644))
		time.Sleep(10 * time.Millisecond)
	}

	// Then: exactly one rebuild runs
	select {
	case <-updated:
	case <-time.After(2 * time.Second):
		t.Fatal("no rebuild")
	}
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(1), store.updates.Load())

	// When: the next rebuild fails
	store.fail.Store(true)
	require.NoError(t, os.WriteFile(store.marker, []byte("broken"), 0o644))

	// Then: the failure is reported and the runner keeps going
	select {
	case <-updated:
	case <-time.After(2 * time.Second):
		t.Fatal("no second rebuild")
	}
	mu.Lock()
	require.Len(t, results, 2)
	assert.NoError(t, results[0])
	assert.Equal(t, errors.ErrCodeMetadataCorrupt, errors.GetCode(results[1]))
	mu.Unlock()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop")
	}
}

func TestRunner_InitialUpdateWhenStale(t *testing.T) {
	tests := []struct {
		name  string
		fresh bool
		skip  bool
		want  int32
	}{
		{name: "stale", want: 1},
		{name: "fresh", fresh: true, want: 0},
		{name: "stale but skipped", skip: true, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			store := &fakeStore{marker: filepath.Join(dir, "config.json"), fresh: tt.fresh}
			require.NoError(t, os.WriteFile(store.marker, []byte("{}"), 0o644))

			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()
			r := NewRunner(store, Options{SkipInitialUpdate: tt.skip}, nil)
			require.NoError(t, r.Run(ctx))

			assert.Equal(t, tt.want, store.updates.Load())
		})
	}
}

func TestRunner_UpdatesRealStore(t *testing.T) {
	// Given: a mirror whose cache is older than its marker
	m := testutil.NewMirror(t)
	m.AddCrate("serde", "1.0.0", "")
	store := index.NewStore(m.Root, index.DefaultConfig())

	got := make(chan *index.Index, 1)
	r := NewRunner(store, Options{Debounce: 50 * time.Millisecond}, func(idx *index.Index, err error) {
		assert.NoError(t, err)
		got <- idx
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = r.Run(ctx) }()

	// Then: the initial update builds and saves the cache
	select {
	case idx := <-got:
		assert.Equal(t, []string{"serde"}, idx.Names())
	case <-time.After(2 * time.Second):
		t.Fatal("no initial update")
	}
	assert.FileExists(t, m.CachePath())
}
