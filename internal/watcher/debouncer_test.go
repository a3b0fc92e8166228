package watcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, d *Debouncer, timeout time.Duration) []FileEvent {
	t.Helper()
	select {
	case events := <-d.Output():
		return events
	case <-time.After(timeout):
		t.Fatal("timeout waiting for debounced events")
		return nil
	}
}

func TestDebouncer_SingleEvent_PassesThrough(t *testing.T) {
	// Given: a debouncer with short window
	d := NewDebouncer(50 * time.Millisecond)
	defer d.Stop()

	// When: a single event is added
	d.Add(FileEvent{Path: "/m/config.json", Operation: OpModify, Timestamp: time.Now()})

	// Then: the event passes through after the debounce window
	events := receive(t, d, 500*time.Millisecond)
	require.Len(t, events, 1)
	assert.Equal(t, "/m/config.json", events[0].Path)
	assert.Equal(t, OpModify, events[0].Operation)
}

func TestDebouncer_Burst_EmitsOnce(t *testing.T) {
	// Given: a debouncer with a window longer than the gaps between events
	d := NewDebouncer(100 * time.Millisecond)
	defer d.Stop()

	// When: a burst of writes arrives
	for range 5 {
		d.Add(FileEvent{Path: "/m/config.json", Operation: OpModify})
		time.Sleep(10 * time.Millisecond)
	}

	// Then: one batch with one event comes out, and nothing after it
	events := receive(t, d, time.Second)
	require.Len(t, events, 1)

	select {
	case extra := <-d.Output():
		t.Fatalf("unexpected second batch: %v", extra)
	case <-time.After(250 * time.Millisecond):
	}
}

func TestDebouncer_Coalescing(t *testing.T) {
	tests := []struct {
		name   string
		ops    []Operation
		want   Operation
		cancel bool
	}{
		{name: "create then modify", ops: []Operation{OpCreate, OpModify}, want: OpCreate},
		{name: "delete then create", ops: []Operation{OpDelete, OpCreate}, want: OpModify},
		{name: "modify then delete", ops: []Operation{OpModify, OpDelete}, want: OpDelete},
		{name: "rename then create", ops: []Operation{OpRename, OpCreate}, want: OpCreate},
		{name: "create then delete", ops: []Operation{OpCreate, OpDelete}, cancel: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDebouncer(30 * time.Millisecond)
			defer d.Stop()

			for _, op := range tt.ops {
				d.Add(FileEvent{Path: "/m/config.json", Operation: op})
			}

			if tt.cancel {
				select {
				case events := <-d.Output():
					t.Fatalf("expected no events, got %v", events)
				case <-time.After(150 * time.Millisecond):
				}
				return
			}

			events := receive(t, d, 500*time.Millisecond)
			require.Len(t, events, 1)
			assert.Equal(t, tt.want, events[0].Operation)
		})
	}
}

func TestDebouncer_KeepsFirstSeenOrder(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)
	defer d.Stop()

	for _, p := range []string{"/b", "/a", "/c", "/a"} {
		d.Add(FileEvent{Path: p, Operation: OpModify})
	}

	events := receive(t, d, 500*time.Millisecond)
	require.Len(t, events, 3)
	assert.Equal(t, "/b", events[0].Path)
	assert.Equal(t, "/a", events[1].Path)
	assert.Equal(t, "/c", events[2].Path)
}

func TestDebouncer_StopIsIdempotent(t *testing.T) {
	d := NewDebouncer(10 * time.Millisecond)
	d.Stop()
	d.Stop()

	d.Add(FileEvent{Path: "/x"})
	_, ok := <-d.Output()
	assert.False(t, ok)
}

func TestOperation_String(t *testing.T) {
	assert.Equal(t, "CREATE", OpCreate.String())
	assert.Equal(t, "MODIFY", OpModify.String())
	assert.Equal(t, "DELETE", OpDelete.String())
	assert.Equal(t, "RENAME", OpRename.String())
	assert.Equal(t, "UNKNOWN", Operation(42).String())
}

func TestOptions_WithDefaults(t *testing.T) {
	o := Options{}.WithDefaults()
	assert.Equal(t, 2*time.Second, o.Debounce)
	assert.Equal(t, 5*time.Second, o.PollInterval)

	o = Options{Debounce: time.Millisecond, PollInterval: time.Second}.WithDefaults()
	assert.Equal(t, time.Millisecond, o.Debounce)
	assert.Equal(t, time.Second, o.PollInterval)
}
