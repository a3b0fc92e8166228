package ui

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"
)

// plainStep is the progress granularity of the plain renderer, in percent.
const plainStep = 10

// PlainRenderer outputs plain text progress (for CI/pipes). Reading progress
// is printed once per plainStep percent since a mirror holds many thousands
// of packages.
type PlainRenderer struct {
	mu       sync.Mutex
	out      io.Writer
	stage    Stage
	lastStep int
}

// NewPlainRenderer creates a plain text renderer.
func NewPlainRenderer(cfg Config) *PlainRenderer {
	return &PlainRenderer{out: cfg.Output, stage: StageReading, lastStep: -1}
}

// Start implements Renderer.
func (r *PlainRenderer) Start(ctx context.Context) error {
	return nil
}

// UpdateProgress implements Renderer.
func (r *PlainRenderer) UpdateProgress(event ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if event.Stage != r.stage {
		r.stage = event.Stage
		r.lastStep = -1
	}

	if event.Total <= 0 {
		if event.Message != "" {
			_, _ = fmt.Fprintf(r.out, "[%s] %s\n", event.Stage.Icon(), event.Message)
		}
		return
	}

	step := event.Current * 100 / event.Total / plainStep
	if step <= r.lastStep {
		return
	}
	r.lastStep = step

	_, _ = fmt.Fprintf(r.out, "[%s] %d/%d", event.Stage.Icon(), event.Current, event.Total)
	if event.Message != "" {
		_, _ = fmt.Fprintf(r.out, " - %s", event.Message)
	}
	_, _ = fmt.Fprintln(r.out)
}

// Complete implements Renderer.
func (r *PlainRenderer) Complete(stats CompletionStats) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, _ = fmt.Fprintf(r.out, "Complete: %d packages indexed in %s\n",
		stats.Packages, stats.Duration.Round(100*time.Millisecond))
	if stats.SaveErr != nil {
		_, _ = fmt.Fprintf(r.out, "WARN: cache not saved: %v\n", stats.SaveErr)
	} else if stats.CachePath != "" {
		_, _ = fmt.Fprintf(r.out, "Cache: %s\n", stats.CachePath)
	}
}

// Stop implements Renderer.
func (r *PlainRenderer) Stop() error {
	return nil
}

var _ Renderer = (*PlainRenderer)(nil)
