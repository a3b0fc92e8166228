package watcher

import (
	"context"
	"log/slog"
	"time"

	"github.com/Aman-CERP/panamax-search/internal/errors"
	"github.com/Aman-CERP/panamax-search/internal/index"
)

// UpdateFunc is told about every rebuild. idx is nil when the rebuild
// failed; err is non-nil when it failed or when the cache was not saved.
type UpdateFunc func(idx *index.Index, err error)

// Runner rebuilds a store's index whenever the mirror's config marker
// changes.
type Runner struct {
	store    Store
	opts     Options
	onUpdate UpdateFunc
}

// NewRunner creates a runner. onUpdate may be nil.
func NewRunner(store Store, opts Options, onUpdate UpdateFunc) *Runner {
	return &Runner{
		store:    store,
		opts:     opts.WithDefaults(),
		onUpdate: onUpdate,
	}
}

// Run watches until ctx is canceled, which is not reported as an error.
// Rebuild failures are logged and watching continues.
func (r *Runner) Run(ctx context.Context) error {
	w, err := NewMarkerWatcher(r.store.MarkerPath(), r.opts)
	if err != nil {
		return err
	}
	defer func() { _ = w.Stop() }()

	if !r.opts.SkipInitialUpdate && !r.store.CacheFresh() {
		r.update(ctx, "cache_not_fresh")
	}

	errCh := make(chan error, 1)
	go func() { errCh <- w.Start(ctx) }()

	slog.Info("watch_started",
		slog.String("marker", w.Path()),
		slog.String("watcher", w.WatcherType()),
		slog.Duration("debounce", r.opts.Debounce))

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errCh:
			if err == nil || ctx.Err() != nil {
				return nil
			}
			return err
		case events, ok := <-w.Events():
			if !ok {
				return nil
			}
			r.update(ctx, events[len(events)-1].Operation.String())
		case err, ok := <-w.Errors():
			if ok {
				slog.Warn("watch_error", slog.String("error", err.Error()))
			}
		}
	}
}

func (r *Runner) update(ctx context.Context, trigger string) {
	start := time.Now()
	idx, err := r.store.Update(ctx)

	switch {
	case idx == nil:
		attrs := append([]slog.Attr{slog.String("trigger", trigger)}, errors.FormatForLog(err)...)
		slog.LogAttrs(ctx, slog.LevelError, "watch_update_failed", attrs...)
	case err != nil:
		slog.LogAttrs(ctx, slog.LevelWarn, "watch_cache_not_saved", errors.FormatForLog(err)...)
	default:
		slog.Info("watch_updated",
			slog.String("trigger", trigger),
			slog.Int("packages", idx.Len()),
			slog.Duration("duration", time.Since(start)))
	}

	if r.onUpdate != nil {
		r.onUpdate(idx, err)
	}
}
