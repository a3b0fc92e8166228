package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/panamax-search/internal/index"
	"github.com/Aman-CERP/panamax-search/internal/output"
	"github.com/Aman-CERP/panamax-search/internal/watcher"
)

// watchFlags overrides config for the watcher.
type watchFlags struct {
	debounce time.Duration
	poll     bool
}

func newWatchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Rebuild the index whenever the mirror is synced",
		Long: `Watch the mirror's config marker and rebuild the search cache after
every sync, so searches never pay for a rebuild.

The cache is rebuilt once at start if it is stale. Runs until interrupted.`,
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotLogFile: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWatch(cmd.Context(), cmd, a)
		},
	}

	cmd.Flags().DurationVar(&a.watch.debounce, "debounce", 0, "Wait this long after the last change before rebuilding (default from config, 2s)")
	cmd.Flags().BoolVar(&a.watch.poll, "poll", false, "Poll the marker instead of using file system notifications")

	return cmd
}

// watchOptions returns watcher options from config and flags.
func watchOptions(a *app) watcher.Options {
	opts := watcher.DefaultOptions()
	if a.cfg.Watch.Debounce > 0 {
		opts.Debounce = a.cfg.Watch.Debounce
	}
	if a.watch.debounce > 0 {
		opts.Debounce = a.watch.debounce
	}
	opts.ForcePolling = a.watch.poll
	return opts
}

func runWatch(ctx context.Context, cmd *cobra.Command, a *app) error {
	store, err := a.newStore(nil)
	if err != nil {
		return err
	}
	if err := store.EnsureDirectory(); err != nil {
		return err
	}

	out := output.New(cmd.OutOrStdout())
	out.Statusf("👀", "Watching %s", store.MarkerPath())

	runner := watcher.NewRunner(store, watchOptions(a), func(idx *index.Index, err error) {
		switch {
		case idx == nil:
			out.Warningf("Rebuild failed: %v", err)
		case err != nil:
			out.Warningf("Indexed %d crates, cache not saved: %v", idx.Len(), err)
		default:
			out.Successf("Indexed %d crates", idx.Len())
		}
	})
	return runner.Run(ctx)
}
