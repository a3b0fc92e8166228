package cmd

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/panamax-search/internal/errors"
	"github.com/Aman-CERP/panamax-search/internal/ui"
)

func newStatusCmd(a *app) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show mirror and cache status",
		Long: `Show the mirror location, the search cache, and whether the cache is
fresh. Nothing is rebuilt; a stale cache is rebuilt by the next search,
by 'panamax-search -U', or by 'panamax-search watch'.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd.Context(), cmd, a, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runStatus(_ context.Context, cmd *cobra.Command, a *app, jsonOutput bool) error {
	store, err := a.newStore(nil)
	if err != nil {
		return err
	}
	if err := store.EnsureDirectory(); err != nil {
		return err
	}

	// Only a fresh cache is read for the package count.
	packages := 0
	if idx, err := store.LoadFromCache(); err == nil {
		packages = idx.Len()
	} else {
		slog.LogAttrs(cmd.Context(), slog.LevelDebug, "status_cache_unusable", errors.FormatForLog(err)...)
	}

	info := ui.StatusFor(store, packages)
	renderer := ui.NewStatusRenderer(cmd.OutOrStdout(), !ui.ColorEnabled(a.cfg.Output.Color, cmd.OutOrStdout()))
	if jsonOutput {
		return renderer.RenderJSON(info)
	}
	return renderer.Render(info)
}
