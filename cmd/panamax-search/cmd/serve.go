package cmd

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/panamax-search/internal/index"
	"github.com/Aman-CERP/panamax-search/internal/mcp"
	"github.com/Aman-CERP/panamax-search/internal/search"
	"github.com/Aman-CERP/panamax-search/internal/watcher"
)

func newServeCmd(a *app) *cobra.Command {
	var transport string
	var watch bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve mirror search over MCP",
		Long: `Start a Model Context Protocol server over stdio.

Tools: search_crates, index_status, rebuild_index.
Resources: crate://{name} and panamax://status.

stdout carries only protocol messages, so logs go to the log file
(see 'panamax-search logs').`,
		Example: `  # Register with an MCP client
  panamax-search serve -m /srv/panamax

  # Also pick up mirror syncs while serving
  panamax-search serve --watch`,
		Args: cobra.NoArgs,
		Annotations: map[string]string{
			annotLogFile:  "true",
			annotNoStderr: "true",
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), a, transport, watch)
		},
	}

	cmd.Flags().StringVar(&transport, "transport", "stdio", "Transport to serve on (stdio)")
	cmd.Flags().BoolVar(&watch, "watch", false, "Rebuild the index whenever the mirror is synced")

	return cmd
}

func runServe(ctx context.Context, a *app, transport string, watch bool) error {
	store, err := a.newStore(nil)
	if err != nil {
		return err
	}
	if err := store.EnsureDirectory(); err != nil {
		return err
	}

	srv, err := mcp.NewServer(store, search.New(search.WithWorkers(a.cfg.Index.Workers)))
	if err != nil {
		return err
	}
	if !watch {
		return srv.Serve(ctx, transport)
	}

	ctx, cancel := context.WithCancel(ctx)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return srv.Serve(ctx, transport)
	})
	g.Go(func() error {
		runner := watcher.NewRunner(store, watchOptions(a), func(idx *index.Index, _ error) {
			if idx != nil {
				srv.Reset()
			}
		})
		return runner.Run(ctx)
	})
	err = g.Wait()
	slog.Debug("serve_stopped")
	return err
}
