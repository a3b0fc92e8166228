package cmd

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/panamax-search/internal/errors"
	"github.com/Aman-CERP/panamax-search/internal/index"
	"github.com/Aman-CERP/panamax-search/internal/output"
	"github.com/Aman-CERP/panamax-search/internal/search"
	"github.com/Aman-CERP/panamax-search/internal/ui"
)

// searchOptions holds the root command's search flags.
type searchOptions struct {
	update        bool
	includeYanked bool
	caseSensitive bool
	color         string
	jsonOutput    bool
	limit         int
}

func addSearchFlags(cmd *cobra.Command, opts *searchOptions) {
	f := cmd.Flags()
	f.BoolVarP(&opts.update, "update", "U", false, "Rebuild the index from the mirror, overwrite the cache, and exit")
	f.BoolVarP(&opts.includeYanked, "include-yanked", "y", false, "Show the latest version even if it was yanked")
	f.BoolVarP(&opts.caseSensitive, "case-sensitive", "s", false, "Match names and descriptions case sensitively")
	f.StringVar(&opts.color, "color", "", "Highlight matches: auto, always, never (default from config)")
	f.BoolVar(&opts.jsonOutput, "json", false, "Print matches as a JSON array")
	f.IntVarP(&opts.limit, "limit", "n", 0, "Print at most N matches, 0 for all")
}

func runSearch(ctx context.Context, cmd *cobra.Command, a *app, queries []string, opts searchOptions) error {
	mode, err := colorMode(opts, a)
	if err != nil {
		return err
	}
	if opts.update {
		if len(queries) > 0 || opts.includeYanked || opts.caseSensitive || opts.jsonOutput || opts.limit != 0 {
			return errors.New(errors.ErrCodeUsage, "--update cannot be combined with queries or search flags", nil).
				WithSuggestion("run 'panamax-search -U' on its own, then search")
		}
		return runUpdate(ctx, cmd, a, mode)
	}

	// Reject bad queries before touching the mirror.
	if _, err := search.CompilePatterns(queries, opts.caseSensitive); err != nil {
		return err
	}
	if opts.limit < 0 {
		return errors.Newf(errors.ErrCodeUsage, nil, "--limit must be non-negative, got %d", opts.limit)
	}

	idx, err := loadIndex(ctx, cmd, a, mode)
	if err != nil {
		return err
	}

	start := time.Now()
	engine := search.New(search.WithWorkers(a.cfg.Index.Workers))
	res, err := engine.Search(ctx, idx, queries, search.Options{CaseSensitive: opts.caseSensitive})
	if err != nil {
		return err
	}
	total := res.Len()
	res = res.Limit(opts.limit)
	slog.Info("search_complete",
		slog.Int("queries", len(queries)),
		slog.Int("exact", len(res.Exact)),
		slog.Int("name", len(res.NameContains)),
		slog.Int("description", len(res.DescriptionContains)),
		slog.Int("total", total),
		slog.Duration("duration", time.Since(start)))

	out := cmd.OutOrStdout()
	if opts.jsonOutput {
		return output.WriteJSON(out, res, opts.includeYanked)
	}

	color := ui.ColorEnabled(mode, out)
	text, err := output.Render(ctx, res, output.RenderOptions{
		IncludeYanked: opts.includeYanked,
		Highlight:     color,
		Emphasis:      ui.NewHighlighter(out, color),
		Workers:       a.cfg.Index.Workers,
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err)
	}
	_, err = io.WriteString(out, text)
	return err
}

// colorMode resolves --color against the configured default.
func colorMode(opts searchOptions, a *app) (string, error) {
	mode := opts.color
	if mode == "" {
		mode = a.cfg.Output.Color
	}
	mode, err := ui.ParseColorMode(strings.ToLower(mode))
	if err != nil {
		return "", errors.New(errors.ErrCodeUsage, err.Error(), nil)
	}
	return mode, nil
}

// loadIndex returns the cached index, rebuilding it with visible progress
// when the cache cannot be used.
func loadIndex(ctx context.Context, cmd *cobra.Command, a *app, colorMode string) (*index.Index, error) {
	p := newRebuildProgress(cmd, a, colorMode)
	store, err := a.newStore(p.report)
	if err != nil {
		return nil, err
	}
	if err := store.EnsureDirectory(); err != nil {
		return nil, err
	}
	if store.CacheFresh() {
		return store.Load(ctx)
	}

	p.start(ctx, store.MirrorPath())
	idx, err := store.Load(ctx)
	if err != nil {
		p.stop()
		return nil, err
	}
	p.finish(idx, store.CachePath(), nil)
	return idx, nil
}

// runUpdate implements -U.
func runUpdate(ctx context.Context, cmd *cobra.Command, a *app, colorMode string) error {
	p := newRebuildProgress(cmd, a, colorMode)
	store, err := a.newStore(p.report)
	if err != nil {
		return err
	}

	p.start(ctx, store.MirrorPath())
	idx, err := store.Update(ctx)
	if idx == nil {
		p.stop()
		return err
	}
	p.finish(idx, store.CachePath(), err)
	return err
}
