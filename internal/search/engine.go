package search

import (
	"context"
	"log/slog"
	"time"

	"github.com/Aman-CERP/panamax-search/internal/crate"
	"github.com/Aman-CERP/panamax-search/internal/parallel"
)

// Engine runs tiered searches over a Catalog.
type Engine struct {
	workers int
}

// EngineOption configures the search engine.
type EngineOption func(*Engine)

// WithWorkers bounds the parallelism of tier filtering. Zero means NumCPU.
func WithWorkers(n int) EngineOption {
	return func(e *Engine) {
		e.workers = n
	}
}

// New creates an Engine.
func New(opts ...EngineOption) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Search classifies every record of catalog against queries.
//
// Each query is a regular expression. A record whose name equals a query
// verbatim is an exact match. Otherwise a record whose name matches any
// query is a name match, and failing that a record whose description
// matches any query is a description match.
func (e *Engine) Search(ctx context.Context, catalog Catalog, queries []string, opts Options) (*Result, error) {
	start := time.Now()

	patterns, err := CompilePatterns(queries, opts.CaseSensitive)
	if err != nil {
		return nil, err
	}
	matcher, err := combine(queries, opts.CaseSensitive)
	if err != nil {
		return nil, err
	}

	result := &Result{Patterns: patterns}
	claimed := make(map[string]struct{})

	for _, q := range queries {
		if _, dup := claimed[q]; dup {
			continue
		}
		if r, ok := catalog.Lookup(q); ok {
			result.Exact = append(result.Exact, r.Clone())
			claimed[q] = struct{}{}
		}
	}

	sorted := catalog.Sorted()
	byName, err := parallel.Filter(ctx, e.workers, sorted, func(r *crate.Record) bool {
		if _, ok := claimed[r.Name]; ok {
			return false
		}
		return matcher.MatchString(r.Name)
	})
	if err != nil {
		return nil, err
	}
	for _, r := range byName {
		claimed[r.Name] = struct{}{}
		result.NameContains = append(result.NameContains, r.Clone())
	}

	byDescription, err := parallel.Filter(ctx, e.workers, sorted, func(r *crate.Record) bool {
		if _, ok := claimed[r.Name]; ok || r.Description == nil {
			return false
		}
		return matcher.MatchString(*r.Description)
	})
	if err != nil {
		return nil, err
	}
	for _, r := range byDescription {
		result.DescriptionContains = append(result.DescriptionContains, r.Clone())
	}

	slog.Debug("search_complete",
		slog.Any("queries", queries),
		slog.Bool("case_sensitive", opts.CaseSensitive),
		slog.Int("exact", len(result.Exact)),
		slog.Int("name_contains", len(result.NameContains)),
		slog.Int("description_contains", len(result.DescriptionContains)),
		slog.Duration("duration", time.Since(start)))
	return result, nil
}
