package mcp

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/sync/singleflight"

	"github.com/Aman-CERP/panamax-search/internal/index"
	"github.com/Aman-CERP/panamax-search/internal/output"
	"github.com/Aman-CERP/panamax-search/internal/search"
	"github.com/Aman-CERP/panamax-search/internal/ui"
	"github.com/Aman-CERP/panamax-search/pkg/version"
)

// ServerName is reported to MCP clients.
const ServerName = "panamax-search"

// Server is the MCP server for panamax-search.
// It loads the mirror index on first use and shares it across calls.
type Server struct {
	mcp    *mcp.Server
	store  *index.Store
	engine *search.Engine
	logger *slog.Logger

	// loads collapses concurrent loads and rebuilds of the shared index.
	loads singleflight.Group

	mu  sync.RWMutex
	idx *index.Index
}

// NewServer creates a new MCP server over the mirror behind store.
func NewServer(store *index.Store, engine *search.Engine) (*Server, error) {
	if store == nil {
		return nil, errors.New("index store is required")
	}
	if engine == nil {
		engine = search.New()
	}

	s := &Server{
		store:  store,
		engine: engine,
		logger: slog.Default(),
	}

	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    ServerName,
			Version: version.Version,
		},
		nil,
	)

	s.registerTools()
	s.registerResources()

	return s, nil
}

// MCPServer returns the underlying MCP server instance.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// Index returns the shared index, loading it from the cache or the mirror
// on first use.
func (s *Server) Index(ctx context.Context) (*index.Index, error) {
	s.mu.RLock()
	idx := s.idx
	s.mu.RUnlock()
	if idx != nil {
		return idx, nil
	}

	// The load is shared, so it must outlive the caller that started it.
	shared := context.WithoutCancel(ctx)
	v, err := s.share(ctx, "load", func() (any, error) {
		s.mu.RLock()
		idx := s.idx
		s.mu.RUnlock()
		if idx != nil {
			return idx, nil
		}

		idx, err := s.store.Load(shared)
		if err != nil {
			return nil, err
		}
		s.setIndex(idx)
		return idx, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*index.Index), nil
}

// share runs fn once per key for all concurrent callers. A caller whose
// ctx ends stops waiting, while fn keeps running for the others.
func (s *Server) share(ctx context.Context, key string, fn func() (any, error)) (any, error) {
	select {
	case r := <-s.loads.DoChan(key, fn):
		return r.Val, r.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Rebuild rebuilds the index from the mirror, overwrites the cache, and
// replaces the shared index. A cache write failure is returned alongside
// the new index.
func (s *Server) Rebuild(ctx context.Context) (*index.Index, error) {
	type rebuilt struct {
		idx     *index.Index
		saveErr error
	}

	shared := context.WithoutCancel(ctx)
	v, err := s.share(ctx, "rebuild", func() (any, error) {
		idx, err := s.store.Update(shared)
		if idx == nil {
			return nil, err
		}
		s.setIndex(idx)
		return rebuilt{idx: idx, saveErr: err}, nil
	})
	if err != nil {
		return nil, err
	}
	r := v.(rebuilt)
	return r.idx, r.saveErr
}

// Reset drops the shared index so the next call reloads it. The watcher
// calls this after rebuilding the cache behind the server's back.
func (s *Server) Reset() {
	s.setIndex(nil)
}

func (s *Server) setIndex(idx *index.Index) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.idx = idx
}

func (s *Server) loaded() *index.Index {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.idx
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name: "search_crates",
		Description: "Search the crates mirrored by panamax. Queries are regular expressions. " +
			"Results come in three tiers: exact name matches, name matches, then description matches.",
	}, s.mcpSearchCratesHandler)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "index_status",
		Description: "Report the mirror path, the search cache and whether it is up to date with the mirror.",
	}, s.mcpIndexStatusHandler)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "rebuild_index",
		Description: "Rebuild the search index from the mirror's metadata and archives and overwrite the cache.",
	}, s.mcpRebuildIndexHandler)

	s.logger.Debug("mcp_tools_registered", slog.Int("count", 3))
}

func (s *Server) mcpSearchCratesHandler(ctx context.Context, _ *mcp.CallToolRequest, input SearchCratesInput) (
	*mcp.CallToolResult,
	SearchCratesOutput,
	error,
) {
	start := time.Now()
	requestID := generateRequestID()

	if len(input.Queries) == 0 {
		return nil, SearchCratesOutput{}, NewInvalidParamsError("queries must contain at least one query")
	}
	limit := clampLimit(input.Limit, DefaultLimit, MaxLimit)

	idx, err := s.Index(ctx)
	if err != nil {
		s.logger.Error("search_crates failed",
			slog.String("request_id", requestID),
			slog.String("error", err.Error()))
		return nil, SearchCratesOutput{}, MapError(err)
	}

	res, err := s.engine.Search(ctx, idx, input.Queries, search.Options{CaseSensitive: input.CaseSensitive})
	if err != nil {
		return nil, SearchCratesOutput{}, MapError(err)
	}

	total := res.Len()
	shown := res.Limit(limit)
	text, err := FormatSearchResults(ctx, input.Queries, shown, total, input.IncludeYanked)
	if err != nil {
		return nil, SearchCratesOutput{}, MapError(err)
	}

	s.logger.Info("search_crates completed",
		slog.String("request_id", requestID),
		slog.Int("queries", len(input.Queries)),
		slog.Int("result_count", total),
		slog.Duration("duration", time.Since(start)))

	out := SearchCratesOutput{
		Total:     total,
		Truncated: shown.Len() < total,
		Matches:   output.Matches(shown, input.IncludeYanked),
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}, out, nil
}

func (s *Server) mcpIndexStatusHandler(_ context.Context, _ *mcp.CallToolRequest, _ IndexStatusInput) (
	*mcp.CallToolResult,
	*IndexStatusOutput,
	error,
) {
	return nil, s.status(), nil
}

func (s *Server) status() *IndexStatusOutput {
	packages := 0
	idx := s.loaded()
	if idx != nil {
		packages = idx.Len()
	}

	info := ui.StatusFor(s.store, packages)
	return &IndexStatusOutput{
		Mirror:     info.Mirror,
		CachePath:  info.CachePath,
		CacheFresh: info.CacheFresh,
		CacheSize:  info.CacheSize,
		Reason:     info.Reason,
		Loaded:     idx != nil,
		Packages:   packages,
	}
}

func (s *Server) mcpRebuildIndexHandler(ctx context.Context, _ *mcp.CallToolRequest, _ RebuildIndexInput) (
	*mcp.CallToolResult,
	*RebuildIndexOutput,
	error,
) {
	start := time.Now()

	idx, err := s.Rebuild(ctx)
	if idx == nil {
		return nil, nil, MapError(err)
	}

	out := &RebuildIndexOutput{
		Packages:   idx.Len(),
		CachePath:  s.store.CachePath(),
		CacheSaved: err == nil,
	}
	if err != nil {
		out.Warning = MapError(err).Message
	}

	s.logger.Info("rebuild_index completed",
		slog.Int("packages", out.Packages),
		slog.Bool("cache_saved", out.CacheSaved),
		slog.Duration("duration", time.Since(start)))

	return nil, out, nil
}

// Serve starts the server with the specified transport.
func (s *Server) Serve(ctx context.Context, transport string) error {
	s.logger.Info("mcp_server_starting",
		slog.String("transport", transport),
		slog.String("mirror", s.store.MirrorPath()))

	switch transport {
	case "stdio":
		err := s.mcp.Run(ctx, &mcp.StdioTransport{})
		if err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("mcp_server_stopped", slog.String("error", err.Error()))
			return err
		}
		s.logger.Info("mcp_server_stopped")
		return nil
	default:
		return fmt.Errorf("unknown transport: %s (supported: stdio)", transport)
	}
}

// generateRequestID creates a short unique request ID for log correlation.
func generateRequestID() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
