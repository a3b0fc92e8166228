package index

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Aman-CERP/panamax-search/internal/crate"
	"github.com/Aman-CERP/panamax-search/internal/errors"
	"github.com/Aman-CERP/panamax-search/internal/logging"
	"github.com/Aman-CERP/panamax-search/internal/parallel"
)

// ProgressFunc is called as packages finish processing.
// It may be called concurrently from several workers.
type ProgressFunc func(done, total int)

// Builder produces an Index by scanning every metadata file under a
// metadata root.
type Builder struct {
	metadataRoot string
	layout       crate.Layout
	workers      int
	progress     ProgressFunc
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithWorkers sets the number of packages processed concurrently.
// Zero means runtime.NumCPU().
func WithWorkers(n int) BuilderOption {
	return func(b *Builder) {
		b.workers = n
	}
}

// WithProgress sets a progress callback.
func WithProgress(fn ProgressFunc) BuilderOption {
	return func(b *Builder) {
		b.progress = fn
	}
}

// NewBuilder creates a Builder for the metadata tree at metadataRoot.
func NewBuilder(metadataRoot string, layout crate.Layout, opts ...BuilderOption) *Builder {
	b := &Builder{
		metadataRoot: metadataRoot,
		layout:       layout,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Discover lists package metadata files in lexical order.
//
// Directories whose name starts with "." are skipped (.git, .github). Files
// directly under the metadata root, such as config.json, are not packages.
func (b *Builder) Discover() ([]string, error) {
	var files []string
	err := filepath.WalkDir(b.metadataRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == b.metadataRoot {
			return nil
		}

		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(b.metadataRoot, path)
		if err != nil {
			return err
		}
		if !strings.ContainsRune(rel, filepath.Separator) {
			return nil
		}

		if isFile(path, d) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", b.metadataRoot, err)
	}
	return files, nil
}

func isFile(path string, d fs.DirEntry) bool {
	if d.Type().IsRegular() {
		return true
	}
	if d.Type()&fs.ModeSymlink != 0 {
		info, err := os.Stat(path)
		return err == nil && info.Mode().IsRegular()
	}
	return false
}

// Build processes every package in parallel. Any package whose metadata
// cannot be resolved fails the whole build; a partial index is never
// returned.
func (b *Builder) Build(ctx context.Context) (*Index, error) {
	start := time.Now()

	files, err := b.Discover()
	if err != nil {
		return nil, errors.New(errors.ErrCodeBuildFailed, "could not list package metadata", err).
			WithDetail("path", b.metadataRoot)
	}
	slog.Info("build_started",
		slog.String("metadata_root", b.metadataRoot),
		slog.Int("packages", len(files)),
		slog.Int("workers", parallel.Workers(b.workers)))

	total := len(files)
	var done atomic.Int64
	records, err := parallel.Map(ctx, b.workers, files, func(_ context.Context, path string) (crate.Record, error) {
		r, err := b.buildRecord(path)
		if err != nil {
			return crate.Record{}, err
		}
		if b.progress != nil {
			b.progress(int(done.Add(1)), total)
		}
		return r, nil
	})
	if err != nil {
		slog.LogAttrs(ctx, slog.LevelError, "build_failed", errors.FormatForLog(err)...)
		return nil, err
	}

	idx, err := New(records)
	if err != nil {
		return nil, errors.New(errors.ErrCodeMetadataCorrupt, "inconsistent metadata tree", err).
			WithDetail("path", b.metadataRoot)
	}

	slog.Info("build_complete",
		slog.Int("packages", idx.Len()),
		slog.Duration("duration", time.Since(start)))
	return idx, nil
}

func (b *Builder) buildRecord(path string) (crate.Record, error) {
	h, err := crate.ScanHistory(path)
	if err != nil {
		return crate.Record{}, err
	}
	r, err := h.Record()
	if err != nil {
		return crate.Record{}, errors.New(errors.ErrCodeMetadataCorrupt, "metadata has no usable version", err).
			WithDetail("path", path)
	}
	r = b.layout.Describe(path, r)
	slog.Log(context.Background(), logging.LevelTrace, "record_built",
		slog.String("name", r.Name),
		slog.Bool("has_description", r.Description != nil))
	return r, nil
}
