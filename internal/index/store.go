package index

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/Aman-CERP/panamax-search/internal/crate"
	"github.com/Aman-CERP/panamax-search/internal/errors"
)

// Config describes the mirror layout and build settings used by a Store.
type Config struct {
	// MetadataDir is the metadata root relative to the mirror.
	MetadataDir string
	// ConfigMarker is the file under MetadataDir whose mtime gates cache validity.
	ConfigMarker string
	// CacheFile is the cache path relative to the mirror.
	CacheFile string
	// Layout locates package archives.
	Layout crate.Layout
	// Workers bounds build and serialization parallelism. Zero means NumCPU.
	Workers int
	// Progress, if set, receives build progress.
	Progress ProgressFunc
}

// DefaultConfig returns the layout of a panamax crates.io mirror.
func DefaultConfig() Config {
	return Config{
		MetadataDir:  "crates.io-index",
		ConfigMarker: "config.json",
		CacheFile:    "search.json",
		Layout:       crate.DefaultLayout(),
	}
}

// Store loads, rebuilds, and persists the index of one mirror.
type Store struct {
	mirror string
	cfg    Config
}

// NewStore creates a Store for the mirror directory at mirror.
func NewStore(mirror string, cfg Config) *Store {
	return &Store{mirror: mirror, cfg: cfg}
}

// MirrorPath returns the mirror directory.
func (s *Store) MirrorPath() string {
	return s.mirror
}

// MetadataRoot returns the metadata tree root.
func (s *Store) MetadataRoot() string {
	return filepath.Join(s.mirror, s.cfg.MetadataDir)
}

// MarkerPath returns the config marker path.
func (s *Store) MarkerPath() string {
	return filepath.Join(s.MetadataRoot(), s.cfg.ConfigMarker)
}

// CachePath returns the cache file path.
func (s *Store) CachePath() string {
	return filepath.Join(s.mirror, s.cfg.CacheFile)
}

// EnsureDirectory checks that the mirror exists and is a directory.
func (s *Store) EnsureDirectory() error {
	info, err := os.Stat(s.mirror)
	if err != nil {
		return errors.New(errors.ErrCodeMirrorNotFound, "mirror directory does not exist", err).
			WithDetail("path", s.mirror).
			WithSuggestion("pass the mirror location with -m or set mirror.path in the config file")
	}
	if !info.IsDir() {
		return errors.Newf(errors.ErrCodeMirrorNotDirectory, nil, "mirror path %s is not a directory", s.mirror).
			WithDetail("path", s.mirror)
	}
	return nil
}

// CheckCache returns nil when the cache may be trusted: both the cache and
// the config marker exist and the cache was modified strictly after the
// marker. Otherwise it returns a cache error explaining why not.
func (s *Store) CheckCache() error {
	cache, err := os.Stat(s.CachePath())
	if err != nil {
		return errors.New(errors.ErrCodeCacheMissing, "cache file not found", err).
			WithDetail("path", s.CachePath())
	}
	marker, err := os.Stat(s.MarkerPath())
	if err != nil {
		return errors.New(errors.ErrCodeCacheStale, "mirror config marker not found", err).
			WithDetail("path", s.MarkerPath())
	}
	if !cache.ModTime().After(marker.ModTime()) {
		return errors.New(errors.ErrCodeCacheStale, "cache is older than the mirror", nil).
			WithDetail("cache_mtime", cache.ModTime().Format(time.RFC3339Nano)).
			WithDetail("marker_mtime", marker.ModTime().Format(time.RFC3339Nano))
	}
	return nil
}

// CacheFresh reports whether CheckCache passes.
func (s *Store) CacheFresh() bool {
	return s.CheckCache() == nil
}

// Load returns the cached index when it is valid and otherwise rebuilds the
// index from the mirror.
func (s *Store) Load(ctx context.Context) (*Index, error) {
	if err := s.EnsureDirectory(); err != nil {
		return nil, err
	}

	idx, err := s.LoadFromCache()
	if err == nil {
		return idx, nil
	}
	slog.LogAttrs(ctx, slog.LevelInfo, "cache_unusable", errors.FormatForLog(err)...)
	return s.Rebuild(ctx)
}

// LoadFromCache reads the cache without consulting the mirror's metadata.
// It fails with a cache error when the cache is missing, stale, or corrupt.
func (s *Store) LoadFromCache() (*Index, error) {
	if err := s.CheckCache(); err != nil {
		return nil, err
	}

	start := time.Now()
	data, err := os.ReadFile(s.CachePath())
	if err != nil {
		return nil, errors.New(errors.ErrCodeCacheMissing, "could not read cache", err).
			WithDetail("path", s.CachePath())
	}
	idx, err := UnmarshalCache(data)
	if err != nil {
		return nil, errors.New(errors.ErrCodeCacheCorrupt, "could not decode cache", err).
			WithDetail("path", s.CachePath())
	}

	slog.Debug("cache_loaded",
		slog.String("path", s.CachePath()),
		slog.Int("packages", idx.Len()),
		slog.Duration("duration", time.Since(start)))
	return idx, nil
}

// Rebuild scans the mirror and then saves the cache. A failed save is logged
// and does not affect the returned index.
func (s *Store) Rebuild(ctx context.Context) (*Index, error) {
	idx, err := s.build(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.Save(ctx, idx); err != nil {
		slog.LogAttrs(ctx, slog.LevelWarn, "cache_save_failed", errors.FormatForLog(err)...)
	}
	return idx, nil
}

// Update rebuilds unconditionally and overwrites the cache. Unlike Rebuild,
// a failed save is returned.
func (s *Store) Update(ctx context.Context) (*Index, error) {
	if err := s.EnsureDirectory(); err != nil {
		return nil, err
	}
	idx, err := s.build(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.Save(ctx, idx); err != nil {
		return idx, err
	}
	return idx, nil
}

func (s *Store) build(ctx context.Context) (*Index, error) {
	b := NewBuilder(s.MetadataRoot(), s.cfg.Layout,
		WithWorkers(s.cfg.Workers),
		WithProgress(s.cfg.Progress))
	return b.Build(ctx)
}

// Save writes idx to the cache file. The file is written under a lock to a
// temporary file in the mirror directory and renamed into place.
func (s *Store) Save(ctx context.Context, idx *Index) error {
	path := s.CachePath()
	data, err := MarshalCache(ctx, idx, s.cfg.Workers)
	if err != nil {
		return errors.New(errors.ErrCodeCacheWrite, "could not encode cache", err).
			WithDetail("path", path)
	}

	lock := newCacheLock(path)
	if err := lock.Lock(); err != nil {
		return errors.New(errors.ErrCodeCacheWrite, "could not lock cache", err).
			WithDetail("path", lock.Path())
	}
	defer func() { _ = lock.Unlock() }()

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.New(errors.ErrCodeCacheWrite, "could not create cache", err).
			WithDetail("path", path)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return errors.New(errors.ErrCodeCacheWrite, "could not write cache", err).
			WithDetail("path", tmpPath)
	}
	if err := tmp.Close(); err != nil {
		return errors.New(errors.ErrCodeCacheWrite, "could not write cache", err).
			WithDetail("path", tmpPath)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		return errors.New(errors.ErrCodeCacheWrite, "could not write cache", err).
			WithDetail("path", tmpPath)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return errors.New(errors.ErrCodeCacheWrite, "could not replace cache", err).
			WithDetail("path", path)
	}
	committed = true

	slog.Info("cache_saved",
		slog.String("path", path),
		slog.Int("packages", idx.Len()),
		slog.Int("bytes", len(data)))
	return nil
}
