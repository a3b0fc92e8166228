// Package testutil builds throwaway registry mirrors for tests.
package testutil

import (
	"archive/tar"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/panamax-search/internal/crate"
)

// Mirror is an on-disk mirror rooted in a test temp directory.
type Mirror struct {
	t    testing.TB
	Root string
}

// NewMirror creates an empty mirror with a metadata root and config marker.
func NewMirror(t testing.TB) *Mirror {
	t.Helper()
	m := &Mirror{t: t, Root: t.TempDir()}
	require.NoError(t, os.MkdirAll(m.MetadataRoot(), 0o755))
	require.NoError(t, os.WriteFile(m.MarkerPath(), []byte(`{"dl":"https://example.invalid"}`), 0o644))
	return m
}

// MetadataRoot returns <mirror>/crates.io-index.
func (m *Mirror) MetadataRoot() string {
	return filepath.Join(m.Root, "crates.io-index")
}

// MarkerPath returns the config marker path.
func (m *Mirror) MarkerPath() string {
	return filepath.Join(m.MetadataRoot(), "config.json")
}

// CachePath returns the cache file path.
func (m *Mirror) CachePath() string {
	return filepath.Join(m.Root, "search.json")
}

// MetadataPath returns where the metadata file for name lives.
func (m *Mirror) MetadataPath(name string) string {
	lower := strings.ToLower(name)
	var shard string
	switch len(lower) {
	case 1:
		shard = "1"
	case 2:
		shard = "2"
	case 3:
		shard = filepath.Join("3", lower[:1])
	default:
		shard = filepath.Join(lower[:2], lower[2:4])
	}
	return filepath.Join(m.MetadataRoot(), shard, lower)
}

// AddHistory writes a metadata file with entries in publish order.
func (m *Mirror) AddHistory(name string, entries ...crate.HistoryEntry) string {
	m.t.Helper()
	var sb strings.Builder
	for _, e := range entries {
		line, err := json.Marshal(map[string]any{
			"name":   e.Name,
			"vers":   e.Version,
			"yanked": e.Yanked,
			"deps":   []any{},
			"cksum":  "0000",
		})
		require.NoError(m.t, err)
		sb.Write(line)
		sb.WriteByte('\n')
	}
	return m.AddRawHistory(name, sb.String())
}

// AddRawHistory writes a metadata file verbatim.
func (m *Mirror) AddRawHistory(name, content string) string {
	m.t.Helper()
	path := m.MetadataPath(name)
	require.NoError(m.t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(m.t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// AddArchive writes a gzip tar archive for name@version holding files,
// keyed by their path inside the archive.
func (m *Mirror) AddArchive(name, version string, files map[string]string) string {
	m.t.Helper()
	path := crate.DefaultLayout().ArchivePath(m.MetadataPath(name), name, version)
	require.NoError(m.t, os.MkdirAll(filepath.Dir(path), 0o755))

	f, err := os.Create(path)
	require.NoError(m.t, err)
	defer func() { _ = f.Close() }()

	gz := gzip.NewWriter(f)
	tw := tar.NewWriter(gz)
	for entry, content := range files {
		require.NoError(m.t, tw.WriteHeader(&tar.Header{
			Name:    entry,
			Mode:    0o644,
			Size:    int64(len(content)),
			ModTime: time.Unix(0, 0),
		}))
		_, err := tw.Write([]byte(content))
		require.NoError(m.t, err)
	}
	require.NoError(m.t, tw.Close())
	require.NoError(m.t, gz.Close())
	return path
}

// AddCrate adds a package with one non-yanked version and, when description
// is not empty, an archive whose manifest carries it.
func (m *Mirror) AddCrate(name, version, description string) {
	m.t.Helper()
	m.AddHistory(name, crate.HistoryEntry{Name: name, Version: version})
	manifest := fmt.Sprintf("[package]\nname = %q\nversion = %q\n", name, version)
	if description != "" {
		manifest += fmt.Sprintf("description = %q\n", description)
	}
	m.AddArchive(name, version, map[string]string{
		fmt.Sprintf("%s-%s/Cargo.toml", name, version): manifest,
	})
}

// Touch sets the modification time of path.
func (m *Mirror) Touch(path string, mtime time.Time) {
	m.t.Helper()
	require.NoError(m.t, os.Chtimes(path, mtime, mtime))
}
