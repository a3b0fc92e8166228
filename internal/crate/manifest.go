package crate

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/klauspost/compress/gzip"

	"github.com/Aman-CERP/panamax-search/internal/errors"
)

// maxManifestSize bounds how much of a manifest entry is read into memory.
const maxManifestSize = 8 << 20

// manifestNames are the manifest file names accepted inside an archive, in
// lookup order.
var manifestNames = []string{"Cargo.toml", "cargo.toml"}

// Layout describes where package archives live relative to the metadata tree.
type Layout struct {
	// ArchiveDir is the archive root directory name under the mirror.
	ArchiveDir string
	// ArchiveExt is the archive file extension without the dot.
	ArchiveExt string
}

// DefaultLayout returns the layout of a panamax crates mirror.
func DefaultLayout() Layout {
	return Layout{ArchiveDir: "crates", ArchiveExt: "crate"}
}

// ShardPath returns the shard directories for a package name:
//
//	len 1: 1/<c0>
//	len 2: 2/<c0c1>
//	len 3: 3/<c0>
//	len 4+: <c0c1>/<c2c3>
func ShardPath(name string) string {
	switch len(name) {
	case 0:
		return ""
	case 1:
		return filepath.Join("1", name[:1])
	case 2:
		return filepath.Join("2", name[:2])
	case 3:
		return filepath.Join("3", name[:1])
	default:
		return filepath.Join(name[:2], name[2:4])
	}
}

// mirrorLevels is how many directories separate a metadata file from the
// mirror root, which follows the same sharding as the archives.
func mirrorLevels(name string) int {
	if len(name) <= 2 {
		return 3
	}
	return 4
}

// ArchivePath reconstructs the archive location for name@version from the
// path of the package's metadata file.
//
//	<mirror>/<archive-dir>/<shard>/<name>/<version>/<name>-<version>.<ext>
func (l Layout) ArchivePath(metadataFile, name, version string) string {
	mirror := metadataFile
	for range mirrorLevels(name) {
		mirror = filepath.Dir(mirror)
	}
	return filepath.Join(mirror, l.ArchiveDir, ShardPath(name), name, version,
		fmt.Sprintf("%s-%s.%s", name, version, l.ArchiveExt))
}

// ReadManifest decompresses the archive and returns the text of its
// <name>-<version>/Cargo.toml (or lowercase cargo.toml) entry.
func ReadManifest(archivePath, name, version string) (string, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return "", fmt.Errorf("gzip: %w", err)
	}
	defer func() { _ = gz.Close() }()

	wanted := make(map[string]string, len(manifestNames))
	for _, n := range manifestNames {
		wanted[fmt.Sprintf("%s-%s/%s", name, version, n)] = n
	}

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("tar: %w", err)
		}

		n, ok := wanted[hdr.Name]
		if !ok {
			continue
		}
		if n != manifestNames[0] {
			slog.Debug("archive_has_lowercase_manifest", slog.String("archive", archivePath))
		}

		data, err := io.ReadAll(io.LimitReader(tr, maxManifestSize))
		if err != nil {
			return "", fmt.Errorf("read %s: %w", hdr.Name, err)
		}
		return string(data), nil
	}

	return "", fmt.Errorf("no Cargo.toml")
}

type manifestSection struct {
	Description *string `toml:"description"`
}

type packageManifest struct {
	Package *manifestSection `toml:"package"`
}

type projectManifest struct {
	Project *manifestSection `toml:"project"`
}

// ParseDescription extracts the description from manifest text.
//
// The manifest is first read with a [package] section and, failing that,
// with the legacy [project] section. A nil description with a nil error
// means a section parsed but has no description. An error means neither
// shape parsed.
func ParseDescription(content string) (*string, error) {
	var pkg packageManifest
	pkgErr := decodeTOML(content, &pkg)
	if pkgErr == nil && pkg.Package != nil {
		return pkg.Package.Description, nil
	}
	if pkgErr == nil {
		pkgErr = fmt.Errorf("missing field `package`")
	}

	var proj projectManifest
	projErr := decodeTOML(content, &proj)
	if projErr == nil && proj.Project != nil {
		slog.Debug("manifest_has_project_section")
		return proj.Project.Description, nil
	}
	if projErr == nil {
		projErr = fmt.Errorf("missing field `project`")
	}

	return nil, fmt.Errorf("package: %v; project: %w", pkgErr, projErr)
}

func decodeTOML(content string, v any) error {
	_, err := toml.Decode(content, v)
	return err
}

// Describe looks up the description of r in its archive and returns r with
// the description set. Every failure is logged and leaves the description
// empty; none is returned to the caller.
func (l Layout) Describe(metadataFile string, r Record) Record {
	v := r.ResolvedVersion()
	if v == nil {
		return r
	}
	version := v.Original()
	archive := l.ArchivePath(metadataFile, r.Name, version)

	content, err := ReadManifest(archive, r.Name, version)
	if err != nil {
		logUnavailable(archive, err)
		return r
	}

	description, err := ParseDescription(content)
	if err != nil {
		logUnavailable(archive, err)
		return r
	}
	if description == nil {
		slog.Debug("manifest_without_description", slog.String("archive", archive))
		return r
	}

	return r.WithDescription(*description)
}

func logUnavailable(archive string, cause error) {
	e := errors.New(errors.ErrCodeManifestUnavailable, "description unavailable", cause).
		WithDetail("archive", archive)
	slog.LogAttrs(context.Background(), slog.LevelDebug, "manifest_unavailable", errors.FormatForLog(e)...)
}
