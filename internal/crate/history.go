package crate

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/Aman-CERP/panamax-search/internal/errors"
	"github.com/Aman-CERP/panamax-search/internal/revline"
)

// HistoryEntry is one line of a package metadata file. Fields other than
// these three are ignored.
type HistoryEntry struct {
	Name    string `json:"name"`
	Version string `json:"vers"`
	Yanked  bool   `json:"yanked"`
}

// History is the outcome of scanning one metadata file.
type History struct {
	Name            string
	LatestNonYanked *semver.Version
	LatestYanked    *semver.Version
}

// Record converts the history into a Record without a description.
func (h History) Record() (Record, error) {
	return NewRecord(h.Name, h.LatestNonYanked, h.LatestYanked)
}

// ScanHistory resolves the latest non-yanked and latest yanked versions of
// the package described by the metadata file at path.
//
// Lines are read newest first. The first yanked entry seen becomes the latest
// yanked version. The first non-yanked entry becomes the latest non-yanked
// version and ends the scan: nothing published before it can supersede it.
//
// Any unparseable line, a missing name, or a file without versions is a
// metadata corruption error.
func ScanHistory(path string) (History, error) {
	slog.Debug("scan_history", slog.String("path", path))

	f, err := os.Open(path)
	if err != nil {
		return History{}, corrupt(path, "could not open metadata file", err)
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return History{}, corrupt(path, "could not stat metadata file", err)
	}

	var h History
	lines := revline.New(f, info.Size())
	for lines.Scan() {
		raw := lines.Bytes()
		if len(strings.TrimSpace(string(raw))) == 0 {
			continue
		}

		entry, err := parseEntry(raw)
		if err != nil {
			return History{}, corrupt(path, fmt.Sprintf("deserialization error; line = %q", raw), err)
		}

		if h.Name == "" {
			h.Name = entry.Name
		} else if !strings.EqualFold(h.Name, entry.Name) {
			return History{}, corrupt(path,
				fmt.Sprintf("entry for %q in history of %q", entry.Name, h.Name), nil)
		}

		v, err := semver.StrictNewVersion(entry.Version)
		if err != nil {
			return History{}, corrupt(path, fmt.Sprintf("invalid version %q", entry.Version), err)
		}

		if entry.Yanked {
			if h.LatestYanked == nil {
				h.LatestYanked = v
			}
			continue
		}

		h.LatestNonYanked = v
		break
	}
	if err := lines.Err(); err != nil {
		return History{}, corrupt(path, "could not read metadata file", err)
	}

	if h.Name == "" {
		return History{}, corrupt(path, "no name", nil)
	}
	if base := filepath.Base(path); !strings.EqualFold(base, h.Name) {
		return History{}, corrupt(path, fmt.Sprintf("file %q holds history of %q", base, h.Name), nil)
	}
	if h.LatestNonYanked == nil && h.LatestYanked == nil {
		return History{}, corrupt(path, "no latest or latest non-yanked version", nil)
	}

	return h, nil
}

func parseEntry(raw []byte) (HistoryEntry, error) {
	var entry HistoryEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return HistoryEntry{}, err
	}
	if entry.Name == "" {
		return HistoryEntry{}, fmt.Errorf("missing field `name`")
	}
	if entry.Version == "" {
		return HistoryEntry{}, fmt.Errorf("missing field `vers`")
	}
	return entry, nil
}

func corrupt(path, msg string, cause error) *errors.Error {
	return errors.New(errors.ErrCodeMetadataCorrupt, fmt.Sprintf("%s: %s", path, msg), cause).
		WithDetail("path", path)
}
