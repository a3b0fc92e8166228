package crate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/panamax-search/internal/crate"
	"github.com/Aman-CERP/panamax-search/internal/errors"
	"github.com/Aman-CERP/panamax-search/internal/testutil"
)

func entry(name, version string, yanked bool) crate.HistoryEntry {
	return crate.HistoryEntry{Name: name, Version: version, Yanked: yanked}
}

func versionString(t *testing.T, h crate.History, yanked bool) string {
	t.Helper()
	v := h.LatestNonYanked
	if yanked {
		v = h.LatestYanked
	}
	if v == nil {
		return ""
	}
	return v.Original()
}

func TestScanHistory_ResolvesVersions(t *testing.T) {
	tests := []struct {
		name          string
		entries       []crate.HistoryEntry
		wantNonYanked string
		wantYanked    string
	}{
		{
			name:          "newest is non-yanked",
			entries:       []crate.HistoryEntry{entry("serde", "1.0.0", false), entry("serde", "1.0.1", false)},
			wantNonYanked: "1.0.1",
		},
		{
			name: "yanked newer than non-yanked",
			entries: []crate.HistoryEntry{
				entry("serde", "1.0.0", false),
				entry("serde", "1.0.1", true),
				entry("serde", "1.0.2", true),
			},
			wantNonYanked: "1.0.0",
			wantYanked:    "1.0.2",
		},
		{
			name: "yanked older than newest non-yanked is never recorded",
			entries: []crate.HistoryEntry{
				entry("serde", "0.9.0", true),
				entry("serde", "1.0.0", false),
			},
			wantNonYanked: "1.0.0",
		},
		{
			name: "only yanked",
			entries: []crate.HistoryEntry{
				entry("serde", "0.1.0", true),
				entry("serde", "0.2.0", true),
			},
			wantYanked: "0.2.0",
		},
		{
			name: "publish order wins over version order",
			entries: []crate.HistoryEntry{
				entry("serde", "2.0.0", false),
				entry("serde", "1.5.0", false),
			},
			wantNonYanked: "1.5.0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Given: a metadata file
			m := testutil.NewMirror(t)
			path := m.AddHistory("serde", tt.entries...)

			// When: scanning it
			h, err := crate.ScanHistory(path)

			// Then: versions resolve newest first
			require.NoError(t, err)
			assert.Equal(t, "serde", h.Name)
			assert.Equal(t, tt.wantNonYanked, versionString(t, h, false))
			assert.Equal(t, tt.wantYanked, versionString(t, h, true))
		})
	}
}

func TestScanHistory_StopsAtNewestNonYanked(t *testing.T) {
	// Given: garbage before the newest non-yanked entry
	m := testutil.NewMirror(t)
	path := m.AddRawHistory("serde", "this is not json\n"+
		`{"name":"serde","vers":"1.0.0","yanked":false}`+"\n")

	// When: scanning
	h, err := crate.ScanHistory(path)

	// Then: the unreachable line is never parsed
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", versionString(t, h, false))
}

func TestScanHistory_CorruptionIsFatal(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unparseable line", `{"name":"serde","vers":"1.0.0","yanked":false}` + "\n{broken\n"},
		{"missing name", `{"vers":"1.0.0","yanked":false}` + "\n"},
		{"invalid version", `{"name":"serde","vers":"one","yanked":false}` + "\n"},
		{"empty file", ""},
		{"mismatched names", `{"name":"serde","vers":"1.0.0","yanked":true}` + "\n" +
			`{"name":"other","vers":"1.0.1","yanked":true}` + "\n"},
		{"file of another package", `{"name":"tokio","vers":"1.0.0","yanked":false}` + "\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := testutil.NewMirror(t)
			path := m.AddRawHistory("serde", tt.content)

			_, err := crate.ScanHistory(path)

			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrMetadataCorrupt))
			assert.True(t, errors.IsFatal(err))
			assert.Contains(t, err.Error(), path)
		})
	}
}

func TestScanHistory_MissingFile(t *testing.T) {
	_, err := crate.ScanHistory("/does/not/exist/serde")

	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrMetadataCorrupt))
}

func TestScanHistory_NameCaseFollowsEntries(t *testing.T) {
	// Given: a package published with mixed case; the file name is lowercase
	m := testutil.NewMirror(t)
	path := m.AddHistory("Inflector", entry("Inflector", "0.11.4", false))

	h, err := crate.ScanHistory(path)

	require.NoError(t, err)
	assert.Equal(t, "Inflector", h.Name)
}
