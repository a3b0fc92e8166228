package crate_test

import (
	"path/filepath"
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/panamax-search/internal/crate"
	"github.com/Aman-CERP/panamax-search/internal/testutil"
)

func TestShardPath(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"a", filepath.Join("1", "a")},
		{"ab", filepath.Join("2", "ab")},
		{"abc", filepath.Join("3", "a")},
		{"abcd", filepath.Join("ab", "cd")},
		{"serde", filepath.Join("se", "rd")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, crate.ShardPath(tt.name))
		})
	}
}

func TestArchivePath_FromMetadataFile(t *testing.T) {
	layout := crate.DefaultLayout()
	root := filepath.FromSlash("/mirror")

	tests := []struct {
		metadata string
		name     string
		want     string
	}{
		{"crates.io-index/1/a", "a", "crates/1/a/a/0.1.0/a-0.1.0.crate"},
		{"crates.io-index/2/ab", "ab", "crates/2/ab/ab/0.1.0/ab-0.1.0.crate"},
		{"crates.io-index/3/a/abc", "abc", "crates/3/a/abc/0.1.0/abc-0.1.0.crate"},
		{"crates.io-index/ab/cd/abcd", "abcd", "crates/ab/cd/abcd/0.1.0/abcd-0.1.0.crate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			metadata := filepath.Join(root, filepath.FromSlash(tt.metadata))

			got := layout.ArchivePath(metadata, tt.name, "0.1.0")

			assert.Equal(t, filepath.Join(root, filepath.FromSlash(tt.want)), got)
		})
	}
}

func TestParseDescription(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    *string
		wantErr bool
	}{
		{
			name:    "package section",
			content: "[package]\nname = \"x\"\ndescription = \"A thing\"\n",
			want:    ptr("A thing"),
		},
		{
			name:    "legacy project section",
			content: "[project]\nname = \"x\"\ndescription = \"Old thing\"\n",
			want:    ptr("Old thing"),
		},
		{
			name:    "package without description",
			content: "[package]\nname = \"x\"\n",
		},
		{
			name:    "package description of wrong type falls back to project",
			content: "[package]\ndescription = { workspace = true }\n[project]\ndescription = \"fallback\"\n",
			want:    ptr("fallback"),
		},
		{
			name:    "neither section",
			content: "[dependencies]\nserde = \"1\"\n",
			wantErr: true,
		},
		{
			name:    "invalid toml",
			content: "[package\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := crate.ParseDescription(tt.content)

			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadManifest_AcceptsLowercaseName(t *testing.T) {
	// Given: an archive whose manifest uses the lowercase file name
	m := testutil.NewMirror(t)
	path := m.AddArchive("abcd", "1.0.0", map[string]string{
		"abcd-1.0.0/src/lib.rs":  "",
		"abcd-1.0.0/cargo.toml":  "[package]\ndescription = \"lower\"\n",
		"other-1.0.0/Cargo.toml": "[package]\ndescription = \"wrong\"\n",
	})

	// When: reading the manifest
	content, err := crate.ReadManifest(path, "abcd", "1.0.0")

	// Then: the matching entry is returned
	require.NoError(t, err)
	assert.Contains(t, content, "lower")
}

func TestReadManifest_Failures(t *testing.T) {
	m := testutil.NewMirror(t)
	noManifest := m.AddArchive("abcd", "1.0.0", map[string]string{"abcd-1.0.0/README.md": "hi"})

	_, err := crate.ReadManifest(noManifest, "abcd", "1.0.0")
	assert.ErrorContains(t, err, "no Cargo.toml")

	_, err = crate.ReadManifest(filepath.Join(m.Root, "missing.crate"), "abcd", "1.0.0")
	assert.Error(t, err)

	// Metadata file is not gzip
	_, err = crate.ReadManifest(m.MarkerPath(), "abcd", "1.0.0")
	assert.ErrorContains(t, err, "gzip")
}

func TestDescribe_DegradesToNoDescription(t *testing.T) {
	m := testutil.NewMirror(t)
	layout := crate.DefaultLayout()

	t.Run("description found", func(t *testing.T) {
		m.AddCrate("serde", "1.0.0", "A serialization framework")
		r := record(t, "serde", "1.0.0", "")

		got := layout.Describe(m.MetadataPath("serde"), r)

		require.NotNil(t, got.Description)
		assert.Equal(t, "A serialization framework", *got.Description)
	})

	t.Run("archive missing", func(t *testing.T) {
		m.AddHistory("tokio", entry("tokio", "1.0.0", false))
		r := record(t, "tokio", "1.0.0", "")

		got := layout.Describe(m.MetadataPath("tokio"), r)

		assert.Nil(t, got.Description)
		assert.True(t, got.Equal(r))
	})

	t.Run("uses yanked version when nothing else exists", func(t *testing.T) {
		m.AddHistory("rand", entry("rand", "0.1.0", true))
		m.AddArchive("rand", "0.1.0", map[string]string{
			"rand-0.1.0/Cargo.toml": "[project]\ndescription = \"random\"\n",
		})
		r := record(t, "rand", "", "0.1.0")

		got := layout.Describe(m.MetadataPath("rand"), r)

		require.NotNil(t, got.Description)
		assert.Equal(t, "random", *got.Description)
	})
}

func ptr(s string) *string { return &s }

func record(t *testing.T, name, nonYanked, yanked string) crate.Record {
	t.Helper()
	var ny, y *semver.Version
	if nonYanked != "" {
		ny = semver.MustParse(nonYanked)
	}
	if yanked != "" {
		y = semver.MustParse(yanked)
	}
	r, err := crate.NewRecord(name, ny, y)
	require.NoError(t, err)
	return r
}
