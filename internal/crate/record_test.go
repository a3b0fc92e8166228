package crate_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/panamax-search/internal/crate"
)

func TestNewRecord_RequiresAVersion(t *testing.T) {
	_, err := crate.NewRecord("serde", nil, nil)

	assert.ErrorContains(t, err, "no latest or latest non-yanked version")
}

func TestRecord_JSONUsesShortKeysAndOmitsName(t *testing.T) {
	// Given: a record with every field
	r := record(t, "serde", "1.0.1", "1.0.2").WithDescription("ser/de")

	// When: marshalling
	data, err := json.Marshal(r)

	// Then: name is absent and keys are short
	require.NoError(t, err)
	assert.JSONEq(t, `{"d":"ser/de","v":"1.0.1","y":"1.0.2"}`, string(data))
}

func TestRecord_JSONOmitsAbsentFields(t *testing.T) {
	data, err := json.Marshal(record(t, "serde", "1.0.1", ""))

	require.NoError(t, err)
	assert.Equal(t, `{"v":"1.0.1"}`, string(data))
}

func TestRecord_CloneDoesNotAlias(t *testing.T) {
	r := record(t, "serde", "1.0.1", "").WithDescription("before")

	c := r.Clone()
	*c.Description = "after"

	assert.Equal(t, "before", r.DescriptionText())
	assert.True(t, r.LatestNonYanked != c.LatestNonYanked)
	assert.True(t, c.LatestNonYanked.Equal(r.LatestNonYanked))
}

func TestRecord_ResolvedVersionPrefersNonYanked(t *testing.T) {
	assert.Equal(t, "1.0.0", record(t, "a", "1.0.0", "2.0.0").ResolvedVersion().Original())
	assert.Equal(t, "2.0.0", record(t, "a", "", "2.0.0").ResolvedVersion().Original())
}
