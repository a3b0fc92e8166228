package index_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/panamax-search/internal/crate"
	"github.com/Aman-CERP/panamax-search/internal/index"
)

func TestMarshalCache_OneMemberPerLine(t *testing.T) {
	// Given two packages with different optional fields
	idx, err := index.New([]crate.Record{
		rec("foo", "0.2.1", "", "a foo"),
		rec("bar", "1.0.0", "1.0.1", ""),
	})
	require.NoError(t, err)

	// When encoding the cache
	data, err := index.MarshalCache(context.Background(), idx, 2)
	require.NoError(t, err)

	// Then members are sorted, newline separated, and use short keys
	want := "{" +
		`"bar":{"v":"1.0.0","y":"1.0.1"},` + "\n" +
		`"foo":{"d":"a foo","v":"0.2.1"}` +
		"}"
	assert.Equal(t, want, string(data))
}

func TestMarshalCache_KeepsMarkupCharacters(t *testing.T) {
	// Given a description full of characters HTML escaping would rewrite
	idx, err := index.New([]crate.Record{rec("either", "1.0.0", "", "Either<L, R> & friends")})
	require.NoError(t, err)

	// When encoding and decoding the cache
	data, err := index.MarshalCache(context.Background(), idx, 1)
	require.NoError(t, err)
	back, err := index.UnmarshalCache(data)
	require.NoError(t, err)

	// Then the text is written as is and survives the round trip
	assert.Equal(t, `{"either":{"d":"Either<L, R> & friends","v":"1.0.0"}}`, string(data))
	assert.True(t, idx.Equal(back))
}

func TestMarshalCache_Empty(t *testing.T) {
	idx, err := index.New(nil)
	require.NoError(t, err)

	data, err := index.MarshalCache(context.Background(), idx, 0)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))
}

func TestCache_RoundTrip(t *testing.T) {
	// Given an index covering every field combination
	idx, err := index.New([]crate.Record{
		rec("only-yanked", "", "0.3.0", ""),
		rec("both", "1.2.3", "1.3.0", "two\nlines"),
		rec("plain", "0.1.0", "", ""),
		rec("quoted", "2.0.0-beta.1", "", `has "quotes" & <tags>`),
	})
	require.NoError(t, err)

	// When encoding and decoding
	data, err := index.MarshalCache(context.Background(), idx, 3)
	require.NoError(t, err)
	loaded, err := index.UnmarshalCache(data)
	require.NoError(t, err)

	// Then the mapping is identical
	assert.True(t, idx.Equal(loaded))
	assert.Equal(t, idx.Names(), loaded.Names())
}

func TestUnmarshalCache_Rejects(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "not json", data: "not json"},
		{name: "array", data: `[1,2]`},
		{name: "null", data: `null`},
		{name: "record without versions", data: `{"serde":{"d":"x"}}`},
		{name: "bad version", data: `{"serde":{"v":"one"}}`},
		{name: "truncated", data: `{"serde":{"v":"1.0.0"},` + "\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := index.UnmarshalCache([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestUnmarshalCache_NameFromKey(t *testing.T) {
	idx, err := index.UnmarshalCache([]byte(`{"serde":{"v":"1.0.0"}}`))
	require.NoError(t, err)

	got, ok := idx.Get("serde")
	require.True(t, ok)
	assert.Equal(t, "serde", got.Name)
	assert.Equal(t, "1.0.0", got.LatestNonYanked.String())
	assert.Nil(t, got.LatestYanked)
	assert.Nil(t, got.Description)
}
