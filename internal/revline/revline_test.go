package revline

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, input string, chunkSize int) []string {
	t.Helper()
	s := NewSize(strings.NewReader(input), int64(len(input)), chunkSize)
	var lines []string
	for s.Scan() {
		lines = append(lines, s.Text())
	}
	require.NoError(t, s.Err())
	return lines
}

func TestScanner_ReversesLines(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty", "", nil},
		{"single newline", "\n", nil},
		{"single line no newline", "a", []string{"a"}},
		{"single line with newline", "a\n", []string{"a"}},
		{"several lines", "one\ntwo\nthree\n", []string{"three", "two", "one"}},
		{"no trailing newline", "one\ntwo", []string{"two", "one"}},
		{"blank line in middle", "a\n\nb\n", []string{"b", "", "a"}},
		{"crlf", "a\r\nb\r\n", []string{"b", "a"}},
	}

	for _, tt := range tests {
		for _, chunk := range []int{1, 2, 3, 7, DefaultChunkSize} {
			t.Run(tt.name, func(t *testing.T) {
				assert.Equal(t, tt.want, collect(t, tt.input, chunk), "chunk size %d", chunk)
			})
		}
	}
}

func TestScanner_LongLinesSpanChunks(t *testing.T) {
	// Given: lines far longer than the chunk size
	first := strings.Repeat("x", 100)
	second := strings.Repeat("y", 250)
	input := first + "\n" + second + "\n"

	// When: scanning with a tiny chunk
	lines := collect(t, input, 16)

	// Then: lines are reassembled intact
	assert.Equal(t, []string{second, first}, lines)
}

type failingReader struct{}

func (failingReader) ReadAt(p []byte, off int64) (int, error) {
	return 0, errors.New("disk gone")
}

func TestScanner_ReportsReadErrors(t *testing.T) {
	s := New(failingReader{}, 10)

	assert.False(t, s.Scan())
	assert.EqualError(t, s.Err(), "disk gone")
}

func TestScanner_StopsEarlyWithoutReadingWholeSource(t *testing.T) {
	// Given: a source where only the tail is needed
	input := strings.Repeat("old\n", 1000) + "newest\n"
	s := NewSize(strings.NewReader(input), int64(len(input)), 16)

	// When: reading one line
	require.True(t, s.Scan())

	// Then: the newest line comes first and most of the source is untouched
	assert.Equal(t, "newest", s.Text())
	assert.Greater(t, s.offset, int64(len(input)/2))
}
