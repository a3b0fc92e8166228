package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatForCLI_IncludesHintAndCode(t *testing.T) {
	// Given: an error with suggestion
	err := New(ErrCodeMirrorNotFound, "mirror directory does not exist", nil).
		WithSuggestion("pass the mirror location with -m")

	// When: formatting for CLI
	out := FormatForCLI(err)

	// Then: message, hint and code appear
	assert.Contains(t, out, "Error: mirror directory does not exist")
	assert.Contains(t, out, "Hint: pass the mirror location with -m")
	assert.Contains(t, out, "Code: ERR_201_MIRROR_NOT_FOUND")
}

func TestFormatForCLI_WrapsPlainErrors(t *testing.T) {
	out := FormatForCLI(stderrors.New("boom"))

	assert.Contains(t, out, "Error: boom")
	assert.Contains(t, out, "Code: ERR_501_INTERNAL")
}

func TestFormatForCLI_Nil(t *testing.T) {
	assert.Empty(t, FormatForCLI(nil))
}

func TestFormatForLog_ReturnsAttributes(t *testing.T) {
	err := New(ErrCodeCacheCorrupt, "cannot decode cache", stderrors.New("unexpected EOF")).
		WithDetail("path", "/m/search.json")

	attrs := FormatForLog(err)

	keys := make(map[string]string)
	for _, a := range attrs {
		keys[a.Key] = a.Value.String()
	}
	assert.Equal(t, ErrCodeCacheCorrupt, keys["error_code"])
	assert.Equal(t, "unexpected EOF", keys["cause"])
	assert.Equal(t, "/m/search.json", keys["detail_path"])
	assert.Equal(t, string(SeverityWarning), keys["severity"])
}
