package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/Aman-CERP/panamax-search/internal/output"
	"github.com/Aman-CERP/panamax-search/internal/search"
)

// Limits applied to search_crates.
const (
	DefaultLimit = 50
	MaxLimit     = 1000
)

// FormatSearchResults renders res as the aligned listing the CLI prints,
// without highlighting.
func FormatSearchResults(ctx context.Context, queries []string, res *search.Result, total int, includeYanked bool) (string, error) {
	if res.Len() == 0 {
		return fmt.Sprintf("No crates match %s", quoteAll(queries)), nil
	}

	text, err := output.Render(ctx, res, output.RenderOptions{IncludeYanked: includeYanked})
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString(text)
	if total > res.Len() {
		fmt.Fprintf(&sb, "\n(%d of %d matches shown)", res.Len(), total)
	}
	return sb.String(), nil
}

func quoteAll(queries []string) string {
	quoted := make([]string, len(queries))
	for i, q := range queries {
		quoted[i] = fmt.Sprintf("%q", q)
	}
	return strings.Join(quoted, ", ")
}

// clampLimit returns defaultVal for limit <= 0 and caps limit at max.
func clampLimit(limit, defaultVal, max int) int {
	if limit <= 0 {
		return defaultVal
	}
	if limit > max {
		return max
	}
	return limit
}
