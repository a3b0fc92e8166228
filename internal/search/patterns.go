package search

import (
	"regexp"
	"regexp/syntax"

	"github.com/Aman-CERP/panamax-search/internal/errors"
)

// CompilePatterns compiles one regular expression per query.
func CompilePatterns(queries []string, caseSensitive bool) ([]*regexp.Regexp, error) {
	if len(queries) == 0 {
		return nil, errors.New(errors.ErrCodeQueryEmpty, "no query given", nil).
			WithSuggestion("pass one or more queries, or -U to rebuild the index")
	}

	patterns := make([]*regexp.Regexp, len(queries))
	for i, q := range queries {
		re, err := regexp.Compile(withFlags(q, caseSensitive))
		if err != nil {
			return nil, invalidQuery(q, err)
		}
		patterns[i] = re
	}
	return patterns, nil
}

// combine joins queries into one alternation, so a record is tested once
// regardless of the number of queries. Queries are joined as parsed trees,
// since a `\Q` quote left open in one query would swallow its neighbours
// if they were joined as text.
func combine(queries []string, caseSensitive bool) (*regexp.Regexp, error) {
	flags := syntax.Perl
	if !caseSensitive {
		flags |= syntax.FoldCase
	}

	alt := &syntax.Regexp{Op: syntax.OpAlternate, Flags: flags}
	for _, q := range queries {
		tree, err := syntax.Parse(q, flags)
		if err != nil {
			return nil, invalidQuery(q, err)
		}
		alt.Sub = append(alt.Sub, tree)
	}
	if len(alt.Sub) == 1 {
		alt = alt.Sub[0]
	}

	re, err := regexp.Compile(alt.String())
	if err != nil {
		return nil, errors.New(errors.ErrCodeInvalidQuery, "invalid query", err)
	}
	return re, nil
}

func invalidQuery(q string, err error) *errors.Error {
	return errors.Newf(errors.ErrCodeInvalidQuery, err, "invalid query %q", q).
		WithSuggestion("queries are regular expressions; escape special characters such as '+' or '('")
}

func withFlags(pattern string, caseSensitive bool) string {
	if caseSensitive {
		return pattern
	}
	return "(?i)" + pattern
}
