// Package search classifies index records against free-text queries.
//
// Matches fall into three tiers, each reported in a fixed order: exact name
// matches in query order, then name matches in name order, then description
// matches in name order. A record appears in at most one tier.
package search

import (
	"regexp"

	"github.com/Aman-CERP/panamax-search/internal/crate"
)

// Catalog is the read-only view of an index that search needs.
type Catalog interface {
	// Lookup returns the record named exactly name.
	Lookup(name string) (*crate.Record, bool)
	// Sorted returns every record ordered by name.
	Sorted() []*crate.Record
}

// Options configures a search.
type Options struct {
	// CaseSensitive disables case folding for name and description matching.
	// Exact name lookup is always case sensitive.
	CaseSensitive bool
}

// Result holds copies of the matched records, by tier.
type Result struct {
	Exact               []crate.Record
	NameContains        []crate.Record
	DescriptionContains []crate.Record

	// Patterns holds one compiled pattern per query, used for highlighting.
	Patterns []*regexp.Regexp
}

// All returns every matched record in tier order.
func (r *Result) All() []crate.Record {
	out := make([]crate.Record, 0, r.Len())
	out = append(out, r.Exact...)
	out = append(out, r.NameContains...)
	return append(out, r.DescriptionContains...)
}

// Len returns the number of matched records.
func (r *Result) Len() int {
	return len(r.Exact) + len(r.NameContains) + len(r.DescriptionContains)
}

// Limit returns a copy of r keeping the first n records in tier order.
// n <= 0 keeps everything.
func (r *Result) Limit(n int) *Result {
	out := &Result{Patterns: r.Patterns}
	if n <= 0 || n >= r.Len() {
		out.Exact = r.Exact
		out.NameContains = r.NameContains
		out.DescriptionContains = r.DescriptionContains
		return out
	}

	take := func(tier []crate.Record) []crate.Record {
		k := min(n, len(tier))
		n -= k
		return tier[:k]
	}
	out.Exact = take(r.Exact)
	out.NameContains = take(r.NameContains)
	out.DescriptionContains = take(r.DescriptionContains)
	return out
}
