package output

import (
	"encoding/json"
	"io"

	"github.com/Aman-CERP/panamax-search/internal/crate"
	"github.com/Aman-CERP/panamax-search/internal/search"
)

// Tier names used in JSON output.
const (
	TierExact       = "exact"
	TierName        = "name"
	TierDescription = "description"
)

// Match is the JSON form of one matched record.
type Match struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Description string `json:"description,omitempty"`
	Tier        string `json:"tier"`
}

// Matches flattens res into tier-ordered matches.
func Matches(res *search.Result, includeYanked bool) []Match {
	out := make([]Match, 0, res.Len())
	add := func(tier string, records []crate.Record) {
		for _, r := range records {
			out = append(out, Match{
				Name:        r.Name,
				Version:     DisplayVersion(r, includeYanked),
				Description: r.DescriptionText(),
				Tier:        tier,
			})
		}
	}
	add(TierExact, res.Exact)
	add(TierName, res.NameContains)
	add(TierDescription, res.DescriptionContains)
	return out
}

// WriteJSON writes res as an indented JSON array of matches.
func WriteJSON(w io.Writer, res *search.Result, includeYanked bool) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(Matches(res, includeYanked))
}
