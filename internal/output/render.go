package output

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/Aman-CERP/panamax-search/internal/crate"
	"github.com/Aman-CERP/panamax-search/internal/parallel"
	"github.com/Aman-CERP/panamax-search/internal/search"
)

// ZeroVersion is shown for packages whose every version was yanked, as
// `cargo search` does.
const ZeroVersion = "0.0.0"

// RenderOptions configures Render.
type RenderOptions struct {
	// IncludeYanked shows the latest yanked version when one is newer.
	IncludeYanked bool
	// Highlight wraps every query match with Emphasis.
	Highlight bool
	// Emphasis decorates a matched substring. Defaults to ANSI bold green.
	Emphasis func(string) string
	// Workers bounds line rendering parallelism. Zero means NumCPU.
	Workers int
}

// DisplayVersion returns the version shown for r.
func DisplayVersion(r crate.Record, includeYanked bool) string {
	if includeYanked && r.LatestYanked != nil {
		return r.LatestYanked.String()
	}
	if r.LatestNonYanked != nil {
		return r.LatestNonYanked.String()
	}
	return ZeroVersion
}

// AnsiEmphasis is the default emphasis: bold green.
func AnsiEmphasis(s string) string {
	return "\x1b[1;32m" + s + "\x1b[0m"
}

type line struct {
	nameVersion string
	description *string
}

// Render formats res as one line per record in tier order:
//
//	serde = "1.0.219"        # A generic serialization/deserialization framework
//	serde_json = "1.0.140"   # A JSON serialization file format
//
// Every "#" starts in the same column. Newlines inside descriptions are
// escaped so each record stays on one line.
func Render(ctx context.Context, res *search.Result, opts RenderOptions) (string, error) {
	records := res.All()
	lines := make([]line, len(records))
	width := 0
	for i, r := range records {
		nv := r.Name + ` = "` + DisplayVersion(r, opts.IncludeYanked) + `"    `
		width = max(width, len(nv))
		lines[i] = line{nameVersion: nv, description: r.Description}
	}

	emphasis := opts.Emphasis
	if emphasis == nil {
		emphasis = AnsiEmphasis
	}
	mark := func(s string) string {
		if !opts.Highlight {
			return s
		}
		return Highlight(s, res.Patterns, emphasis)
	}

	rendered, err := parallel.Map(ctx, opts.Workers, lines, func(_ context.Context, l line) (string, error) {
		if l.description == nil {
			return mark(l.nameVersion) + "\n", nil
		}
		pad := strings.Repeat(" ", width-len(l.nameVersion))
		return mark(l.nameVersion) + pad + "# " + mark(escape(*l.description)) + "\n", nil
	})
	if err != nil {
		return "", err
	}
	return strings.Join(rendered, ""), nil
}

var escaper = strings.NewReplacer("\n", `\n`, "\r", `\r`)

func escape(s string) string {
	return escaper.Replace(s)
}

// Highlight wraps every non-empty match of every pattern in s with emphasis.
// Overlapping or adjacent matches from different patterns are merged so no
// text is decorated twice.
func Highlight(s string, patterns []*regexp.Regexp, emphasis func(string) string) string {
	var spans [][]int
	for _, re := range patterns {
		for _, m := range re.FindAllStringIndex(s, -1) {
			if m[1] > m[0] {
				spans = append(spans, m)
			}
		}
	}
	if len(spans) == 0 {
		return s
	}

	sort.Slice(spans, func(i, j int) bool {
		return spans[i][0] < spans[j][0]
	})
	merged := [][]int{spans[0]}
	for _, sp := range spans[1:] {
		last := merged[len(merged)-1]
		if sp[0] <= last[1] {
			last[1] = max(last[1], sp[1])
			continue
		}
		merged = append(merged, sp)
	}

	var sb strings.Builder
	prev := 0
	for _, sp := range merged {
		sb.WriteString(s[prev:sp[0]])
		sb.WriteString(emphasis(s[sp[0]:sp[1]]))
		prev = sp[1]
	}
	sb.WriteString(s[prev:])
	return sb.String()
}
