package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Aman-CERP/panamax-search/internal/errors"
	"github.com/Aman-CERP/panamax-search/internal/index"
)

// StatusInfo describes a mirror and its search index.
type StatusInfo struct {
	Mirror         string    `json:"mirror"`
	Packages       int       `json:"packages"`
	CachePath      string    `json:"cache_path"`
	CacheFresh     bool      `json:"cache_fresh"`
	CacheSize      int64     `json:"cache_size"`
	CacheModified  time.Time `json:"cache_modified,omitzero"`
	MarkerModified time.Time `json:"marker_modified,omitzero"`
	// Reason explains why the cache is not fresh.
	Reason string `json:"reason,omitempty"`
}

// StatusFor collects the cache state of store without loading or
// rebuilding anything. packages is the record count of an index the
// caller already holds, or 0.
func StatusFor(store *index.Store, packages int) StatusInfo {
	info := StatusInfo{
		Mirror:    store.MirrorPath(),
		Packages:  packages,
		CachePath: store.CachePath(),
	}
	if st, err := os.Stat(store.CachePath()); err == nil {
		info.CacheSize = st.Size()
		info.CacheModified = st.ModTime()
	}
	if st, err := os.Stat(store.MarkerPath()); err == nil {
		info.MarkerModified = st.ModTime()
	}

	err := store.CheckCache()
	info.CacheFresh = err == nil
	if err != nil {
		info.Reason = err.Error()
		var e *errors.Error
		if errors.As(err, &e) {
			info.Reason = e.Message
		}
	}
	return info
}

// StatusRenderer displays index status.
type StatusRenderer struct {
	out    io.Writer
	styles Styles
}

// NewStatusRenderer creates a status renderer.
func NewStatusRenderer(out io.Writer, noColor bool) *StatusRenderer {
	return &StatusRenderer{
		out:    out,
		styles: GetStyles(noColor),
	}
}

// Render displays status info to terminal.
func (r *StatusRenderer) Render(info StatusInfo) error {
	_, _ = fmt.Fprintf(r.out, "%s\n\n", r.styles.Header.Render("Mirror: "+info.Mirror))

	_, _ = fmt.Fprintf(r.out, "  Packages:      %d\n", info.Packages)
	_, _ = fmt.Fprintf(r.out, "  Cache:         %s\n", info.CachePath)
	_, _ = fmt.Fprintf(r.out, "  Cache size:    %s\n", FormatBytes(info.CacheSize))
	if !info.CacheModified.IsZero() {
		_, _ = fmt.Fprintf(r.out, "  Cache written: %s\n", formatTime(info.CacheModified))
	}
	if !info.MarkerModified.IsZero() {
		_, _ = fmt.Fprintf(r.out, "  Mirror synced: %s\n", formatTime(info.MarkerModified))
	}

	state := r.styles.Success.Render("fresh")
	if !info.CacheFresh {
		state = r.styles.Warning.Render("stale")
		if info.Reason != "" {
			state += " (" + info.Reason + ")"
		}
	}
	_, _ = fmt.Fprintf(r.out, "  State:         %s\n", state)
	return nil
}

// RenderJSON outputs status as JSON.
func (r *StatusRenderer) RenderJSON(info StatusInfo) error {
	encoder := json.NewEncoder(r.out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(info)
}

// formatTime formats a time relative to now.
func formatTime(t time.Time) string {
	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		mins := int(diff.Minutes())
		if mins == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", mins)
	case diff < 24*time.Hour:
		hours := int(diff.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	case diff < 7*24*time.Hour:
		days := int(diff.Hours() / 24)
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	default:
		return t.Format("2006-01-02 15:04")
	}
}

// FormatBytes formats bytes to human-readable format.
func FormatBytes(bytes int64) string {
	const (
		KB = 1024
		MB = 1024 * KB
		GB = 1024 * MB
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
