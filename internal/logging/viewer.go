package logging

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/Aman-CERP/panamax-search/internal/revline"
)

// LogEntry represents a parsed log line.
type LogEntry struct {
	Time    time.Time
	Level   string
	Msg     string
	Attrs   map[string]any
	Raw     string
	IsValid bool // JSON parsing succeeded
}

// ViewerConfig configures the log viewer.
type ViewerConfig struct {
	Level   string         // minimum level to show
	Pattern *regexp.Regexp // filter on the raw line
	NoColor bool
}

// Viewer provides log viewing and filtering for `panamax-search logs`.
type Viewer struct {
	config ViewerConfig
	out    io.Writer
}

// NewViewer creates a new log viewer.
func NewViewer(cfg ViewerConfig, out io.Writer) *Viewer {
	return &Viewer{
		config: cfg,
		out:    out,
	}
}

var textLevel = regexp.MustCompile(`\blevel=([A-Za-z]+)`)

// Tail returns the last n matching entries of the file at path, oldest
// first. The file is read from the end so large logs are cheap.
func (v *Viewer) Tail(path string, n int) ([]LogEntry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = file.Close() }()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat log file: %w", err)
	}

	var entries []LogEntry
	scanner := revline.New(file, info.Size())
	for len(entries) < n && scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		entry := v.parseLine(line)
		if v.matchesFilter(entry) {
			entries = append(entries, entry)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read log file: %w", err)
	}

	slices.Reverse(entries)
	return entries, nil
}

// Follow sends entries appended to the file at path until ctx is done.
// When the writer rotates path away, the rest of the old file is drained
// and following continues from the start of the new one.
func (v *Viewer) Follow(ctx context.Context, path string, entries chan<- LogEntry) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = file.Close() }()

	if _, err := file.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("failed to seek to end: %w", err)
	}

	reader := bufio.NewReader(file)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	var partial string
	// drain sends every complete line buffered so far and reports
	// whether ctx ended meanwhile.
	drain := func() bool {
		for {
			chunk, err := reader.ReadString('\n')
			if err != nil {
				// Keep an unterminated tail for the next read.
				partial += chunk
				return false
			}

			line := strings.TrimSuffix(partial+chunk, "\n")
			partial = ""
			if line == "" {
				continue
			}

			entry := v.parseLine(line)
			if v.matchesFilter(entry) {
				select {
				case entries <- entry:
				case <-ctx.Done():
					return true
				}
			}
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		if drain() {
			return nil
		}
		if next := reopenIfRotated(file, path); next != nil {
			// The old file is complete once renamed; read what is left.
			if drain() {
				_ = next.Close()
				return nil
			}
			_ = file.Close()
			file = next
			reader.Reset(file)
			partial = ""
		}
	}
}

// reopenIfRotated returns a fresh handle on path when it no longer names
// the open file, or nil while it still does or nothing replaced it yet.
func reopenIfRotated(open *os.File, path string) *os.File {
	current, err := os.Stat(path)
	if err != nil {
		return nil
	}
	info, err := open.Stat()
	if err != nil || os.SameFile(info, current) {
		return nil
	}
	next, err := os.Open(path)
	if err != nil {
		return nil
	}
	return next
}

// FormatEntry formats a log entry for display. Text-format lines are
// returned unchanged.
func (v *Viewer) FormatEntry(entry LogEntry) string {
	if !entry.IsValid {
		return entry.Raw
	}

	timestamp := entry.Time.Format("15:04:05.000")
	level := v.formatLevel(entry.Level)

	keys := make([]string, 0, len(entry.Attrs))
	for k := range entry.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var attrs strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&attrs, " %s=%v", k, entry.Attrs[k])
	}

	return fmt.Sprintf("%s %s %s%s", timestamp, level, entry.Msg, attrs.String())
}

// Print prints entries to the output.
func (v *Viewer) Print(entries []LogEntry) {
	for _, entry := range entries {
		_, _ = fmt.Fprintln(v.out, v.FormatEntry(entry))
	}
}

func (v *Viewer) parseLine(line string) LogEntry {
	entry := LogEntry{Raw: line}

	var data map[string]any
	if err := json.Unmarshal([]byte(line), &data); err != nil {
		if m := textLevel.FindStringSubmatch(line); m != nil {
			entry.Level = m[1]
		}
		return entry
	}

	entry.IsValid = true

	if t, ok := data["time"].(string); ok {
		if parsed, err := time.Parse(time.RFC3339Nano, t); err == nil {
			entry.Time = parsed
		}
	}
	if l, ok := data["level"].(string); ok {
		entry.Level = l
	}
	if m, ok := data["msg"].(string); ok {
		entry.Msg = m
	}

	entry.Attrs = make(map[string]any)
	for k, val := range data {
		if k != "time" && k != "level" && k != "msg" {
			entry.Attrs[k] = val
		}
	}

	return entry
}

func (v *Viewer) matchesFilter(entry LogEntry) bool {
	if v.config.Level != "" && entry.Level != "" {
		if LevelFromString(entry.Level) < LevelFromString(v.config.Level) {
			return false
		}
	}

	if v.config.Pattern != nil && !v.config.Pattern.MatchString(entry.Raw) {
		return false
	}

	return true
}

func (v *Viewer) formatLevel(level string) string {
	levelStr := fmt.Sprintf("%-5s", strings.ToUpper(level))
	if len(levelStr) > 5 {
		levelStr = levelStr[:5]
	}

	if v.config.NoColor {
		return levelStr
	}

	switch strings.ToLower(level) {
	case "trace", "debug":
		return "\033[90m" + levelStr + "\033[0m"
	case "info":
		return "\033[32m" + levelStr + "\033[0m"
	case "warn", "warning":
		return "\033[33m" + levelStr + "\033[0m"
	case "error":
		return "\033[31m" + levelStr + "\033[0m"
	default:
		return levelStr
	}
}
