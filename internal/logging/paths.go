package logging

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultLogDir returns $XDG_STATE_HOME/panamax-search, falling back to
// ~/.local/state/panamax-search.
func DefaultLogDir() string {
	if state := os.Getenv("XDG_STATE_HOME"); state != "" {
		return filepath.Join(state, "panamax-search")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "panamax-search")
	}
	return filepath.Join(home, ".local", "state", "panamax-search")
}

// DefaultLogPath returns the log file used by `serve` and `watch`.
func DefaultLogPath() string {
	return filepath.Join(DefaultLogDir(), "panamax-search.log")
}

// FindLogFile returns explicit if it exists, otherwise the default log
// path if that exists.
func FindLogFile(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err == nil {
			return explicit, nil
		}
		return "", fmt.Errorf("log file not found: %s", explicit)
	}

	path := DefaultLogPath()
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	return "", fmt.Errorf("no log file found. Run 'panamax-search serve' or 'panamax-search watch' first.\nExpected at: %s", path)
}
