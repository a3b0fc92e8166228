// Package config loads panamax-search configuration.
//
// Values are applied in order of increasing precedence: hardcoded defaults,
// the user config file, then PANAMAX_SEARCH_* environment variables.
// Command-line flags are applied on top by the caller.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Aman-CERP/panamax-search/internal/crate"
	"github.com/Aman-CERP/panamax-search/internal/errors"
	"github.com/Aman-CERP/panamax-search/internal/index"
)

// AppName names the user config directory.
const AppName = "panamax-search"

// Environment variables read by Load.
const (
	EnvMirror   = "PANAMAX_SEARCH_MIRROR"
	EnvWorkers  = "PANAMAX_SEARCH_WORKERS"
	EnvLogLevel = "PANAMAX_SEARCH_LOG_LEVEL"
	EnvColor    = "PANAMAX_SEARCH_COLOR"
)

// Config represents the complete panamax-search configuration.
type Config struct {
	Mirror MirrorConfig `yaml:"mirror" json:"mirror"`
	Index  IndexConfig  `yaml:"index" json:"index"`
	Output OutputConfig `yaml:"output" json:"output"`
	Watch  WatchConfig  `yaml:"watch" json:"watch"`
	Log    LogConfig    `yaml:"log" json:"log"`
}

// MirrorConfig locates the mirror and the files inside it.
type MirrorConfig struct {
	// Path is the mirror root. A leading ~ is expanded.
	Path string `yaml:"path" json:"path"`

	// MetadataDir holds per-package metadata files, relative to Path.
	MetadataDir string `yaml:"metadata_dir" json:"metadata_dir"`

	// ArchiveDir holds package archives, relative to Path.
	ArchiveDir string `yaml:"archive_dir" json:"archive_dir"`

	// ArchiveExt is the archive file extension without the dot.
	ArchiveExt string `yaml:"archive_ext" json:"archive_ext"`

	// CacheFile is the search cache, relative to Path.
	CacheFile string `yaml:"cache_file" json:"cache_file"`

	// ConfigMarker is the file under MetadataDir whose modification time
	// invalidates the cache.
	ConfigMarker string `yaml:"config_marker" json:"config_marker"`
}

// IndexConfig configures index rebuilds.
type IndexConfig struct {
	// Workers is the rebuild parallelism. 0 uses every CPU.
	Workers int `yaml:"workers" json:"workers"`
}

// OutputConfig configures result rendering.
type OutputConfig struct {
	// Color is auto, always, or never.
	Color string `yaml:"color" json:"color"`
}

// WatchConfig configures `panamax-search watch`.
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce" json:"debounce"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
	File   string `yaml:"file" json:"file"`
}

// NewConfig returns a Config with default values.
func NewConfig() *Config {
	return &Config{
		Mirror: MirrorConfig{
			Path:         "~/panamax",
			MetadataDir:  "crates.io-index",
			ArchiveDir:   "crates",
			ArchiveExt:   "crate",
			CacheFile:    "search.json",
			ConfigMarker: "config.json",
		},
		Output: OutputConfig{Color: "auto"},
		Watch:  WatchConfig{Debounce: 2 * time.Second},
		Log:    LogConfig{Level: "warn", Format: "text"},
	}
}

// GetUserConfigPath returns the path to the user configuration file.
// It follows XDG Base Directory specification:
//   - $XDG_CONFIG_HOME/panamax-search/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/panamax-search/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName, "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", AppName, "config.yaml")
	}
	return filepath.Join(home, ".config", AppName, "config.yaml")
}

// GetUserConfigDir returns the directory containing the user configuration.
func GetUserConfigDir() string {
	return filepath.Dir(GetUserConfigPath())
}

// UserConfigExists returns true if the user configuration file exists.
func UserConfigExists() bool {
	info, err := os.Stat(GetUserConfigPath())
	return err == nil && !info.IsDir()
}

// Load builds the effective configuration from defaults, the user config
// file (if present), and environment variables.
func Load() (*Config, error) {
	return LoadFile(GetUserConfigPath())
}

// LoadFile is Load with an explicit config file path. A missing file is not
// an error.
func LoadFile(path string) (*Config, error) {
	cfg := NewConfig()

	if _, err := os.Stat(path); err == nil {
		if err := cfg.loadYAML(path); err != nil {
			return nil, invalid(path, err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, invalid("environment", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, invalid(path, err)
	}

	return cfg, nil
}

func invalid(source string, err error) error {
	return errors.New(errors.ErrCodeConfigInvalid, "invalid configuration", err).
		WithDetail("source", source).
		WithSuggestion("run 'panamax-search config show' to inspect the effective configuration")
}

// loadYAML overlays the values present in the file at path onto c.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv(EnvMirror); v != "" {
		c.Mirror.Path = v
	}
	if v := os.Getenv(EnvWorkers); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvWorkers, err)
		}
		c.Index.Workers = n
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvColor); v != "" {
		c.Output.Color = v
	}
	return nil
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	required := []struct{ key, value string }{
		{"mirror.path", c.Mirror.Path},
		{"mirror.metadata_dir", c.Mirror.MetadataDir},
		{"mirror.archive_dir", c.Mirror.ArchiveDir},
		{"mirror.archive_ext", c.Mirror.ArchiveExt},
		{"mirror.cache_file", c.Mirror.CacheFile},
		{"mirror.config_marker", c.Mirror.ConfigMarker},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return fmt.Errorf("%s must not be empty", r.key)
		}
	}

	if c.Index.Workers < 0 {
		return fmt.Errorf("index.workers must be non-negative, got %d", c.Index.Workers)
	}

	switch strings.ToLower(c.Output.Color) {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("output.color must be 'auto', 'always', or 'never', got %s", c.Output.Color)
	}

	if c.Watch.Debounce <= 0 {
		return fmt.Errorf("watch.debounce must be positive, got %s", c.Watch.Debounce)
	}

	validLevels := map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("log.level must be 'trace', 'debug', 'info', 'warn', or 'error', got %s", c.Log.Level)
	}

	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be 'text' or 'json', got %s", c.Log.Format)
	}

	return nil
}

// MirrorPath returns the mirror root with ~ expanded.
func (c *Config) MirrorPath() (string, error) {
	return ExpandPath(c.Mirror.Path)
}

// StoreConfig returns the index store settings for this configuration.
func (c *Config) StoreConfig() index.Config {
	return index.Config{
		MetadataDir:  c.Mirror.MetadataDir,
		ConfigMarker: c.Mirror.ConfigMarker,
		CacheFile:    c.Mirror.CacheFile,
		Layout: crate.Layout{
			ArchiveDir: c.Mirror.ArchiveDir,
			ArchiveExt: c.Mirror.ArchiveExt,
		},
		Workers: c.Index.Workers,
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ExpandPath replaces a leading "~" or "~/" with the user's home directory.
// "~user" forms are returned unchanged.
func ExpandPath(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") && !strings.HasPrefix(path, "~"+string(filepath.Separator)) {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("expand %s: %w", path, err)
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, path[2:]), nil
}
