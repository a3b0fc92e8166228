// Package configs provides the embedded user configuration template.
//
// The template is embedded at build time so `panamax-search config init`
// works for source builds and binary releases alike.
//
// Configuration hierarchy (see internal/config Load()):
//  1. Hardcoded defaults (internal/config NewConfig())
//  2. User config (~/.config/panamax-search/config.yaml)
//  3. Environment variables (PANAMAX_SEARCH_*)
//  4. Command-line flags
package configs

import _ "embed"

// UserConfigTemplate is written by `panamax-search config init` to
// ~/.config/panamax-search/config.yaml.
//
//go:embed config.example.yaml
var UserConfigTemplate string
