// Package crate resolves per-package information from a registry mirror.
//
// A package's metadata file lists every published version, one JSON object
// per line in publish order. ScanHistory reads it backwards to find the
// latest non-yanked and latest yanked versions. Describe then opens the
// package archive for the resolved version and pulls the description out
// of its manifest. Both results are combined into an immutable Record.
package crate
