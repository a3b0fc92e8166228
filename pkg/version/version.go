// Package version provides build and version information for panamax-search.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/Masterminds/semver/v3"
)

// Name is the program name shown in version output.
const Name = "panamax-search"

// Version is set via ldflags at build time:
//
//	-X github.com/Aman-CERP/panamax-search/pkg/version.Version=$(VERSION)
var Version = "dev"

// Build information set via ldflags at build time.
var (
	// Commit is the short git commit hash.
	Commit = "unknown"

	// Date is the build date in RFC3339 format.
	Date = "unknown"

	// GoVersion is the Go version used to build the binary.
	GoVersion = runtime.Version()
)

// BuildInfo is structured version information for JSON output.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
	// Deps is filled only on request, see Dependencies.
	Deps []Module `json:"deps,omitempty"`
}

// Module is one dependency compiled into the binary.
type Module struct {
	Path    string `json:"path"`
	Version string `json:"version"`
	Replace string `json:"replace,omitempty"`
}

// Dependencies lists the modules linked into the running binary, or nil
// when it was built without module support.
func Dependencies() []Module {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return nil
	}
	deps := make([]Module, 0, len(info.Deps))
	for _, d := range info.Deps {
		m := Module{Path: d.Path, Version: d.Version}
		if d.Replace != nil {
			m.Replace = d.Replace.Path + "@" + d.Replace.Version
		}
		deps = append(deps, m)
	}
	return deps
}

// String returns a formatted version string with all build info.
func String() string {
	return fmt.Sprintf("%s %s (commit: %s, built: %s, go: %s)",
		Name, Version, Commit, Date, GoVersion)
}

// Short returns just the version string.
func Short() string {
	return Version
}

// IsRelease reports whether Version is a semantic version rather than a
// development build.
func IsRelease() bool {
	_, err := semver.StrictNewVersion(Version)
	return err == nil
}

// GetInfo returns structured version information.
func GetInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}
