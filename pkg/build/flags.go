// SPDX-License-Identifier: MIT
//
// Package build carries build metadata injected at compile time via
// -ldflags. During development the defaults below are used, so binaries
// built with a plain `go build` still report something sensible.
package build

// Flags holds the metadata stamped into the binary, for example:
//
//	go build -ldflags "-X pulse/pkg/build.buildVersion=0.2.0"
type Flags struct {
	Name    string // Application name
	Time    string // Build timestamp (RFC3339)
	Commit  string // Git commit hash
	Version string // Semantic version
}

// Package-level variables populated by -ldflags during compilation.
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string

	buildFlags = &Flags{
		Name:    "pulse",
		Time:    "unknown",
		Commit:  "unknown",
		Version: "dev",
	}
)

// Initialize copies any ldflags-provided values over the development
// defaults. Call once, early in startup, before GetBuildFlags.
func Initialize() {
	if buildName != "" {
		buildFlags.Name = buildName
	}
	if buildTime != "" {
		buildFlags.Time = buildTime
	}
	if buildCommit != "" {
		buildFlags.Commit = buildCommit
	}
	if buildVersion != "" {
		buildFlags.Version = buildVersion
	}
}

// GetBuildFlags returns the current build information.
func GetBuildFlags() *Flags {
	return buildFlags
}
