// SPDX-License-Identifier: MIT
//
// Package build carries metadata injected at compile time through linker
// flags: application name, build timestamp, Git commit and semantic
// version. The CLI surfaces it via --version and startup logs.
package build

import "fmt"

type ldFlags struct {
	Name        string
	Description string
	Time        string
	Commit      string
	Version     string
}

// Populated by -ldflags during compilation; "unknown" during development.
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
	buildFlags   = &ldFlags{
		Name:        "unknown",
		Description: "unknown",
		Time:        "unknown",
		Commit:      "unknown",
		Version:     "unknown",
	}
)

// Initialize validates and copies build information from the ldflags
// variables into the buildFlags struct. Call it early in startup; it
// returns an error if any required build flag is missing.
func Initialize() error {
	if buildName == "" {
		return fmt.Errorf("BuildName is required")
	}
	if buildTime == "" {
		return fmt.Errorf("BuildTime is required")
	}
	if buildCommit == "" {
		return fmt.Errorf("BuildCommit is required")
	}
	if buildVersion == "" {
		return fmt.Errorf("BuildVersion is required")
	}

	buildFlags.Name = buildName
	buildFlags.Time = buildTime
	buildFlags.Commit = buildCommit
	buildFlags.Version = buildVersion

	return nil
}

// GetBuildFlags returns the current build information. Valid after
// Initialize has been called.
func GetBuildFlags() *ldFlags {
	return buildFlags
}
