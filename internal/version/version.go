// Package version exposes build metadata injected via ldflags.
package version

//nolint:revive // Overwritten by the build.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)
