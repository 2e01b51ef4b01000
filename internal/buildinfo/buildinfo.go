// Package buildinfo exposes version metadata injected at build time.
package buildinfo

// Populated via -ldflags at release build time.
var (
	Version   = "dev"
	Commit    = ""
	BuildDate = ""
)
