// Package constants defines application-wide constants and version information.
package constants

// Version holds the application version information. This is set at build time via -ldflags.
var Version = "1.2.0"

// CommitID holds the git commit hash. This is set at build time via -ldflags.
var CommitID = "unknown"
