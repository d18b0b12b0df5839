// Package version exposes build metadata of the gfs-monitor binaries.
//
// Version, Commit and BuildTime are injected with -ldflags -X at release
// time. The `version` subcommand prints them for both binaries.
package version
