// Package version exposes build metadata for site-environment.
//
// Version, Commit and BuildTime are injected at build time via ldflags.
package version
