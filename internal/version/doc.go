// Package version exposes build metadata for release-publisher.
//
// Variables Version, Commit, and BuildTime are injected at build time via
// Go ldflags. UserAgent identifies the tool to the storage SDKs.
package version
