// Package release contains core domain types for publishing a build.
//
// It defines Target (platform and architecture of one artifact set) and
// Identity (binary, version and commit of one immutable build).
package release
