// Package config loads the build configuration of the published CLI.
//
// The YAML file names the binary and its version, the targets, the local
// distribution directory and the storage destination. Resolve combines it
// with per-command filters and the git HEAD of the project into a BuildConfig.
package config
