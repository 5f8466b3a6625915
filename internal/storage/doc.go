// Package storage talks to the object store that holds published releases.
//
// A Backend is a thin adapter over one SDK (Amazon S3 through aws-sdk-go-v2,
// Google Cloud Storage through cloud.google.com/go/storage). Client wraps a
// Backend with what the orchestrators need on top: dry-run, the ignore-missing
// copy policy, one log line per operation and metrics.
package storage
