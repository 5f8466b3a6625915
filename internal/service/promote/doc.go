// Package promote copies an uploaded release from its commit directory to a
// release channel.
//
// The whole copy plan is computed first, so configuration problems (missing
// bucket, bad version, unmappable Debian architecture) abort before any
// network call. Copies then run concurrently; each ends copied, skipped or
// failed, and a failing copy never cancels its siblings. An index line is
// appended only after its copy succeeded.
package promote
