// Package upload publishes locally packed artifacts to the commit directory
// of a release.
//
// Every local file is checked before the first network call; a missing
// tarball aborts the run with a hint to run the pack step. Uploads then fan
// out concurrently and every failure is reported.
package upload
