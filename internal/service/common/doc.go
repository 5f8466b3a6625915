// Package common holds helpers shared by the upload and promote services:
// storage client construction, the task group used to fan out storage
// operations, actor detection and the running-instance check.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
