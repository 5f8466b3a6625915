package storage

import (
	"context"
	"errors"
)

// MetadataReplace replaces the destination metadata with the request's on copy.
const MetadataReplace = "REPLACE"

var (
	// ErrNotFound is returned by backends when an object does not exist.
	ErrNotFound = errors.New("object not found")
	// ErrSourceMissing is returned by Client.CopyObject when the source is
	// absent and missing sources are not ignored.
	ErrSourceMissing = errors.New("copy source does not exist")
)

// Object describes the destination object of a write.
type Object struct {
	// Key is the object key inside the bucket.
	Key string
	// ACL is a canned ACL name such as "public-read".
	ACL string
	// CacheControl is the Cache-Control header stored with the object.
	CacheControl string
	// ContentType is the Content-Type stored with the object.
	ContentType string
}

// CopyRequest copies SourceKey onto the destination object.
type CopyRequest struct {
	Object

	// SourceKey is the key copied from, in the same bucket.
	SourceKey string
	// MetadataDirective is MetadataReplace; empty keeps the store's default.
	MetadataDirective string
}

// Backend is the minimal object-store surface used by Client.
type Backend interface {
	// Bucket returns the bucket name.
	Bucket() string
	// PutFile uploads a local file.
	PutFile(ctx context.Context, localPath string, obj Object) error
	// Put uploads an in-memory payload.
	Put(ctx context.Context, obj Object, data []byte) error
	// Get downloads an object. Missing objects return ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Exists reports whether an object exists.
	Exists(ctx context.Context, key string) (bool, error)
	// Copy performs a server-side copy. A missing source returns ErrNotFound.
	Copy(ctx context.Context, req CopyRequest) error
	// URL returns the public URL of a key.
	URL(key string) string
}
