package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// gcsPublicHost serves public GCS objects.
const gcsPublicHost = "https://storage.googleapis.com/"

// GCSWriteAttrs are the attributes set on written or copied objects.
type GCSWriteAttrs struct {
	// ContentType is the stored Content-Type.
	ContentType string
	// CacheControl is the stored Cache-Control.
	CacheControl string
	// PredefinedACL is a GCS predefined ACL name such as "publicRead".
	PredefinedACL string
}

// GCSAPI is the subset of the GCS client used by GCSBackend.
type GCSAPI interface {
	// NewWriter returns a writer for the object.
	NewWriter(ctx context.Context, bucket, object string, attrs GCSWriteAttrs) io.WriteCloser
	// NewReader returns a reader for the object.
	NewReader(ctx context.Context, bucket, object string) (io.ReadCloser, error)
	// Attrs fails with gcs.ErrObjectNotExist when the object is absent.
	Attrs(ctx context.Context, bucket, object string) error
	// Copy copies srcObject onto dstObject in the same bucket.
	Copy(ctx context.Context, bucket, srcObject, dstObject string, attrs GCSWriteAttrs) error
	// Close releases the client.
	Close() error
}

// realGCSClient adapts *gcs.Client to GCSAPI.
type realGCSClient struct {
	client *gcs.Client
}

func (c *realGCSClient) NewWriter(ctx context.Context, bucket, object string, attrs GCSWriteAttrs) io.WriteCloser {
	w := c.client.Bucket(bucket).Object(object).NewWriter(ctx)
	w.ContentType = attrs.ContentType
	w.CacheControl = attrs.CacheControl
	w.PredefinedACL = attrs.PredefinedACL

	return w
}

func (c *realGCSClient) NewReader(ctx context.Context, bucket, object string) (io.ReadCloser, error) {
	return c.client.Bucket(bucket).Object(object).NewReader(ctx)
}

func (c *realGCSClient) Attrs(ctx context.Context, bucket, object string) error {
	_, err := c.client.Bucket(bucket).Object(object).Attrs(ctx)

	return err
}

func (c *realGCSClient) Copy(ctx context.Context, bucket, srcObject, dstObject string, attrs GCSWriteAttrs) error {
	src := c.client.Bucket(bucket).Object(srcObject)
	copier := c.client.Bucket(bucket).Object(dstObject).CopierFrom(src)
	copier.ContentType = attrs.ContentType
	copier.CacheControl = attrs.CacheControl
	copier.PredefinedACL = attrs.PredefinedACL

	_, err := copier.Run(ctx)

	return err
}

func (c *realGCSClient) Close() error {
	return c.client.Close()
}

// GCSOptions configure NewGCSBackend.
type GCSOptions struct {
	// Bucket is the destination bucket.
	Bucket string
	// Endpoint overrides the API endpoint, e.g. for an emulator.
	Endpoint string
	// UserAgent is sent with every request.
	UserAgent string
}

// GCSBackend stores releases in Google Cloud Storage.
type GCSBackend struct {
	// bucket is the destination bucket.
	bucket string
	// client is the GCS client.
	client GCSAPI
}

// NewGCSBackend builds a backend with Application Default Credentials.
// A custom endpoint disables authentication.
func NewGCSBackend(ctx context.Context, opts GCSOptions) (*GCSBackend, error) {
	clientOpts := []option.ClientOption{option.WithUserAgent(opts.UserAgent)}
	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(opts.Endpoint), option.WithoutAuthentication())
	}

	client, err := gcs.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create GCS client: %w", err)
	}

	return NewGCSBackendWithClient(opts.Bucket, &realGCSClient{client: client}), nil
}

// NewGCSBackendWithClient wraps a preconfigured client.
func NewGCSBackendWithClient(bucket string, client GCSAPI) *GCSBackend {
	return &GCSBackend{
		bucket: bucket,
		client: client,
	}
}

// Bucket implements Backend.
func (b *GCSBackend) Bucket() string {
	return b.bucket
}

// PutFile implements Backend.
func (b *GCSBackend) PutFile(ctx context.Context, localPath string, obj Object) error {
	file, err := os.Open(filepath.Clean(localPath))
	if err != nil {
		return fmt.Errorf("open %s: %w", localPath, err)
	}
	defer file.Close() //nolint:errcheck // Read-only handle.

	return b.write(ctx, obj, file)
}

// Put implements Backend.
func (b *GCSBackend) Put(ctx context.Context, obj Object, data []byte) error {
	return b.write(ctx, obj, bytes.NewReader(data))
}

// write streams body into a new object.
func (b *GCSBackend) write(ctx context.Context, obj Object, body io.Reader) error {
	w := b.client.NewWriter(ctx, b.bucket, obj.Key, writeAttrs(obj))

	if _, err := io.Copy(w, body); err != nil {
		_ = w.Close()

		return fmt.Errorf("GCS write %s: %w", obj.Key, err)
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("GCS write %s: %w", obj.Key, err)
	}

	return nil
}

// Get implements Backend.
func (b *GCSBackend) Get(ctx context.Context, key string) ([]byte, error) {
	r, err := b.client.NewReader(ctx, b.bucket, key)
	if err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}

		return nil, fmt.Errorf("GCS read %s: %w", key, err)
	}
	defer r.Close() //nolint:errcheck // Body is fully read below.

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}

	return data, nil
}

// Exists implements Backend.
func (b *GCSBackend) Exists(ctx context.Context, key string) (bool, error) {
	err := b.client.Attrs(ctx, b.bucket, key)

	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, gcs.ErrObjectNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("GCS attrs %s: %w", key, err)
	}
}

// Copy implements Backend. The request attributes always replace the
// destination's, which is what MetadataReplace asks for.
func (b *GCSBackend) Copy(ctx context.Context, req CopyRequest) error {
	err := b.client.Copy(ctx, b.bucket, req.SourceKey, req.Key, writeAttrs(req.Object))
	if err != nil {
		if errors.Is(err, gcs.ErrObjectNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, req.SourceKey)
		}

		return fmt.Errorf("GCS copy %s to %s: %w", req.SourceKey, req.Key, err)
	}

	return nil
}

// URL implements Backend.
func (b *GCSBackend) URL(key string) string {
	return gcsPublicHost + b.bucket + "/" + key
}

// Close releases the client.
func (b *GCSBackend) Close() error {
	return b.client.Close()
}

// writeAttrs converts object settings into GCS attributes.
func writeAttrs(obj Object) GCSWriteAttrs {
	return GCSWriteAttrs{
		ContentType:   obj.ContentType,
		CacheControl:  obj.CacheControl,
		PredefinedACL: predefinedACL(obj.ACL),
	}
}

// predefinedACL maps S3 canned ACL names onto GCS predefined ACLs. Unknown
// names pass through so GCS names can be configured directly.
func predefinedACL(acl string) string {
	switch acl {
	case "private":
		return "private"
	case "public-read":
		return "publicRead"
	case "public-read-write":
		return "publicReadWrite"
	case "authenticated-read":
		return "authenticatedRead"
	case "bucket-owner-read":
		return "bucketOwnerRead"
	case "bucket-owner-full-control":
		return "bucketOwnerFullControl"
	default:
		return acl
	}
}
