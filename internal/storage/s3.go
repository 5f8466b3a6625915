package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// defaultRegion is used when neither the config nor the environment name one.
const defaultRegion = "us-east-1"

// S3API is the subset of the S3 client used by S3Backend.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	CopyObject(ctx context.Context, params *s3.CopyObjectInput, optFns ...func(*s3.Options)) (*s3.CopyObjectOutput, error)
}

// S3Options configure NewS3Backend.
type S3Options struct {
	// Bucket is the destination bucket.
	Bucket string
	// Region is the bucket region.
	Region string
	// Endpoint overrides the S3 endpoint for compatible stores.
	Endpoint string
	// PathStyle forces path-style addressing.
	PathStyle bool
	// AccessKeyID and SecretAccessKey pin static credentials when both are set.
	AccessKeyID string
	// SecretAccessKey pairs with AccessKeyID.
	SecretAccessKey string
	// AppID is appended to the SDK user agent.
	AppID string
}

// S3Backend stores releases in Amazon S3 or an S3-compatible store.
type S3Backend struct {
	// bucket is the destination bucket.
	bucket string
	// region is used to build public URLs.
	region string
	// endpoint is the custom endpoint, if any.
	endpoint string
	// pathStyle mirrors S3Options.PathStyle for URL building.
	pathStyle bool
	// client is the SDK client.
	client S3API
}

// NewS3Backend builds a backend using the default AWS credential chain,
// or static credentials when provided.
func NewS3Backend(ctx context.Context, opts S3Options) (*S3Backend, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithAppID(opts.AppID),
	}

	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}

	if opts.AccessKeyID != "" && opts.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	if cfg.Region == "" {
		cfg.Region = defaultRegion
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}

		o.UsePathStyle = opts.PathStyle
	})

	backend := NewS3BackendWithClient(opts.Bucket, cfg.Region, client)
	backend.endpoint = opts.Endpoint
	backend.pathStyle = opts.PathStyle

	return backend, nil
}

// NewS3BackendWithClient wraps a preconfigured client.
func NewS3BackendWithClient(bucket, region string, client S3API) *S3Backend {
	return &S3Backend{
		bucket: bucket,
		region: region,
		client: client,
	}
}

// Bucket implements Backend.
func (b *S3Backend) Bucket() string {
	return b.bucket
}

// PutFile implements Backend.
func (b *S3Backend) PutFile(ctx context.Context, localPath string, obj Object) error {
	file, err := os.Open(filepath.Clean(localPath))
	if err != nil {
		return fmt.Errorf("open %s: %w", localPath, err)
	}
	defer file.Close() //nolint:errcheck // Read-only handle.

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", localPath, err)
	}

	return b.put(ctx, obj, file, info.Size())
}

// Put implements Backend.
func (b *S3Backend) Put(ctx context.Context, obj Object, data []byte) error {
	return b.put(ctx, obj, bytes.NewReader(data), int64(len(data)))
}

// put uploads one object.
func (b *S3Backend) put(ctx context.Context, obj Object, body io.Reader, size int64) error {
	_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(b.bucket),
		Key:           aws.String(obj.Key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ACL:           types.ObjectCannedACL(obj.ACL),
		CacheControl:  optionalString(obj.CacheControl),
		ContentType:   optionalString(obj.ContentType),
	})
	if err != nil {
		return fmt.Errorf("S3 PutObject %s: %w", obj.Key, err)
	}

	return nil
}

// Get implements Backend.
func (b *S3Backend) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isAWSNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}

		return nil, fmt.Errorf("S3 GetObject %s: %w", key, err)
	}
	defer out.Body.Close() //nolint:errcheck // Body is fully read below.

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}

	return data, nil
}

// Exists implements Backend.
func (b *S3Backend) Exists(ctx context.Context, key string) (bool, error) {
	_, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isAWSNotFound(err) {
			return false, nil
		}

		return false, fmt.Errorf("S3 HeadObject %s: %w", key, err)
	}

	return true, nil
}

// Copy implements Backend.
func (b *S3Backend) Copy(ctx context.Context, req CopyRequest) error {
	_, err := b.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:            aws.String(b.bucket),
		Key:               aws.String(req.Key),
		CopySource:        aws.String(copySource(b.bucket, req.SourceKey)),
		ACL:               types.ObjectCannedACL(req.ACL),
		CacheControl:      optionalString(req.CacheControl),
		ContentType:       optionalString(req.ContentType),
		MetadataDirective: types.MetadataDirective(req.MetadataDirective),
	})
	if err != nil {
		if isAWSNotFound(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, req.SourceKey)
		}

		return fmt.Errorf("S3 CopyObject %s: %w", req.Key, err)
	}

	return nil
}

// URL implements Backend.
func (b *S3Backend) URL(key string) string {
	if b.endpoint != "" {
		base := strings.TrimRight(b.endpoint, "/")
		if b.pathStyle {
			return base + "/" + b.bucket + "/" + key
		}

		if parsed, err := url.Parse(base); err == nil && parsed.Host != "" {
			return parsed.Scheme + "://" + b.bucket + "." + parsed.Host + "/" + key
		}

		return base + "/" + b.bucket + "/" + key
	}

	return "https://" + b.bucket + ".s3." + b.region + ".amazonaws.com/" + key
}

// copySource escapes every key segment; S3 expects a URL-encoded source.
func copySource(bucket, key string) string {
	segments := strings.Split(key, "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}

	return bucket + "/" + strings.Join(segments, "/")
}

// optionalString maps an empty value to nil so the header is not sent.
func optionalString(value string) *string {
	if value == "" {
		return nil
	}

	return aws.String(value)
}

// isAWSNotFound reports whether an SDK error means the object is absent.
func isAWSNotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound", "404":
			return true
		}
	}

	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}

	var respErr interface{ HTTPStatusCode() int }
	if errors.As(err, &respErr) && respErr.HTTPStatusCode() == http.StatusNotFound {
		return true
	}

	return false
}
