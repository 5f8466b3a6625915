package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/require"
)

// mockS3Client implements S3API in memory.
type mockS3Client struct {
	// mu guards the fields below.
	mu sync.Mutex
	// objects stores payloads by key.
	objects map[string][]byte
	// puts records the last PutObject input per key.
	puts map[string]*s3.PutObjectInput
	// copies records CopyObject inputs in call order.
	copies []*s3.CopyObjectInput
	// failWith is returned by every call when set.
	failWith error
}

func newMockS3Client() *mockS3Client {
	return &mockS3Client{
		objects: make(map[string][]byte),
		puts:    make(map[string]*s3.PutObjectInput),
	}
}

func (m *mockS3Client) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failWith != nil {
		return nil, m.failWith
	}

	data, err := io.ReadAll(params.Body)
	if err != nil {
		return nil, err
	}

	key := aws.ToString(params.Key)
	m.objects[key] = data
	m.puts[key] = params

	return &s3.PutObjectOutput{}, nil
}

func (m *mockS3Client) GetObject(_ context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.objects[aws.ToString(params.Key)]
	if !ok {
		return nil, &mockAPIError{code: "NoSuchKey", message: "The specified key does not exist.", httpStatus: 404}
	}

	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (m *mockS3Client) HeadObject(_ context.Context, params *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failWith != nil {
		return nil, m.failWith
	}

	if _, ok := m.objects[aws.ToString(params.Key)]; !ok {
		return nil, &mockAPIError{code: "NotFound", message: "Not Found", httpStatus: 404}
	}

	return &s3.HeadObjectOutput{}, nil
}

func (m *mockS3Client) CopyObject(_ context.Context, params *s3.CopyObjectInput, _ ...func(*s3.Options)) (*s3.CopyObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.copies = append(m.copies, params)

	parts := strings.SplitN(aws.ToString(params.CopySource), "/", 2)
	if len(parts) < 2 {
		return nil, &mockAPIError{code: "InvalidArgument", message: "Invalid copy source", httpStatus: 400}
	}

	srcKey, err := url.PathUnescape(parts[1])
	if err != nil {
		return nil, err
	}

	data, ok := m.objects[srcKey]
	if !ok {
		return nil, &mockAPIError{code: "NoSuchKey", message: "The specified key does not exist.", httpStatus: 404}
	}

	m.objects[aws.ToString(params.Key)] = append([]byte(nil), data...)

	return &s3.CopyObjectOutput{}, nil
}

// mockAPIError implements smithy.APIError.
type mockAPIError struct {
	code       string
	message    string
	httpStatus int
}

func (e *mockAPIError) Error() string {
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *mockAPIError) ErrorCode() string {
	return e.code
}

func (e *mockAPIError) ErrorMessage() string {
	return e.message
}

func (e *mockAPIError) ErrorFault() smithy.ErrorFault {
	if e.httpStatus >= 500 {
		return smithy.FaultServer
	}

	return smithy.FaultClient
}

// TestS3Backend_PutFile sends the file with ACL and cache headers.
func TestS3Backend_PutFile(t *testing.T) {
	t.Parallel()

	mock := newMockS3Client()
	backend := NewS3BackendWithClient("releases", "us-east-1", mock)

	local := filepath.Join(t.TempDir(), "mycli.tar.gz")
	require.NoError(t, os.WriteFile(local, []byte("tarball"), 0o600))

	err := backend.PutFile(context.Background(), local, Object{
		Key:          "versions/1.0.0/abc1234/mycli.tar.gz",
		ACL:          "public-read",
		CacheControl: "max-age=604800",
		ContentType:  "application/gzip",
	})
	require.NoError(t, err)

	put := mock.puts["versions/1.0.0/abc1234/mycli.tar.gz"]
	require.NotNil(t, put)
	require.Equal(t, "public-read", string(put.ACL))
	require.Equal(t, "max-age=604800", aws.ToString(put.CacheControl))
	require.Equal(t, "application/gzip", aws.ToString(put.ContentType))
	require.Equal(t, int64(len("tarball")), aws.ToInt64(put.ContentLength))
	require.Equal(t, []byte("tarball"), mock.objects["versions/1.0.0/abc1234/mycli.tar.gz"])

	require.Error(t, backend.PutFile(context.Background(), filepath.Join(t.TempDir(), "missing"), Object{Key: "x"}))
}

// TestS3Backend_GetAndExists maps missing keys to ErrNotFound and false.
func TestS3Backend_GetAndExists(t *testing.T) {
	t.Parallel()

	mock := newMockS3Client()
	backend := NewS3BackendWithClient("releases", "us-east-1", mock)
	ctx := context.Background()

	require.NoError(t, backend.Put(ctx, Object{Key: "index.jsonl"}, []byte("{}\n")))

	data, err := backend.Get(ctx, "index.jsonl")
	require.NoError(t, err)
	require.Equal(t, []byte("{}\n"), data)

	_, err = backend.Get(ctx, "absent")
	require.ErrorIs(t, err, ErrNotFound)

	exists, err := backend.Exists(ctx, "index.jsonl")
	require.NoError(t, err)
	require.True(t, exists)

	exists, err = backend.Exists(ctx, "absent")
	require.NoError(t, err)
	require.False(t, exists)

	mock.failWith = &mockAPIError{code: "AccessDenied", message: "denied", httpStatus: 403}
	_, err = backend.Exists(ctx, "index.jsonl")
	require.Error(t, err)
}

// TestS3Backend_Copy escapes the source and replaces metadata.
func TestS3Backend_Copy(t *testing.T) {
	t.Parallel()

	mock := newMockS3Client()
	backend := NewS3BackendWithClient("releases", "us-east-1", mock)
	ctx := context.Background()

	require.NoError(t, backend.Put(ctx, Object{Key: "versions/1.0.0/abc1234/my cli+1.tar.gz"}, []byte("x")))

	err := backend.Copy(ctx, CopyRequest{
		Object: Object{
			Key:          "channels/stable/apt/./my cli+1.tar.gz",
			ACL:          "public-read",
			CacheControl: "max-age=86400",
		},
		SourceKey:         "versions/1.0.0/abc1234/my cli+1.tar.gz",
		MetadataDirective: MetadataReplace,
	})
	require.NoError(t, err)
	require.Len(t, mock.copies, 1)

	input := mock.copies[0]
	require.Equal(t, "releases/versions/1.0.0/abc1234/my%20cli+1.tar.gz", aws.ToString(input.CopySource))
	require.Equal(t, "channels/stable/apt/./my cli+1.tar.gz", aws.ToString(input.Key))
	require.Equal(t, MetadataReplace, string(input.MetadataDirective))
	require.Equal(t, "max-age=86400", aws.ToString(input.CacheControl))
	require.Nil(t, input.ContentType)

	err = backend.Copy(ctx, CopyRequest{Object: Object{Key: "dst"}, SourceKey: "absent"})
	require.ErrorIs(t, err, ErrNotFound)
}

// TestS3Backend_URL covers virtual-host and path-style addressing.
func TestS3Backend_URL(t *testing.T) {
	t.Parallel()

	backend := NewS3BackendWithClient("releases", "eu-west-1", newMockS3Client())
	require.Equal(t, "https://releases.s3.eu-west-1.amazonaws.com/a/b.tar.gz", backend.URL("a/b.tar.gz"))

	backend.endpoint = "http://localhost:9000/"
	backend.pathStyle = true
	require.Equal(t, "http://localhost:9000/releases/a", backend.URL("a"))

	backend.pathStyle = false
	require.Equal(t, "http://releases.localhost:9000/a", backend.URL("a"))
}

// TestIsAWSNotFound classifies SDK errors.
func TestIsAWSNotFound(t *testing.T) {
	t.Parallel()

	require.True(t, isAWSNotFound(&mockAPIError{code: "NoSuchKey"}))
	require.True(t, isAWSNotFound(fmt.Errorf("wrapped: %w", &mockAPIError{code: "NotFound"})))
	require.False(t, isAWSNotFound(&mockAPIError{code: "NoSuchBucket", httpStatus: 400}))
	require.False(t, isAWSNotFound(errors.New("boom")))
}
