package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"sync"
)

const (
	// fileDirPermissions are applied to directories created by FileBackend.
	fileDirPermissions = 0o755
	// filePermissions are applied to objects written by FileBackend.
	filePermissions = 0o644
)

// errUnsafeKey is returned for keys that would escape the bucket directory.
var errUnsafeKey = errors.New("object key escapes the bucket directory")

// FileBackend mirrors a bucket into a local directory, one file per key.
// It is meant for staging mirrors and rehearsals; ACL and HTTP metadata are
// not persisted. Keys are cleaned into paths, so "apt/./Release" and
// "apt/Release" name the same file and the Debian compatibility copy lands
// on the canonical one.
type FileBackend struct {
	// bucket is the bucket name, also the directory under root.
	bucket string
	// dir is root joined with bucket.
	dir string
	// mu serializes writes so a copy never observes a half-written source.
	mu sync.RWMutex
}

// NewFileBackend stores objects under root/bucket.
func NewFileBackend(root, bucket string) (*FileBackend, error) {
	dir, err := filepath.Abs(filepath.Join(root, bucket))
	if err != nil {
		return nil, fmt.Errorf("resolve mirror directory: %w", err)
	}

	return &FileBackend{
		bucket: bucket,
		dir:    dir,
	}, nil
}

// Bucket implements Backend.
func (b *FileBackend) Bucket() string {
	return b.bucket
}

// PutFile implements Backend.
func (b *FileBackend) PutFile(_ context.Context, localPath string, obj Object) error {
	src, err := os.Open(filepath.Clean(localPath))
	if err != nil {
		return fmt.Errorf("open %s: %w", localPath, err)
	}
	defer src.Close() //nolint:errcheck // Read-only handle.

	b.mu.Lock()
	defer b.mu.Unlock()

	return b.write(obj.Key, src)
}

// Put implements Backend.
func (b *FileBackend) Put(_ context.Context, obj Object, data []byte) error {
	target, err := b.path(obj.Key)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if err = os.MkdirAll(filepath.Dir(target), fileDirPermissions); err != nil {
		return fmt.Errorf("create directory for %s: %w", obj.Key, err)
	}

	if err = os.WriteFile(target, data, filePermissions); err != nil {
		return fmt.Errorf("write %s: %w", obj.Key, err)
	}

	return nil
}

// Get implements Backend.
func (b *FileBackend) Get(_ context.Context, key string) ([]byte, error) {
	target, err := b.path(key)
	if err != nil {
		return nil, err
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	data, err := os.ReadFile(target) //nolint:gosec // Path is confined to the mirror directory.
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}

		return nil, fmt.Errorf("read %s: %w", key, err)
	}

	return data, nil
}

// Exists implements Backend.
func (b *FileBackend) Exists(_ context.Context, key string) (bool, error) {
	target, err := b.path(key)
	if err != nil {
		return false, err
	}

	info, err := os.Stat(target)

	switch {
	case err == nil:
		return info.Mode().IsRegular(), nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("stat %s: %w", key, err)
	}
}

// Copy implements Backend.
func (b *FileBackend) Copy(_ context.Context, req CopyRequest) error {
	source, err := b.path(req.SourceKey)
	if err != nil {
		return err
	}

	target, err := b.path(req.Key)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	src, err := os.Open(source) //nolint:gosec // Path is confined to the mirror directory.
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, req.SourceKey)
		}

		return fmt.Errorf("open %s: %w", req.SourceKey, err)
	}
	defer src.Close() //nolint:errcheck // Read-only handle.

	if source == target {
		return nil
	}

	return b.write(req.Key, src)
}

// URL implements Backend.
func (b *FileBackend) URL(key string) string {
	u := url.URL{
		Scheme: "file",
		Path:   filepath.ToSlash(filepath.Join(b.dir, filepath.FromSlash(key))),
	}

	return u.String()
}

// write streams body into key. Callers hold mu.
func (b *FileBackend) write(key string, body io.Reader) error {
	target, err := b.path(key)
	if err != nil {
		return err
	}

	if err = os.MkdirAll(filepath.Dir(target), fileDirPermissions); err != nil {
		return fmt.Errorf("create directory for %s: %w", key, err)
	}

	dst, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, filePermissions) //nolint:gosec // Confined path.
	if err != nil {
		return fmt.Errorf("create %s: %w", key, err)
	}

	if _, err = io.Copy(dst, body); err != nil {
		_ = dst.Close()

		return fmt.Errorf("write %s: %w", key, err)
	}

	if err = dst.Close(); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}

	return nil
}

// path maps a key onto the filesystem, refusing keys that leave the bucket.
func (b *FileBackend) path(key string) (string, error) {
	local := filepath.FromSlash(key)
	if key == "" || !filepath.IsLocal(local) {
		return "", fmt.Errorf("%w: %q", errUnsafeKey, key)
	}

	return filepath.Join(b.dir, local), nil
}
