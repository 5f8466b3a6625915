// Package storagetest provides an in-memory storage.Backend for tests.
package storagetest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/oshokin/release-publisher/internal/storage"
)

// Call records one backend invocation.
type Call struct {
	// Method is "PutFile", "Put", "Get", "Exists" or "Copy".
	Method string
	// Key is the destination (or looked-up) key.
	Key string
	// SourceKey is set for copies.
	SourceKey string
}

// MemoryBackend keeps objects in a map and records every call.
type MemoryBackend struct {
	// mu guards the fields below.
	mu sync.Mutex
	// bucket is returned by Bucket.
	bucket string
	// objects holds stored payloads.
	objects map[string][]byte
	// meta holds the object settings of the last write per key.
	meta map[string]storage.Object
	// calls lists invocations in order.
	calls []Call
	// failures makes calls on the given keys fail.
	failures map[string]error
}

// NewMemoryBackend returns an empty backend.
func NewMemoryBackend(bucket string) *MemoryBackend {
	return &MemoryBackend{
		bucket:   bucket,
		objects:  make(map[string][]byte),
		meta:     make(map[string]storage.Object),
		failures: make(map[string]error),
	}
}

// Seed stores an object without recording a call.
func (m *MemoryBackend) Seed(key string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.objects[key] = append([]byte(nil), data...)
}

// FailOn makes every call touching key return err.
func (m *MemoryBackend) FailOn(key string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.failures[key] = err
}

// Object returns a stored payload.
func (m *MemoryBackend) Object(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.objects[key]

	return data, ok
}

// Meta returns the settings of the last write to key.
func (m *MemoryBackend) Meta(key string) storage.Object {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.meta[key]
}

// Keys returns the stored keys, sorted.
func (m *MemoryBackend) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := make([]string, 0, len(m.objects))
	for key := range m.objects {
		keys = append(keys, key)
	}

	slices.Sort(keys)

	return keys
}

// Calls returns the recorded calls.
func (m *MemoryBackend) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()

	return slices.Clone(m.calls)
}

// Writes returns the recorded calls that mutate the bucket.
func (m *MemoryBackend) Writes() []Call {
	var writes []Call

	for _, call := range m.Calls() {
		switch call.Method {
		case "PutFile", "Put", "Copy":
			writes = append(writes, call)
		}
	}

	return writes
}

// Bucket implements storage.Backend.
func (m *MemoryBackend) Bucket() string {
	return m.bucket
}

// PutFile implements storage.Backend.
func (m *MemoryBackend) PutFile(_ context.Context, localPath string, obj storage.Object) error {
	data, err := os.ReadFile(filepath.Clean(localPath))
	if err != nil {
		return err
	}

	return m.store("PutFile", obj, data)
}

// Put implements storage.Backend.
func (m *MemoryBackend) Put(_ context.Context, obj storage.Object, data []byte) error {
	return m.store("Put", obj, data)
}

// Get implements storage.Backend.
func (m *MemoryBackend) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, Call{Method: "Get", Key: key})

	if err := m.failures[key]; err != nil {
		return nil, err
	}

	data, ok := m.objects[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, key)
	}

	return append([]byte(nil), data...), nil
}

// Exists implements storage.Backend.
func (m *MemoryBackend) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, Call{Method: "Exists", Key: key})

	if err := m.failures[key]; err != nil {
		return false, err
	}

	_, ok := m.objects[key]

	return ok, nil
}

// Copy implements storage.Backend.
func (m *MemoryBackend) Copy(_ context.Context, req storage.CopyRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, Call{Method: "Copy", Key: req.Key, SourceKey: req.SourceKey})

	if err := m.failures[req.Key]; err != nil {
		return err
	}

	data, ok := m.objects[req.SourceKey]
	if !ok {
		return fmt.Errorf("%w: %s", storage.ErrNotFound, req.SourceKey)
	}

	m.objects[req.Key] = append([]byte(nil), data...)
	m.meta[req.Key] = req.Object

	return nil
}

// URL implements storage.Backend.
func (m *MemoryBackend) URL(key string) string {
	return "https://" + m.bucket + ".example.com/" + key
}

// store saves a payload and records the call.
func (m *MemoryBackend) store(method string, obj storage.Object, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, Call{Method: method, Key: obj.Key})

	if err := m.failures[obj.Key]; err != nil {
		return err
	}

	m.objects[obj.Key] = append([]byte(nil), data...)
	m.meta[obj.Key] = obj

	return nil
}
