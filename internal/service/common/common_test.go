//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/release-publisher/internal/config"
	"github.com/oshokin/release-publisher/internal/storage/storagetest"
)

// TestDetectActor ensures hostname and username are detected and non-empty.
func TestDetectActor(t *testing.T) {
	t.Parallel()

	a, err := DetectActor()
	require.NoError(t, err)
	require.NotEmpty(t, a.Hostname)
	require.NotEmpty(t, a.Username)
	require.Equal(t, a.Username+"@"+a.Hostname, a.String())
	require.Empty(t, Actor{}.String())
}

// TestTaskGroup_CollectsAllErrors runs every task even when some fail.
func TestTaskGroup_CollectsAllErrors(t *testing.T) {
	t.Parallel()

	var ran atomic.Int32

	tg := NewTaskGroup(0)

	for i := range 10 {
		tg.Go(func() error {
			ran.Add(1)

			if i%3 == 0 {
				return fmt.Errorf("task %d failed", i)
			}

			return nil
		})
	}

	err := tg.Wait()
	require.Error(t, err)
	require.EqualValues(t, 10, ran.Load())

	for _, i := range []int{0, 3, 6, 9} {
		require.ErrorContains(t, err, fmt.Sprintf("task %d failed", i))
	}
}

// TestTaskGroup_Limit never exceeds the configured concurrency.
func TestTaskGroup_Limit(t *testing.T) {
	t.Parallel()

	var (
		running atomic.Int32
		peak    atomic.Int32
	)

	tg := NewTaskGroup(2)

	for range 8 {
		tg.Go(func() error {
			current := running.Add(1)
			for {
				seen := peak.Load()
				if current <= seen || peak.CompareAndSwap(seen, current) {
					break
				}
			}

			time.Sleep(5 * time.Millisecond)
			running.Add(-1)

			return nil
		})
	}

	require.NoError(t, tg.Wait())
	require.LessOrEqual(t, peak.Load(), int32(2))
}

// TestNewStorageClient requires a bucket and prefers the injected backend.
func TestNewStorageClient(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	_, err := NewStorageClient(ctx, config.Storage{}, storagetest.NewMemoryBackend("x"), nil)
	require.True(t, errors.Is(err, config.ErrBucketRequired))

	backend := storagetest.NewMemoryBackend("releases")
	client, err := NewStorageClient(ctx, config.Storage{Bucket: "releases"}, backend, nil)
	require.NoError(t, err)
	require.Equal(t, "releases", client.Bucket())
}

// TestNewStorageClient_FileBackend builds the local mirror backend.
func TestNewStorageClient_FileBackend(t *testing.T) {
	t.Parallel()

	settings := config.Storage{
		Backend:   config.BackendFile,
		Bucket:    "releases",
		Directory: t.TempDir(),
	}

	client, err := NewStorageClient(context.Background(), settings, nil, nil)
	require.NoError(t, err)
	require.Equal(t, "releases", client.Bucket())
	require.Contains(t, client.URL("channels/stable/a.tar.gz"), "/releases/channels/stable/a.tar.gz")
	require.NoError(t, client.Close())
}

// TestOtherInstances skips the current process.
func TestOtherInstances(t *testing.T) {
	t.Parallel()

	pids, err := OtherInstances("release-publisher-definitely-not-running")
	require.NoError(t, err)
	require.Empty(t, pids)
}
