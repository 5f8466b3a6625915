package storage_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/oshokin/release-publisher/internal/metrics"
	"github.com/oshokin/release-publisher/internal/storage"
	"github.com/oshokin/release-publisher/internal/storage/storagetest"
)

// copyRequest builds a replace-metadata copy of src onto dst.
func copyRequest(src, dst string) storage.CopyRequest {
	return storage.CopyRequest{
		Object: storage.Object{
			Key:          dst,
			ACL:          "public-read",
			CacheControl: "max-age=86400",
		},
		SourceKey:         src,
		MetadataDirective: storage.MetadataReplace,
	}
}

// TestClient_UploadFile uploads, honours dry-run and rejects missing files.
func TestClient_UploadFile(t *testing.T) {
	t.Parallel()

	backend := storagetest.NewMemoryBackend("releases")
	recorder := metrics.NewRecorder()
	client := storage.NewClient(backend, storage.WithMetrics(recorder))
	ctx := context.Background()

	local := filepath.Join(t.TempDir(), "mycli.tar.gz")
	require.NoError(t, os.WriteFile(local, []byte("tarball"), 0o600))

	obj := storage.Object{Key: "versions/1.0.0/abc1234/mycli.tar.gz", CacheControl: "max-age=604800"}

	require.NoError(t, client.UploadFile(ctx, local, obj, storage.Options{DryRun: true}))
	require.Empty(t, backend.Writes())

	require.NoError(t, client.UploadFile(ctx, local, obj, storage.Options{Namespace: "upload"}))
	data, ok := backend.Object(obj.Key)
	require.True(t, ok)
	require.Equal(t, []byte("tarball"), data)
	require.Equal(t, "max-age=604800", backend.Meta(obj.Key).CacheControl)

	err := client.UploadFile(ctx, filepath.Join(t.TempDir(), "missing"), obj, storage.Options{DryRun: true})
	require.Error(t, err)

	counter := recorder.Operations()
	require.InDelta(t, 1, testutil.ToFloat64(counter.WithLabelValues("upload", "uploaded")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(counter.WithLabelValues("upload", "dry-run")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(counter.WithLabelValues("upload", "failed")), 0)
}

// TestClient_CopyObject walks every terminal state of a copy.
func TestClient_CopyObject(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	errBoom := errors.New("boom")

	tests := []struct {
		name        string
		seed        bool
		failOn      string
		opts        storage.CopyOptions
		wantOutcome storage.Outcome
		wantErr     error
		wantCopy    bool
	}{
		{
			name:        "copied",
			seed:        true,
			wantOutcome: storage.OutcomeCopied,
			wantCopy:    true,
		},
		{
			name:        "dry run",
			seed:        true,
			opts:        storage.CopyOptions{Options: storage.Options{DryRun: true}},
			wantOutcome: storage.OutcomeDryRun,
		},
		{
			name:        "missing source ignored",
			opts:        storage.CopyOptions{IgnoreMissing: true},
			wantOutcome: storage.OutcomeSkipped,
		},
		{
			name:        "missing source ignored in dry run",
			opts:        storage.CopyOptions{Options: storage.Options{DryRun: true}, IgnoreMissing: true},
			wantOutcome: storage.OutcomeSkipped,
		},
		{
			name:        "missing source fails",
			wantOutcome: storage.OutcomeFailed,
			wantErr:     storage.ErrSourceMissing,
		},
		{
			name:        "copy error",
			seed:        true,
			failOn:      "dst",
			opts:        storage.CopyOptions{IgnoreMissing: true},
			wantOutcome: storage.OutcomeFailed,
			wantErr:     errBoom,
		},
		{
			name:        "lookup error",
			failOn:      "src",
			opts:        storage.CopyOptions{IgnoreMissing: true},
			wantOutcome: storage.OutcomeFailed,
			wantErr:     errBoom,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			backend := storagetest.NewMemoryBackend("releases")
			if tt.seed {
				backend.Seed("src", []byte("payload"))
			}

			if tt.failOn != "" {
				backend.FailOn(tt.failOn, errBoom)
			}

			outcome, err := storage.NewClient(backend).CopyObject(ctx, copyRequest("src", "dst"), tt.opts)
			require.Equal(t, tt.wantOutcome, outcome)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}

			_, copied := backend.Object("dst")
			require.Equal(t, tt.wantCopy, copied)
		})
	}
}

// TestClient_ReadWriteObject covers in-memory payloads.
func TestClient_ReadWriteObject(t *testing.T) {
	t.Parallel()

	backend := storagetest.NewMemoryBackend("releases")
	recorder := metrics.NewRecorder()
	client := storage.NewClient(backend, storage.WithMetrics(recorder))
	ctx := context.Background()

	_, err := client.ReadObject(ctx, "index.jsonl")
	require.ErrorIs(t, err, storage.ErrNotFound)

	obj := storage.Object{Key: "index.jsonl", ContentType: "application/x-ndjson"}
	require.NoError(t, client.WriteObject(ctx, obj, []byte("line\n"), storage.Options{DryRun: true}))
	require.Empty(t, backend.Writes())

	require.NoError(t, client.WriteObject(ctx, obj, []byte("line\n"), storage.Options{}))

	data, err := client.ReadObject(ctx, "index.jsonl")
	require.NoError(t, err)
	require.Equal(t, []byte("line\n"), data)

	reads := recorder.Operations()
	require.InDelta(t, 1, testutil.ToFloat64(reads.WithLabelValues("read", "missing")), 0)
	require.InDelta(t, 1, testutil.ToFloat64(reads.WithLabelValues("read", "read")), 0)
	require.Equal(t, "releases", client.Bucket())
	require.Equal(t, "https://releases.example.com/index.jsonl", client.URL("index.jsonl"))
}
