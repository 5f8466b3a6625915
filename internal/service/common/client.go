//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"fmt"

	"github.com/oshokin/release-publisher/internal/config"
	"github.com/oshokin/release-publisher/internal/metrics"
	"github.com/oshokin/release-publisher/internal/storage"
	"github.com/oshokin/release-publisher/internal/version"
)

// NewStorageClient builds the storage client for the configured backend.
// An injected backend (tests, dry runs against fakes) takes precedence.
func NewStorageClient(
	ctx context.Context,
	settings config.Storage,
	injected storage.Backend,
	recorder *metrics.Recorder,
) (*storage.Client, error) {
	if err := settings.RequireBucket(); err != nil {
		return nil, err
	}

	backend := injected
	if backend == nil {
		var err error

		backend, err = newBackend(ctx, settings)
		if err != nil {
			return nil, err
		}
	}

	return storage.NewClient(backend, storage.WithMetrics(recorder)), nil
}

// newBackend dials the SDK selected by settings.Backend.
func newBackend(ctx context.Context, settings config.Storage) (storage.Backend, error) {
	switch settings.Backend {
	case config.BackendGCS:
		backend, err := storage.NewGCSBackend(ctx, storage.GCSOptions{
			Bucket:    settings.Bucket,
			Endpoint:  settings.Endpoint,
			UserAgent: version.UserAgent(),
		})
		if err != nil {
			return nil, fmt.Errorf("init GCS backend: %w", err)
		}

		return backend, nil
	case config.BackendFile:
		backend, err := storage.NewFileBackend(settings.Directory, settings.Bucket)
		if err != nil {
			return nil, fmt.Errorf("init file backend: %w", err)
		}

		return backend, nil
	default:
		backend, err := storage.NewS3Backend(ctx, storage.S3Options{
			Bucket:          settings.Bucket,
			Region:          settings.Region,
			Endpoint:        settings.Endpoint,
			PathStyle:       settings.PathStyle,
			AccessKeyID:     settings.AccessKeyID,
			SecretAccessKey: settings.SecretAccessKey,
			AppID:           version.UserAgent(),
		})
		if err != nil {
			return nil, fmt.Errorf("init S3 backend: %w", err)
		}

		return backend, nil
	}
}
