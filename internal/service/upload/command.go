package upload

import (
	"context"
	"fmt"

	"github.com/oshokin/release-publisher/internal/config"
	"github.com/oshokin/release-publisher/internal/domain/release"
	"github.com/oshokin/release-publisher/internal/keys"
	"github.com/oshokin/release-publisher/internal/logger"
	"github.com/oshokin/release-publisher/internal/metrics"
	"github.com/oshokin/release-publisher/internal/service/common"
	"github.com/oshokin/release-publisher/internal/storage"
)

// Options contains inputs for the upload entry point.
type Options struct {
	// ConfigPath is the configuration file; empty means release-publisher.yaml under Root.
	ConfigPath string
	// Root is the project root holding the configuration and the dist directory.
	Root string
	// Sha overrides the commit resolved from git.
	Sha string
	// Targets restricts the configured targets.
	Targets []release.Target
	// Xz uploads .tar.xz tarballs too.
	Xz bool
	// Installers selects the optional installer uploads.
	Installers Installers
	// DryRun logs every upload without performing it.
	DryRun bool
	// Concurrency caps parallel uploads; zero means unbounded.
	Concurrency int
	// Backend replaces the configured storage backend when set.
	Backend storage.Backend
	// Metrics records storage operations when set.
	Metrics *metrics.Recorder
}

// Run uploads the artifacts of the current build.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "upload")

	build, err := config.Resolve(opts.Root, opts.ConfigPath, config.Filters{
		Sha:     opts.Sha,
		Targets: opts.Targets,
		Xz:      opts.Xz,
	})
	if err != nil {
		return err
	}

	if err = config.ValidateVersion(build.Binary.Version); err != nil {
		return err
	}

	if err = build.Storage.RequireBucket(); err != nil {
		return err
	}

	plan, err := BuildPlan(build, keys.New(build.Identity(), build.Storage.Layout()), opts.Installers)
	if err != nil {
		return err
	}

	for _, missing := range plan.MissingManifests {
		logger.WarnKV(ctx, "Build manifest not found, installed CLIs will not self-update to this build", "path", missing)
	}

	client, err := common.NewStorageClient(ctx, build.Storage, opts.Backend, opts.Metrics)
	if err != nil {
		return err
	}

	defer func() {
		if closeErr := client.Close(); closeErr != nil {
			logger.WarnKV(ctx, "Failed to close storage client", "error", closeErr)
		}
	}()

	logger.InfoKV(ctx, "Uploading release",
		"bin", build.Binary.Name,
		"version", build.Binary.Version,
		"sha", build.Sha,
		"bucket", client.Bucket(),
		"files", len(plan.Files),
		"dry_run", opts.DryRun,
	)

	if err = Execute(ctx, client, plan, opts.DryRun, opts.Concurrency); err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}

	logger.Info(ctx, "Upload completed successfully")

	return nil
}

// Execute runs every planned upload concurrently and returns all failures.
func Execute(ctx context.Context, client *storage.Client, plan *Plan, dryRun bool, concurrency int) error {
	tasks := common.NewTaskGroup(concurrency)

	for _, file := range plan.Files {
		tasks.Go(func() error {
			taskCtx := logger.WithKV(ctx, "target", file.Label)

			return client.UploadFile(taskCtx, file.LocalPath, file.Object, storage.Options{
				DryRun:    dryRun,
				Namespace: "upload",
			})
		})
	}

	return tasks.Wait()
}
