package promote

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/oshokin/release-publisher/internal/config"
	"github.com/oshokin/release-publisher/internal/domain/release"
	"github.com/oshokin/release-publisher/internal/index"
	"github.com/oshokin/release-publisher/internal/keys"
	"github.com/oshokin/release-publisher/internal/logger"
	"github.com/oshokin/release-publisher/internal/metrics"
	"github.com/oshokin/release-publisher/internal/service/common"
	"github.com/oshokin/release-publisher/internal/storage"
)

// DefaultChannel is promoted to when no channel is given.
const DefaultChannel = "stable"

var (
	errShaRequired     = errors.New("commit sha must be provided")
	errChannelRequired = errors.New("channel must be provided")
	errInvalidMaxAge   = errors.New("max-age must not be negative")
)

// Options contains inputs for the promote entry point.
type Options struct {
	// ConfigPath is the configuration file; empty means release-publisher.yaml under Root.
	ConfigPath string
	// Root is the project root holding the configuration.
	Root string
	// Channel is the destination channel.
	Channel string
	// Version is the promoted version; it overrides the configuration.
	Version string
	// Sha is the promoted commit.
	Sha string
	// Targets restricts the configured targets.
	Targets []release.Target
	// Xz promotes .tar.xz tarballs too.
	Xz bool
	// MacOS promotes darwin .pkg installers.
	MacOS bool
	// Win promotes win32 .exe installers.
	Win bool
	// Deb promotes Debian packages and repository metadata.
	Deb bool
	// Indexes appends promoted tarballs and installers to the channel indexes.
	Indexes bool
	// MaxAge is the channel Cache-Control max-age in seconds.
	MaxAge int
	// IgnoreMissing skips copies whose source does not exist.
	IgnoreMissing bool
	// DryRun checks sources and logs copies without performing them.
	DryRun bool
	// Concurrency caps parallel copies; zero means unbounded.
	Concurrency int
	// Backend replaces the configured storage backend when set.
	Backend storage.Backend
	// Metrics records storage operations when set.
	Metrics *metrics.Recorder
}

// Summary counts copy outcomes.
type Summary struct {
	// Copied is the number of copies performed (or simulated in dry-run).
	Copied int64
	// Skipped is the number of copies whose source was missing and ignored.
	Skipped int64
	// Failed is the number of copies that failed.
	Failed int64
}

// Run promotes a release to a channel.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "promote")

	if err := validateOptions(opts); err != nil {
		return err
	}

	build, err := config.Resolve(opts.Root, opts.ConfigPath, config.Filters{
		Sha:     opts.Sha,
		Targets: opts.Targets,
		Xz:      opts.Xz,
	})
	if err != nil {
		return err
	}

	if err = build.Storage.RequireBucket(); err != nil {
		return err
	}

	build.Binary.Version = opts.Version
	id := build.Identity()
	builder := keys.New(id, build.Storage.Layout())

	copies, err := BuildPlan(id, builder, PlanOptions{
		Channel: opts.Channel,
		Targets: build.Targets,
		Xz:      build.Xz,
		MacOS:   opts.MacOS,
		Win:     opts.Win,
		Deb:     opts.Deb,
		Indexes: opts.Indexes,
		MaxAge:  opts.MaxAge,
		ACL:     build.Storage.ACL,
	})
	if err != nil {
		return err
	}

	common.WarnIfRunning(ctx)

	client, err := common.NewStorageClient(ctx, build.Storage, opts.Backend, opts.Metrics)
	if err != nil {
		return err
	}

	defer func() {
		if closeErr := client.Close(); closeErr != nil {
			logger.WarnKV(ctx, "Failed to close storage client", "error", closeErr)
		}
	}()

	var appenderOpts []index.Option
	if actor, actorErr := common.DetectActor(); actorErr == nil {
		appenderOpts = append(appenderOpts, index.WithActor(actor.String()))
	}

	executor := &Executor{
		Client:        client,
		Appender:      index.NewAppender(client, builder, build.Storage.Host, build.Storage.ACL, appenderOpts...),
		Channel:       opts.Channel,
		Version:       opts.Version,
		IgnoreMissing: opts.IgnoreMissing,
		DryRun:        opts.DryRun,
		Concurrency:   opts.Concurrency,
	}

	logger.InfoKV(ctx, "Promoting release",
		"bin", id.Bin,
		"version", id.Version,
		"sha", id.Sha,
		"channel", opts.Channel,
		"bucket", client.Bucket(),
		"copies", len(copies),
		"dry_run", opts.DryRun,
	)

	summary, err := executor.Execute(ctx, copies)

	logger.InfoKV(ctx, "Promotion finished",
		"copied", summary.Copied,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
	)

	if err != nil {
		return fmt.Errorf("promote failed: %w", err)
	}

	return nil
}

// validateOptions checks the explicit promotion inputs.
func validateOptions(opts *Options) error {
	if opts.Channel == "" {
		return errChannelRequired
	}

	if opts.Sha == "" {
		return errShaRequired
	}

	if opts.MaxAge < 0 {
		return errInvalidMaxAge
	}

	return config.ValidateVersion(opts.Version)
}

// Executor runs a copy plan.
type Executor struct {
	// Client performs the copies.
	Client *storage.Client
	// Appender writes index lines.
	Appender *index.Appender
	// Channel is the destination channel, recorded in index entries.
	Channel string
	// Version is recorded in index entries.
	Version string
	// IgnoreMissing skips copies whose source does not exist.
	IgnoreMissing bool
	// DryRun suppresses copies and appends.
	DryRun bool
	// Concurrency caps parallel copies; zero means unbounded.
	Concurrency int
}

// Execute runs every copy concurrently. Each copy is followed by its index
// append when the copy succeeded. All failures are returned together.
func (e *Executor) Execute(ctx context.Context, copies []Copy) (Summary, error) {
	var copied, skipped, failed atomic.Int64

	tasks := common.NewTaskGroup(e.Concurrency)

	for _, job := range copies {
		tasks.Go(func() error {
			taskCtx := logger.WithKV(ctx, "target", job.Label)

			outcome, err := e.Client.CopyObject(taskCtx, job.Request, storage.CopyOptions{
				Options: storage.Options{
					DryRun:    e.DryRun,
					Namespace: "promote",
				},
				IgnoreMissing: e.IgnoreMissing,
			})

			switch outcome {
			case storage.OutcomeCopied, storage.OutcomeDryRun:
				copied.Add(1)
			case storage.OutcomeSkipped:
				skipped.Add(1)

				return nil
			default:
				failed.Add(1)

				return err
			}

			if job.IndexFilename == "" {
				return nil
			}

			return e.Appender.Append(taskCtx, index.Entry{
				Channel:      e.Channel,
				Filename:     job.IndexFilename,
				OriginalURL:  e.Appender.URL(job.Request.SourceKey),
				Version:      e.Version,
				CacheControl: job.Request.CacheControl,
			}, e.DryRun)
		})
	}

	err := tasks.Wait()

	return Summary{
		Copied:  copied.Load(),
		Skipped: skipped.Load(),
		Failed:  failed.Load(),
	}, err
}
