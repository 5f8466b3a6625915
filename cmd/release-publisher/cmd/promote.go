package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/oshokin/release-publisher/internal/domain/release"
	"github.com/oshokin/release-publisher/internal/metrics"
	"github.com/oshokin/release-publisher/internal/service/promote"
)

var (
	// promoteFlags holds the promote command flags.
	promoteFlags struct {
		// channel is the destination channel.
		channel string
		// version is the promoted version.
		version string
		// sha overrides the commit resolved from git.
		sha string
		// targets is the raw --targets value.
		targets string
		// xz includes .tar.xz tarballs.
		xz bool
		// macOS includes darwin installers.
		macOS bool
		// win includes win32 installers.
		win bool
		// deb includes Debian packages and apt metadata.
		deb bool
		// indexes appends promoted artifacts to channel indexes.
		indexes bool
		// maxAge is the channel Cache-Control max-age.
		maxAge int
		// ignoreMissing skips missing sources.
		ignoreMissing bool
		// dryRun logs storage operations without performing them.
		dryRun bool
	}

	// promoteCmd copies an uploaded build to a channel.
	promoteCmd = &cobra.Command{
		Use:   "promote",
		Short: "Promote an uploaded build to a release channel",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			targets, err := parseTargets(promoteFlags.targets)
			if err != nil {
				return err
			}

			return runWithSignals(func(ctx context.Context, recorder *metrics.Recorder) error {
				return promote.Run(ctx, &promote.Options{
					ConfigPath:    configPath,
					Root:          rootDir,
					Channel:       promoteFlags.channel,
					Version:       promoteFlags.version,
					Sha:           promoteFlags.sha,
					Targets:       targets,
					Xz:            promoteFlags.xz,
					MacOS:         promoteFlags.macOS,
					Win:           promoteFlags.win,
					Deb:           promoteFlags.deb,
					Indexes:       promoteFlags.indexes,
					MaxAge:        promoteFlags.maxAge,
					IgnoreMissing: promoteFlags.ignoreMissing,
					DryRun:        promoteFlags.dryRun,
					Concurrency:   concurrency,
					Metrics:       recorder,
				})
			})
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	flags := promoteCmd.Flags()
	flags.StringVar(&promoteFlags.channel, "channel", promote.DefaultChannel, "channel to promote to")
	flags.StringVar(&promoteFlags.version, "version", "", "semantic version to promote")
	flags.StringVar(&promoteFlags.sha, "sha", "", "commit sha of the uploaded build")
	flags.StringVarP(&promoteFlags.targets, "targets", "t", "", "comma-separated platform-arch targets (default: all configured)")
	flags.BoolVar(&promoteFlags.xz, "xz", false, "also promote .tar.xz tarballs")
	flags.BoolVar(&promoteFlags.macOS, "macos", false, "promote macOS .pkg installers")
	flags.BoolVar(&promoteFlags.win, "win", false, "promote Windows .exe installers")
	flags.BoolVar(&promoteFlags.deb, "deb", false, "promote Debian packages and apt metadata")
	flags.BoolVar(&promoteFlags.indexes, "indexes", false, "append promoted artifacts to the channel indexes")
	flags.IntVar(&promoteFlags.maxAge, "max-age", release.DefaultPromoteMaxAge, "Cache-Control max-age of promoted objects, in seconds")
	flags.BoolVar(&promoteFlags.ignoreMissing, "ignore-missing", false, "skip artifacts missing from the commit directory instead of failing")
	flags.BoolVar(&promoteFlags.dryRun, "dry-run", false, "check sources and log copies without performing them")

	_ = promoteCmd.MarkFlagRequired("version")
	_ = promoteCmd.MarkFlagRequired("sha")

	rootCmd.AddCommand(promoteCmd)
}
