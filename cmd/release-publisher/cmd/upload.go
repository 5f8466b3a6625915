package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/oshokin/release-publisher/internal/metrics"
	"github.com/oshokin/release-publisher/internal/service/upload"
)

var (
	// uploadFlags holds the upload command flags.
	uploadFlags struct {
		// sha overrides the commit resolved from git.
		sha string
		// targets is the raw --targets value.
		targets string
		// xz includes .tar.xz tarballs.
		xz bool
		// dryRun logs storage operations without performing them.
		dryRun bool
		// macOS includes darwin installers.
		macOS bool
		// win includes win32 installers.
		win bool
		// deb includes Debian packages and apt metadata.
		deb bool
	}

	// uploadCmd uploads the packed artifacts of the current build.
	uploadCmd = &cobra.Command{
		Use:   "upload",
		Short: "Upload packed tarballs and manifests to the commit directory",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			targets, err := parseTargets(uploadFlags.targets)
			if err != nil {
				return err
			}

			return runWithSignals(func(ctx context.Context, recorder *metrics.Recorder) error {
				return upload.Run(ctx, &upload.Options{
					ConfigPath: configPath,
					Root:       rootDir,
					Sha:        uploadFlags.sha,
					Targets:    targets,
					Xz:         uploadFlags.xz,
					Installers: upload.Installers{
						MacOS: uploadFlags.macOS,
						Win:   uploadFlags.win,
						Deb:   uploadFlags.deb,
					},
					DryRun:      uploadFlags.dryRun,
					Concurrency: concurrency,
					Metrics:     recorder,
				})
			})
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	flags := uploadCmd.Flags()
	flags.StringVar(&uploadFlags.sha, "sha", "", "commit sha of the build (default: git HEAD of root)")
	flags.StringVarP(&uploadFlags.targets, "targets", "t", "", "comma-separated platform-arch targets (default: all configured)")
	flags.BoolVar(&uploadFlags.xz, "xz", false, "also upload .tar.xz tarballs")
	flags.BoolVar(&uploadFlags.dryRun, "dry-run", false, "log uploads without performing them")
	flags.BoolVar(&uploadFlags.macOS, "macos", false, "also upload macOS .pkg installers")
	flags.BoolVar(&uploadFlags.win, "win", false, "also upload Windows .exe installers")
	flags.BoolVar(&uploadFlags.deb, "deb", false, "also upload Debian packages and apt metadata")

	rootCmd.AddCommand(uploadCmd)
}
