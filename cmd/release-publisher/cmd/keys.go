package cmd

import (
	"github.com/spf13/cobra"

	"github.com/oshokin/release-publisher/internal/service/keyplan"
	"github.com/oshokin/release-publisher/internal/service/promote"
)

var (
	// keysFlags holds the keys command flags.
	keysFlags struct {
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
	}

	// keysCmd prints the key plan of a promotion without touching storage.
	keysCmd = &cobra.Command{
		Use:   "keys",
		Short: "Print the storage keys a promotion would copy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			targets, err := parseTargets(keysFlags.targets)
			if err != nil {
				return err
			}

			return keyplan.Run(cmd.Context(), &keyplan.Options{
				ConfigPath: configPath,
				Root:       rootDir,
				Channel:    keysFlags.channel,
				Version:    keysFlags.version,
				Sha:        keysFlags.sha,
				Targets:    targets,
				Xz:         keysFlags.xz,
				MacOS:      keysFlags.macOS,
				Win:        keysFlags.win,
				Deb:        keysFlags.deb,
				Out:        cmd.OutOrStdout(),
			})
		},
	}
)

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	flags := keysCmd.Flags()
	flags.StringVar(&keysFlags.channel, "channel", promote.DefaultChannel, "channel shown as destination")
	flags.StringVar(&keysFlags.version, "version", "", "version (default: from configuration)")
	flags.StringVar(&keysFlags.sha, "sha", "", "commit sha (default: git HEAD of root)")
	flags.StringVarP(&keysFlags.targets, "targets", "t", "", "comma-separated platform-arch targets (default: all configured)")
	flags.BoolVar(&keysFlags.xz, "xz", false, "include .tar.xz tarballs")
	flags.BoolVar(&keysFlags.macOS, "macos", false, "include macOS installers")
	flags.BoolVar(&keysFlags.win, "win", false, "include Windows installers")
	flags.BoolVar(&keysFlags.deb, "deb", false, "include Debian packages")

	rootCmd.AddCommand(keysCmd)
}
