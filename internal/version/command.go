package version

import (
	"fmt"

	"github.com/spf13/cobra"
)

// AttachCobraVersionCommand attaches a `version` subcommand to the provided root command.
// With --short only the semantic version is printed, which release scripts compare
// against the configured binary version.
func AttachCobraVersionCommand(root *cobra.Command) {
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information.",
		Long:  "Print version, commit hash and build timestamp of release-publisher. The values are injected at build time through ldflags.",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			line := Full()
			if short {
				line = Short()
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), line)
		},
	}

	cmd.Flags().BoolVar(&short, "short", false, "print the semantic version only")
	root.AddCommand(cmd)
}
