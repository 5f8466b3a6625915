package keyplan

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/oshokin/release-publisher/internal/config"
	"github.com/oshokin/release-publisher/internal/domain/release"
	"github.com/oshokin/release-publisher/internal/index"
	"github.com/oshokin/release-publisher/internal/keys"
	"github.com/oshokin/release-publisher/internal/logger"
	"github.com/oshokin/release-publisher/internal/service/promote"
)

// Options contains inputs for the keys entry point.
type Options struct {
	// ConfigPath is the configuration file; empty means release-publisher.yaml under Root.
	ConfigPath string
	// Root is the project root holding the configuration.
	Root string
	// Channel is the channel shown as destination.
	Channel string
	// Version overrides the configured version when set.
	Version string
	// Sha overrides the commit resolved from git.
	Sha string
	// Targets restricts the configured targets.
	Targets []release.Target
	// Xz includes .tar.xz tarballs.
	Xz bool
	// MacOS includes darwin installers.
	MacOS bool
	// Win includes win32 installers.
	Win bool
	// Deb includes Debian packages.
	Deb bool
	// Out receives the table.
	Out io.Writer
}

// Run prints one "label  source  destination  index" row per promotion copy.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "keys")

	build, err := config.Resolve(opts.Root, opts.ConfigPath, config.Filters{
		Sha:     opts.Sha,
		Targets: opts.Targets,
		Xz:      opts.Xz,
	})
	if err != nil {
		return err
	}

	if opts.Version != "" {
		build.Binary.Version = opts.Version
	}

	if err = config.ValidateVersion(build.Binary.Version); err != nil {
		return err
	}

	id := build.Identity()
	builder := keys.New(id, build.Storage.Layout())

	copies, err := promote.BuildPlan(id, builder, promote.PlanOptions{
		Channel: opts.Channel,
		Targets: build.Targets,
		Xz:      build.Xz,
		MacOS:   opts.MacOS,
		Win:     opts.Win,
		Deb:     opts.Deb,
		Indexes: true,
		MaxAge:  release.DefaultPromoteMaxAge,
		ACL:     build.Storage.ACL,
	})
	if err != nil {
		return err
	}

	logger.DebugKV(ctx, "Computed key plan", "copies", len(copies), "custom_templates", !build.Storage.Templates.IsEmpty())

	return write(opts.Out, builder, opts.Channel, copies)
}

// write renders the plan as an aligned table.
func write(out io.Writer, builder keys.Builder, channel string, copies []promote.Copy) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)

	if _, err := fmt.Fprintln(tw, "KIND\tSOURCE\tDESTINATION\tINDEX"); err != nil {
		return err
	}

	for _, c := range copies {
		indexKey := "-"

		if c.IndexFilename != "" {
			key, err := builder.ChannelKey(channel, index.ObjectName(c.IndexFilename))
			if err != nil {
				return err
			}

			indexKey = key
		}

		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.Label, c.Request.SourceKey, c.Request.Key, indexKey); err != nil {
			return err
		}
	}

	return tw.Flush()
}
