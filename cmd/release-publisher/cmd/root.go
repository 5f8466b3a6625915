package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/release-publisher/internal/domain/release"
	"github.com/oshokin/release-publisher/internal/logger"
	"github.com/oshokin/release-publisher/internal/metrics"
	"github.com/oshokin/release-publisher/internal/version"
)

var (
	// configPath to the configuration YAML file; empty means release-publisher.yaml under root.
	configPath string
	// rootDir is the project root holding the configuration and dist directory.
	rootDir string
	// logLevel is the minimum level of emitted log lines.
	logLevel string
	// logFormat selects the console or JSON encoder.
	logFormat string
	// metricsFile receives Prometheus textfile metrics after a run.
	metricsFile string
	// concurrency caps parallel storage operations; zero means unbounded.
	concurrency int

	errInvalidLogLevel  = errors.New("invalid log level")
	errInvalidLogFormat = errors.New("invalid log format")

	// rootCmd represents the base command.
	rootCmd = &cobra.Command{
		Use:           version.Name,
		Short:         "Publish CLI release artifacts to object storage",
		Long:          "Upload packed CLI artifacts to a versioned bucket layout and promote a build to a release channel.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			level, ok := logger.ParseLogLevel(logLevel)
			if !ok {
				return fmt.Errorf("%w: %q", errInvalidLogLevel, logLevel)
			}

			format, ok := logger.ParseFormat(logFormat)
			if !ok {
				return fmt.Errorf("%w: %q", errInvalidLogFormat, logFormat)
			}

			logger.Configure(level, format)

			return nil
		},
	}
)

// Execute runs the release-publisher CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	err := rootCmd.Execute()

	if err != nil {
		logger.Error(context.Background(), err)
	}

	logger.Sync()

	if err != nil {
		os.Exit(1)
	}
}

// runWithSignals runs fn with a context cancelled on SIGINT/SIGTERM and dumps
// metrics afterwards, whether fn failed or not.
func runWithSignals(fn func(ctx context.Context, recorder *metrics.Recorder) error) error {
	// Setup graceful shutdown handling.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	recorder := metrics.NewRecorder()
	runErr := fn(ctx, recorder)

	if metricsFile != "" {
		if err := recorder.WriteTextfile(metricsFile); err != nil {
			logger.WarnKV(ctx, "Failed to write metrics file", "path", metricsFile, "error", err)
		}
	}

	return runErr
}

// parseTargets parses the --targets flag value.
func parseTargets(value string) ([]release.Target, error) {
	targets, err := release.ParseTargets(value)
	if err != nil {
		return nil, fmt.Errorf("--targets: %w", err)
	}

	return targets, nil
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", "", "path to configuration file (default \"<root>/release-publisher.yaml\")")
	flags.StringVarP(&rootDir, "root", "r", ".", "path to the project root")
	flags.StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn or error")
	flags.StringVar(&logFormat, "log-format", string(logger.FormatConsole), "log format: console or json")
	flags.StringVar(&metricsFile, "metrics-file", "", "write Prometheus textfile metrics to this path after the run")
	flags.IntVar(&concurrency, "concurrency", 0, "maximum parallel storage operations (0 = unbounded)")
}
