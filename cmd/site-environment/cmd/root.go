package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/site-environment/internal/logger"
	"github.com/oshokin/site-environment/internal/service/server"
	"github.com/oshokin/site-environment/internal/version"
)

var (
	// configPath to the configuration YAML file.
	configPath string
	// documentFile overrides where the JSON document is written.
	documentFile string
	// envFile is an optional .env file with SITE_ENV_* variables.
	envFile string
	// logLevel overrides the configured log level.
	logLevel string
	// quiet suppresses the per-tick console report.
	quiet bool

	// rootCmd represents the base command for running the simulator.
	rootCmd = &cobra.Command{
		Use:   "site-environment [listen-address]",
		Short: "Simulate a construction-site worker's vital signs and serve them over HTTP.",
		Long: `Runs the construction-site environment simulator.

Every tick the simulator reads the next temperature and heart rate, derives the
emergency call and machine shutdown alarms, and atomically rewrites the JSON
document (construction_site.json by default). An HTTP API serves the document
and accepts manual alarm overrides:

  GET  /environment          persisted document
  POST /update_relay_state   emergency_call_module=..., shutdown_relay=...
  GET  /state                in-memory state
  GET  /stream               websocket feed of every persisted document

Settings are read from site-environment.yaml when present. The listen address
can be provided as an argument to override the file (e.g. :9090, 0.0.0.0:8080).
SIGINT or SIGTERM stops the simulator and removes the document.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, args []string) error {
			// Setup graceful shutdown handling.
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
			defer stop()

			// Use listen address argument if provided, otherwise rely on config.
			var listenAddress string
			if len(args) > 0 {
				listenAddress = args[0]
			}

			options := &server.Options{
				ConfigPath:    configPath,
				EnvFile:       envFile,
				ListenAddress: listenAddress,
				DocumentFile:  documentFile,
				LogLevel:      logLevel,
				Quiet:         quiet,
			}

			return server.Run(ctx, options)
		},
	}
)

// Execute runs the site-environment CLI and exits with non-zero status on error.
func Execute() {
	version.AttachCobraVersionCommand(rootCmd)

	defer logger.Sync()

	if err := rootCmd.Execute(); err != nil {
		logger.Errorf(context.Background(), "%s: %v", version.Name, err)
		logger.Sync()
		os.Exit(1)
	}
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	// Setup command flags with consistent naming and descriptions.
	flags := rootCmd.Flags()
	flags.StringVarP(&configPath, "config", "c", "", "path to configuration file (default site-environment.yaml if present)")
	flags.StringVarP(&documentFile, "document", "d", "", "path of the JSON document (overrides config)")
	flags.StringVar(&envFile, "env-file", "", "path to a .env file (default .env if present)")
	flags.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
	flags.BoolVarP(&quiet, "quiet", "q", false, "do not print the per-tick status report")

	rootCmd.AddCommand(newConfigCommand(), newProbeCommand())
}
