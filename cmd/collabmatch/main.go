package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/collabmatch/internal/config"
	logpkg "github.com/kailas-cloud/collabmatch/internal/logger"
	"github.com/kailas-cloud/collabmatch/internal/version"
)

const app = "collabmatch"

var (
	envName  string
	logLevel string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          app,
		Short:        "collabmatch recommends colleagues to collaborate with and explains why",
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&envName, "env", config.GetEnv(), "config environment (config/<env>.yaml)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "override the configured log level")

	root.AddCommand(
		newServeCmd(),
		newRecommendCmd(),
		newProfilesCmd(),
		newMCPCmd(),
		newInteractiveCmd(),
		newVersionCmd(),
	)
	return root
}

// setup loads the config for --env and builds a logger for it.
// defaultLevel applies when neither --log-level nor the config sets one.
func setup(defaultLevel string) (config.Config, *zap.Logger, error) {
	cfg, err := config.Load(envName)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("load config: %w", err)
	}

	level := cfg.Logging.Level
	if defaultLevel != "" {
		level = defaultLevel
	}
	if logLevel != "" {
		level = logLevel
	}

	logger, err := logpkg.NewLogger(envName, level)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("create logger: %w", err)
	}
	return cfg, logger, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s version: %s\n", app, version.String())
		},
	}
}
