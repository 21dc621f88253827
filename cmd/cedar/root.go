package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/cedar"
	"github.com/aretw0/cedar/internal/config"
	"github.com/aretw0/cedar/internal/logging"
	"github.com/aretw0/cedar/internal/presentation/tui"
	"github.com/aretw0/cedar/pkg/adapters/featureservice"
	"github.com/aretw0/cedar/pkg/domain"
	"github.com/aretw0/cedar/pkg/observability"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "cedar",
	Short: "Cedar renders charts from declarative definitions",
	Long: `Cedar turns a chart definition (datasets, series, type and overrides) into an image
or workbook. Remote datasets are fetched from feature services concurrently and
shaped into render-ready rows.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// The context is canceled on interrupt.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, tui.Failure(err.Error()))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "cedar.yaml", "Path to the cedar settings file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error (overrides the settings file)")
	rootCmd.PersistentFlags().Duration("timeout", 0, "Timeout for the dataset queries of one chart (overrides the settings file)")
	rootCmd.PersistentFlags().Bool("strict", false, "Reject unnamed remote datasets")
	rootCmd.PersistentFlags().String("token", "", "Token sent to feature services")
}

// loadSettings merges the settings file with the persistent flags.
func loadSettings(cmd *cobra.Command) (config.ServerConfig, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadServer(path)
	if err != nil {
		return cfg, nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Changed("timeout") {
		cfg.QueryTimeout, _ = flags.GetDuration("timeout")
	}
	if flags.Changed("strict") {
		cfg.Strict, _ = flags.GetBool("strict")
	}
	if flags.Changed("token") {
		cfg.Token, _ = flags.GetString("token")
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return cfg, nil, err
	}
	return cfg, logging.New(level), nil
}

// chartOptions builds the facade options shared by every command.
func chartOptions(cfg config.ServerConfig, logger *slog.Logger, hooks ...domain.LifecycleHooks) []cedar.Option {
	opts := []cedar.Option{
		cedar.WithLogger(logger),
		cedar.WithQuerier(featureservice.New(
			featureservice.WithToken(cfg.Token),
			featureservice.WithLogger(logger),
		)),
		cedar.WithLifecycleHooks(observability.Chain(append([]domain.LifecycleHooks{observability.LoggingHooks(logger)}, hooks...)...)),
	}
	if cfg.QueryTimeout > 0 {
		opts = append(opts, cedar.WithQueryTimeout(cfg.QueryTimeout))
	}
	if cfg.Strict {
		opts = append(opts, cedar.WithStrictNames())
	}
	return opts
}

// loadChart reads the definition named by the -f flag and builds a chart for container.
func loadChart(cmd *cobra.Command, container string) (*cedar.Chart, error) {
	path, _ := cmd.Flags().GetString("file")
	if path == "" {
		return nil, fmt.Errorf("a definition file is required (-f)")
	}

	cfg, logger, err := loadSettings(cmd)
	if err != nil {
		return nil, err
	}

	def, err := config.LoadDefinition(path)
	if err != nil {
		return nil, err
	}
	if err := def.Validate(); err != nil {
		return nil, err
	}

	return cedar.New(container, def, chartOptions(cfg, logger)...)
}

func addFileFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("file", "f", "", "Chart definition (YAML or JSON)")
}
