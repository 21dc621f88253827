package main

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/cedar/internal/config"
	"github.com/aretw0/cedar/internal/presentation/tui"
	"github.com/aretw0/cedar/pkg/adapters/file"
	httpAdapter "github.com/aretw0/cedar/pkg/adapters/http"
	"github.com/aretw0/cedar/pkg/adapters/memory"
	"github.com/aretw0/cedar/pkg/adapters/redis"
	"github.com/aretw0/cedar/pkg/observability"
	"github.com/aretw0/cedar/pkg/persistence/middleware"
	"github.com/aretw0/cedar/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Exposes chart rendering, dataset queries and stored definitions as a JSON API over HTTP.
Definitions are kept in Redis when redis.addr is configured, on disk when store_dir
is set, and in memory otherwise.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadSettings(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("port") {
			cfg.Port, _ = cmd.Flags().GetString("port")
		}

		store, locker, closeStore, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer closeStore()

		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics, err := observability.NewMetrics(reg)
		if err != nil {
			return fmt.Errorf("failed to register metrics: %w", err)
		}

		handlerOpts := []httpAdapter.Option{
			httpAdapter.WithChartOptions(chartOptions(cfg, logger, metrics.Hooks())...),
			httpAdapter.WithMetricsHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})),
			httpAdapter.WithLogger(logger),
		}
		if locker != nil {
			handlerOpts = append(handlerOpts, httpAdapter.WithLocker(locker, 0))
		}
		handler := httpAdapter.NewHandler(store, handlerOpts...)

		srv := &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		if tui.IsInteractive() {
			tui.PrintBanner(cmd.ErrOrStderr())
		}
		return serve(cmd.Context(), srv, logger)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
}

// openStore picks the definition store from the settings and applies the
// redaction and encryption middlewares. The locker is only set for Redis,
// where several servers may share definitions.
func openStore(cfg config.ServerConfig) (ports.DefinitionStore, ports.DistributedLocker, func(), error) {
	var (
		store  ports.DefinitionStore
		locker ports.DistributedLocker
		closer = func() {}
	)

	switch {
	case cfg.Redis.Addr != "":
		var opts []redis.Option
		if cfg.Redis.Prefix != "" {
			opts = append(opts, redis.WithPrefix(cfg.Redis.Prefix))
		}
		if cfg.Redis.TTL > 0 {
			opts = append(opts, redis.WithTTL(cfg.Redis.TTL))
		}
		rs := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, opts...)

		prefix := cfg.Redis.Prefix
		if prefix == "" {
			prefix = redis.DefaultPrefix
		}
		store, locker, closer = rs, redis.NewLocker(rs.Client(), prefix), func() { _ = rs.Close() }
	case cfg.StoreDir != "":
		store = file.NewStore(cfg.StoreDir)
	default:
		store = memory.NewStore()
	}

	var mws []middleware.Middleware
	if len(cfg.Redact) > 0 {
		redact, err := middleware.NewRedactMiddleware(cfg.Redact)
		if err != nil {
			closer()
			return nil, nil, nil, err
		}
		mws = append(mws, redact)
	}
	if cfg.EncryptionKey != "" {
		key, err := base64.StdEncoding.DecodeString(cfg.EncryptionKey)
		if err != nil {
			closer()
			return nil, nil, nil, fmt.Errorf("invalid encryption_key: %w", err)
		}
		enc, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: key})
		if err != nil {
			closer()
			return nil, nil, nil, err
		}
		mws = append(mws, enc)
	}

	return middleware.Wrap(store, mws...), locker, closer, nil
}

func serve(ctx context.Context, srv *http.Server, logger *slog.Logger) error {
	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)

	go func() {
		logger.Info("Starting Cedar Server", "addr", srv.Addr)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case <-ctx.Done():
		logger.Info("Start shutdown")

		// Give outstanding requests a deadline for completion.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Graceful shutdown did not complete", "timeout", 5*time.Second, "err", err)
			if err := srv.Close(); err != nil {
				return fmt.Errorf("could not stop server: %w", err)
			}
		}
		logger.Info("Cedar Server stopped gracefully")
		return nil
	}
}
