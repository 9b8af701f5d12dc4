package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/MrEthical07/dashauth"
	"github.com/MrEthical07/dashauth/internal/server"
	otelexport "github.com/MrEthical07/dashauth/metrics/export/otel"
	promexport "github.com/MrEthical07/dashauth/metrics/export/prometheus"
	"github.com/alicebob/miniredis/v2"
	"github.com/spf13/cobra"
)

func newServeCmd(a *app) *cobra.Command {
	var dev bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard",
		Long: `serve runs the dashboard backend. Each browser's credentials are kept in
the configured store under its own namespace. With --dev an in-process Redis
is started and used instead.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, a, dev)
		},
	}
	cmd.Flags().BoolVar(&dev, "dev", false, "Use an in-process Redis for credentials")
	return cmd
}

func runServe(ctx context.Context, a *app, dev bool) error {
	cfg := *a.config
	if dev {
		mr, err := miniredis.Run()
		if err != nil {
			return fmt.Errorf("start miniredis: %w", err)
		}
		defer mr.Close()
		cfg.Storage.Backend = dashauth.StorageRedis
		cfg.Storage.RedisAddr = mr.Addr()
		a.logger.Info("using in-process redis", slog.String("addr", mr.Addr()))
	}

	b := dashauth.New().WithConfig(cfg).WithLogger(a.logger)
	if cfg.Audit.Enabled {
		b.WithAuditSink(dashauth.NewSlogSink(a.logger))
	}
	engine, err := b.Build()
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}
	defer engine.Close()

	stopOTel, err := startOTel(cfg.Metrics, engine, a.logger)
	if err != nil {
		return err
	}
	defer stopOTel()

	opts := []server.Option{server.WithLogger(a.logger)}
	if cfg.Metrics.Enabled {
		opts = append(opts, server.WithMetricsHandler(promexport.NewPrometheusExporter(engine).Handler()))
	}
	return server.New(engine, cfg.Server, opts...).ListenAndServe(ctx)
}

// startOTel pushes engine metrics to the log through an OpenTelemetry meter
// when an interval is configured. The returned func flushes and unregisters.
func startOTel(cfg dashauth.MetricsConfig, engine *dashauth.Engine, logger *slog.Logger) (func(), error) {
	if !cfg.Enabled || cfg.OTelInterval <= 0 {
		return func() {}, nil
	}
	provider := otelexport.NewLogProvider(logger.With(slog.String("component", "otel")), cfg.OTelInterval)
	exp, err := otelexport.New(provider.Meter(otelexport.MeterName), engine)
	if err != nil {
		_ = provider.Shutdown(context.Background())
		return nil, fmt.Errorf("otel exporter: %w", err)
	}
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(ctx); err != nil {
			logger.Warn("otel shutdown failed", slog.Any("err", err))
		}
		_ = exp.Close()
	}, nil
}
