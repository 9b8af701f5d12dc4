package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/MrEthical07/dashauth/internal/rate"
	"github.com/MrEthical07/dashauth/internal/stub"
	"github.com/MrEthical07/dashauth/jwt"
	"github.com/MrEthical07/dashauth/password"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

func newStubCmd(a *app) *cobra.Command {
	var redisAddr string
	cmd := &cobra.Command{
		Use:   "stub",
		Short: "Run a local development auth server",
		Long: `stub serves POST /api/auth/local with demo accounts. Failed logins are
throttled with Redis counters; without --redis-addr an in-process Redis is used.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			addr := redisAddr
			if addr == "" {
				mr, err := miniredis.Run()
				if err != nil {
					return fmt.Errorf("start miniredis: %w", err)
				}
				defer mr.Close()
				addr = mr.Addr()
			}
			client := redis.NewClient(&redis.Options{Addr: addr})
			defer client.Close()

			handler, err := newStubHandler(a, rate.New(client, rate.DefaultConfig()))
			if err != nil {
				return err
			}
			return serveHTTP(ctx, a.logger, a.config.Stub.Addr(), handler)
		},
	}
	cmd.Flags().StringVar(&redisAddr, "redis-addr", "", "Redis address for login throttling")
	return cmd
}

func newStubHandler(a *app, limiter *rate.Limiter) (http.Handler, error) {
	hasher, err := password.NewHasher(password.DefaultConfig())
	if err != nil {
		return nil, err
	}
	dir := stub.NewDirectory(hasher, time.Now)
	if err := stub.SeedDemo(dir); err != nil {
		return nil, fmt.Errorf("seed users: %w", err)
	}
	issuer, err := jwt.NewIssuer(jwt.IssuerConfig{
		Secret: []byte(a.config.Stub.Secret),
		TTL:    a.config.Stub.TokenTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("token issuer: %w", err)
	}
	a.logger.Info("stub users ready", slog.String("email", "test@example.com"), slog.String("password", stub.DemoPassword))
	return stub.NewServer(dir, issuer, a.logger, stub.WithLimiter(limiter)).Router(), nil
}

func serveHTTP(ctx context.Context, logger *slog.Logger, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	done := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			done <- err
			return
		}
		done <- nil
	}()
	logger.Info("stub auth server listening", slog.String("addr", addr))

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-done:
		return err
	}
}
