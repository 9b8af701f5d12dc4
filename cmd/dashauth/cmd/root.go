package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/MrEthical07/dashauth"
	"github.com/spf13/cobra"
)

// app carries what every subcommand needs after flags are parsed.
type app struct {
	configPath string
	namespace  string

	config *dashauth.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "dashauth",
		Short: "Dashboard authentication client",
		Long: `dashauth logs in against the repair shop auth server, keeps the session
token in a local credential store, and serves the dashboard with route guards.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := dashauth.LoadConfig(a.configPath)
			if err != nil {
				return err
			}
			a.config = cfg
			a.logger = newLogger(cfg.Log, cmd.ErrOrStderr())
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Path to a YAML config file")
	root.PersistentFlags().StringVar(&a.namespace, "namespace", "cli", "Credential namespace")

	root.AddCommand(
		newLoginCmd(a),
		newStatusCmd(a),
		newLogoutCmd(a),
		newWatchCmd(a),
		newServeCmd(a),
		newStubCmd(a),
		newLoadtestCmd(a),
	)
	return root
}

// Execute runs the CLI and exits non-zero on failure.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// engine builds an engine for the CLI commands. The in-memory backend would
// forget the session between invocations, so it is replaced by the bolt file.
func (a *app) engine() (*dashauth.Engine, error) {
	cfg := *a.config
	if cfg.Storage.Backend == dashauth.StorageMemory {
		cfg.Storage.Backend = dashauth.StorageBolt
	}
	b := dashauth.New().WithConfig(cfg).WithLogger(a.logger)
	if cfg.Audit.Enabled {
		b.WithAuditSink(dashauth.NewSlogSink(a.logger))
	}
	engine, err := b.Build()
	if err != nil {
		return nil, fmt.Errorf("build engine: %w", err)
	}
	return engine, nil
}

func (a *app) withEngine(fn func(context.Context, *dashauth.Engine) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		engine, err := a.engine()
		if err != nil {
			return err
		}
		defer engine.Close()
		return fn(cmd.Context(), engine.WithNamespace(a.namespace))
	}
}

func newLogger(cfg dashauth.LogConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
