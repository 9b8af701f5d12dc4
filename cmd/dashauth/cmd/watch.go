package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/MrEthical07/dashauth"
	"github.com/MrEthical07/dashauth/authstate"
	"github.com/spf13/cobra"
)

func newWatchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-validate the stored session until it expires",
		Long: `watch restores the stored session and re-checks it on the configured
interval. It exits when the session is gone or on SIGINT/SIGTERM.`,
	}
	cmd.RunE = a.withEngine(func(ctx context.Context, engine *dashauth.Engine) error {
		ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		out := cmd.OutOrStdout()
		container := authstate.NewContainer(engine,
			authstate.WithLogger(a.logger),
			authstate.WithNavigator(authstate.NavigatorFunc(func(path string) {
				fmt.Fprintf(out, "redirect: %s\n", path)
				cancel()
			})),
		)
		container.Subscribe(func(s authstate.State) {
			printState(cmd, s)
		})

		lifecycle := authstate.NewLifecycle(container, engine,
			authstate.WithInterval(a.config.Session.RevalidateInterval),
			authstate.WithLifecycleLogger(a.logger),
		)
		lifecycle.Start(ctx)
		defer lifecycle.Stop()

		if !container.Snapshot().Authenticated {
			return nil
		}
		<-ctx.Done()
		return nil
	})
	return cmd
}

func printState(cmd *cobra.Command, s authstate.State) {
	out := cmd.OutOrStdout()
	switch {
	case s.Loading:
		fmt.Fprintln(out, "state: loading")
	case s.Authenticated && s.Profile != nil:
		fmt.Fprintf(out, "state: authenticated as %s\n", s.Profile.Username)
	case s.HasError():
		fmt.Fprintf(out, "state: signed out (%s)\n", s.Error)
	default:
		fmt.Fprintln(out, "state: signed out")
	}
}
