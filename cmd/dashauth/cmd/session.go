package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MrEthical07/dashauth"
	"github.com/MrEthical07/dashauth/form"
	"github.com/spf13/cobra"
)

func newLoginCmd(a *app) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session token",
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Account password (read from stdin when empty)")
	cmd.RunE = a.withEngine(func(ctx context.Context, engine *dashauth.Engine) error {
		if password == "" {
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("read password: %w", err)
			}
			password = strings.TrimRight(line, "\r\n")
		}

		f := form.New()
		f.Set(form.FieldEmail, email)
		f.Set(form.FieldPassword, password)
		if !f.Validate() {
			for _, field := range []form.Field{form.FieldEmail, form.FieldPassword} {
				if msg := f.Error(field); msg != "" {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", field, msg)
				}
			}
			return errors.New("invalid credentials input")
		}

		result := engine.HandleLogin(ctx, form.NormalizeEmail(email), password)
		if !result.Success {
			return errors.New(result.Error)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s)\n", result.User.Username, result.User.Email)
		return nil
	})
	return cmd
}

func newStatusCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the stored session",
	}
	cmd.RunE = a.withEngine(func(ctx context.Context, engine *dashauth.Engine) error {
		status := engine.Status(ctx)
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "status: %s\n", status.Reason)
		if status.Profile != nil {
			fmt.Fprintf(out, "user: %s <%s> id=%d\n", status.Profile.Username, status.Profile.Email, status.Profile.ID)
		}
		return nil
	})
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored session",
	}
	cmd.RunE = a.withEngine(func(ctx context.Context, engine *dashauth.Engine) error {
		engine.Logout(ctx)
		fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
		return nil
	})
	return cmd
}
