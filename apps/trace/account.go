package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/trezcool/trace/core/auth"
	"github.com/trezcool/trace/core/outcome"
	"github.com/trezcool/trace/core/user"
)

const (
	msgSignedOut       = "Signed out."
	msgPasswordChanged = "Password changed successfully."
	msgPendingApproval = "Your account is pending approval by an administrator."
)

func loginCmd(app *cliApp) *cobra.Command {
	var identifier string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with your username or email",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if strings.TrimSpace(identifier) == "" {
				var err error
				if identifier, err = app.prompt.Input(ctx, InputConfig{Message: "Username or email"}); err != nil {
					return err
				}
			}
			app.printf("Password: ")
			pwd, err := readPasswordFunc(int(os.Stdin.Fd()))
			app.printf("\n")
			if err != nil {
				return err
			}

			res, err := app.api.Login(ctx, user.LoginRequest{Identifier: identifier, Password: string(pwd)})
			if err != nil {
				app.logger.Info("sign in failed", err)
				return app.report(outcome.Failure(err))
			}
			if err := app.session.Set(auth.State{
				Token:      res.Token,
				Role:       res.Role,
				IsApproved: res.IsApproved,
				User:       res.User,
			}); err != nil {
				return err
			}

			name := identifier
			if res.User != nil {
				name = res.User.FullName()
			}
			app.printf("Welcome, %s!\n", name)
			if res.Role == user.RoleAlumni && !res.IsApproved {
				app.printf("%s\n", msgPendingApproval)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&identifier, "username", "u", "", "username or email; prompted when empty")
	return cmd
}

func logoutCmd(app *cliApp) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.session.Clear(); err != nil {
				return err
			}
			app.printf("%s\n", msgSignedOut)
			return nil
		},
	}
}

func whoamiCmd(app *cliApp) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !app.session.IsAuthenticated() {
				return auth.ErrNotAuthenticated
			}
			me, err := app.api.Me(cmd.Context())
			if err != nil {
				return app.report(outcome.Failure(err))
			}
			if err := app.session.SetUser(*me); err != nil {
				return err
			}

			status := "approved"
			if !me.IsApproved {
				status = "pending approval"
			}
			app.printf("%s (%s)\n", me.FullName(), me.Username)
			app.printf("  email: %s\n", me.Email)
			app.printf("  role:  %s, %s\n", me.Role, status)
			if me.IsAlumni() {
				app.printf("  batch: %s %d\n", me.Course, me.BatchYear)
			}
			return nil
		},
	}
}

func settingsCmd(app *cliApp) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Account settings",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "password",
		Short: "Change your password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if !app.session.IsAuthenticated() {
				return auth.ErrNotAuthenticated
			}

			var cp user.ChangePassword
			var err error
			if cp.Current, err = app.prompt.Password(ctx, InputConfig{Message: "Current password"}); err != nil {
				return err
			}
			if cp.Password, err = app.prompt.Password(ctx, InputConfig{Message: "New password"}); err != nil {
				return err
			}
			if cp.PasswordConfirm, err = app.prompt.Password(ctx, InputConfig{Message: "Confirm new password"}); err != nil {
				return err
			}
			if err := cp.Validate(); err != nil {
				return app.report(outcome.Failure(err))
			}

			if err := app.api.ChangePassword(ctx, cp); err != nil {
				return app.report(outcome.Failure(err))
			}
			return app.report(outcome.Success(msgPasswordChanged, nil))
		},
	})
	return cmd
}
