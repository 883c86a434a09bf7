package cli

import (
	"context"

	"github.com/spf13/cobra"

	"snapgram/internal/app"
	"snapgram/internal/models"
)

// NewLoginCommand creates the login command.
func NewLoginCommand(rootOpts *RootOptions) *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "login <username-or-email>",
		Short: "Log in as a demo user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				res := a.Auth.Login(ctx, models.LoginForm{Username: args[0], Password: password})
				if !res.Success {
					return out.Fail(NewExitError(ExitFailure, res.Message))
				}
				u, _ := a.Auth.CurrentUser()
				return out.Success(u, "Logged in as "+userLine(u))
			})
		},
	}

	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

// NewSignupCommand creates the signup command.
func NewSignupCommand(rootOpts *RootOptions) *cobra.Command {
	var form models.SignupForm

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and log in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if form.ConfirmPassword == "" {
				form.ConfirmPassword = form.Password
			}
			return withApp(cmd, rootOpts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				res := a.Auth.Signup(ctx, form)
				if !res.Success {
					return out.Fail(NewExitError(ExitFailure, res.Message))
				}
				u, _ := a.Auth.CurrentUser()
				return out.Success(u, "Signed up as "+userLine(u))
			})
		},
	}

	cmd.Flags().StringVar(&form.Username, "username", "", "username")
	cmd.Flags().StringVar(&form.Email, "email", "", "email address")
	cmd.Flags().StringVar(&form.DisplayName, "display-name", "", "display name")
	cmd.Flags().StringVar(&form.Password, "password", "", "password")
	cmd.Flags().StringVar(&form.ConfirmPassword, "confirm-password", "", "password confirmation (defaults to --password)")
	for _, name := range []string{"username", "email", "display-name", "password"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}

// NewLogoutCommand creates the logout command.
func NewLogoutCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				a.Auth.Logout(ctx)
				return out.Success(a.Auth.State(), "Logged out")
			})
		},
	}
}

// NewWhoamiCommand creates the whoami command.
func NewWhoamiCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, rootOpts, func(ctx context.Context, a *app.App, out *OutputFormatter) error {
				st := a.Auth.State()
				if !st.IsAuthenticated {
					return out.Success(st, "Not logged in")
				}
				return out.Success(st, userLine(*st.CurrentUser))
			})
		},
	}
}

// requireUser fails with ExitFailure while logged out.
func requireUser(a *app.App, out *OutputFormatter) (models.User, error) {
	u, ok := a.Auth.CurrentUser()
	if !ok {
		return models.User{}, out.Fail(NewExitError(ExitFailure, "not logged in; run snapctl login first"))
	}
	return u, nil
}
