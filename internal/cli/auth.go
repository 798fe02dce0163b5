package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/princekumarofficial/challenge-tracker/internal/forms"
	"github.com/princekumarofficial/challenge-tracker/internal/session"
)

func NewLoginCommand(opts *RootOptions) *cobra.Command {
	var form forms.LoginForm

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and remember the session",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, app *App, args []string) error {
			res, errs := form.Submit(cmd.Context(), app.session)
			if errs != nil {
				return errs
			}
			return finishAuth(app, res)
		}),
	}
	cmd.Flags().StringVarP(&form.Email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&form.Password, "password", "p", "", "account password")
	return cmd
}

func NewRegisterCommand(opts *RootOptions) *cobra.Command {
	var form forms.RegisterForm

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, app *App, args []string) error {
			if form.ConfirmPassword == "" {
				form.ConfirmPassword = form.Password
			}
			res, errs := form.Submit(cmd.Context(), app.session)
			if errs != nil {
				return errs
			}
			return finishAuth(app, res)
		}),
	}
	cmd.Flags().StringVarP(&form.Email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&form.Password, "password", "p", "", "account password")
	cmd.Flags().StringVar(&form.ConfirmPassword, "confirm", "", "repeat the password (default: same as --password)")
	cmd.Flags().StringVar(&form.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&form.LastName, "last-name", "", "last name")
	return cmd
}

func finishAuth(app *App, res session.Result) error {
	if !res.Success {
		return errors.New(res.Error)
	}
	cur := app.session.Current()
	return app.out.Message(fmt.Sprintf("Signed in as %s", cur.DisplayName))
}

func NewLogoutCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, app *App, args []string) error {
			app.session.Logout()
			return app.out.Message("Signed out")
		}),
	}
}

func NewWhoamiCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, app *App, args []string) error {
			if err := app.requireSession(); err != nil {
				return err
			}
			cur := app.session.Current()
			return app.out.Emit(map[string]string{
				"userId":      cur.UserID,
				"displayName": cur.DisplayName,
				"email":       cur.Email,
			}, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "%s <%s> (%s)\n", cur.DisplayName, cur.Email, cur.UserID)
				return err
			})
		}),
	}
}
