package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/gophauth/internal/common"
)

// prompt returns value, or asks for it when empty.
func (a *app) prompt(cmd *cobra.Command, value, label string) (string, error) {
	if value != "" {
		return value, nil
	}
	return GetSimpleText(a.in, label, cmd.OutOrStdout())
}

func newSignupCmd(a *app) *cobra.Command {
	var name, email string

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if name, err = a.prompt(cmd, name, "Name"); err != nil {
				return err
			}
			if email, err = a.prompt(cmd, email, "Email"); err != nil {
				return err
			}
			pw, err := GetPassword(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer common.WipeByteArray(pw)

			if err := a.api.Signup(cmd.Context(), name, email, string(pw)); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Account created. Run 'gophauth login' to start a session.")
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "account email")
	return cmd
}

func newLoginCmd(a *app) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if email, err = a.prompt(cmd, email, "Email"); err != nil {
				return err
			}
			pw, err := GetPassword(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			defer common.WipeByteArray(pw)

			token, err := a.api.Login(cmd.Context(), email, string(pw))
			if err != nil {
				return err
			}
			if err := a.session.Save(token); err != nil {
				return fmt.Errorf("save session: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Login successful")
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	return cmd
}

func newWhoAmICmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			token, err := a.session.Load()
			if errors.Is(err, common.ErrorNotFound) {
				return errors.New("not logged in")
			}
			if err != nil {
				return err
			}

			p, err := a.api.WhoAmI(cmd.Context(), token)
			if errors.Is(err, common.ErrorUnauthorized) {
				_ = a.session.Clear()
				return errors.New("session expired, please log in again")
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s <%s>\n", p.Name, p.Email)
			return nil
		},
	}
}

// Logout forgets the local token even when the server cannot be reached.
func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the current session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			token, err := a.session.Load()
			if errors.Is(err, common.ErrorNotFound) {
				fmt.Fprintln(cmd.OutOrStdout(), "Not logged in")
				return nil
			}
			if err != nil {
				return err
			}

			remoteErr := a.api.Logout(cmd.Context(), token)
			if err := a.session.Clear(); err != nil {
				return err
			}
			if remoteErr != nil {
				cmd.PrintErrf("server logout failed: %v\n", remoteErr)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}
