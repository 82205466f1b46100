package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/onboardkit/pkg/apiclient"
	"github.com/dmitrymomot/onboardkit/pkg/authsession"
	"github.com/dmitrymomot/onboardkit/pkg/validator"
)

func newLoginCmd(a *app) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if email == "" {
				if email, err = a.in.ask("Email"); err != nil {
					return err
				}
			}
			pw, err := a.in.ask("Password")
			if err != nil {
				return err
			}
			if err := validator.Apply(
				validator.RequiredString("email", email),
				validator.ValidEmail("email", email),
				validator.RequiredString("password", pw),
			); err != nil {
				return err
			}

			resp, err := a.api.Login(cmd.Context(), email, pw)
			if err != nil {
				if apiErr, ok := apiclient.AsAPIError(err); ok && apiErr.IsClientError() {
					return errors.New(apiErr.Message)
				}
				return err
			}
			if _, err := a.sessions.Create(cmd.Context(), authsession.LocalKey, authsession.FromLogin(resp)); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Signed in.")
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.sessions.Invalidate(cmd.Context(), authsession.LocalKey); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Signed out.")
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.sessions.Get(cmd.Context(), authsession.LocalKey)
			switch {
			case errors.Is(err, authsession.ErrSessionNotFound), errors.Is(err, authsession.ErrSessionExpired):
				fmt.Fprintln(a.out, "Not signed in.")
				return nil
			case err != nil:
				return err
			}

			fmt.Fprintf(a.out, "Signed in since %s\n", s.CreatedAt.Local().Format("2006-01-02 15:04"))
			if s.MobileNumber != "" {
				fmt.Fprintf(a.out, "Mobile: %s\n", s.MobileNumber)
			}
			if s.ProfilePhoto != "" {
				fmt.Fprintf(a.out, "Photo:  %s\n", s.ProfilePhoto)
			}
			return nil
		},
	}
}
