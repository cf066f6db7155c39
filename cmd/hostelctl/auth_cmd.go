package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newLoginCmd(a *app) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and keep the session for later commands",
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = os.Getenv("HOSTEL_PASSWORD")
			}
			if email == "" || password == "" {
				return fmt.Errorf("--email and --password (or HOSTEL_PASSWORD) are required")
			}
			s, err := a.auth.SignIn(cmd.Context(), email, password)
			if err != nil {
				return fmt.Errorf("sign in failed: %w", err)
			}
			a.log.Debug().Str("user", s.UserID).Msg("signed in")
			fmt.Fprintf(cmd.OutOrStdout(), "%s signed in as %s\n", color.GreenString("✓"), s.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			// restore first so the API call carries the token being dropped
			if _, err := a.gate(cmd.Context()); err != nil && !errors.Is(err, errNotSignedIn) {
				a.log.Debug().Err(err).Msg("session not restored before logout")
			}
			if err := a.auth.SignOut(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "signed out")
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user and role",
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := a.gate(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "user:  %s\n", snap.Session.Email)
			fmt.Fprintf(out, "id:    %s\n", snap.Session.UserID)
			switch {
			case snap.Profile != nil:
				fmt.Fprintf(out, "name:  %s\n", snap.Profile.Name)
				fmt.Fprintf(out, "role:  %s\n", snap.Profile.Role)
				if b := snap.Profile.Block; b != "" {
					fmt.Fprintf(out, "block: %s room %s\n", b, snap.Profile.Room)
				}
			case snap.ProfileErr != nil:
				fmt.Fprintf(out, "role:  %s (%v)\n", color.RedString("unavailable"), snap.ProfileErr)
			}
			return nil
		},
	}
}
