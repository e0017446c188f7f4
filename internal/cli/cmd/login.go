package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/nookcoder/clinic-console/internal/app"
	"github.com/nookcoder/clinic-console/internal/session"
	"github.com/spf13/cobra"
)

func newLoginCmd(opts *rootOptions) *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and persist the session",
		Args:  cobra.NoArgs,
		RunE: opts.run(func(cmd *cobra.Command, _ []string, a *app.App) error {
			if password == "" {
				fmt.Fprint(cmd.OutOrStdout(), "Password: ")
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return errors.New("password is required")
				}
				password = strings.TrimRight(line, "\r\n")
			}

			err := a.Store.SignIn(cmd.Context(), session.Credentials{Username: username, Password: password})
			if err != nil {
				return errors.New(a.Store.LastError())
			}

			out := cmd.OutOrStdout()
			if id := a.Store.Identity(); id != nil {
				fmt.Fprintf(out, "Signed in as %s %v\n", id.Subject, id.Roles.Slice())
			} else {
				fmt.Fprintln(out, "Signed in.")
			}
			return nil
		}),
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "staff username")
	cmd.Flags().StringVarP(&password, "password", "p", "", "password (prompted when omitted)")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func newLogoutCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the persisted session",
		Args:  cobra.NoArgs,
		RunE: opts.run(func(cmd *cobra.Command, _ []string, a *app.App) error {
			a.Store.SignOut(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			return nil
		}),
	}
}

func newWhoamiCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in identity",
		Args:  cobra.NoArgs,
		RunE: opts.run(func(cmd *cobra.Command, _ []string, a *app.App) error {
			out := cmd.OutOrStdout()
			if !a.Store.IsAuthenticated() {
				fmt.Fprintln(out, "Not signed in.")
				return nil
			}
			id := a.Store.Identity()
			if id == nil {
				fmt.Fprintln(out, "Signed in (identity unknown).")
				return nil
			}
			fmt.Fprintf(out, "%s %v\n", id.Subject, id.Roles.Slice())
			return nil
		}),
	}
}
