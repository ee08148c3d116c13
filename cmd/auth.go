package cmd

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the Google sign-in",
	}
	cmd.AddCommand(newAuthLoginCmd(), newAuthLogoutCmd(), newAuthStatusCmd())
	return cmd
}

func newAuthLoginCmd() *cobra.Command {
	var manual bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to Google and store the token",
		Long: `Sign in to Google Calendar. By default a temporary listener on 127.0.0.1
receives the consent redirect. With --manual the consent URL is printed and
the authorization code is read from stdin.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setupApp()
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			if manual {
				fmt.Fprintf(out, "Visit this URL in your browser and authorize access:\n\n  %s\n\nAuthorization code: ", a.session.AuthURL())
				code, err := readLine(cmd.InOrStdin())
				if err != nil {
					return err
				}
				if err := a.session.Exchange(cmd.Context(), code); err != nil {
					return err
				}
			} else {
				err := a.session.Login(cmd.Context(), func(authURL string) {
					fmt.Fprintf(out, "Visit this URL in your browser and authorize access:\n\n  %s\n\nWaiting for the redirect...\n", authURL)
				})
				if err != nil {
					return err
				}
			}

			email, err := a.session.CurrentUserEmail(cmd.Context())
			if err != nil {
				fmt.Fprintf(out, "Token saved to %s\n", a.session.TokenPath())
				return nil
			}
			fmt.Fprintf(out, "Signed in as %s. Token saved to %s\n", email, a.session.TokenPath())
			return nil
		},
	}

	cmd.Flags().BoolVar(&manual, "manual", false, "Paste the authorization code instead of using a local redirect listener")
	return cmd
}

func newAuthLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke and delete the stored token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setupApp()
			if err != nil {
				return err
			}
			defer a.Close()

			msg, err := a.session.Logout(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}
}

func newAuthStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether a Google account is signed in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setupApp()
			if err != nil {
				return err
			}
			defer a.Close()

			out := cmd.OutOrStdout()
			if !a.session.HasToken() {
				fmt.Fprintln(out, "Not signed in.")
				return nil
			}
			email, err := a.session.CurrentUserEmail(cmd.Context())
			if err != nil {
				fmt.Fprintf(out, "A token is stored at %s but it is not usable: %v\n", a.session.TokenPath(), err)
				return nil
			}
			fmt.Fprintf(out, "Signed in as %s.\n", email)
			return nil
		},
	}
}

// readLine returns the first non-empty line of r.
func readLine(r io.Reader) (string, error) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			return line, nil
		}
	}
	if err := scanner.Err(); err != nil {
		return "", err
	}
	return "", io.ErrUnexpectedEOF
}
