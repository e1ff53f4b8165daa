package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mockt/mockt/internal/auth"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in with email and password",
	RunE: func(cmd *cobra.Command, args []string) error {
		return authenticate(cmd, (*auth.Client).SignIn)
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and sign in",
	RunE: func(cmd *cobra.Command, args []string) error {
		return authenticate(cmd, (*auth.Client).SignUp)
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the stored credential",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()
		client, err := e.requireIdentity()
		if err != nil {
			return err
		}
		if err := client.SignOut(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()
		client, err := e.requireIdentity()
		if err != nil {
			return err
		}
		u, err := client.CurrentUser(cmd.Context())
		if errors.Is(err, auth.ErrNotSignedIn) {
			fmt.Fprintln(cmd.OutOrStdout(), "Not signed in. Run: mockt login")
			return nil
		}
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Email:    %s\n", u.Email)
		fmt.Fprintf(out, "User ID:  %s\n", u.UID)
		fmt.Fprintf(out, "Token:    valid until %s\n", u.ExpiresAt.Local().Format(time.DateTime))
		return nil
	},
}

type signInFunc func(c *auth.Client, ctx context.Context, email, password string) (*auth.User, error)

// authenticate reads the credentials and runs fn.
func authenticate(cmd *cobra.Command, fn signInFunc) error {
	e, err := openEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()
	client, err := e.requireIdentity()
	if err != nil {
		return err
	}

	in := bufio.NewReader(cmd.InOrStdin())
	email, _ := cmd.Flags().GetString("email")
	if email == "" {
		if email, err = prompt(cmd.OutOrStdout(), in, "Email: "); err != nil {
			return err
		}
	}
	password := os.Getenv("MOCKT_PASSWORD")
	if password == "" {
		if password, err = prompt(cmd.OutOrStdout(), in, "Password: "); err != nil {
			return err
		}
	}

	u, err := fn(client, cmd.Context(), email, password)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s.\n", u.Email)
	return nil
}

func prompt(w io.Writer, r *bufio.Reader, label string) (string, error) {
	fmt.Fprint(w, label)
	line, err := r.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func init() {
	for _, c := range []*cobra.Command{loginCmd, registerCmd} {
		c.Flags().StringP("email", "e", "", "Account email (prompted when empty)")
	}
}
