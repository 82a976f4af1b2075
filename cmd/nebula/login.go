package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/aretw0/nebulaboard/pkg/auth"
)

var (
	loginEmail    string
	loginPassword string
)

// promptSecret reads a value from the terminal without echo. When stdin is
// not a terminal it returns fallback.
func promptSecret(label, fallback string) string {
	if fallback != "" || !term.IsTerminal(int(os.Stdin.Fd())) {
		return fallback
	}
	fmt.Fprintf(os.Stderr, "%s: ", label)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		fatal("Failed to read "+label, err)
	}
	return string(b)
}

func passwordFlag(v string) string {
	if v != "" {
		return v
	}
	return os.Getenv("NEBULA_PASSWORD")
}

// authFailed prints field issues one per line, or the error itself.
func authFailed(msg string, err error) {
	var verr *auth.ValidationError
	if errors.As(err, &verr) {
		fmt.Fprintf(os.Stderr, "%s:\n", msg)
		for _, is := range verr.Issues {
			fmt.Fprintf(os.Stderr, "  %s: %s\n", is.Field, is.Message)
		}
		os.Exit(1)
	}
	fatal(msg, err)
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and keep the session in the profile",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		app := openApp(ctx)

		req := auth.LoginRequest{
			Email:    loginEmail,
			Password: promptSecret("Password", passwordFlag(loginPassword)),
		}
		if err := app.Session.Login(ctx, req); err != nil {
			authFailed("Login failed", err)
		}

		user, _ := app.Session.User()
		fmt.Printf("Logged in as %s <%s>\n", user.Name, user.Email)
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
	loginCmd.Flags().StringVarP(&loginEmail, "email", "e", "", "Account email")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "Password (defaults to $NEBULA_PASSWORD, prompted when both are empty)")
}
