package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/nebulaboard/pkg/auth"
)

var (
	registerName     string
	registerEmail    string
	registerPassword string
	registerConfirm  string
)

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and sign in",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		app := openApp(ctx)

		password := promptSecret("Password", registerPassword)
		confirm := registerConfirm
		if confirm == "" && registerPassword == "" {
			confirm = promptSecret("Confirm password", "")
		} else if confirm == "" {
			confirm = password
		}

		req := auth.RegisterRequest{
			Name:            registerName,
			Email:           registerEmail,
			Password:        password,
			ConfirmPassword: confirm,
		}
		if err := app.Session.Register(ctx, req); err != nil {
			authFailed("Registration failed", err)
		}

		user, _ := app.Session.User()
		fmt.Printf("Registered and logged in as %s <%s>\n", user.Name, user.Email)
	},
}

func init() {
	rootCmd.AddCommand(registerCmd)
	registerCmd.Flags().StringVarP(&registerName, "name", "n", "", "Display name")
	registerCmd.Flags().StringVarP(&registerEmail, "email", "e", "", "Account email")
	registerCmd.Flags().StringVarP(&registerPassword, "password", "p", "", "Password (prompted when omitted)")
	registerCmd.Flags().StringVar(&registerConfirm, "confirm", "", "Password confirmation (defaults to --password)")
}
