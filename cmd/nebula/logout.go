package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

var logoutLocal bool

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the session",
	Long: `Logout tells the API to revoke the token, then clears the session from
the profile. The local session is cleared even when the API call fails.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		app := openApp(ctx)

		if !app.Session.IsAuthenticated() {
			fmt.Println("Not logged in.")
			return
		}

		if logoutLocal {
			if err := app.Session.Logout(); err != nil {
				fatal("Failed to clear session", err)
			}
		} else if err := app.Session.RemoteLogout(ctx); err != nil {
			slog.Warn("remote logout failed, local session cleared", "error", err)
		}
		fmt.Println("Logged out.")
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
	logoutCmd.Flags().BoolVar(&logoutLocal, "local", false, "Only clear the local session")
}
