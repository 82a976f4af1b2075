package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/nebulaboard/pkg/auth"
)

var whoamiRemote bool

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		app := openApp(ctx)

		user, ok := app.Session.User()
		if !ok || !app.Session.IsAuthenticated() {
			fmt.Println("Not logged in.")
			return
		}

		if whoamiRemote {
			var me auth.User
			if err := app.Client.Get(ctx, "/me", nil, &me); err != nil {
				fatal("Failed to fetch user", err)
			}
			user = me
		}

		if jsonOut {
			printJSON(user)
			return
		}
		fmt.Printf("%s <%s> (id %s)\n", user.Name, user.Email, user.ID)
	},
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
	whoamiCmd.Flags().BoolVar(&whoamiRemote, "remote", false, "Ask the API instead of the stored profile")
}
