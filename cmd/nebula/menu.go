package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var menuCmd = &cobra.Command{
	Use:   "menu",
	Short: "Show the side menu, active item last",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		app := openApp(context.Background())

		items := app.Menu.Items()
		if jsonOut {
			printJSON(items)
			return
		}
		for _, it := range items {
			mark := " "
			if it.Active {
				mark = ">"
			}
			fmt.Printf("%s %-10s %s\n", mark, it.ID, it.Label)
		}
	},
}

var menuSelectCmd = &cobra.Command{
	Use:   "select [item]",
	Short: "Select a menu item and navigate to it",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		app := openApp(context.Background())

		route, err := app.Menu.Select(args[0])
		if err != nil {
			fatal("Failed to select menu item", err)
		}
		fmt.Printf("Active: %s, now at %s\n", app.Menu.ActiveLabel(), route.Path)
	},
}

func init() {
	rootCmd.AddCommand(menuCmd)
	menuCmd.AddCommand(menuSelectCmd)
}
