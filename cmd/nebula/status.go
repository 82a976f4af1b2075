package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/nebulaboard/internal/platform"
)

var statusDiagram bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the profile, session and collection state",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		app := openApp(context.Background())

		if statusDiagram {
			fmt.Println(app.Diagram())
			return
		}

		state := app.State().(platform.AppState)
		if jsonOut {
			printJSON(state)
			return
		}

		fmt.Printf("Profile:  %s\n", state.ProfileDir)
		fmt.Printf("Data:     %s\n", state.DataDir)
		fmt.Printf("Session:  %s\n", app.Session.Status())
		fmt.Printf("Route:    %s\n", app.Router.Current().Path)
		fmt.Printf("Menu:     %s\n", app.Menu.ActiveLabel())
		for _, r := range app.Collections() {
			n, err := r.Count(cmd.Context())
			if err != nil {
				fatal("Failed to count records", err)
			}
			fmt.Printf("%-9s %d record(s) in %s\n", r.Schema().Name+":", n, r.Path)
		}
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().BoolVar(&statusDiagram, "diagram", false, "Print a Mermaid diagram of the components")
}
