package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/nebulaboard"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of nebula",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("nebula version %s\n", strings.TrimSpace(nebulaboard.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
