package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/nebulaboard/pkg/tasks"
)

var (
	richTitle   string
	richContent string
)

var richtextCmd = &cobra.Command{
	Use:     "richtext",
	Aliases: []string{"rt"},
	Short:   "Manage rich-text notes",
}

var richtextListCmd = &cobra.Command{
	Use:   "list",
	Short: "List rich-text notes, most recently updated first",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		app := openApp(ctx)

		list, err := app.Tasks.ListRichNotes(ctx)
		if err != nil {
			fatal("Failed to list rich-text notes", err)
		}
		if jsonOut {
			printJSON(list)
			return
		}
		for _, n := range list {
			fmt.Printf("%s  %s  (%s)\n", n.ID, n.Title, formatMillis(n.UpdatedDate))
		}
	},
}

var richtextAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a rich-text note",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		app := openApp(ctx)

		id, err := app.Tasks.AddRichNote(ctx, richTitle, richContent)
		if err != nil {
			fatal("Failed to add rich-text note", err)
		}
		fmt.Println(id)
	},
}

var richtextShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Print a rich-text note",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		app := openApp(ctx)

		n, err := app.Tasks.GetRichNote(ctx, args[0])
		if err != nil {
			fatal("Failed to read rich-text note", err)
		}
		if jsonOut {
			printJSON(n)
			return
		}
		fmt.Printf("%s\n\n%s\n", n.Title, n.Content)
	},
}

var richtextEditCmd = &cobra.Command{
	Use:   "edit [id]",
	Short: "Update the title or content of a rich-text note",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		app := openApp(ctx)

		var patch tasks.RichTextPatch
		if cmd.Flags().Changed("title") {
			patch.Title = &richTitle
		}
		if cmd.Flags().Changed("content") {
			patch.Content = &richContent
		}
		if err := app.Tasks.UpdateRichNote(ctx, args[0], patch); err != nil {
			fatal("Failed to update rich-text note", err)
		}
		fmt.Printf("Rich-text note updated: %s\n", args[0])
	},
}

var richtextDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a rich-text note",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		app := openApp(ctx)

		if err := app.Tasks.DeleteRichNote(ctx, args[0]); err != nil {
			fatal("Failed to delete rich-text note", err)
		}
		fmt.Printf("Rich-text note deleted: %s\n", args[0])
	},
}

func init() {
	rootCmd.AddCommand(richtextCmd)
	richtextCmd.AddCommand(richtextListCmd, richtextAddCmd, richtextShowCmd, richtextEditCmd, richtextDeleteCmd)

	for _, c := range []*cobra.Command{richtextAddCmd, richtextEditCmd} {
		c.Flags().StringVarP(&richTitle, "title", "t", "", "Title")
		c.Flags().StringVar(&richContent, "content", "", "HTML content")
	}
}
