package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/nebulaboard/pkg/notes"
)

var (
	noteSort    string
	noteOrder   string
	noteTag     string
	noteSearch  string
	noteTitle   string
	noteContent string
	noteColor   string
	noteTags    []string
	notePinned  bool
)

var notesCmd = &cobra.Command{
	Use:   "notes",
	Short: "Manage notes",
}

var notesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List notes, pinned first",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		app := openApp(ctx)

		var (
			list []notes.Note
			err  error
		)
		switch {
		case noteSearch != "":
			list, err = app.Notes.SearchNotes(ctx, noteSearch)
		case noteTag != "":
			list, err = app.Notes.NotesByTag(ctx, noteTag)
		default:
			list, err = app.Notes.GetAllNotes(ctx, notes.SortField(noteSort), notes.SortOrder(noteOrder))
		}
		if err != nil {
			fatal("Failed to list notes", err)
		}

		if jsonOut {
			printJSON(list)
			return
		}
		for _, n := range list {
			printNoteLine(n)
		}
	},
}

func printNoteLine(n notes.Note) {
	pin := " "
	if n.IsPinned {
		pin = "*"
	}
	tags := ""
	if len(n.Tags) > 0 {
		tags = " [" + strings.Join(n.Tags, ", ") + "]"
	}
	fmt.Printf("%s %s  %s%s  (%s)\n", pin, n.ID, n.Title, tags, formatMillis(n.UpdatedDate))
}

var notesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a note",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		app := openApp(ctx)

		id, err := app.Notes.AddNote(ctx, notes.NoteInput{
			Title:    noteTitle,
			Content:  noteContent,
			Color:    noteColor,
			IsPinned: notePinned,
			Tags:     noteTags,
		})
		if err != nil {
			fatal("Failed to add note", err)
		}
		fmt.Println(id)
	},
}

var notesShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Print a note",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		app := openApp(ctx)

		n, err := app.Notes.GetNote(ctx, args[0])
		if err != nil {
			fatal("Failed to read note", err)
		}
		if jsonOut {
			printJSON(n)
			return
		}
		printNoteLine(n)
		if n.Content != "" {
			fmt.Println()
			fmt.Println(n.Content)
		}
	},
}

var notesEditCmd = &cobra.Command{
	Use:   "edit [id]",
	Short: "Update the given fields of a note",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		app := openApp(ctx)

		var patch notes.NotePatch
		flags := cmd.Flags()
		if flags.Changed("title") {
			patch.Title = &noteTitle
		}
		if flags.Changed("content") {
			patch.Content = &noteContent
		}
		if flags.Changed("color") {
			patch.Color = &noteColor
		}
		if flags.Changed("pinned") {
			patch.IsPinned = &notePinned
		}
		if flags.Changed("tag") {
			patch.Tags = append([]string{}, noteTags...)
		}

		if err := app.Notes.UpdateNote(ctx, args[0], patch); err != nil {
			fatal("Failed to update note", err)
		}
		fmt.Printf("Note updated: %s\n", args[0])
	},
}

var notesDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a note",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		app := openApp(ctx)

		if err := app.Notes.DeleteNote(ctx, args[0]); err != nil {
			fatal("Failed to delete note", err)
		}
		fmt.Printf("Note deleted: %s\n", args[0])
	},
}

var notesPinCmd = &cobra.Command{
	Use:   "pin [id]",
	Short: "Toggle whether a note is pinned",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		app := openApp(ctx)

		pinned, err := app.Notes.TogglePin(ctx, args[0])
		if err != nil {
			fatal("Failed to toggle pin", err)
		}
		if pinned {
			fmt.Printf("Note pinned: %s\n", args[0])
		} else {
			fmt.Printf("Note unpinned: %s\n", args[0])
		}
	},
}

func init() {
	rootCmd.AddCommand(notesCmd)
	notesCmd.AddCommand(notesListCmd, notesAddCmd, notesShowCmd, notesEditCmd, notesDeleteCmd, notesPinCmd)

	notesListCmd.Flags().StringVar(&noteSort, "sort", string(notes.SortByUpdatedDate), "Sort field (updatedDate, createdDate, title)")
	notesListCmd.Flags().StringVar(&noteOrder, "order", string(notes.Desc), "Sort order (asc, desc)")
	notesListCmd.Flags().StringVar(&noteTag, "tag", "", "Only notes with this tag")
	notesListCmd.Flags().StringVarP(&noteSearch, "search", "s", "", "Case-insensitive search in title, content and tags")

	for _, c := range []*cobra.Command{notesAddCmd, notesEditCmd} {
		c.Flags().StringVarP(&noteTitle, "title", "t", "", "Title")
		c.Flags().StringVar(&noteContent, "content", "", "Content")
		c.Flags().StringVar(&noteColor, "color", "", "Color")
		c.Flags().StringSliceVar(&noteTags, "tag", nil, "Tag (repeatable)")
		c.Flags().BoolVar(&notePinned, "pinned", false, "Pinned")
	}
}
