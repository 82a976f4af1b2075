package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/nebulaboard/pkg/adapters/lifecycle"
	"github.com/aretw0/nebulaboard/pkg/core"
)

var (
	watchPattern string
	watchTypes   []string
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow changes made to the collections by other processes",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		// This command runs its own watcher.
		cfg.Watch = false
		app := openApp(ctx)
		events, err := app.Watch(ctx, watchPattern)
		if err != nil {
			fatal("Failed to watch collections", err)
		}

		var opts []lifecycle.Option
		if len(watchTypes) > 0 {
			types := make([]core.EventType, 0, len(watchTypes))
			for _, t := range watchTypes {
				types = append(types, core.EventType(strings.ToUpper(t)))
			}
			opts = append(opts, lifecycle.WithTypes(types...))
		}
		src := lifecycle.NewSource(events, opts...)
		if err := src.Start(ctx); err != nil {
			fatal("Failed to start event source", err)
		}

		fmt.Fprintf(os.Stderr, "Watching %s (Ctrl+C to stop)\n", app.DataDir)
		for ev := range src.Events() {
			e, ok := ev.(core.Event)
			if !ok {
				continue
			}
			if jsonOut {
				printJSON(e)
				continue
			}
			fmt.Printf("%s %s\n", time.Unix(e.Timestamp, 0).Format(time.TimeOnly), e)
		}
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().StringVar(&watchPattern, "pattern", "**", "Glob over collection names")
	watchCmd.Flags().StringSliceVar(&watchTypes, "type", nil, "Only these event types (create, modify, delete)")
}
