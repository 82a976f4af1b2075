package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aretw0/nebulaboard"
)

func main() {
	Execute()
}

func fatal(msg string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
	os.Exit(1)
}

// openApp wires the dashboard core from the loaded config and the global flags.
func openApp(ctx context.Context) *nebulaboard.App {
	app, err := nebulaboard.Open(ctx,
		nebulaboard.WithConfig(cfg),
		nebulaboard.WithDevSafety(devSafety),
		nebulaboard.WithLogger(slog.Default()),
		nebulaboard.WithWatcherErrorHandler(func(err error) {
			slog.Error("watcher failed", "error", err)
		}),
	)
	if err != nil {
		fatal("Failed to open nebulaboard", err)
	}
	return app
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fatal("Failed to encode JSON", err)
	}
}

func formatMillis(ms int64) string {
	return time.UnixMilli(ms).Local().Format("2006-01-02 15:04")
}
