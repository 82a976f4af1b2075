package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/nebulaboard"
	"github.com/aretw0/nebulaboard/internal/config"
)

var (
	verbose    bool
	jsonOut    bool
	devSafety  bool
	configPath string
	profileDir string
	apiURL     string
	format     string

	cfg config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "nebula",
	Short: "Local core of the nebulaboard productivity dashboard",
	Long: `nebula manages the notes, tasks and rich-text notes of a nebulaboard
profile and its authenticated session against the dashboard API.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}

		opts := &slog.HandlerOptions{
			Level: level,
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, opts))
		slog.SetDefault(logger)

		path := configPath
		if path == "" {
			if wd, err := os.Getwd(); err == nil {
				if found, err := nebulaboard.FindConfig(wd); err == nil {
					path = found
				}
			}
		}

		loaded, err := config.Load(config.WithFile(path))
		if err != nil {
			return err
		}
		if profileDir != "" {
			loaded.ProfileDir = profileDir
		}
		if apiURL != "" {
			loaded.APIBaseURL = apiURL
		}
		if format != "" {
			loaded.Format = format
		}
		if err := loaded.Validate(); err != nil {
			return err
		}
		cfg = loaded
		slog.Debug("config loaded", "file", path, "profile", cfg.ProfileDir, "api", cfg.APIBaseURL)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&devSafety, "dev-safety", true, "Sandbox the profile under the temp dir when run via go run")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: nebulaboard.yaml in the working directory or a parent)")
	rootCmd.PersistentFlags().StringVar(&profileDir, "profile", "", "Profile directory")
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", "", "Auth API base URL")
	rootCmd.PersistentFlags().StringVar(&format, "format", "", "Collection file format (json or yaml)")
}
