package cmd

import (
	"fmt"
	"os"

	"github.com/MCahalane/vercel-assistant-chat/internal"
	"github.com/spf13/cobra"
)

var (
	verbose    bool
	configPath string
	version    string = "dev"
	commit     string = "unknown"
	date       string = "unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "assistant-chat",
	Short: "Survey chat backend for the hosted assistant service",
	Long: `Backend for a survey-embedded chat widget.

The serve command runs the HTTP API that proxies conversation turns to the
hosted assistant service (threads + asynchronous runs), persists plain-text
transcripts, and reports session completion.

The remaining commands operate on the transcript store:

Quick Start:
  assistant-chat serve                     # Run the API server
  assistant-chat list                      # List stored transcripts
  assistant-chat show <transcript-id>      # View one transcript
  assistant-chat export --format md        # Export transcripts as Markdown`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		internal.SetVerbose(verbose)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file")

	// Set version template to ensure --version flag works
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}

// openStore loads the config and opens the configured transcript store
func openStore() (internal.Config, internal.BlobStore, error) {
	cfg, err := internal.LoadConfig(configPath)
	if err != nil {
		return cfg, nil, fmt.Errorf("failed to load config: %w", err)
	}
	store, err := cfg.OpenStore()
	if err != nil {
		return cfg, nil, fmt.Errorf("failed to open transcript store: %w", err)
	}
	return cfg, store, nil
}
