package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/MCahalane/vercel-assistant-chat/internal"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true).
			Underline(true)
)

// healthcheckCmd represents the healthcheck command
var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Check configuration, transcript store, and assistant service access",
	Long: `Check the health of the chat backend by verifying:
  • Configuration loads
  • Transcript store opens and lists
  • Assistant service credentials work (thread roundtrip)

This command is useful for debugging deployment issues.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println(sectionStyle.Render("Assistant Chat Health Check"))
		fmt.Println()

		fmt.Println(infoStyle.Render("Step 1: Loading configuration..."))
		cfg, err := internal.LoadConfig(configPath)
		if err != nil {
			fmt.Println(errorStyle.Render("✗ Failed to load configuration:"), err)
			os.Exit(1)
		}
		fmt.Println(successStyle.Render("✓ Configuration loaded"))

		fmt.Println(infoStyle.Render("Step 2: Opening transcript store..."))
		store, err := cfg.OpenStore()
		if err != nil {
			fmt.Println(errorStyle.Render("✗ Failed to open store:"), err)
			os.Exit(1)
		}
		defer store.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		infos, err := store.List(ctx)
		if err != nil {
			fmt.Println(errorStyle.Render("✗ Failed to list transcripts:"), err)
			os.Exit(1)
		}
		fmt.Println(successStyle.Render(fmt.Sprintf("✓ Store OK (%d transcripts)", len(infos))))

		fmt.Println(infoStyle.Render("Step 3: Checking assistant service..."))
		if cfg.AssistantAPIKey == "" {
			fmt.Println(errorStyle.Render("✗ OPENAI_API_KEY is not set"))
			os.Exit(1)
		}
		assistant := &internal.HTTPAssistant{
			BaseURL:     cfg.AssistantBaseURL,
			APIKey:      cfg.AssistantAPIKey,
			AssistantID: cfg.AssistantID,
		}
		threadID, err := assistant.CreateThread(ctx)
		if err != nil {
			fmt.Println(errorStyle.Render("✗ Assistant service unreachable:"), err)
			os.Exit(1)
		}
		fmt.Println(successStyle.Render("✓ Assistant service OK (thread " + threadID + ")"))

		fmt.Println()
		fmt.Println(successStyle.Render("All checks passed"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(healthcheckCmd)
}
