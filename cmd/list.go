package cmd

import (
	"context"
	"fmt"

	"github.com/MCahalane/vercel-assistant-chat/internal"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	// Styles
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			Padding(0, 1)

	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true)

	countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	dateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	participantStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("135")).
				Italic(true)
)

// listCmd represents the list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored transcripts",
	Long:  `List all transcripts in the configured store with their metadata.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := context.Background()
		infos, err := store.List(ctx)
		if err != nil {
			return fmt.Errorf("failed to list transcripts: %w", err)
		}

		if len(infos) == 0 {
			fmt.Println("No transcripts found.")
			return nil
		}

		fmt.Println(headerStyle.Render(fmt.Sprintf("Transcripts (%d)", len(infos))))
		for _, info := range infos {
			line := idStyle.Render(info.Key)

			content, err := store.Read(ctx, info.Key)
			if err == nil {
				if doc, err := internal.ParseTranscript(content); err == nil {
					line += "  " + countStyle.Render(fmt.Sprintf("%d turns", len(doc.Entries)))
					if doc.Header.ParticipantID != "" {
						line += "  " + participantStyle.Render(doc.Header.ParticipantID)
					}
					if !doc.Header.StartedAt.IsZero() {
						line += "  " + dateStyle.Render(doc.Header.StartedAt.Format("2006-01-02 15:04"))
					}
				}
			}
			fmt.Println(line)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
}
