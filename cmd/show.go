package cmd

import (
	"context"
	"fmt"

	"github.com/MCahalane/vercel-assistant-chat/internal"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var showLimit int

var (
	// Styles for show command
	transcriptHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("212")).
				Padding(0, 1).
				MarginBottom(1)

	transcriptMetaStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("243")).
				MarginBottom(1)

	userTurnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true).
			Padding(0, 1)

	assistantTurnStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("135")).
				Bold(true).
				Padding(0, 1)

	turnContentStyle = lipgloss.NewStyle().
				Padding(0, 2).
				MarginBottom(1)

	timestampStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)
)

// showCmd represents the show command
var showCmd = &cobra.Command{
	Use:   "show <transcript-id>",
	Short: "Show one stored transcript",
	Long:  `Display the turns of a stored transcript. Use 'assistant-chat list' to see available ids.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		transcriptID := args[0]

		_, store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		content, err := store.Read(context.Background(), transcriptID)
		if err != nil {
			return fmt.Errorf("failed to read transcript %s: %w", transcriptID, err)
		}

		doc, err := internal.ParseTranscript(content)
		if err != nil {
			return fmt.Errorf("failed to parse transcript %s: %w", transcriptID, err)
		}

		fmt.Println(transcriptHeaderStyle.Render("Transcript " + doc.Header.TranscriptID))
		meta := fmt.Sprintf("%d turns", len(doc.Entries))
		if doc.Header.ParticipantID != "" {
			meta += " • participant " + doc.Header.ParticipantID
		}
		if !doc.Header.StartedAt.IsZero() {
			meta += " • started " + doc.Header.StartedAt.Format("2006-01-02 15:04:05")
		}
		fmt.Println(transcriptMetaStyle.Render(meta))

		entries := doc.Entries
		if showLimit > 0 && len(entries) > showLimit {
			entries = entries[len(entries)-showLimit:]
		}

		for _, entry := range entries {
			label := userTurnStyle.Render(entry.Role)
			if entry.Role == string(internal.RoleAssistant) {
				label = assistantTurnStyle.Render(entry.Role)
			}
			if entry.Timestamp != "" {
				label += " " + timestampStyle.Render(entry.Timestamp)
			}
			fmt.Println(label)
			fmt.Println(turnContentStyle.Render(entry.Text))
		}
		return nil
	},
}

func init() {
	showCmd.Flags().IntVar(&showLimit, "limit", 0, "Show only the last N turns")
	rootCmd.AddCommand(showCmd)
}
