package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/MCahalane/vercel-assistant-chat/internal"
	"github.com/MCahalane/vercel-assistant-chat/internal/export"
	"github.com/spf13/cobra"
)

var (
	format       string
	outputDir    string
	transcriptID string
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export transcripts to file",
	Long: `Export stored transcripts to various formats (text, md, yaml, json).

You can export all transcripts or a specific one by id.
Use 'assistant-chat list' to see available transcript ids.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		exporter, err := export.NewExporter(format)
		if err != nil {
			return err
		}

		_, store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := os.MkdirAll(outputDir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}

		ctx := context.Background()
		var keys []string
		if transcriptID != "" {
			keys = []string{transcriptID}
		} else {
			infos, err := store.List(ctx)
			if err != nil {
				return fmt.Errorf("failed to list transcripts: %w", err)
			}
			for _, info := range infos {
				keys = append(keys, info.Key)
			}
		}

		exported := 0
		for _, key := range keys {
			content, err := store.Read(ctx, key)
			if err != nil {
				internal.LogWarn("skipping %s: %v", key, err)
				continue
			}
			doc, err := internal.ParseTranscript(content)
			if err != nil {
				internal.LogWarn("skipping %s: %v", key, err)
				continue
			}

			path := filepath.Join(outputDir, key+"."+exporter.Extension())
			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", path, err)
			}
			if err := exporter.Export(doc, f); err != nil {
				f.Close()
				return fmt.Errorf("failed to export %s: %w", key, err)
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("failed to write %s: %w", path, err)
			}
			exported++
		}

		fmt.Printf("Exported %d transcript(s) to %s\n", exported, outputDir)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&format, "format", "f", "text", "Export format (text, md, yaml, json)")
	exportCmd.Flags().StringVarP(&outputDir, "output", "o", "exports", "Output directory")
	exportCmd.Flags().StringVar(&transcriptID, "id", "", "Export a single transcript by id")
	rootCmd.AddCommand(exportCmd)
}
