package export

import (
	"fmt"
	"io"

	"github.com/MCahalane/vercel-assistant-chat/internal"
)

// MarkdownExporter exports transcripts in Markdown format
type MarkdownExporter struct{}

// Export exports a transcript to Markdown format
func (e *MarkdownExporter) Export(doc *internal.TranscriptDoc, w io.Writer) error {
	_, _ = fmt.Fprintf(w, "# Transcript %s\n\n", doc.Header.TranscriptID)

	if !doc.Header.StartedAt.IsZero() {
		_, _ = fmt.Fprintf(w, "**Started:** %s  \n", doc.Header.StartedAt.Format("2006-01-02 15:04:05 MST"))
	}
	if doc.Header.ParticipantID != "" {
		_, _ = fmt.Fprintf(w, "**Participant:** %s  \n", doc.Header.ParticipantID)
	}
	if doc.Header.ThreadID != "" {
		_, _ = fmt.Fprintf(w, "**Thread:** %s  \n", doc.Header.ThreadID)
	}
	_, _ = fmt.Fprintf(w, "**Turns:** %d\n\n", len(doc.Entries))

	_, _ = fmt.Fprintf(w, "---\n\n")

	for i, entry := range doc.Entries {
		timestamp := ""
		if entry.Timestamp != "" {
			timestamp = fmt.Sprintf(" (%s)", entry.Timestamp)
		}

		_, _ = fmt.Fprintf(w, "**%s:**%s\n\n%s\n\n", entry.Role, timestamp, entry.Text)

		if i < len(doc.Entries)-1 {
			_, _ = fmt.Fprintf(w, "---\n\n")
		}
	}

	return nil
}

// Extension returns the file extension for this format
func (e *MarkdownExporter) Extension() string {
	return "md"
}
