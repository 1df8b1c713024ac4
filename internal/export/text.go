package export

import (
	"fmt"
	"io"

	"github.com/MCahalane/vercel-assistant-chat/internal"
)

// TextExporter exports transcripts in the canonical line-oriented text form
type TextExporter struct{}

// Export exports a transcript as plain text
func (e *TextExporter) Export(doc *internal.TranscriptDoc, w io.Writer) error {
	if _, err := io.WriteString(w, doc.Header.Render()); err != nil {
		return err
	}

	for _, entry := range doc.Entries {
		var line string
		if entry.Timestamp != "" {
			line = fmt.Sprintf("[%s] %s: %s\n", entry.Timestamp, entry.Role, entry.Text)
		} else {
			line = fmt.Sprintf("%s: %s\n\n", entry.Role, entry.Text)
		}
		if _, err := io.WriteString(w, line); err != nil {
			return err
		}
	}
	return nil
}

// Extension returns the file extension for this format
func (e *TextExporter) Extension() string {
	return "txt"
}
