package export

import (
	"fmt"
	"io"

	"github.com/MCahalane/vercel-assistant-chat/internal"
)

// Exporter defines the interface for all transcript export formats
type Exporter interface {
	Export(doc *internal.TranscriptDoc, w io.Writer) error
	Extension() string
}

// NewExporter creates a new exporter based on format
func NewExporter(format string) (Exporter, error) {
	switch format {
	case "text", "txt":
		return &TextExporter{}, nil
	case "md", "markdown":
		return &MarkdownExporter{}, nil
	case "yaml":
		return &YAMLExporter{}, nil
	case "json":
		return &JSONExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: text, md, yaml, json)", format)
	}
}
