package export

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/MCahalane/vercel-assistant-chat/internal"
)

func TestJSONExport(t *testing.T) {
	var buf bytes.Buffer
	if err := (&JSONExporter{}).Export(sampleDoc(), &buf); err != nil {
		t.Fatalf("Export() error: %v", err)
	}

	var decoded internal.TranscriptDoc
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.Header.TranscriptID != "t1" {
		t.Errorf("TranscriptID = %q", decoded.Header.TranscriptID)
	}
	if len(decoded.Entries) != 2 {
		t.Errorf("entries = %d, want 2", len(decoded.Entries))
	}
	if decoded.Entries[0].Role != "user" || decoded.Entries[0].Text != "Hello" {
		t.Errorf("first entry = %+v", decoded.Entries[0])
	}
}
