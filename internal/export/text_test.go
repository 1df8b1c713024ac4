package export

import (
	"bytes"
	"strings"
	"testing"
)

func TestTextExport(t *testing.T) {
	var buf bytes.Buffer
	if err := (&TextExporter{}).Export(sampleDoc(), &buf); err != nil {
		t.Fatalf("Export() error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"TranscriptId: t1",
		"ParticipantID: p42",
		"ThreadID: thread_1",
		"[2026-03-01T10:00:05Z] user: Hello",
		"[2026-03-01T10:00:09Z] assistant: Hi there",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}
}

func TestTextExportFinalizedBlocks(t *testing.T) {
	doc := sampleDoc()
	for i := range doc.Entries {
		doc.Entries[i].Timestamp = ""
	}
	doc.Entries[0].Role = "User"
	doc.Entries[1].Role = "Assistant"

	var buf bytes.Buffer
	if err := (&TextExporter{}).Export(doc, &buf); err != nil {
		t.Fatalf("Export() error: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "User: Hello\n\n") {
		t.Errorf("missing finalized user block:\n%s", out)
	}
	if !strings.Contains(out, "Assistant: Hi there\n\n") {
		t.Errorf("missing finalized assistant block:\n%s", out)
	}
}
