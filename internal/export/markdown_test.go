package export

import (
	"bytes"
	"strings"
	"testing"
)

func TestMarkdownExport(t *testing.T) {
	var buf bytes.Buffer
	exporter := &MarkdownExporter{}

	if err := exporter.Export(sampleDoc(), &buf); err != nil {
		t.Fatalf("Export() error: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"# Transcript t1",
		"**Participant:** p42",
		"**Thread:** thread_1",
		"**Turns:** 2",
		"**user:** (2026-03-01T10:00:05Z)",
		"Hello",
		"**assistant:** (2026-03-01T10:00:09Z)",
		"Hi there",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestMarkdownExportEmptyEntries(t *testing.T) {
	doc := sampleDoc()
	doc.Entries = nil

	var buf bytes.Buffer
	if err := (&MarkdownExporter{}).Export(doc, &buf); err != nil {
		t.Fatalf("Export() error: %v", err)
	}
	if !strings.Contains(buf.String(), "**Turns:** 0") {
		t.Errorf("output = %s", buf.String())
	}
}
