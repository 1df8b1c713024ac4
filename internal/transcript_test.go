package internal

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"whitespace only", "   \r\n \t ", ""},
		{"crlf normalized", "  Hello \r\n\r\nWorld  ", "Hello\n\nWorld"},
		{"lone cr normalized", "a\rb", "a\nb"},
		{"trailing line whitespace", "line one  \nline two\t", "line one\nline two"},
		{"already clean", "Hello\n\nWorld", "Hello\n\nWorld"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CleanText(tt.input)
			if got != tt.want {
				t.Errorf("CleanText(%q) = %q, want %q", tt.input, got, tt.want)
			}
			if strings.Contains(got, "\r") {
				t.Errorf("CleanText(%q) still contains carriage returns", tt.input)
			}
		})
	}
}

func TestSanitizeHeaderField(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "participant-42", "participant-42"},
		{"embedded newlines", "line1\nline2\r\nline3", "line1 line2 line3"},
		{"tabs", "a\tb", "a b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeHeaderField(tt.input)
			if got != tt.want {
				t.Errorf("SanitizeHeaderField(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSanitizeHeaderFieldCapsLength(t *testing.T) {
	long := strings.Repeat("x", headerFieldMaxLen+50) + "\nmore"
	got := SanitizeHeaderField(long)

	if len(got) != headerFieldMaxLen {
		t.Errorf("sanitized length = %d, want %d", len(got), headerFieldMaxLen)
	}
	if strings.ContainsAny(got, "\n\r\t") {
		t.Error("sanitized field should be single-line")
	}
}

func TestHeaderRender(t *testing.T) {
	header := TranscriptHeader{
		TranscriptID:  "abc-123",
		StartedAt:     time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
		ParticipantID: "p\n42",
		ThreadID:      "thread_1",
		Metadata:      map[string]string{"condition": "voice"},
	}

	out := header.Render()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")

	wantPrefixes := []string{
		"TranscriptId: abc-123",
		"StartedAt: 2026-03-01T10:00:00Z",
		"ParticipantID: p 42",
		"ThreadID: thread_1",
		"Metadata: {",
	}
	for i, want := range wantPrefixes {
		if i >= len(lines) || !strings.HasPrefix(lines[i], want) {
			t.Errorf("header line %d = %q, want prefix %q", i, lines[i], want)
		}
	}
	if !strings.HasSuffix(out, "\n\n") {
		t.Error("header should end with a blank line")
	}
}

func TestAppend(t *testing.T) {
	store, _ := NewFileStore(t.TempDir())
	svc := NewTranscriptService(store)
	ctx := context.Background()

	id, _, err := svc.Start(ctx, "p42", "thread_1")
	if err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	ts := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	if err := svc.Append(ctx, id, RoleUser, ts, "Hello\r\nthere"); err != nil {
		t.Fatalf("Append() error: %v", err)
	}

	content, err := store.Read(ctx, id)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if !strings.Contains(content, "[2026-03-01T10:00:00Z] user: Hello there") {
		t.Errorf("stored content missing entry line:\n%s", content)
	}
}

func TestAppendSkipsEmptyText(t *testing.T) {
	store, _ := NewFileStore(t.TempDir())
	svc := NewTranscriptService(store)
	ctx := context.Background()

	id, _, err := svc.Start(ctx, "", "")
	if err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	before, _ := store.Read(ctx, id)

	if err := svc.Append(ctx, id, RoleUser, time.Now(), "  \r\n  "); err != nil {
		t.Fatalf("Append() of empty text should not error, got %v", err)
	}

	after, _ := store.Read(ctx, id)
	if before != after {
		t.Error("empty append should not modify the stored object")
	}
}

func TestAppendRequiresTranscriptID(t *testing.T) {
	svc := NewTranscriptService(mustFileStore(t))

	err := svc.Append(context.Background(), "", RoleUser, time.Now(), "hi")
	if err == nil {
		t.Fatal("Append() with empty id should error")
	}
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Errorf("Append() error = %T, want *ValidationError", err)
	}
}

func TestFinalizeCleansBody(t *testing.T) {
	store, _ := NewFileStore(t.TempDir())
	svc := NewTranscriptService(store)
	ctx := context.Background()

	skipped, err := svc.Finalize(ctx, "t1", "  Hello \r\n\r\nWorld  ")
	if err != nil {
		t.Fatalf("Finalize() error: %v", err)
	}
	if skipped {
		t.Fatal("first Finalize() should not be skipped")
	}

	content, err := store.Read(ctx, "t1")
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if got := strings.TrimRight(content, "\n"); got != "Hello\n\nWorld" {
		t.Errorf("stored body = %q, want %q", got, "Hello\n\nWorld")
	}
	if strings.Contains(content, "\r") {
		t.Error("stored content contains carriage returns")
	}
}

func TestFinalizeLatchedPerTranscript(t *testing.T) {
	store, _ := NewFileStore(t.TempDir())
	svc := NewTranscriptService(store)
	ctx := context.Background()

	if skipped, err := svc.Finalize(ctx, "t1", "first version"); err != nil || skipped {
		t.Fatalf("first Finalize() = (skipped=%v, err=%v)", skipped, err)
	}

	// Second call simulates a racing duplicate. The caller-side latch makes
	// it a no-op even though the store itself would accept the overwrite.
	skipped, err := svc.Finalize(ctx, "t1", "second version")
	if err != nil {
		t.Fatalf("second Finalize() error: %v", err)
	}
	if !skipped {
		t.Error("second Finalize() should report skipped")
	}

	content, _ := store.Read(ctx, "t1")
	if !strings.Contains(content, "first version") {
		t.Errorf("stored content = %q, want the first write preserved", content)
	}

	// The storage layer itself still permits overwrite.
	if err := store.Write(ctx, "t1", "raw overwrite"); err != nil {
		t.Errorf("store-level overwrite should succeed: %v", err)
	}
}

func TestFinalizeEmptyTextSkips(t *testing.T) {
	store, _ := NewFileStore(t.TempDir())
	svc := NewTranscriptService(store)

	skipped, err := svc.Finalize(context.Background(), "t1", "  \r\n  ")
	if err != nil {
		t.Fatalf("Finalize() of empty text should report success-with-skip, got error: %v", err)
	}
	if !skipped {
		t.Error("Finalize() of empty text should report skipped")
	}

	if _, err := store.Read(context.Background(), "t1"); err == nil {
		t.Error("empty finalize should not create a stored object")
	}
}

func TestBuildFinal(t *testing.T) {
	header := TranscriptHeader{
		TranscriptID: "t1",
		StartedAt:    time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	turns := []Turn{
		{Role: RoleUser, Text: "Hi\r\nthere"},
		{Role: RoleAssistant, Text: "Hello!"},
	}

	out := BuildFinal(header, turns)

	if !strings.Contains(out, "TranscriptId: t1") {
		t.Error("missing header")
	}
	if !strings.Contains(out, "User: Hi\nthere") {
		t.Errorf("missing cleaned user block:\n%s", out)
	}
	if !strings.Contains(out, "Assistant: Hello!") {
		t.Errorf("missing assistant block:\n%s", out)
	}
}

func TestParseTranscript(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		wantEntries int
		wantErr     bool
	}{
		{
			name: "append mode lines",
			content: "TranscriptId: t1\nStartedAt: 2026-03-01T10:00:00Z\nParticipantID: p42\n\n" +
				"[2026-03-01T10:00:05Z] user: Hello\n" +
				"[2026-03-01T10:00:09Z] assistant: Hi there\n",
			wantEntries: 2,
		},
		{
			name: "finalized blocks",
			content: "TranscriptId: t2\nStartedAt: 2026-03-01T10:00:00Z\n\n" +
				"User: Hello\n\nAssistant: Hi\nwith a second line\n",
			wantEntries: 2,
		},
		{
			name:    "no header",
			content: "just some text\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := ParseTranscript(tt.content)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseTranscript() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if len(doc.Entries) != tt.wantEntries {
				t.Errorf("entries = %d, want %d", len(doc.Entries), tt.wantEntries)
			}
		})
	}
}

func TestParseTranscriptMultilineBlock(t *testing.T) {
	content := "TranscriptId: t2\nStartedAt: 2026-03-01T10:00:00Z\n\n" +
		"Assistant: first line\nsecond line\n"

	doc, err := ParseTranscript(content)
	if err != nil {
		t.Fatalf("ParseTranscript() error: %v", err)
	}
	if len(doc.Entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(doc.Entries))
	}
	if doc.Entries[0].Text != "first line\nsecond line" {
		t.Errorf("entry text = %q", doc.Entries[0].Text)
	}
}

func mustFileStore(t *testing.T) *FileStore {
	t.Helper()
	store, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() error: %v", err)
	}
	return store
}
