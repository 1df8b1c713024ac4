package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"
)

// headerFieldMaxLen caps each scalar header field. Header fields are also
// stripped of embedded newlines and tabs so the one-line-per-field format
// survives arbitrary input.
const headerFieldMaxLen = 200

// CleanText normalizes line endings to LF, strips trailing whitespace from
// each line, and trims the result.
func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// SanitizeHeaderField flattens a header value to a single line and caps its length
func SanitizeHeaderField(s string) string {
	replacer := strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ", "\t", " ")
	s = strings.TrimSpace(replacer.Replace(s))
	if len(s) > headerFieldMaxLen {
		s = s[:headerFieldMaxLen]
	}
	return s
}

// singleLine collapses a turn's text onto one line for append-mode entries
func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// TranscriptHeader carries the identifying fields written at the top of a
// stored transcript object.
type TranscriptHeader struct {
	TranscriptID  string            `json:"transcriptId" yaml:"transcript_id"`
	StartedAt     time.Time         `json:"startedAt" yaml:"started_at"`
	ParticipantID string            `json:"participantId,omitempty" yaml:"participant_id,omitempty"`
	ThreadID      string            `json:"threadId,omitempty" yaml:"thread_id,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Render produces the line-oriented header block, one field per line
func (h TranscriptHeader) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "TranscriptId: %s\n", SanitizeHeaderField(h.TranscriptID))
	fmt.Fprintf(&b, "StartedAt: %s\n", h.StartedAt.UTC().Format(time.RFC3339))
	if h.ParticipantID != "" {
		fmt.Fprintf(&b, "ParticipantID: %s\n", SanitizeHeaderField(h.ParticipantID))
	}
	if h.ThreadID != "" {
		fmt.Fprintf(&b, "ThreadID: %s\n", SanitizeHeaderField(h.ThreadID))
	}
	if len(h.Metadata) > 0 {
		meta := make(map[string]string, len(h.Metadata))
		for k, v := range h.Metadata {
			meta[SanitizeHeaderField(k)] = SanitizeHeaderField(v)
		}
		if raw, err := json.Marshal(meta); err == nil {
			fmt.Fprintf(&b, "Metadata: %s\n", raw)
		}
	}
	b.WriteString("\n")
	return b.String()
}

// FormatEntry renders one append-mode transcript line
func FormatEntry(ts time.Time, role Role, text string) string {
	return fmt.Sprintf("[%s] %s: %s\n", ts.UTC().Format(time.RFC3339), role, singleLine(CleanText(text)))
}

// TranscriptService owns transcript persistence. Appends are best-effort
// read-modify-write; finalization overwrites the whole object and is latched
// so it happens at most once per transcript id. The latch is local: the
// store itself permits overwrite, and the single-writer-per-session rule is
// what keeps appends from interleaving.
type TranscriptService struct {
	Store BlobStore

	mu        sync.Mutex
	finalized map[string]bool
}

// NewTranscriptService creates a TranscriptService over store
func NewTranscriptService(store BlobStore) *TranscriptService {
	return &TranscriptService{Store: store, finalized: make(map[string]bool)}
}

// Start creates a new transcript object containing only the header and
// returns its id and start timestamp.
func (t *TranscriptService) Start(ctx context.Context, participantID, threadID string) (string, time.Time, error) {
	id := NewID()
	startedAt := time.Now().UTC()

	header := TranscriptHeader{
		TranscriptID:  id,
		StartedAt:     startedAt,
		ParticipantID: participantID,
		ThreadID:      threadID,
	}
	if err := t.Store.Write(ctx, id, header.Render()); err != nil {
		return "", time.Time{}, err
	}
	return id, startedAt, nil
}

// Append adds one turn line to the stored transcript. Empty-after-cleaning
// text is skipped. The read-modify-write is not atomic; concurrent appends
// to the same id can lose a line. Each session has exactly one writer, so
// this stays a documented race, not an observed one.
func (t *TranscriptService) Append(ctx context.Context, id string, role Role, ts time.Time, text string) error {
	if id == "" {
		return &ValidationError{Field: "transcriptId", Msg: "transcript id is required"}
	}
	if CleanText(text) == "" {
		return nil
	}

	existing, err := t.Store.Read(ctx, id)
	if err != nil {
		return err
	}
	if existing != "" && !strings.HasSuffix(existing, "\n") {
		existing += "\n"
	}
	return t.Store.Write(ctx, id, existing+FormatEntry(ts, role, text))
}

// Finalize overwrites the stored object with the complete rebuilt transcript
// text. The first call per id wins; later calls are no-ops and report
// skipped. An empty-after-cleaning fullText is treated as "nothing new to
// persist" and reported as a skip, not a fault.
func (t *TranscriptService) Finalize(ctx context.Context, id, fullText string) (skipped bool, err error) {
	if id == "" {
		return false, &ValidationError{Field: "transcriptId", Msg: "transcript id is required"}
	}

	t.mu.Lock()
	if t.finalized[id] {
		t.mu.Unlock()
		LogDebug("transcript %s already finalized, skipping", id)
		return true, nil
	}
	t.finalized[id] = true
	t.mu.Unlock()

	cleaned := CleanText(fullText)
	if cleaned == "" {
		LogDebug("transcript %s finalize skipped: empty text", id)
		return true, nil
	}

	if err := t.Store.Write(ctx, id, cleaned+"\n"); err != nil {
		// Release the latch so a retry can still persist the transcript.
		t.mu.Lock()
		delete(t.finalized, id)
		t.mu.Unlock()
		return false, err
	}
	return false, nil
}

// BuildFinal rebuilds the canonical finalized transcript text from the
// header and the session's full turn list, one Role: text block per turn.
func BuildFinal(header TranscriptHeader, turns []Turn) string {
	var b strings.Builder
	b.WriteString(header.Render())
	for _, turn := range turns {
		b.WriteString(roleLabel(turn.Role))
		b.WriteString(": ")
		b.WriteString(CleanText(turn.Text))
		b.WriteString("\n\n")
	}
	return b.String()
}

func roleLabel(role Role) string {
	switch role {
	case RoleUser:
		return "User"
	case RoleAssistant:
		return "Assistant"
	}
	return string(role)
}

// TranscriptDoc is a stored transcript parsed back into structured form,
// used by the list/show/export tooling.
type TranscriptDoc struct {
	Header  TranscriptHeader  `json:"header" yaml:"header"`
	Entries []TranscriptEntry `json:"entries" yaml:"entries"`
}

// TranscriptEntry is one parsed turn line or block
type TranscriptEntry struct {
	Timestamp string `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
	Role      string `json:"role" yaml:"role"`
	Text      string `json:"text" yaml:"text"`
}

// ParseTranscript parses a stored transcript object. It understands both
// append-mode lines ("[ts] role: text") and finalized blocks ("Role: text").
func ParseTranscript(content string) (*TranscriptDoc, error) {
	doc := &TranscriptDoc{}
	lines := strings.Split(CleanText(content), "\n")

	i := 0
	for ; i < len(lines); i++ {
		line := lines[i]
		if line == "" {
			i++
			break
		}
		key, value, ok := strings.Cut(line, ": ")
		if !ok {
			break
		}
		switch key {
		case "TranscriptId":
			doc.Header.TranscriptID = value
		case "StartedAt":
			if ts, err := time.Parse(time.RFC3339, value); err == nil {
				doc.Header.StartedAt = ts
			}
		case "ParticipantID":
			doc.Header.ParticipantID = value
		case "ThreadID":
			doc.Header.ThreadID = value
		case "Metadata":
			_ = json.Unmarshal([]byte(value), &doc.Header.Metadata)
		default:
			// not a header field after all, treat as body
			goto body
		}
	}

body:
	for ; i < len(lines); i++ {
		line := lines[i]
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "[") {
			if entry, ok := parseTimestampedLine(line); ok {
				doc.Entries = append(doc.Entries, entry)
				continue
			}
		}

		role, text, ok := strings.Cut(line, ": ")
		if ok && isRoleLabel(role) {
			doc.Entries = append(doc.Entries, TranscriptEntry{Role: strings.ToLower(role), Text: text})
			continue
		}

		// continuation of the previous block
		if n := len(doc.Entries); n > 0 {
			doc.Entries[n-1].Text += "\n" + line
		}
	}

	if doc.Header.TranscriptID == "" {
		return nil, fmt.Errorf("content has no transcript header")
	}
	return doc, nil
}

func parseTimestampedLine(line string) (TranscriptEntry, bool) {
	end := strings.Index(line, "] ")
	if end < 0 {
		return TranscriptEntry{}, false
	}
	ts := line[1:end]
	role, text, ok := strings.Cut(line[end+2:], ": ")
	if !ok || !isRoleLabel(role) {
		return TranscriptEntry{}, false
	}
	return TranscriptEntry{Timestamp: ts, Role: strings.ToLower(role), Text: text}, true
}

func isRoleLabel(s string) bool {
	switch strings.ToLower(s) {
	case "user", "assistant", "system":
		return true
	}
	return false
}
