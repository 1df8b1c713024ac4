package internal

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Role identifies the author of a turn
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// InputMode records how the participant produced a turn
type InputMode string

const (
	InputModeText  InputMode = "text"
	InputModeAudio InputMode = "audio"
)

// ThreadIDPrefix is the recognizable prefix of assistant-service thread ids.
// Request thread ids that do not match are ignored and a new thread is used.
const ThreadIDPrefix = "thread_"

// Turn is one side of a conversation exchange. Turns are append-only and
// never mutated after creation.
type Turn struct {
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	InputMode InputMode `json:"inputMode,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatRequest is the canonical, normalized form of a chat turn submission
type ChatRequest struct {
	Message       string
	ThreadID      string
	InputMode     InputMode
	TranscriptID  string
	ParticipantID string
	TopBenefit    string
	TopRisk       string
}

// ChatResponse is returned for a successful chat turn
type ChatResponse struct {
	Reply         string             `json:"reply"`
	ThreadID      string             `json:"threadId"`
	TranscriptID  *string            `json:"transcriptId"`
	ParticipantID *string            `json:"participantId"`
	Summary       *CompletionSummary `json:"summary,omitempty"`
}

// CompletionSummary is the one-shot session completion report
type CompletionSummary struct {
	Type                string `json:"type"` // always "chat_complete"
	ThreadID            string `json:"threadId"`
	MessageCount        int    `json:"messageCount"`
	UserMessageCount    int    `json:"userMessageCount"`
	DurationSeconds     *int   `json:"durationSeconds"`
	FinishedReason      string `json:"finishedReason"`
	CompletionTimestamp string `json:"completionTimestamp"`
}

// NewID returns a fresh opaque identifier
func NewID() string {
	return uuid.NewString()
}

// ValidThreadID reports whether id looks like an assistant-service thread id
func ValidThreadID(id string) bool {
	return strings.HasPrefix(id, ThreadIDPrefix) && len(id) > len(ThreadIDPrefix)
}

// DecodeChatRequest reads a JSON body and maps all recognized field aliases
// onto the canonical ChatRequest. Historic clients sent several casings for
// the same field; normalization happens here, before any core logic runs.
func DecodeChatRequest(r io.Reader) (ChatRequest, error) {
	var raw map[string]json.RawMessage
	dec := json.NewDecoder(r)
	if err := dec.Decode(&raw); err != nil {
		return ChatRequest{}, &ValidationError{Msg: fmt.Sprintf("invalid JSON body: %v", err)}
	}

	req := ChatRequest{
		Message:       pickString(raw, "message", "Message", "msg", "text"),
		ThreadID:      pickString(raw, "threadId", "thread_id", "threadID"),
		TranscriptID:  pickString(raw, "transcriptId", "transcript_id", "transcriptID"),
		ParticipantID: pickString(raw, "participantId", "participant_id", "pid"),
		TopBenefit:    pickString(raw, "topBenefit", "top_benefit"),
		TopRisk:       pickString(raw, "topRisk", "top_risk"),
	}

	switch strings.ToLower(pickString(raw, "inputMode", "input_mode", "mode")) {
	case "audio", "voice":
		req.InputMode = InputModeAudio
	default:
		req.InputMode = InputModeText
	}

	if !ValidThreadID(req.ThreadID) {
		req.ThreadID = ""
	}

	return req, nil
}

// pickString returns the first alias present in raw that decodes to a string
func pickString(raw map[string]json.RawMessage, aliases ...string) string {
	for _, key := range aliases {
		v, ok := raw[key]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			return s
		}
	}
	return ""
}
