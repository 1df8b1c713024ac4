package internal

import (
	"strings"
	"time"
)

// DefaultSentinel is the marker the assistant is prompted to emit when the
// interview has reached its natural end.
const DefaultSentinel = "END_OF_INTERVIEW"

// Detector watches assistant replies for the end-of-session sentinel and
// drives the one-way active→completed transition.
type Detector struct {
	Sentinel string
}

// NewDetector creates a Detector for the given sentinel phrase
func NewDetector(sentinel string) *Detector {
	if sentinel == "" {
		sentinel = DefaultSentinel
	}
	return &Detector{Sentinel: sentinel}
}

// Matches reports whether reply contains the sentinel
func (d *Detector) Matches(reply string) bool {
	return strings.Contains(reply, d.Sentinel)
}

// StripSentinel removes the sentinel from a reply shown to the participant
func (d *Detector) StripSentinel(reply string) string {
	return strings.TrimSpace(strings.ReplaceAll(reply, d.Sentinel, ""))
}

// Observe inspects an assistant reply. If it carries the sentinel and the
// session has not completed yet, Observe performs the transition and returns
// the completion summary. The session latch guarantees the summary is built
// at most once even if a late duplicate reply also carries the sentinel.
func (d *Detector) Observe(sess *Session, reply string, now time.Time) (*CompletionSummary, bool) {
	if !d.Matches(reply) {
		return nil, false
	}
	if !sess.Complete() {
		return nil, false
	}
	return d.buildSummary(sess, "sentinel", now), true
}

func (d *Detector) buildSummary(sess *Session, reason string, now time.Time) *CompletionSummary {
	turns := sess.Turns()
	userCount := 0
	for _, t := range turns {
		if t.Role == RoleUser {
			userCount++
		}
	}

	var duration *int
	if started := sess.StartedAt(); !started.IsZero() {
		secs := int(now.Sub(started).Round(time.Second) / time.Second)
		duration = &secs
	}

	return &CompletionSummary{
		Type:                "chat_complete",
		ThreadID:            sess.ThreadID,
		MessageCount:        len(turns),
		UserMessageCount:    userCount,
		DurationSeconds:     duration,
		FinishedReason:      reason,
		CompletionTimestamp: now.UTC().Format(time.RFC3339),
	}
}
