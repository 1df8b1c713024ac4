package internal

import (
	"testing"
	"time"
)

func TestDetectorMatches(t *testing.T) {
	detector := NewDetector("END_OF_INTERVIEW")

	tests := []struct {
		reply string
		want  bool
	}{
		{"Thanks for your time. END_OF_INTERVIEW", true},
		{"END_OF_INTERVIEW", true},
		{"Still going", false},
		{"end_of_interview lowercase does not count", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := detector.Matches(tt.reply); got != tt.want {
			t.Errorf("Matches(%q) = %v, want %v", tt.reply, got, tt.want)
		}
	}
}

func TestStripSentinel(t *testing.T) {
	detector := NewDetector("END_OF_INTERVIEW")

	got := detector.StripSentinel("Thanks for talking with me. END_OF_INTERVIEW")
	if got != "Thanks for talking with me." {
		t.Errorf("StripSentinel() = %q", got)
	}
}

func TestObserveFiresExactlyOnce(t *testing.T) {
	detector := NewDetector("END_OF_INTERVIEW")
	sess := &Session{ID: "s1", ThreadID: "thread_1"}
	now := time.Date(2026, 3, 1, 10, 5, 0, 0, time.UTC)

	sess.RecordTurn(Turn{Role: RoleUser, Text: "hi", Timestamp: now.Add(-90 * time.Second)})
	sess.RecordTurn(Turn{Role: RoleAssistant, Text: "bye", Timestamp: now})

	summary, fired := detector.Observe(sess, "Goodbye! END_OF_INTERVIEW", now)
	if !fired {
		t.Fatal("first sentinel reply should fire the transition")
	}
	if summary == nil {
		t.Fatal("fired transition should produce a summary")
	}

	// A late duplicate reply carrying the sentinel must not double-report.
	if _, fired := detector.Observe(sess, "Really, goodbye. END_OF_INTERVIEW", now.Add(time.Second)); fired {
		t.Error("second sentinel reply should not fire again")
	}
}

func TestObserveSummaryFields(t *testing.T) {
	detector := NewDetector("DONE")
	sess := &Session{ID: "s1", ThreadID: "thread_9"}
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	now := start.Add(125*time.Second + 400*time.Millisecond)

	sess.RecordTurn(Turn{Role: RoleUser, Text: "one", Timestamp: start})
	sess.RecordTurn(Turn{Role: RoleAssistant, Text: "two", Timestamp: start.Add(time.Second)})
	sess.RecordTurn(Turn{Role: RoleUser, Text: "three", Timestamp: start.Add(2 * time.Second)})

	summary, fired := detector.Observe(sess, "DONE", now)
	if !fired {
		t.Fatal("expected transition")
	}

	if summary.Type != "chat_complete" {
		t.Errorf("Type = %q", summary.Type)
	}
	if summary.ThreadID != "thread_9" {
		t.Errorf("ThreadID = %q", summary.ThreadID)
	}
	if summary.MessageCount != 3 {
		t.Errorf("MessageCount = %d, want 3", summary.MessageCount)
	}
	if summary.UserMessageCount != 2 {
		t.Errorf("UserMessageCount = %d, want 2", summary.UserMessageCount)
	}
	if summary.DurationSeconds == nil || *summary.DurationSeconds != 125 {
		t.Errorf("DurationSeconds = %v, want 125", summary.DurationSeconds)
	}
	if summary.FinishedReason != "sentinel" {
		t.Errorf("FinishedReason = %q", summary.FinishedReason)
	}
}

func TestObserveNullDurationWithoutFirstTurn(t *testing.T) {
	detector := NewDetector("DONE")
	sess := &Session{ID: "s1", ThreadID: "thread_1"}
	sess.RecordTurn(Turn{Role: RoleAssistant, Text: "hello"})

	summary, fired := detector.Observe(sess, "DONE", time.Now())
	if !fired {
		t.Fatal("expected transition")
	}
	if summary.DurationSeconds != nil {
		t.Errorf("DurationSeconds = %v, want nil when no first-turn timestamp was recorded", summary.DurationSeconds)
	}
}

func TestNewDetectorDefaultSentinel(t *testing.T) {
	detector := NewDetector("")
	if detector.Sentinel != DefaultSentinel {
		t.Errorf("Sentinel = %q, want %q", detector.Sentinel, DefaultSentinel)
	}
}
