package internal

import (
	"context"
	"time"
)

// Run completion polling: runs usually finish within a few seconds, but
// tool-using assistants can take much longer.
const (
	runPollInterval = 500 * time.Millisecond
	runPollBudget   = 90 * time.Second
)

// Orchestrator drives one chat turn end to end: admission, thread
// resolution, run serialization, context injection, the assistant exchange,
// transcript accumulation, and end-of-session detection.
type Orchestrator struct {
	Assistant   AssistantClient
	Gate        *RunGate
	Injector    *ContextInjector
	Transcripts *TranscriptService
	Sessions    *SessionStore
	Detector    *Detector
	Notifier    SummaryNotifier

	// Now is the clock, overridable in tests
	Now func() time.Time
}

// NewOrchestrator wires an Orchestrator from its collaborators
func NewOrchestrator(assistant AssistantClient, transcripts *TranscriptService, detector *Detector, notifier SummaryNotifier) *Orchestrator {
	return &Orchestrator{
		Assistant:   assistant,
		Gate:        NewRunGate(assistant),
		Injector:    &ContextInjector{Client: assistant},
		Transcripts: transcripts,
		Sessions:    NewSessionStore(),
		Detector:    detector,
		Notifier:    notifier,
	}
}

func (o *Orchestrator) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// HandleTurn processes one submitted chat turn and returns the assistant's
// reply. Exactly one outbound run is created per accepted submission.
func (o *Orchestrator) HandleTurn(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	message := CleanText(req.Message)
	if message == "" {
		return nil, &ValidationError{Field: "message", Msg: "message is required"}
	}

	sess, err := o.resolveSession(ctx, req.ThreadID)
	if err != nil {
		return nil, err
	}

	if !sess.BeginTurn() {
		return nil, &ThreadBusyError{ThreadID: sess.ThreadID, Waited: "0s"}
	}
	defer sess.EndTurn()

	if err := o.Gate.WaitClear(ctx, sess.ThreadID); err != nil {
		return nil, err
	}

	// Best-effort: a failed injection never blocks the turn.
	o.Injector.InjectSurveyContext(ctx, sess, req.TopBenefit, req.TopRisk)

	userTurn := Turn{Role: RoleUser, Text: message, InputMode: req.InputMode, Timestamp: o.now()}
	if err := o.Assistant.AddMessage(ctx, sess.ThreadID, RoleUser, message, nil); err != nil {
		return nil, err
	}

	run, err := o.Assistant.CreateRun(ctx, sess.ThreadID)
	if err != nil {
		return nil, err
	}
	if _, err := AwaitRun(ctx, o.Assistant, sess.ThreadID, run, runPollInterval, runPollBudget); err != nil {
		return nil, err
	}

	rawReply, err := o.Assistant.LatestAssistantReply(ctx, sess.ThreadID)
	if err != nil {
		return nil, err
	}
	reply := o.Detector.StripSentinel(CleanText(rawReply))
	assistantTurn := Turn{Role: RoleAssistant, Text: reply, Timestamp: o.now()}

	sess.RecordTurn(userTurn)
	sess.RecordTurn(assistantTurn)

	transcriptID := o.recordTranscript(ctx, req, sess, userTurn, assistantTurn)

	resp := &ChatResponse{
		Reply:         reply,
		ThreadID:      sess.ThreadID,
		TranscriptID:  optional(transcriptID),
		ParticipantID: optional(req.ParticipantID),
	}

	if summary, fired := o.Detector.Observe(sess, rawReply, o.now()); fired {
		resp.Summary = summary
		o.completeSession(sess, transcriptID, req.ParticipantID, summary)
	}

	return resp, nil
}

// resolveSession pins the request to a thread. A recognizable thread id is
// verified with the service; if retrieval fails, a fresh thread replaces it
// and the session starts a new generation. No thread id means a new thread.
func (o *Orchestrator) resolveSession(ctx context.Context, threadID string) (*Session, error) {
	if threadID != "" {
		sess := o.Sessions.ForThread(threadID)
		if err := o.Assistant.RetrieveThread(ctx, threadID); err == nil {
			return sess, nil
		}
		LogWarn("thread %s not retrievable, creating a replacement", threadID)

		newID, err := o.Assistant.CreateThread(ctx)
		if err != nil {
			return nil, err
		}
		sess.NewGeneration(newID)
		o.Sessions.Rebind(sess, threadID, newID)
		return sess, nil
	}

	newID, err := o.Assistant.CreateThread(ctx)
	if err != nil {
		return nil, err
	}
	sess := o.Sessions.ForThread(newID)
	sess.NewGeneration(newID)
	return sess, nil
}

// recordTranscript appends both sides of the exchange, creating the
// transcript on first need. Transcript writes are side-channel: failures
// are logged and never fail the turn.
func (o *Orchestrator) recordTranscript(ctx context.Context, req ChatRequest, sess *Session, userTurn, assistantTurn Turn) string {
	transcriptID := req.TranscriptID
	if transcriptID == "" {
		id, _, err := o.Transcripts.Start(ctx, req.ParticipantID, sess.ThreadID)
		if err != nil {
			LogWarn("transcript start failed for thread %s: %v", sess.ThreadID, err)
			return ""
		}
		transcriptID = id
	}

	if err := o.Transcripts.Append(ctx, transcriptID, RoleUser, userTurn.Timestamp, userTurn.Text); err != nil {
		LogWarn("transcript append (user) failed for %s: %v", transcriptID, err)
	}
	if err := o.Transcripts.Append(ctx, transcriptID, RoleAssistant, assistantTurn.Timestamp, assistantTurn.Text); err != nil {
		LogWarn("transcript append (assistant) failed for %s: %v", transcriptID, err)
	}
	return transcriptID
}

// completeSession runs the one-shot completion side effects: summary
// delivery and transcript finalization. Both are best-effort and run off
// the request path.
func (o *Orchestrator) completeSession(sess *Session, transcriptID, participantID string, summary *CompletionSummary) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if o.Notifier != nil {
			if err := o.Notifier.Notify(ctx, *summary); err != nil {
				LogWarn("summary delivery failed for thread %s: %v", sess.ThreadID, err)
			}
		}

		if transcriptID == "" {
			return
		}
		header := TranscriptHeader{
			TranscriptID:  transcriptID,
			StartedAt:     sess.StartedAt(),
			ParticipantID: participantID,
			ThreadID:      sess.ThreadID,
			Metadata: map[string]string{
				"finishedReason": summary.FinishedReason,
				"completedAt":    summary.CompletionTimestamp,
			},
		}
		skipped, err := o.Transcripts.Finalize(ctx, transcriptID, BuildFinal(header, sess.Turns()))
		if err != nil {
			LogWarn("transcript finalize failed for %s: %v", transcriptID, err)
		} else if skipped {
			LogDebug("transcript finalize skipped for %s", transcriptID)
		}
	}()
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
