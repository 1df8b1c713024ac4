package internal

import (
	"context"
	"time"
)

// Default gate timing: check every half second, give up after fifteen.
const (
	DefaultGateInterval = 500 * time.Millisecond
	DefaultGateBudget   = 15 * time.Second
)

// RunGate serializes turn submissions against a shared conversation thread.
//
// The serving environment gives each request its own process instance, so an
// in-memory lock cannot serialize runs across requests. The gate instead
// polls the assistant service's run list, the authoritative record of
// whether a run is active on the thread. This is advisory serialization:
// two requests can both observe a clear thread and race. That window is
// accepted; the assistant service rejects the second run itself and the
// caller gets a retryable error.
type RunGate struct {
	Client   AssistantClient
	Interval time.Duration
	Budget   time.Duration
}

// NewRunGate creates a gate with default timing
func NewRunGate(client AssistantClient) *RunGate {
	return &RunGate{Client: client, Interval: DefaultGateInterval, Budget: DefaultGateBudget}
}

// WaitClear blocks until no non-terminal run exists on the thread, or the
// poll budget is exhausted. On exhaustion it returns a ThreadBusyError so
// the caller can tell the participant to retry shortly; the turn is never
// silently dropped or silently retried.
//
// A failing poll counts as clear. Failing open on a transient service error
// beats wedging the session for the rest of the interview.
func (g *RunGate) WaitClear(ctx context.Context, threadID string) error {
	interval := g.Interval
	if interval <= 0 {
		interval = DefaultGateInterval
	}
	budget := g.Budget
	if budget <= 0 {
		budget = DefaultGateBudget
	}

	deadline := time.Now().Add(budget)
	for {
		runs, err := g.Client.ListRuns(ctx, threadID)
		if err != nil {
			LogWarn("run gate: poll failed for thread %s, treating as clear: %v", threadID, err)
			return nil
		}

		if !anyActive(runs) {
			return nil
		}

		if time.Now().After(deadline) {
			return &ThreadBusyError{ThreadID: threadID, Waited: budget.String()}
		}

		select {
		case <-ctx.Done():
			LogWarn("run gate: context cancelled for thread %s, treating as clear: %v", threadID, ctx.Err())
			return nil
		case <-time.After(interval):
		}
	}
}

func anyActive(runs []Run) bool {
	for _, run := range runs {
		if !run.Status.Terminal() {
			return true
		}
	}
	return false
}
