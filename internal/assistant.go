package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// RunStatus is the lifecycle state of one assistant run on a thread
type RunStatus string

const (
	RunStatusQueued         RunStatus = "queued"
	RunStatusInProgress     RunStatus = "in_progress"
	RunStatusRequiresAction RunStatus = "requires_action"
	RunStatusCancelling     RunStatus = "cancelling"
	RunStatusCompleted      RunStatus = "completed"
	RunStatusFailed         RunStatus = "failed"
	RunStatusCancelled      RunStatus = "cancelled"
	RunStatusExpired        RunStatus = "expired"
)

// Terminal reports whether the run has stopped executing. Unknown statuses
// are treated as terminal so a new upstream state can never wedge the gate.
func (s RunStatus) Terminal() bool {
	switch s {
	case RunStatusQueued, RunStatusInProgress, RunStatusRequiresAction, RunStatusCancelling:
		return false
	}
	return true
}

// Run is one execution of the assistant against a thread
type Run struct {
	ID        string
	Status    RunStatus
	LastError string
}

// AssistantClient is the narrow surface of the assistants service this
// system depends on: threads, messages, runs, and the latest reply.
type AssistantClient interface {
	CreateThread(ctx context.Context) (string, error)
	RetrieveThread(ctx context.Context, threadID string) error
	AddMessage(ctx context.Context, threadID string, role Role, content string, metadata map[string]string) error
	CreateRun(ctx context.Context, threadID string) (Run, error)
	RetrieveRun(ctx context.Context, threadID, runID string) (Run, error)
	ListRuns(ctx context.Context, threadID string) ([]Run, error)
	LatestAssistantReply(ctx context.Context, threadID string) (string, error)
}

// HTTPAssistant implements AssistantClient against the hosted assistants
// HTTP API (threads + asynchronous runs, v2 surface).
type HTTPAssistant struct {
	// BaseURL defaults to "https://api.openai.com"
	BaseURL string

	// APIKey is the bearer token for the service
	APIKey string

	// AssistantID selects the configured assistant for runs
	AssistantID string

	// HTTPClient is used for all calls. If nil, a default client is used.
	HTTPClient *http.Client
}

const assistantBodyLimit = 2_000_000

func (c *HTTPAssistant) baseURL() string {
	if c.BaseURL != "" {
		return strings.TrimRight(c.BaseURL, "/")
	}
	return "https://api.openai.com"
}

func (c *HTTPAssistant) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 60 * time.Second}
}

// CreateThread creates a fresh conversation thread
func (c *HTTPAssistant) CreateThread(ctx context.Context) (string, error) {
	var parsed struct {
		ID string `json:"id"`
	}
	if err := c.call(ctx, "POST", "/v1/threads", map[string]any{}, &parsed); err != nil {
		return "", &AssistantError{Op: "create_thread", Err: err}
	}
	if parsed.ID == "" {
		return "", &AssistantError{Op: "create_thread", Detail: "service returned no thread id"}
	}
	return parsed.ID, nil
}

// RetrieveThread checks that a thread still exists on the service
func (c *HTTPAssistant) RetrieveThread(ctx context.Context, threadID string) error {
	var parsed struct {
		ID string `json:"id"`
	}
	if err := c.call(ctx, "GET", "/v1/threads/"+threadID, nil, &parsed); err != nil {
		return &AssistantError{Op: "retrieve_thread", Err: err}
	}
	return nil
}

// AddMessage appends a message to the thread. Metadata tags distinguish
// injected context from genuine participant turns.
func (c *HTTPAssistant) AddMessage(ctx context.Context, threadID string, role Role, content string, metadata map[string]string) error {
	payload := map[string]any{
		"role":    string(role),
		"content": content,
	}
	if len(metadata) > 0 {
		payload["metadata"] = metadata
	}
	if err := c.call(ctx, "POST", "/v1/threads/"+threadID+"/messages", payload, nil); err != nil {
		return &AssistantError{Op: "add_message", Err: err}
	}
	return nil
}

// CreateRun starts an assistant run on the thread
func (c *HTTPAssistant) CreateRun(ctx context.Context, threadID string) (Run, error) {
	payload := map[string]any{"assistant_id": c.AssistantID}
	var parsed runPayload
	if err := c.call(ctx, "POST", "/v1/threads/"+threadID+"/runs", payload, &parsed); err != nil {
		return Run{}, &AssistantError{Op: "create_run", Err: err}
	}
	return parsed.toRun(), nil
}

// RetrieveRun fetches the current state of one run
func (c *HTTPAssistant) RetrieveRun(ctx context.Context, threadID, runID string) (Run, error) {
	var parsed runPayload
	if err := c.call(ctx, "GET", "/v1/threads/"+threadID+"/runs/"+runID, nil, &parsed); err != nil {
		return Run{}, &AssistantError{Op: "retrieve_run", Err: err}
	}
	return parsed.toRun(), nil
}

// ListRuns returns the most recent runs on the thread
func (c *HTTPAssistant) ListRuns(ctx context.Context, threadID string) ([]Run, error) {
	var parsed struct {
		Data []runPayload `json:"data"`
	}
	if err := c.call(ctx, "GET", "/v1/threads/"+threadID+"/runs?limit=20", nil, &parsed); err != nil {
		return nil, &AssistantError{Op: "list_runs", Err: err}
	}
	runs := make([]Run, 0, len(parsed.Data))
	for _, rp := range parsed.Data {
		runs = append(runs, rp.toRun())
	}
	return runs, nil
}

// LatestAssistantReply returns the text of the newest assistant message
func (c *HTTPAssistant) LatestAssistantReply(ctx context.Context, threadID string) (string, error) {
	var parsed struct {
		Data []struct {
			Role    string `json:"role"`
			Content []struct {
				Type string `json:"type"`
				Text struct {
					Value string `json:"value"`
				} `json:"text"`
			} `json:"content"`
		} `json:"data"`
	}
	if err := c.call(ctx, "GET", "/v1/threads/"+threadID+"/messages?order=desc&limit=20", nil, &parsed); err != nil {
		return "", &AssistantError{Op: "list_messages", Err: err}
	}

	for _, msg := range parsed.Data {
		if msg.Role != string(RoleAssistant) {
			continue
		}
		var b strings.Builder
		for _, part := range msg.Content {
			if part.Type == "text" {
				b.WriteString(part.Text.Value)
			}
		}
		if b.Len() > 0 {
			return b.String(), nil
		}
	}
	return "", &AssistantError{Op: "list_messages", Detail: "no assistant reply found on thread"}
}

type runPayload struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	LastError *struct {
		Message string `json:"message"`
	} `json:"last_error"`
}

func (rp runPayload) toRun() Run {
	run := Run{ID: rp.ID, Status: RunStatus(rp.Status)}
	if rp.LastError != nil {
		run.LastError = rp.LastError.Message
	}
	return run
}

func (c *HTTPAssistant) call(ctx context.Context, method, path string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %v", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL()+path, body)
	if err != nil {
		return fmt.Errorf("build request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("OpenAI-Beta", "assistants=v2")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %v", err)
	}
	defer resp.Body.Close()

	bodyBytes, _ := readAllLimit(resp.Body, assistantBodyLimit)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(bodyBytes)))
	}

	if out != nil {
		if err := json.Unmarshal(bodyBytes, out); err != nil {
			return fmt.Errorf("parse response: %v", err)
		}
	}
	return nil
}

func readAllLimit(r io.Reader, limit int64) ([]byte, error) {
	return io.ReadAll(io.LimitReader(r, limit))
}

// AwaitRun polls a run until it reaches a terminal status. A run that ends
// in any terminal state other than completed is surfaced as an assistant
// error carrying the upstream detail when available.
func AwaitRun(ctx context.Context, client AssistantClient, threadID string, run Run, interval, budget time.Duration) (Run, error) {
	deadline := time.Now().Add(budget)
	for !run.Status.Terminal() {
		if time.Now().After(deadline) {
			return run, &AssistantError{Op: "run", Detail: fmt.Sprintf("run %s still %s after %s", run.ID, run.Status, budget)}
		}
		select {
		case <-ctx.Done():
			return run, &AssistantError{Op: "run", Err: ctx.Err()}
		case <-time.After(interval):
		}

		next, err := client.RetrieveRun(ctx, threadID, run.ID)
		if err != nil {
			return run, err
		}
		run = next
	}

	if run.Status != RunStatusCompleted {
		detail := run.LastError
		if detail == "" {
			detail = fmt.Sprintf("run ended with status %s", run.Status)
		}
		return run, &AssistantError{Op: "run", Detail: detail}
	}
	return run, nil
}
