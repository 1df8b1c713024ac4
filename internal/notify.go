package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// SummaryNotifier delivers the one-shot completion summary to the embedding
// context's server-side stand-in.
type SummaryNotifier interface {
	Notify(ctx context.Context, summary CompletionSummary) error
}

// WebhookNotifier POSTs the chat_complete payload as JSON to a fixed URL
type WebhookNotifier struct {
	URL        string
	HTTPClient *http.Client
}

func (n *WebhookNotifier) httpClient() *http.Client {
	if n.HTTPClient != nil {
		return n.HTTPClient
	}
	return &http.Client{Timeout: 10 * time.Second}
}

// Notify posts the summary once; the caller decides whether to retry
func (n *WebhookNotifier) Notify(ctx context.Context, summary CompletionSummary) error {
	body, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("marshal summary: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", n.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient().Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := readAllLimit(resp.Body, 4096)
		return fmt.Errorf("webhook status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(bodyBytes)))
	}
	return nil
}

// LogNotifier records the summary in the server log. Used when no webhook
// is configured; the summary still reaches the client inline in the chat
// response.
type LogNotifier struct{}

// Notify logs the summary
func (LogNotifier) Notify(ctx context.Context, summary CompletionSummary) error {
	LogInfo("session complete: thread=%s messages=%d userMessages=%d reason=%s",
		summary.ThreadID, summary.MessageCount, summary.UserMessageCount, summary.FinishedReason)
	return nil
}
