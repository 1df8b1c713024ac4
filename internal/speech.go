package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// MaxAudioBytes caps one uploaded voice recording
const MaxAudioBytes = 25 << 20

// SpeechToText is the opaque speech collaborator: audio in, best-effort
// transcript out, empty string when the audio could not be understood.
type SpeechToText interface {
	Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error)
}

// WhisperClient transcribes audio via the hosted transcription endpoint
type WhisperClient struct {
	// BaseURL defaults to "https://api.openai.com"
	BaseURL string

	APIKey string

	// Model defaults to "whisper-1"
	Model string

	HTTPClient *http.Client
}

func (c *WhisperClient) baseURL() string {
	if c.BaseURL != "" {
		return strings.TrimRight(c.BaseURL, "/")
	}
	return "https://api.openai.com"
}

func (c *WhisperClient) model() string {
	if c.Model != "" {
		return c.Model
	}
	return "whisper-1"
}

func (c *WhisperClient) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 60 * time.Second}
}

// Transcribe uploads one audio object and returns the transcript text
func (c *WhisperClient) Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error) {
	var body strings.Builder
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("speech: build form: %v", err)
	}
	if _, err := io.Copy(part, io.LimitReader(audio, MaxAudioBytes)); err != nil {
		return "", fmt.Errorf("speech: read audio: %v", err)
	}
	if err := writer.WriteField("model", c.model()); err != nil {
		return "", fmt.Errorf("speech: build form: %v", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("speech: build form: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL()+"/v1/audio/transcriptions", strings.NewReader(body.String()))
	if err != nil {
		return "", fmt.Errorf("speech: build request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return "", fmt.Errorf("speech: request failed: %v", err)
	}
	defer resp.Body.Close()

	bodyBytes, _ := readAllLimit(resp.Body, assistantBodyLimit)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("speech: status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(bodyBytes)))
	}

	var parsed struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(bodyBytes, &parsed); err != nil {
		return "", fmt.Errorf("speech: parse response: %v", err)
	}
	return strings.TrimSpace(parsed.Text), nil
}
