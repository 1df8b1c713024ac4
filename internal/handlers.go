package internal

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"
)

// Handler serves the chat widget API
type Handler struct {
	Orchestrator *Orchestrator
	Transcripts  *TranscriptService
	Speech       SpeechToText
	Store        BlobStore
}

// Chat handles POST /api/chat: one conversation turn
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	req, err := DecodeChatRequest(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.Orchestrator.HandleTurn(r.Context(), req)
	if err != nil {
		status, msg := classifyError(err)
		writeError(w, status, msg)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// transcriptRequest covers all three transcript lifecycle modes
type transcriptRequest struct {
	Mode          string `json:"mode"`
	TranscriptID  string `json:"transcriptId"`
	ParticipantID string `json:"participantId"`
	ThreadID      string `json:"threadId"`
	Role          string `json:"role"`
	Text          string `json:"text"`
	FullText      string `json:"fullText"`
}

// Transcript handles POST /api/transcript: start, append, and finalize
func (h *Handler) Transcript(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	var req transcriptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	switch req.Mode {
	case "start":
		id, startedAt, err := h.Transcripts.Start(r.Context(), req.ParticipantID, req.ThreadID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"transcriptId": id,
			"startedAt":    startedAt.Format(time.RFC3339),
		})

	case "append":
		role := RoleUser
		if req.Role == string(RoleAssistant) {
			role = RoleAssistant
		}
		if err := h.Transcripts.Append(r.Context(), req.TranscriptID, role, time.Now(), req.Text); err != nil {
			status, msg := classifyError(err)
			writeError(w, status, msg)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})

	case "finalize":
		skipped, err := h.Transcripts.Finalize(r.Context(), req.TranscriptID, req.FullText)
		if err != nil {
			status, msg := classifyError(err)
			writeError(w, status, msg)
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true, "skipped": skipped})

	default:
		writeError(w, http.StatusBadRequest, "mode must be one of: start, append, finalize")
	}
}

// SpeechHandler handles POST /api/speech: best-effort transcription of one
// uploaded audio object
func (h *Handler) SpeechHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}

	if err := r.ParseMultipartForm(MaxAudioBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart body: "+err.Error())
		return
	}
	file, header, err := r.FormFile("audio")
	if err != nil {
		writeError(w, http.StatusBadRequest, "audio file is required")
		return
	}
	defer file.Close()

	text, err := h.Speech.Transcribe(r.Context(), file, header.Filename)
	if err != nil {
		LogWarn("speech transcription failed: %v", err)
		writeError(w, http.StatusBadGateway, "transcription failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"transcript": text})
}

// Health handles GET /api/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if _, err := h.Store.List(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "store unavailable: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// classifyError maps the error taxonomy onto HTTP statuses: validation →
// 400, thread busy → 409, assistant failure → 502, everything else → 500.
func classifyError(err error) (int, string) {
	var validation *ValidationError
	if errors.As(err, &validation) {
		return http.StatusBadRequest, validation.Error()
	}
	var busy *ThreadBusyError
	if errors.As(err, &busy) {
		return http.StatusConflict, busy.Error()
	}
	var assistant *AssistantError
	if errors.As(err, &assistant) {
		return http.StatusBadGateway, assistant.Error()
	}
	return http.StatusInternalServerError, err.Error()
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
