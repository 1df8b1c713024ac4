package internal

import "net/http"

// NewRouter wires the API routes onto a ServeMux
func NewRouter(handler *Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/chat", handler.Chat)
	mux.HandleFunc("/api/transcript", handler.Transcript)
	mux.HandleFunc("/api/speech", handler.SpeechHandler)
	mux.HandleFunc("/api/health", handler.Health)

	return mux
}
