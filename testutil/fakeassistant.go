package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// FakeMessage is one message captured by the fake assistant service
type FakeMessage struct {
	ThreadID string
	Role     string
	Content  string
	Metadata map[string]string
}

// FakeAssistant simulates the assistants HTTP service (threads, messages,
// runs) for tests. Knobs control run-list behavior and the reply text.
type FakeAssistant struct {
	Server *httptest.Server

	mu sync.Mutex

	// Reply is the assistant message text returned for the thread
	Reply string

	// RunStatus is the status assigned to created/retrieved runs
	RunStatus string

	// RunError is the last_error message reported for failed runs
	RunError string

	// ActiveRunList makes the run list always report one in_progress run
	ActiveRunList bool

	// FailRunList makes the run list endpoint return HTTP 500
	FailRunList bool

	// MissingThreads makes thread retrieval 404 for the listed ids
	MissingThreads map[string]bool

	messages     []FakeMessage
	threadSeq    int
	runSeq       int
	runsCreated  int
	listRequests int
}

// NewFakeAssistant starts the fake service and closes it with the test
func NewFakeAssistant(t *testing.T) *FakeAssistant {
	t.Helper()
	f := &FakeAssistant{
		Reply:          "Hello from the assistant.",
		RunStatus:      "completed",
		MissingThreads: make(map[string]bool),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/threads", f.createThread)
	mux.HandleFunc("GET /v1/threads/{id}", f.retrieveThread)
	mux.HandleFunc("POST /v1/threads/{id}/messages", f.addMessage)
	mux.HandleFunc("GET /v1/threads/{id}/messages", f.listMessages)
	mux.HandleFunc("POST /v1/threads/{id}/runs", f.createRun)
	mux.HandleFunc("GET /v1/threads/{id}/runs", f.listRuns)
	mux.HandleFunc("GET /v1/threads/{id}/runs/{run}", f.retrieveRun)

	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Server.Close)
	return f
}

// BaseURL returns the fake service's base URL for client construction
func (f *FakeAssistant) BaseURL() string {
	return f.Server.URL
}

// Messages returns a copy of all captured messages
func (f *FakeAssistant) Messages() []FakeMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]FakeMessage, len(f.messages))
	copy(out, f.messages)
	return out
}

// RunsCreated returns how many runs were started
func (f *FakeAssistant) RunsCreated() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.runsCreated
}

// ListRequests returns how many run-list polls were served
func (f *FakeAssistant) ListRequests() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listRequests
}

func (f *FakeAssistant) createThread(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.threadSeq++
	id := fmt.Sprintf("thread_fake_%d", f.threadSeq)
	f.mu.Unlock()
	respond(w, map[string]string{"id": id})
}

func (f *FakeAssistant) retrieveThread(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	f.mu.Lock()
	missing := f.MissingThreads[id]
	f.mu.Unlock()
	if missing {
		http.Error(w, `{"error":{"message":"no thread found"}}`, http.StatusNotFound)
		return
	}
	respond(w, map[string]string{"id": id})
}

func (f *FakeAssistant) addMessage(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Role     string            `json:"role"`
		Content  string            `json:"content"`
		Metadata map[string]string `json:"metadata"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	f.messages = append(f.messages, FakeMessage{
		ThreadID: r.PathValue("id"),
		Role:     payload.Role,
		Content:  payload.Content,
		Metadata: payload.Metadata,
	})
	f.mu.Unlock()
	respond(w, map[string]string{"id": "msg_fake"})
}

func (f *FakeAssistant) listMessages(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	reply := f.Reply
	f.mu.Unlock()

	respond(w, map[string]any{
		"data": []map[string]any{
			{
				"role": "assistant",
				"content": []map[string]any{
					{"type": "text", "text": map[string]string{"value": reply}},
				},
			},
		},
	})
}

func (f *FakeAssistant) createRun(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.runSeq++
	f.runsCreated++
	id := fmt.Sprintf("run_fake_%d", f.runSeq)
	status := f.RunStatus
	runErr := f.RunError
	f.mu.Unlock()
	respond(w, runBody(id, status, runErr))
}

func (f *FakeAssistant) retrieveRun(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	status := f.RunStatus
	runErr := f.RunError
	f.mu.Unlock()
	respond(w, runBody(r.PathValue("run"), status, runErr))
}

func (f *FakeAssistant) listRuns(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.listRequests++
	fail := f.FailRunList
	active := f.ActiveRunList
	f.mu.Unlock()

	if fail {
		http.Error(w, `{"error":{"message":"internal"}}`, http.StatusInternalServerError)
		return
	}
	data := []map[string]any{}
	if active {
		data = append(data, runBody("run_active", "in_progress", ""))
	}
	respond(w, map[string]any{"data": data})
}

func runBody(id, status, lastError string) map[string]any {
	body := map[string]any{"id": id, "status": status}
	if lastError != "" {
		body["last_error"] = map[string]string{"message": lastError}
	}
	return body
}

func respond(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}
