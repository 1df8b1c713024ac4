package internal

import (
	"sync"
	"time"
)

// Session holds the mutable state of one chat session: the pinned thread id,
// the submission guard, the completion latch, and the turns seen so far.
//
// The guard and latch only serialize work within this process. Cross-process
// serialization of assistant runs is done by the RunGate, which polls the
// assistant service itself; the service's run list stays the single source
// of truth.
type Session struct {
	mu sync.Mutex

	ID         string
	ThreadID   string
	Generation int // bumped when the thread is recreated after a retrieval failure

	completed bool
	inFlight  bool
	startedAt time.Time
	turns     []Turn

	// injected context values by field name, valid for the current generation
	injected map[string]string
}

// BeginTurn marks a submission as in flight. It returns false if another
// submission on this session has not completed yet.
func (s *Session) BeginTurn() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inFlight {
		return false
	}
	s.inFlight = true
	return true
}

// EndTurn releases the in-flight guard. Safe to call on every exit path.
func (s *Session) EndTurn() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight = false
}

// RecordTurn appends a turn and stamps the session start on the first user turn
func (s *Session) RecordTurn(turn Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if turn.Role == RoleUser && s.startedAt.IsZero() {
		s.startedAt = turn.Timestamp
	}
	s.turns = append(s.turns, turn)
}

// Turns returns a copy of the recorded turns in chronological order
func (s *Session) Turns() []Turn {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// StartedAt returns the first user turn timestamp, zero if none recorded
func (s *Session) StartedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startedAt
}

// Complete flips the session to completed. It returns true only for the
// call that performed the transition; later calls are no-ops. The flag is
// monotonic and never reset.
func (s *Session) Complete() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.completed {
		return false
	}
	s.completed = true
	return true
}

// Completed reports whether the session has finished
func (s *Session) Completed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.completed
}

// NewGeneration pins a fresh thread id and invalidates prior context
// injections, which belonged to the old thread.
func (s *Session) NewGeneration(threadID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ThreadID = threadID
	s.Generation++
	s.injected = make(map[string]string)
}

// InjectedValue returns the context value previously injected for field
func (s *Session) InjectedValue(field string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.injected[field]
	return v, ok
}

// MarkInjected records that value was injected for field in this generation
func (s *Session) MarkInjected(field, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.injected == nil {
		s.injected = make(map[string]string)
	}
	s.injected[field] = value
}

// SessionStore tracks sessions by thread id for the lifetime of the process
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewSessionStore creates an empty SessionStore
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*Session)}
}

// ForThread returns the session pinned to threadID, creating one on first use
func (st *SessionStore) ForThread(threadID string) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()

	if sess, ok := st.sessions[threadID]; ok {
		return sess
	}
	sess := &Session{
		ID:       NewID(),
		ThreadID: threadID,
		injected: make(map[string]string),
	}
	st.sessions[threadID] = sess
	return sess
}

// Rebind moves a session to a new thread id after thread recreation
func (st *SessionStore) Rebind(sess *Session, oldThreadID, newThreadID string) {
	st.mu.Lock()
	defer st.mu.Unlock()

	delete(st.sessions, oldThreadID)
	st.sessions[newThreadID] = sess
}
