package internal

import "fmt"

// ValidationError represents a rejected request (missing or malformed input)
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation error: %s", e.Msg)
	}
	return fmt.Sprintf("validation error [%s]: %s", e.Field, e.Msg)
}

// ThreadBusyError signals that the conversation thread has an active run
// and the caller should retry shortly
type ThreadBusyError struct {
	ThreadID string
	Waited   string // human-readable wait, e.g. "15s"
}

func (e *ThreadBusyError) Error() string {
	return fmt.Sprintf("thread busy [%s]: an assistant run is still active after %s, retry shortly", e.ThreadID, e.Waited)
}

// AssistantError represents a failure reported by the assistant service
type AssistantError struct {
	Op     string // "create_thread", "add_message", "run", "list_runs"
	Detail string // upstream error detail when available
	Err    error
}

func (e *AssistantError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("assistant error [%s]: %s", e.Op, e.Detail)
	}
	return fmt.Sprintf("assistant error [%s]: %v", e.Op, e.Err)
}

func (e *AssistantError) Unwrap() error {
	return e.Err
}

// StorageError represents errors accessing the transcript blob store
type StorageError struct {
	Key string
	Op  string // "read", "write", "list", "open"
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error: %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
