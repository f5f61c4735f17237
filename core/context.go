package core

import "github.com/google/uuid"

// ExecutionContext carries the per-run request scope. It is supplied once per
// flow run and treated as read-only by every engine component.
type ExecutionContext struct {
	UserPrompt string `json:"userPrompt"`
	TraceID    string `json:"traceId"`
	RequestID  string `json:"requestId"`
}

// NewExecutionContext builds a context for a user prompt with fresh trace and
// request identifiers.
func NewExecutionContext(userPrompt string) ExecutionContext {
	return ExecutionContext{
		UserPrompt: userPrompt,
		TraceID:    NewID(),
		RequestID:  NewID(),
	}
}

// NewID generates a new unique identifier for runs, traces and requests.
func NewID() string { return uuid.NewString() }
