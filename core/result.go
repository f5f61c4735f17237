package core

import "time"

// StepStatus is the terminal disposition of one step within a run.
type StepStatus string

const (
	// StepSucceeded means the agent call completed successfully.
	StepSucceeded StepStatus = "succeeded"
	// StepFailed means the agent call failed after exhausting its retries.
	StepFailed StepStatus = "failed"
	// StepCancelled means the step never ran to completion because the run
	// was stopped (fail-fast sibling failure or global timeout).
	StepCancelled StepStatus = "cancelled"
	// StepSkipped means the step never executed because a direct dependency
	// did not succeed.
	StepSkipped StepStatus = "skipped"
)

// Invocation is the captured output of one successful agent call.
type Invocation struct {
	Content string `json:"content"`
	Raw     any    `json:"raw,omitempty"`
}

// StepResult records the terminal outcome of a single step. Exactly one
// StepResult exists per declared step once a run concludes, and it is never
// mutated after being recorded.
type StepResult struct {
	StepID      string      `json:"stepId"`
	Success     bool        `json:"success"`
	Status      StepStatus  `json:"status"`
	Result      *Invocation `json:"result,omitempty"`
	Err         error       `json:"-"`
	Attempts    int         `json:"attempts"`
	StartedAt   time.Time   `json:"startedAt"`
	CompletedAt time.Time   `json:"completedAt"`
}

// ErrorMessage returns the recorded error text, or "" for successful steps.
func (r *StepResult) ErrorMessage() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

// Duration returns the wall-clock span between start and completion. Steps
// that never started report zero.
func (r *StepResult) Duration() time.Duration {
	if r.StartedAt.IsZero() || r.CompletedAt.IsZero() {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}

// FlowResult is the structured outcome of one Execute call. StepResults holds
// exactly one entry per declared step once the run concludes.
type FlowResult struct {
	FlowRunID   string                 `json:"flowRunId"`
	FlowID      string                 `json:"flowId"`
	StepResults map[string]*StepResult `json:"stepResults"`
	Success     bool                   `json:"success"`
	Duration    time.Duration          `json:"duration"`
	CompletedAt time.Time              `json:"completedAt"`
}

// ContentOf returns the successful content recorded for a step id. The second
// return is false when the step is unknown or did not succeed.
func (r *FlowResult) ContentOf(stepID string) (string, bool) {
	sr, ok := r.StepResults[stepID]
	if !ok || !sr.Success || sr.Result == nil {
		return "", false
	}
	return sr.Result.Content, true
}
