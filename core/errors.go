package core

import (
	"errors"
	"fmt"
)

// Sentinel errors recorded inside StepResult.Err. They never escape Execute
// as return values; callers distinguish outcomes with errors.Is.
var (
	// ErrDependencyFailed marks a step skipped because a direct dependency
	// did not succeed.
	ErrDependencyFailed = errors.New("dependency failed")

	// ErrFlowTimeout marks work stopped by the global flow timeout.
	ErrFlowTimeout = errors.New("flow timeout exceeded")

	// ErrStepCancelled marks a step that never started because the run was
	// stopped before it was dispatched.
	ErrStepCancelled = errors.New("step cancelled before execution")
)

// StepExecutionError records a step's terminal failure after its retry budget
// was exhausted. It wraps the last attempt's error.
type StepExecutionError struct {
	StepID   string
	Agent    string
	Attempts int
	Err      error
}

// Error implements the error interface.
func (e *StepExecutionError) Error() string {
	return fmt.Sprintf("step %s: agent %s failed after %d attempt(s): %v", e.StepID, e.Agent, e.Attempts, e.Err)
}

// Unwrap returns the last attempt's error.
func (e *StepExecutionError) Unwrap() error { return e.Err }
