// Package executor runs a single step's agent call with retry-with-backoff
// and per-attempt error capture. It never returns an error: every outcome,
// including cancellation, is encoded in the returned StepResult so the
// scheduler can record it without unwinding.
package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/flowmesh/flowmesh/core"
	"github.com/flowmesh/flowmesh/logging"
)

// Options holds dependency overrides passed to New().
type Options struct {
	// Logger receives per-attempt diagnostics. Defaults to NoOpLogger.
	Logger logging.Logger
}

// StepExecutor invokes the external agent collaborator once per attempt,
// sleeping the step's fixed backoff between failing attempts.
type StepExecutor struct {
	invoker core.Invoker
	logger  logging.Logger
}

// New constructs a StepExecutor with optional overrides.
func New(invoker core.Invoker, optFns ...func(o *Options)) *StepExecutor {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &StepExecutor{invoker: invoker, logger: opts.Logger}
}

// Run executes one step with the already-resolved input. The context is
// checked before every attempt and during every backoff sleep; a step
// cancelled before its first attempt reports StepCancelled, a step cancelled
// mid-retry reports StepFailed with the last attempt's error.
func (e *StepExecutor) Run(ctx context.Context, step *core.StepDefinition, input string, execCtx core.ExecutionContext) *core.StepResult {
	started := time.Now()
	maxAttempts := step.Retry.Attempts()
	backoff := step.Retry.Backoff()

	var lastErr error
	attempts := 0

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			if attempts == 0 {
				return e.cancelled(step, started, err)
			}
			lastErr = fmt.Errorf("%v (run stopped: %w)", lastErr, err)
			break
		}

		attempts = attempt
		attemptStart := time.Now()
		inv, err := e.invoker.Invoke(ctx, step.Agent, input, execCtx)
		if err == nil && inv == nil {
			err = errors.New("invoker returned no result")
		}
		e.logger.Debug("step.attempt step_id=%s agent=%s attempt=%d duration_ms=%d failed=%v", step.ID, step.Agent, attempt, time.Since(attemptStart).Milliseconds(), err != nil)

		if err == nil {
			return &core.StepResult{
				StepID:      step.ID,
				Success:     true,
				Status:      core.StepSucceeded,
				Result:      inv,
				Attempts:    attempts,
				StartedAt:   started,
				CompletedAt: time.Now(),
			}
		}

		lastErr = err

		if attempt < maxAttempts && backoff > 0 {
			if serr := sleep(ctx, backoff); serr != nil {
				lastErr = fmt.Errorf("%v (run stopped: %w)", lastErr, serr)
				break
			}
		}
	}

	return &core.StepResult{
		StepID:      step.ID,
		Success:     false,
		Status:      core.StepFailed,
		Err:         &core.StepExecutionError{StepID: step.ID, Agent: step.Agent, Attempts: attempts, Err: lastErr},
		Attempts:    attempts,
		StartedAt:   started,
		CompletedAt: time.Now(),
	}
}

func (e *StepExecutor) cancelled(step *core.StepDefinition, started time.Time, cause error) *core.StepResult {
	return &core.StepResult{
		StepID:      step.ID,
		Success:     false,
		Status:      core.StepCancelled,
		Err:         fmt.Errorf("%w: %v", core.ErrStepCancelled, cause),
		Attempts:    0,
		StartedAt:   started,
		CompletedAt: time.Now(),
	}
}

// sleep waits for d or until the context is done, whichever comes first.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
