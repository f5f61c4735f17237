package executor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/flowmesh/flowmesh/core"
	"github.com/flowmesh/flowmesh/invoker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStep(maxAttempts, backoffMs int) *core.StepDefinition {
	return &core.StepDefinition{
		ID:    "scan",
		Name:  "Scan",
		Agent: "scanner",
		Input: core.InputSpec{Source: core.SourceRequest, Transform: core.TransformPassthrough},
		Retry: core.RetrySpec{MaxAttempts: maxAttempts, BackoffMs: backoffMs},
	}
}

func TestRun_SucceedsFirstAttempt(t *testing.T) {
	mock := invoker.NewMock().AddResponse("scanner", "clean")
	e := New(mock)

	res := e.Run(context.Background(), testStep(3, 10), "input", core.ExecutionContext{})

	require.True(t, res.Success)
	assert.Equal(t, core.StepSucceeded, res.Status)
	assert.Equal(t, 1, res.Attempts)
	assert.Equal(t, "clean", res.Result.Content)
	assert.False(t, res.StartedAt.IsZero())
	assert.False(t, res.CompletedAt.IsZero())
}

func TestRun_RetriesThenSucceeds(t *testing.T) {
	mock := invoker.NewMock().
		AddResponse("scanner", "clean").
		FailTimes("scanner", 1, errors.New("throttled"))
	e := New(mock)

	res := e.Run(context.Background(), testStep(3, 1), "input", core.ExecutionContext{})

	require.True(t, res.Success)
	assert.Equal(t, 2, res.Attempts)
}

func TestRun_ExhaustsAttemptsWithBackoff(t *testing.T) {
	boom := errors.New("connection reset")
	mock := invoker.NewMock().AlwaysFail("scanner", boom)
	e := New(mock)

	const backoffMs = 60
	start := time.Now()
	res := e.Run(context.Background(), testStep(2, backoffMs), "input", core.ExecutionContext{})
	elapsed := time.Since(start)

	require.False(t, res.Success)
	assert.Equal(t, core.StepFailed, res.Status)
	assert.Equal(t, 2, res.Attempts)

	// A fixed backoff is inserted between the two attempts.
	assert.GreaterOrEqual(t, elapsed, backoffMs*time.Millisecond)

	var execErr *core.StepExecutionError
	require.True(t, errors.As(res.Err, &execErr))
	assert.Equal(t, 2, execErr.Attempts)
	assert.ErrorIs(t, execErr, boom)
}

func TestRun_AttemptCountNeverExceedsBudget(t *testing.T) {
	mock := invoker.NewMock().AlwaysFail("scanner", errors.New("down"))
	e := New(mock)

	res := e.Run(context.Background(), testStep(3, 0), "input", core.ExecutionContext{})

	assert.Equal(t, 3, res.Attempts)
	assert.Len(t, mock.Calls(), 3)
}

func TestRun_ZeroMaxAttemptsTreatedAsOne(t *testing.T) {
	mock := invoker.NewMock().AddResponse("scanner", "ok")
	e := New(mock)

	res := e.Run(context.Background(), testStep(0, 0), "input", core.ExecutionContext{})

	assert.Equal(t, 1, res.Attempts)
	assert.True(t, res.Success)
}

func TestRun_CancelledBeforeFirstAttempt(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	mock := invoker.NewMock()
	e := New(mock)

	res := e.Run(ctx, testStep(3, 0), "input", core.ExecutionContext{})

	assert.False(t, res.Success)
	assert.Equal(t, core.StepCancelled, res.Status)
	assert.Equal(t, 0, res.Attempts)
	assert.ErrorIs(t, res.Err, core.ErrStepCancelled)
	assert.Empty(t, mock.Calls())
}

func TestRun_CancelledDuringBackoff(t *testing.T) {
	mock := invoker.NewMock().AlwaysFail("scanner", errors.New("down"))
	e := New(mock)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	res := e.Run(ctx, testStep(5, 5000), "input", core.ExecutionContext{})

	// The backoff sleep is interrupted; the step finalizes as failed with
	// the last attempt's error instead of sleeping out its full budget.
	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, core.StepFailed, res.Status)
	assert.Equal(t, 1, res.Attempts)
}

func TestRun_NilInvocationIsFailure(t *testing.T) {
	e := New(core.InvokerFunc(func(context.Context, string, string, core.ExecutionContext) (*core.Invocation, error) {
		return nil, nil
	}))

	res := e.Run(context.Background(), testStep(1, 0), "input", core.ExecutionContext{})

	assert.False(t, res.Success)
	assert.Contains(t, res.Err.Error(), "no result")
}
