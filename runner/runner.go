package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/flowmesh/flowmesh/activity"
	"github.com/flowmesh/flowmesh/core"
	"github.com/flowmesh/flowmesh/executor"
	"github.com/flowmesh/flowmesh/graph"
	"github.com/flowmesh/flowmesh/logging"
)

// Options holds dependency + configuration overrides passed to New().
type Options struct {
	// Logger provides structured logging for the run. Defaults to NoOp.
	Logger logging.Logger
	// Activity receives step-start/step-end/flow-end journal events.
	// Defaults to a discarding sink; the engine never blocks on it.
	Activity activity.Logger
}

// Runner is the flow execution engine's entry point. It validates a
// definition, drives the scheduler, enforces the global timeout and
// fail-fast policy, and assembles the final result. A Runner is stateless
// across runs and safe for concurrent use.
type Runner struct {
	invoker  core.Invoker
	logger   logging.Logger
	activity activity.Logger
}

// New constructs a Runner around the agent-invocation collaborator.
func New(invoker core.Invoker, optFns ...func(o *Options)) *Runner {
	opts := Options{
		Logger:   logging.NoOpLogger{},
		Activity: activity.NoOp{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Runner{invoker: invoker, logger: opts.Logger, activity: opts.Activity}
}

// WithLogger overrides the runner's structured logger.
func WithLogger(logger logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = logger }
}

// WithActivityLogger overrides the activity journal sink.
func WithActivityLogger(act activity.Logger) func(o *Options) {
	return func(o *Options) { o.Activity = act }
}

// Execute runs a flow definition to completion and returns its FlowResult.
//
// The only error ever returned is a *graph.ValidationError, raised before
// any step executes. Every in-run failure (step errors, timeout, fail-fast
// cancellation) is captured inside the FlowResult, which always holds
// exactly one StepResult per declared step.
func (r *Runner) Execute(ctx context.Context, def *core.FlowDefinition, execCtx core.ExecutionContext) (*core.FlowResult, error) {
	plan, err := graph.Validate(def)
	if err != nil {
		return nil, err
	}

	runID := core.NewID()
	started := time.Now()

	r.logger.Info("flow.start flow_id=%s flow_run_id=%s steps=%d max_parallelism=%d fail_fast=%v trace_id=%s", def.ID, runID, len(def.Steps), def.Settings.Parallelism(), def.Settings.FailFast, execCtx.TraceID)

	exec := executor.New(r.invoker, func(o *executor.Options) { o.Logger = r.logger })
	sched := newScheduler(plan, execCtx, exec, r.logger, r.activity)
	sched.run(ctx)

	success := true
	for i := range def.Steps {
		if sr := sched.outputs[def.Steps[i].ID]; sr == nil || !sr.Success {
			success = false
			break
		}
	}
	// A run stopped from outside (global timeout, caller cancellation) has
	// already failed, even if every in-flight step raced to a successful
	// result before draining.
	if sched.stopErr != nil {
		success = false
	}

	result := &core.FlowResult{
		FlowRunID:   runID,
		FlowID:      def.ID,
		StepResults: sched.outputs,
		Success:     success,
		Duration:    time.Since(started),
		CompletedAt: time.Now(),
	}

	r.activity.Log(activity.Event{
		Action: activity.ActionFlowEnd,
		Target: def.ID,
		Payload: map[string]any{
			"flow_run_id": runID,
			"success":     success,
			"duration_ms": result.Duration.Milliseconds(),
		},
		TraceID: execCtx.TraceID,
	})
	r.logger.Info("flow.end flow_id=%s flow_run_id=%s success=%v duration_ms=%d", def.ID, runID, success, result.Duration.Milliseconds())

	return result, nil
}

// FinalOutput resolves the content of the step named by the definition's
// output.from against a concluded run. Callers routing a flow's answer back
// to the original requester use this instead of digging through StepResults.
func FinalOutput(def *core.FlowDefinition, result *core.FlowResult) (string, error) {
	if def.Output.From == "" {
		return "", fmt.Errorf("flow %s declares no output step", def.ID)
	}
	sr, ok := result.StepResults[def.Output.From]
	if !ok {
		return "", fmt.Errorf("flow %s: no result recorded for output step %q", def.ID, def.Output.From)
	}
	if !sr.Success || sr.Result == nil {
		return "", fmt.Errorf("flow %s: output step %q did not succeed: %v", def.ID, def.Output.From, sr.Err)
	}
	return sr.Result.Content, nil
}
