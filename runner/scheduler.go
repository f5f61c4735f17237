package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/flowmesh/flowmesh/activity"
	"github.com/flowmesh/flowmesh/aggregate"
	"github.com/flowmesh/flowmesh/core"
	"github.com/flowmesh/flowmesh/executor"
	"github.com/flowmesh/flowmesh/graph"
	"github.com/flowmesh/flowmesh/logging"
)

// stepState tracks one step through the scheduling loop.
type stepState int

const (
	statePending stepState = iota
	stateRunning
	stateDone
)

// scheduler is the single coordinating goroutine for one run. It owns the
// step-output store: each key is written exactly once, by the coordinator,
// immediately after a step task reports its terminal result. Step tasks
// receive their resolved input before they start and never touch the store,
// so the map needs no lock.
type scheduler struct {
	plan     *graph.ExecutionPlan
	settings core.Settings
	execCtx  core.ExecutionContext
	exec     *executor.StepExecutor
	logger   logging.Logger
	activity activity.Logger

	outputs     map[string]*core.StepResult
	states      []stepState
	completions chan *core.StepResult
	running     int
	stopped     bool
	// stopErr is non-nil when the run was stopped from outside the flow
	// (global timeout or caller cancellation), and taints results recorded
	// after the stop.
	stopErr error
}

func newScheduler(plan *graph.ExecutionPlan, execCtx core.ExecutionContext, exec *executor.StepExecutor, logger logging.Logger, act activity.Logger) *scheduler {
	return &scheduler{
		plan:        plan,
		settings:    plan.Definition().Settings,
		execCtx:     execCtx,
		exec:        exec,
		logger:      logger,
		activity:    act,
		outputs:     make(map[string]*core.StepResult, plan.Len()),
		states:      make([]stepState, plan.Len()),
		completions: make(chan *core.StepResult),
	}
}

// run drives the loop until every step is terminal or the run was stopped
// and all in-flight steps have drained. It always leaves exactly one result
// per declared step in the output store.
func (s *scheduler) run(ctx context.Context) {
	stepCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var timeoutC <-chan time.Time
	if d := s.settings.Timeout(); d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		timeoutC = timer.C
	}

	done := ctx.Done()

	for {
		if !s.stopped {
			s.dispatch(stepCtx)
		}
		// dispatch always reaches a fixpoint on a validated DAG: every
		// pending step was either started, skipped, or is blocked behind a
		// running one. With nothing running there is nothing left to await.
		if s.running == 0 {
			break
		}

		select {
		case res := <-s.completions:
			s.record(res)
			if s.settings.FailFast && !res.Success && !s.stopped {
				s.logger.Info("flow.fail_fast flow_id=%s step_id=%s", s.plan.Definition().ID, res.StepID)
				s.stopped = true
			}
		case <-timeoutC:
			s.logger.Warn("flow.timeout flow_id=%s timeout_ms=%d", s.plan.Definition().ID, s.settings.TimeoutMs)
			s.stopped = true
			s.stopErr = core.ErrFlowTimeout
			timeoutC = nil
			// Sever in-flight invocations; their results are still drained
			// and recorded below.
			cancel()
		case <-done:
			s.stopped = true
			s.stopErr = context.Cause(ctx)
			done = nil
		}
	}

	s.cancelPending()
}

// dispatch scans pending steps in declaration order, marks steps with a
// failed dependency as skipped, and starts ready steps while concurrency
// slots remain. It loops to a fixpoint because a skip can cascade.
func (s *scheduler) dispatch(ctx context.Context) {
	for progress := true; progress; {
		progress = false

		for i := 0; i < s.plan.Len(); i++ {
			if s.states[i] != statePending {
				continue
			}

			ready := true
			failedDep := ""
			for _, dep := range s.plan.Dependencies(i) {
				if s.states[dep] != stateDone {
					ready = false
					continue
				}
				if !s.outputs[s.plan.Step(dep).ID].Success {
					failedDep = s.plan.Step(dep).ID
					break
				}
			}

			// Any failed direct dependency decides the step immediately,
			// even while its other dependencies are still in flight.
			if failedDep != "" {
				s.skip(i, failedDep)
				progress = true
				continue
			}
			if !ready {
				continue
			}
			// No free slot: keep scanning so skip-marking above still runs
			// for later steps.
			if s.running >= s.settings.Parallelism() {
				continue
			}

			s.start(ctx, i)
			progress = true
			// start can trip the fail-fast stop on a resolution failure;
			// nothing else may dispatch once it has.
			if s.stopped {
				return
			}
		}
	}
}

// start resolves the step's input and launches its task. Input resolution
// happens on the coordinator so the task never reads the output store.
func (s *scheduler) start(ctx context.Context, i int) {
	step := s.plan.Step(i)

	input, err := aggregate.Resolve(step, s.outputs, s.execCtx)
	if err != nil {
		now := time.Now()
		s.states[i] = stateDone
		s.publish(&core.StepResult{
			StepID:      step.ID,
			Success:     false,
			Status:      core.StepFailed,
			Err:         err,
			StartedAt:   now,
			CompletedAt: now,
		})
		// A resolution failure is a step failure like any other and must
		// trigger the fail-fast stop; it never reaches the completions
		// channel where the stop is normally applied.
		if s.settings.FailFast && !s.stopped {
			s.logger.Info("flow.fail_fast flow_id=%s step_id=%s", s.plan.Definition().ID, step.ID)
			s.stopped = true
		}
		return
	}

	s.states[i] = stateRunning
	s.running++

	s.activity.Log(activity.Event{
		Action:  activity.ActionStepStart,
		Target:  step.ID,
		Payload: map[string]any{"agent": step.Agent, "flow_id": s.plan.Definition().ID},
		TraceID: s.execCtx.TraceID,
	})

	go func() {
		s.completions <- s.exec.Run(ctx, step, input, s.execCtx)
	}()
}

// record moves a completed step to done and publishes its result.
func (s *scheduler) record(res *core.StepResult) {
	i, ok := s.plan.Index(res.StepID)
	if !ok {
		return
	}
	s.states[i] = stateDone
	s.running--

	// A step still in flight when the run was stopped from outside is
	// recorded as cancelled; a success that squeaked in is kept as-is.
	if s.stopErr != nil && !res.Success {
		res.Status = core.StepCancelled
		res.Err = fmt.Errorf("%w: %v", s.stopErr, res.Err)
	}

	s.publish(res)
}

// skip records a failed-by-dependency result without ever starting the step.
func (s *scheduler) skip(i int, failedDep string) {
	step := s.plan.Step(i)
	s.states[i] = stateDone
	s.publish(&core.StepResult{
		StepID:      step.ID,
		Success:     false,
		Status:      core.StepSkipped,
		Err:         fmt.Errorf("%w: step %q did not succeed", core.ErrDependencyFailed, failedDep),
		CompletedAt: time.Now(),
	})
}

// cancelPending finalizes every step the run stopped before dispatching.
func (s *scheduler) cancelPending() {
	for i := range s.states {
		if s.states[i] != statePending {
			continue
		}
		step := s.plan.Step(i)
		s.states[i] = stateDone

		err := fmt.Errorf("%w: run stopped before dispatch", core.ErrStepCancelled)
		if s.stopErr != nil {
			err = fmt.Errorf("%w: %w", core.ErrStepCancelled, s.stopErr)
		}

		s.publish(&core.StepResult{
			StepID:      step.ID,
			Success:     false,
			Status:      core.StepCancelled,
			Err:         err,
			CompletedAt: time.Now(),
		})
	}
}

// publish writes a terminal result into the output store (exactly once per
// step) and emits the step-end activity event.
func (s *scheduler) publish(res *core.StepResult) {
	s.outputs[res.StepID] = res

	s.activity.Log(activity.Event{
		Action: activity.ActionStepEnd,
		Target: res.StepID,
		Payload: map[string]any{
			"status":   string(res.Status),
			"success":  res.Success,
			"attempts": res.Attempts,
			"error":    res.ErrorMessage(),
		},
		TraceID: s.execCtx.TraceID,
	})

	if res.Success {
		s.logger.Debug("step.done step_id=%s attempts=%d duration_ms=%d", res.StepID, res.Attempts, res.Duration().Milliseconds())
	} else {
		s.logger.Warn("step.failed step_id=%s status=%s attempts=%d error=%q", res.StepID, res.Status, res.Attempts, res.ErrorMessage())
	}
}
