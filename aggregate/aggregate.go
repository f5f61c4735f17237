// Package aggregate resolves a step's input from the root request or from
// named predecessor outputs, applying one of a closed set of transforms.
//
// Transforms are pure functions of their inputs and carry no hidden state,
// so they are independently unit-testable and deterministic across runs.
package aggregate

import (
	"fmt"

	"github.com/flowmesh/flowmesh/core"
)

// Section pairs a predecessor step id with the content it produced. Sections
// are always processed in the order the step's from list declares them.
type Section struct {
	StepID  string
	Content string
}

// Func is one transform strategy. Implementations must be pure.
type Func func(sections []Section) string

// transforms is the strategy table mapping each named transform to its
// implementation. Dispatching through the table keeps the set closed and
// auditable in one place.
var transforms = map[core.Transform]Func{
	core.TransformPassthrough:    passthrough,
	core.TransformExtractCode:    extractCode,
	core.TransformMergeAsContext: mergeAsContext,
}

// Known reports whether the named transform has a registered strategy.
// The empty transform is accepted and treated as passthrough.
func Known(t core.Transform) bool {
	if t == "" {
		return true
	}
	_, ok := transforms[t]
	return ok
}

// Apply runs the named transform over the sections. An unregistered
// transform yields an *Error since the definition cannot be satisfied.
func Apply(t core.Transform, sections []Section) (string, error) {
	if t == "" {
		t = core.TransformPassthrough
	}
	fn, ok := transforms[t]
	if !ok {
		return "", &Error{Reason: fmt.Sprintf("unknown transform %q", t)}
	}
	return fn(sections), nil
}

// Resolve builds the resolved input for a step.
//
// For source=request the input is the run's user prompt (still subject to
// the declared transform). For source=aggregate, each step named in the from
// list must already have a successful terminal result in outputs; the caller
// (the scheduler) guarantees this by construction, so a violation here is
// reported as an *Error rather than silently producing partial context.
func Resolve(step *core.StepDefinition, outputs map[string]*core.StepResult, execCtx core.ExecutionContext) (string, error) {
	switch step.Input.Source {
	case core.SourceRequest, "":
		return Apply(step.Input.Transform, []Section{{StepID: "request", Content: execCtx.UserPrompt}})

	case core.SourceAggregate:
		sections := make([]Section, 0, len(step.Input.From))
		for _, id := range step.Input.From {
			sr, ok := outputs[id]
			if !ok {
				return "", &Error{StepID: step.ID, From: id, Reason: "no terminal result for source step"}
			}
			if !sr.Success || sr.Result == nil {
				return "", &Error{StepID: step.ID, From: id, Reason: "source step did not succeed"}
			}
			sections = append(sections, Section{StepID: id, Content: sr.Result.Content})
		}
		return Apply(step.Input.Transform, sections)

	default:
		return "", &Error{StepID: step.ID, Reason: fmt.Sprintf("unknown input source %q", step.Input.Source)}
	}
}

// Error reports that a step's input could not be resolved.
type Error struct {
	StepID string
	From   string
	Reason string
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := "input aggregation failed"
	if e.StepID != "" {
		msg += " for step " + e.StepID
	}
	if e.From != "" {
		msg += " (source " + e.From + ")"
	}
	return msg + ": " + e.Reason
}
