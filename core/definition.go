package core

import "time"

// InputSource selects where a step's resolved input originates.
type InputSource string

const (
	// SourceRequest resolves the step input from the original user prompt.
	SourceRequest InputSource = "request"
	// SourceAggregate composes the step input from named predecessor outputs.
	SourceAggregate InputSource = "aggregate"
)

// Transform names the pure function applied when composing a step's input.
// The set is closed; aggregate.Apply dispatches through a strategy table so
// adding a transform is a compile-time visible change.
type Transform string

const (
	// TransformPassthrough concatenates predecessor contents verbatim,
	// separated by a blank line.
	TransformPassthrough Transform = "passthrough"
	// TransformExtractCode isolates fenced code blocks from the content
	// under resolution.
	TransformExtractCode Transform = "extract_code"
	// TransformMergeAsContext renders each predecessor's content as a
	// labeled section (heading = step id) in declared order.
	TransformMergeAsContext Transform = "merge_as_context"
)

// RetrySpec configures per-step retry behavior. BackoffMs is a fixed delay
// inserted between attempts, not an exponential base.
type RetrySpec struct {
	MaxAttempts int `json:"maxAttempts" yaml:"maxAttempts"`
	BackoffMs   int `json:"backoffMs" yaml:"backoffMs"`
}

// Backoff returns the inter-attempt delay as a duration.
func (r RetrySpec) Backoff() time.Duration {
	if r.BackoffMs <= 0 {
		return 0
	}
	return time.Duration(r.BackoffMs) * time.Millisecond
}

// Attempts returns the effective attempt budget (always at least one).
func (r RetrySpec) Attempts() int {
	if r.MaxAttempts < 1 {
		return 1
	}
	return r.MaxAttempts
}

// InputSpec declares how a step's input is resolved before invocation.
// For SourceAggregate, From must be a non-empty ordered list of step ids.
type InputSpec struct {
	Source    InputSource `json:"source" yaml:"source"`
	Transform Transform   `json:"transform,omitempty" yaml:"transform,omitempty"`
	From      []string    `json:"from,omitempty" yaml:"from,omitempty"`
}

// StepDefinition is one node in the flow graph: a capability invocation with
// explicit dependency edges, an input-resolution rule and a retry policy.
type StepDefinition struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	Agent     string    `json:"agent" yaml:"agent"`
	DependsOn []string  `json:"dependsOn,omitempty" yaml:"dependsOn,omitempty"`
	Input     InputSpec `json:"input" yaml:"input"`
	Retry     RetrySpec `json:"retry" yaml:"retry"`
}

// OutputSpec names the step whose content is the flow's final output.
type OutputSpec struct {
	From   string `json:"from" yaml:"from"`
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// Settings holds flow-level execution policy.
type Settings struct {
	// MaxParallelism caps the number of steps running concurrently.
	// Values below 1 are treated as 1.
	MaxParallelism int `json:"maxParallelism" yaml:"maxParallelism"`
	// FailFast stops dispatching new steps once any step has terminally
	// failed; already-running steps drain to their own terminal state.
	FailFast bool `json:"failFast" yaml:"failFast"`
	// TimeoutMs bounds the whole run in wall-clock milliseconds.
	// Zero or negative means no global timeout.
	TimeoutMs int `json:"timeout" yaml:"timeout"`
}

// Parallelism returns the effective concurrency cap (always at least 1).
func (s Settings) Parallelism() int {
	if s.MaxParallelism < 1 {
		return 1
	}
	return s.MaxParallelism
}

// Timeout returns the global run timeout, or 0 when unbounded.
func (s Settings) Timeout() time.Duration {
	if s.TimeoutMs <= 0 {
		return 0
	}
	return time.Duration(s.TimeoutMs) * time.Millisecond
}

// FlowDefinition is the declarative DAG of steps executed as a unit.
// Definitions are immutable once loaded; the engine never mutates them.
type FlowDefinition struct {
	ID          string           `json:"id" yaml:"id"`
	Name        string           `json:"name" yaml:"name"`
	Description string           `json:"description,omitempty" yaml:"description,omitempty"`
	Version     string           `json:"version" yaml:"version"`
	Steps       []StepDefinition `json:"steps" yaml:"steps"`
	Output      OutputSpec       `json:"output" yaml:"output"`
	Settings    Settings         `json:"settings" yaml:"settings"`
}

// Step returns the declaration for the given step id, or nil if undeclared.
func (d *FlowDefinition) Step(id string) *StepDefinition {
	for i := range d.Steps {
		if d.Steps[i].ID == id {
			return &d.Steps[i]
		}
	}
	return nil
}
