// Package flowmesh provides a high-level façade over the flow execution
// engine and its collaborators (definition loading, graph validation,
// scheduling, invocation & logging) enabling rapid construction of
// multi-step agent pipelines. Most applications interact with this package
// by:
//  1. Creating a FlowMesh via New() with an agent invoker (optionally
//     overriding the default logger and activity sink)
//  2. Registering flow definitions directly or loading them from JSON/YAML
//     files (RegisterFlow, LoadFlowFile, LoadFlowDir)
//  3. Executing flows by ID (Execute) or as ad-hoc definitions
//     (ExecuteDefinition)
//
// The façade delegates orchestration to runner.Runner while keeping setup
// and usage ergonomics concise. All defaults are safe for local development
// and testing; production deployments typically supply a real model invoker
// and a structured logger.
package flowmesh

import (
	"context"
	"fmt"

	"github.com/flowmesh/flowmesh/activity"
	"github.com/flowmesh/flowmesh/core"
	"github.com/flowmesh/flowmesh/loader"
	"github.com/flowmesh/flowmesh/logging"
	"github.com/flowmesh/flowmesh/runner"
)

// Options configures the FlowMesh instance.
type Options struct {
	// Logger provides structured logging for flow and step lifecycle
	// events (defaults to NoOp if nil).
	Logger logging.Logger

	// Activity receives the append-only journal of step-start, step-end
	// and flow-end events (defaults to a discarding sink if nil).
	Activity activity.Logger
}

// FlowMesh is the high-level façade aggregating the flow registry and the
// execution engine.
type FlowMesh struct {
	opts     Options
	registry *loader.Registry
	runner   *runner.Runner
}

// New creates a new FlowMesh instance around the agent-invocation
// collaborator, with optional overrides.
func New(invoker core.Invoker, optFns ...func(o *Options)) *FlowMesh {
	opts := Options{
		Logger:   logging.NoOpLogger{},
		Activity: activity.NoOp{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	r := runner.New(invoker,
		runner.WithLogger(opts.Logger),
		runner.WithActivityLogger(opts.Activity),
	)

	return &FlowMesh{opts: opts, registry: loader.NewRegistry(), runner: r}
}

// RegisterFlow validates a definition and adds it to the registry.
func (m *FlowMesh) RegisterFlow(def *core.FlowDefinition) error {
	return m.registry.Register(def)
}

// LoadFlowFile parses and registers a single JSON or YAML flow definition.
func (m *FlowMesh) LoadFlowFile(path string) error {
	def, err := loader.LoadFile(path)
	if err != nil {
		return err
	}

	return m.registry.Register(def)
}

// LoadFlowDir loads every flow definition file found in dir and registers
// them all. Files that are not flow definitions (by extension) are skipped.
func (m *FlowMesh) LoadFlowDir(ctx context.Context, dir string) error {
	return m.registry.LoadDir(ctx, dir)
}

// Flow returns a registered definition by ID.
func (m *FlowMesh) Flow(id string) (*core.FlowDefinition, bool) {
	return m.registry.Get(id)
}

// FlowIDs lists the IDs of all registered flows in sorted order.
func (m *FlowMesh) FlowIDs() []string { return m.registry.IDs() }

// Execute runs a registered flow against the given user prompt and returns
// its result. Execution identifiers (trace, request) are freshly minted.
func (m *FlowMesh) Execute(ctx context.Context, flowID, userPrompt string) (*core.FlowResult, error) {
	def, ok := m.registry.Get(flowID)
	if !ok {
		return nil, fmt.Errorf("flow %q is not registered", flowID)
	}

	return m.runner.Execute(ctx, def, core.NewExecutionContext(userPrompt))
}

// ExecuteDefinition runs an ad-hoc definition without registering it. The
// definition is validated before any step executes.
func (m *FlowMesh) ExecuteDefinition(ctx context.Context, def *core.FlowDefinition, execCtx core.ExecutionContext) (*core.FlowResult, error) {
	return m.runner.Execute(ctx, def, execCtx)
}

// FinalOutput resolves the declared output step's content from a concluded
// run of the given flow.
func (m *FlowMesh) FinalOutput(flowID string, result *core.FlowResult) (string, error) {
	def, ok := m.registry.Get(flowID)
	if !ok {
		return "", fmt.Errorf("flow %q is not registered", flowID)
	}

	return runner.FinalOutput(def, result)
}
