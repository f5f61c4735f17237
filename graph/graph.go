// Package graph validates a flow definition as a directed acyclic graph and
// produces the execution plan the scheduler runs against.
//
// Validation is fail-closed: it runs once, synchronously, before any step
// executes, and rejects cycles, references to undeclared steps, duplicate
// step ids and aggregate inputs with an empty source list.
package graph

import (
	"fmt"

	"github.com/flowmesh/flowmesh/core"
)

// ExecutionPlan is the validated, arena-indexed view of a flow definition.
// Steps keep their declaration order; dependency edges are stored as integer
// indices into that order. A plan is immutable after construction.
type ExecutionPlan struct {
	def   *core.FlowDefinition
	index map[string]int
	// deps holds the effective dependencies of each step: the union of its
	// dependsOn set and its input.from list. A step only becomes ready once
	// every step it reads from is terminal.
	deps       [][]int
	dependents [][]int
	order      []int
}

// Definition returns the validated flow definition.
func (p *ExecutionPlan) Definition() *core.FlowDefinition { return p.def }

// Len returns the number of steps in the plan.
func (p *ExecutionPlan) Len() int { return len(p.def.Steps) }

// Step returns the step declaration at the given arena index.
func (p *ExecutionPlan) Step(i int) *core.StepDefinition { return &p.def.Steps[i] }

// Index returns the arena index for a step id. The second return is false
// for undeclared ids.
func (p *ExecutionPlan) Index(id string) (int, bool) {
	i, ok := p.index[id]
	return i, ok
}

// Dependencies returns the arena indices of a step's effective dependencies.
func (p *ExecutionPlan) Dependencies(i int) []int { return p.deps[i] }

// Dependents returns the arena indices of the steps depending on step i.
func (p *ExecutionPlan) Dependents(i int) []int { return p.dependents[i] }

// TopologicalOrder returns one valid execution order (ties broken by
// declaration order). Useful for reporting; the scheduler recomputes
// readiness dynamically instead of walking this order.
func (p *ExecutionPlan) TopologicalOrder() []int {
	out := make([]int, len(p.order))
	copy(out, p.order)
	return out
}

// Validate parses the definition's step declarations into an adjacency
// structure and rejects structurally invalid flows. It returns a
// *ValidationError describing the first defect found.
func Validate(def *core.FlowDefinition) (*ExecutionPlan, error) {
	n := len(def.Steps)

	plan := &ExecutionPlan{
		def:        def,
		index:      make(map[string]int, n),
		deps:       make([][]int, n),
		dependents: make([][]int, n),
	}

	for i := range def.Steps {
		step := &def.Steps[i]
		if _, exists := plan.index[step.ID]; exists {
			return nil, &ValidationError{
				Kind:   KindDuplicateID,
				StepID: step.ID,
				Detail: fmt.Sprintf("step id %q declared more than once", step.ID),
			}
		}
		plan.index[step.ID] = i
	}

	for i := range def.Steps {
		step := &def.Steps[i]

		edges, err := effectiveDependencies(plan, step)
		if err != nil {
			return nil, err
		}
		plan.deps[i] = edges
		for _, dep := range edges {
			plan.dependents[dep] = append(plan.dependents[dep], i)
		}
	}

	if def.Output.From != "" {
		if _, ok := plan.index[def.Output.From]; !ok {
			return nil, &ValidationError{
				Kind:   KindUnknownReference,
				Detail: fmt.Sprintf("output.from references undeclared step %q", def.Output.From),
			}
		}
	}

	order, err := topologicalSort(plan)
	if err != nil {
		return nil, err
	}
	plan.order = order

	return plan, nil
}

// effectiveDependencies resolves a step's dependsOn set and aggregate from
// list into deduplicated arena indices.
func effectiveDependencies(plan *ExecutionPlan, step *core.StepDefinition) ([]int, error) {
	self := plan.index[step.ID]
	seen := make(map[int]bool)
	var edges []int

	add := func(field, id string) error {
		dep, ok := plan.index[id]
		if !ok {
			return &ValidationError{
				Kind:   KindUnknownReference,
				StepID: step.ID,
				Detail: fmt.Sprintf("%s references undeclared step %q", field, id),
			}
		}
		if dep == self {
			return &ValidationError{
				Kind:   KindCycle,
				StepID: step.ID,
				Detail: fmt.Sprintf("step %q depends on itself", step.ID),
			}
		}
		if !seen[dep] {
			seen[dep] = true
			edges = append(edges, dep)
		}
		return nil
	}

	for _, id := range step.DependsOn {
		if err := add("dependsOn", id); err != nil {
			return nil, err
		}
	}

	if step.Input.Source == core.SourceAggregate {
		if len(step.Input.From) == 0 {
			return nil, &ValidationError{
				Kind:   KindEmptyFrom,
				StepID: step.ID,
				Detail: "aggregate input declares no source steps",
			}
		}
		for _, id := range step.Input.From {
			if err := add("input.from", id); err != nil {
				return nil, err
			}
		}
	}

	return edges, nil
}

// topologicalSort runs Kahn's algorithm over the arena: repeatedly remove
// in-degree-zero nodes in declaration order. Iterative on purpose so
// pathological inputs cannot exhaust the stack.
func topologicalSort(plan *ExecutionPlan) ([]int, error) {
	n := len(plan.deps)
	inDegree := make([]int, n)
	for i := range plan.deps {
		inDegree[i] = len(plan.deps[i])
	}

	queue := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if inDegree[i] == 0 {
			queue = append(queue, i)
		}
	}

	order := make([]int, 0, n)
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		order = append(order, node)

		for _, dep := range plan.dependents[node] {
			inDegree[dep]--
			if inDegree[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}

	if len(order) != n {
		remaining := make([]string, 0, n-len(order))
		for i := 0; i < n; i++ {
			if inDegree[i] > 0 {
				remaining = append(remaining, plan.def.Steps[i].ID)
			}
		}
		return nil, &ValidationError{
			Kind:   KindCycle,
			Detail: fmt.Sprintf("dependency cycle involving steps %v", remaining),
		}
	}

	return order, nil
}
