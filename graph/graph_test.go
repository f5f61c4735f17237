package graph

import (
	"errors"
	"testing"

	"github.com/flowmesh/flowmesh/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func step(id string, deps ...string) core.StepDefinition {
	return core.StepDefinition{
		ID:        id,
		Name:      id,
		Agent:     "agent-" + id,
		DependsOn: deps,
		Input:     core.InputSpec{Source: core.SourceRequest, Transform: core.TransformPassthrough},
		Retry:     core.RetrySpec{MaxAttempts: 1},
	}
}

func definition(steps ...core.StepDefinition) *core.FlowDefinition {
	return &core.FlowDefinition{
		ID:       "flow-1",
		Name:     "Test Flow",
		Version:  "1.0",
		Steps:    steps,
		Settings: core.Settings{MaxParallelism: 2},
	}
}

func validationKind(t *testing.T, err error) ValidationKind {
	t.Helper()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "expected *ValidationError, got %v", err)
	return verr.Kind
}

func TestValidate_AcyclicDefinition(t *testing.T) {
	def := definition(
		step("fetch"),
		step("analyze", "fetch"),
		step("summarize", "analyze"),
		step("review", "fetch", "analyze"),
	)

	plan, err := Validate(def)
	require.NoError(t, err)
	assert.Equal(t, 4, plan.Len())

	// Every declared step appears exactly once in the topological order.
	seen := map[string]int{}
	for _, i := range plan.TopologicalOrder() {
		seen[plan.Step(i).ID]++
	}
	for _, s := range def.Steps {
		assert.Equal(t, 1, seen[s.ID], "step %s", s.ID)
	}

	// Dependencies always precede their dependents in the order.
	pos := map[string]int{}
	for at, i := range plan.TopologicalOrder() {
		pos[plan.Step(i).ID] = at
	}
	assert.Less(t, pos["fetch"], pos["analyze"])
	assert.Less(t, pos["analyze"], pos["summarize"])
	assert.Less(t, pos["analyze"], pos["review"])
}

func TestValidate_CycleRejected(t *testing.T) {
	def := definition(
		step("a", "b"),
		step("b", "a"),
	)

	plan, err := Validate(def)
	assert.Nil(t, plan)
	assert.Equal(t, KindCycle, validationKind(t, err))
}

func TestValidate_SelfDependencyRejected(t *testing.T) {
	def := definition(step("a", "a"))

	_, err := Validate(def)
	assert.Equal(t, KindCycle, validationKind(t, err))
}

func TestValidate_LongerCycleRejected(t *testing.T) {
	def := definition(
		step("a", "c"),
		step("b", "a"),
		step("c", "b"),
		step("standalone"),
	)

	_, err := Validate(def)
	assert.Equal(t, KindCycle, validationKind(t, err))
}

func TestValidate_UnknownDependency(t *testing.T) {
	def := definition(step("a", "ghost"))

	_, err := Validate(def)
	assert.Equal(t, KindUnknownReference, validationKind(t, err))
	assert.Contains(t, err.Error(), "ghost")
}

func TestValidate_UnknownAggregateSource(t *testing.T) {
	agg := step("merge", "a")
	agg.Input = core.InputSpec{
		Source:    core.SourceAggregate,
		Transform: core.TransformMergeAsContext,
		From:      []string{"a", "ghost"},
	}
	def := definition(step("a"), agg)

	_, err := Validate(def)
	assert.Equal(t, KindUnknownReference, validationKind(t, err))
}

func TestValidate_DuplicateStepID(t *testing.T) {
	def := definition(step("a"), step("a"))

	_, err := Validate(def)
	assert.Equal(t, KindDuplicateID, validationKind(t, err))
}

func TestValidate_EmptyAggregateFrom(t *testing.T) {
	agg := step("merge")
	agg.Input = core.InputSpec{Source: core.SourceAggregate, Transform: core.TransformPassthrough}
	def := definition(agg)

	_, err := Validate(def)
	assert.Equal(t, KindEmptyFrom, validationKind(t, err))
}

func TestValidate_UnknownOutputFrom(t *testing.T) {
	def := definition(step("a"))
	def.Output = core.OutputSpec{From: "ghost"}

	_, err := Validate(def)
	assert.Equal(t, KindUnknownReference, validationKind(t, err))
}

func TestValidate_FromContributesDependencyEdges(t *testing.T) {
	// "merge" never names "b" in dependsOn, yet reading b's output must make
	// it an effective dependency so the scheduler orders them correctly.
	agg := step("merge", "a")
	agg.Input = core.InputSpec{
		Source:    core.SourceAggregate,
		Transform: core.TransformPassthrough,
		From:      []string{"a", "b"},
	}
	def := definition(step("a"), step("b"), agg)

	plan, err := Validate(def)
	require.NoError(t, err)

	mi, ok := plan.Index("merge")
	require.True(t, ok)

	ids := make([]string, 0, 2)
	for _, dep := range plan.Dependencies(mi) {
		ids = append(ids, plan.Step(dep).ID)
	}
	assert.ElementsMatch(t, []string{"a", "b"}, ids)
}

func TestValidate_EmptyFlow(t *testing.T) {
	plan, err := Validate(definition())
	require.NoError(t, err)
	assert.Equal(t, 0, plan.Len())
}
