package flowmesh

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowmesh/flowmesh/activity"
	"github.com/flowmesh/flowmesh/core"
	"github.com/flowmesh/flowmesh/invoker"
)

func twoStepFlow(id string) *core.FlowDefinition {
	return &core.FlowDefinition{
		ID:      id,
		Version: "1.0.0",
		Steps: []core.StepDefinition{
			{
				ID:    "draft",
				Agent: "drafter",
				Input: core.InputSpec{Source: core.SourceRequest},
				Retry: core.RetrySpec{MaxAttempts: 1},
			},
			{
				ID:        "polish",
				Agent:     "polisher",
				DependsOn: []string{"draft"},
				Input: core.InputSpec{
					Source:    core.SourceAggregate,
					Transform: core.TransformPassthrough,
					From:      []string{"draft"},
				},
				Retry: core.RetrySpec{MaxAttempts: 1},
			},
		},
		Output:   core.OutputSpec{From: "polish"},
		Settings: core.Settings{MaxParallelism: 2},
	}
}

func TestFlowMesh_RegisterAndExecute(t *testing.T) {
	mock := invoker.NewMock().
		AddResponse("drafter", "rough draft").
		AddResponse("polisher", "polished text")

	journal := activity.NewMemorySink()
	mesh := New(mock, func(o *Options) { o.Activity = journal })

	require.NoError(t, mesh.RegisterFlow(twoStepFlow("writing")))
	assert.Equal(t, []string{"writing"}, mesh.FlowIDs())

	result, err := mesh.Execute(context.Background(), "writing", "write about tides")
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Len(t, result.StepResults, 2)

	out, err := mesh.FinalOutput("writing", result)
	require.NoError(t, err)
	assert.Equal(t, "polished text", out)

	assert.NotEmpty(t, journal.ByAction(activity.ActionFlowEnd))
}

func TestFlowMesh_ExecuteUnknownFlow(t *testing.T) {
	mesh := New(invoker.NewMock())

	_, err := mesh.Execute(context.Background(), "nope", "prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not registered")

	_, err = mesh.FinalOutput("nope", &core.FlowResult{})
	require.Error(t, err)
}

func TestFlowMesh_ExecuteDefinition(t *testing.T) {
	mock := invoker.NewMock().
		AddResponse("drafter", "rough draft").
		AddResponse("polisher", "polished text")
	mesh := New(mock)

	def := twoStepFlow("adhoc")
	result, err := mesh.ExecuteDefinition(context.Background(), def, core.NewExecutionContext("hi"))
	require.NoError(t, err)
	assert.True(t, result.Success)

	// ad-hoc execution does not register the definition
	_, ok := mesh.Flow("adhoc")
	assert.False(t, ok)
}

func TestFlowMesh_LoadFlowFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "echo.yaml")
	doc := `id: echo
version: "1.0.0"
steps:
  - id: answer
    agent: echo-agent
output:
  from: answer
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	mesh := New(invoker.NewMock())
	require.NoError(t, mesh.LoadFlowFile(path))

	def, ok := mesh.Flow("echo")
	require.True(t, ok)
	assert.Equal(t, core.SourceRequest, def.Steps[0].Input.Source)
}

func TestFlowMesh_LoadFlowDir(t *testing.T) {
	dir := t.TempDir()
	doc := `{"id":"json-flow","version":"1.0.0","steps":[{"id":"a","agent":"x"}],"output":{"from":"a"}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "flow.json"), []byte(doc), 0o600))

	mesh := New(invoker.NewMock())
	require.NoError(t, mesh.LoadFlowDir(context.Background(), dir))
	assert.Equal(t, []string{"json-flow"}, mesh.FlowIDs())
}
