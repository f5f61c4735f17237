package invoker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/flowmesh/flowmesh/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMock_CannedResponse(t *testing.T) {
	m := NewMock().AddResponse("scanner", "no findings")

	inv, err := m.Invoke(context.Background(), "scanner", "scan it", core.ExecutionContext{TraceID: "t1"})
	require.NoError(t, err)
	assert.Equal(t, "no findings", inv.Content)

	calls := m.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "scanner", calls[0].AgentID)
	assert.Equal(t, "scan it", calls[0].Input)
	assert.Equal(t, "t1", calls[0].TraceID)
}

func TestMock_UnknownAgentEchoes(t *testing.T) {
	m := NewMock()

	inv, err := m.Invoke(context.Background(), "ghost", "hello", core.ExecutionContext{})
	require.NoError(t, err)
	assert.Equal(t, "[ghost] hello", inv.Content)
}

func TestMock_FailTimesThenSucceeds(t *testing.T) {
	boom := errors.New("rate limited")
	m := NewMock().AddResponse("flaky", "ok").FailTimes("flaky", 2, boom)

	for i := 0; i < 2; i++ {
		_, err := m.Invoke(context.Background(), "flaky", "x", core.ExecutionContext{})
		assert.ErrorIs(t, err, boom)
	}

	inv, err := m.Invoke(context.Background(), "flaky", "x", core.ExecutionContext{})
	require.NoError(t, err)
	assert.Equal(t, "ok", inv.Content)
}

func TestMock_AlwaysFail(t *testing.T) {
	boom := errors.New("down")
	m := NewMock().AlwaysFail("broken", boom)

	for i := 0; i < 3; i++ {
		_, err := m.Invoke(context.Background(), "broken", "x", core.ExecutionContext{})
		assert.ErrorIs(t, err, boom)
	}
}

func TestMock_LatencyHonorsContext(t *testing.T) {
	m := NewMock().WithLatency(time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := m.Invoke(ctx, "slow", "x", core.ExecutionContext{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}
