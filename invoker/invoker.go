// Package invoker provides reference implementations of the core.Invoker
// collaborator: a scriptable in-memory mock for tests and examples, plus
// adapters over the official Anthropic and OpenAI clients in subpackages.
package invoker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/flowmesh/flowmesh/core"
)

// Mock is a lightweight in-memory Invoker useful for tests and examples.
// Responses are keyed by agent id; unknown agents echo a deterministic
// synthetic completion so flows remain runnable without any scripting.
type Mock struct {
	mu        sync.Mutex
	responses map[string]string
	failures  map[string]int
	errs      map[string]error
	latency   time.Duration
	calls     []MockCall
}

// MockCall records one Invoke observed by the mock.
type MockCall struct {
	AgentID string
	Input   string
	TraceID string
}

// NewMock constructs an empty mock invoker.
func NewMock() *Mock {
	return &Mock{
		responses: make(map[string]string),
		failures:  make(map[string]int),
		errs:      make(map[string]error),
	}
}

// AddResponse registers a deterministic canned completion for an agent id.
func (m *Mock) AddResponse(agentID, response string) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[agentID] = response
	return m
}

// FailTimes makes the next n calls for an agent fail with err before the
// canned response takes over. Useful for exercising retry paths.
func (m *Mock) FailTimes(agentID string, n int, err error) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[agentID] = n
	m.errs[agentID] = err
	return m
}

// AlwaysFail makes every call for an agent fail with err.
func (m *Mock) AlwaysFail(agentID string, err error) *Mock {
	return m.FailTimes(agentID, -1, err)
}

// WithLatency adds a fixed artificial delay to every invocation.
func (m *Mock) WithLatency(d time.Duration) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latency = d
	return m
}

// Calls returns a snapshot of every invocation observed so far.
func (m *Mock) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// Invoke implements core.Invoker.
func (m *Mock) Invoke(ctx context.Context, agentID, input string, execCtx core.ExecutionContext) (*core.Invocation, error) {
	m.mu.Lock()
	m.calls = append(m.calls, MockCall{AgentID: agentID, Input: input, TraceID: execCtx.TraceID})
	latency := m.latency
	remaining := m.failures[agentID]
	err := m.errs[agentID]
	if remaining > 0 {
		m.failures[agentID] = remaining - 1
	}
	response, scripted := m.responses[agentID]
	m.mu.Unlock()

	if latency > 0 {
		timer := time.NewTimer(latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if remaining != 0 && err != nil {
		return nil, err
	}

	if !scripted {
		response = fmt.Sprintf("[%s] %s", agentID, input)
	}

	return &core.Invocation{Content: response, Raw: map[string]any{"agent": agentID}}, nil
}
