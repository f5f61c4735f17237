package core

import "context"

// Invoker is the external collaborator that performs the actual capability
// call a step represents. The engine treats it as an opaque, possibly slow,
// possibly failing call; it owns no knowledge of prompts or model selection.
//
// Implementations must honor ctx cancellation: the engine cancels in-flight
// invocations when the global flow timeout fires.
type Invoker interface {
	Invoke(ctx context.Context, agentID, input string, execCtx ExecutionContext) (*Invocation, error)
}

// InvokerFunc adapts a plain function to the Invoker interface.
type InvokerFunc func(ctx context.Context, agentID, input string, execCtx ExecutionContext) (*Invocation, error)

// Invoke implements Invoker.
func (f InvokerFunc) Invoke(ctx context.Context, agentID, input string, execCtx ExecutionContext) (*Invocation, error) {
	return f(ctx, agentID, input, execCtx)
}
