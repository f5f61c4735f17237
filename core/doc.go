// Package core provides the foundational domain types and interfaces used by
// FlowMesh. It defines the core abstractions for:
//
//   - FlowDefinition / StepDefinition (the declarative shape of a flow)
//   - ExecutionContext (the per-run request scope)
//   - StepResult / FlowResult (the structured outcome of a run)
//   - Invoker (the external collaborator performing capability calls)
//
// The package intentionally keeps implementation concerns (scheduling, input
// aggregation, retry handling) out of scope, exposing small interfaces and
// immutable value types so the surrounding engine packages stay decoupled.
package core
