// Package runner implements the core orchestration layer for FlowMesh.
//
// The Runner drives the complete lifecycle of one flow run: it validates the
// definition as a DAG (fail closed), delegates to a single-goroutine
// scheduler that dispatches ready steps up to the configured parallelism,
// enforces the global timeout and fail-fast policy, and assembles the final
// FlowResult with exactly one entry per declared step.
//
// # Responsibilities (abridged)
//   - Graph validation before any side effect
//   - Ready-set computation and deterministic dispatch ordering
//   - Ownership of the write-once step-output store
//   - Cancellation (global timeout, fail-fast) and drain semantics
//
// See scheduler.go for the coordination loop and runner.go for the public
// entry point.
package runner
