package graph

// ValidationKind classifies structural defects in a flow definition.
type ValidationKind string

const (
	// KindCycle marks a dependency cycle (including self-reference).
	KindCycle ValidationKind = "cycle"
	// KindUnknownReference marks a dependsOn, input.from or output.from
	// reference to an undeclared step id.
	KindUnknownReference ValidationKind = "unknown_reference"
	// KindDuplicateID marks two step declarations sharing an id.
	KindDuplicateID ValidationKind = "duplicate_id"
	// KindEmptyFrom marks an aggregate input with no source steps.
	KindEmptyFrom ValidationKind = "empty_from"
)

// ValidationError describes the first structural defect found while
// validating a flow definition. It is raised before any step executes and is
// the only error kind that escapes a run as a return value.
type ValidationError struct {
	Kind   ValidationKind
	StepID string
	Detail string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.StepID != "" {
		return "flow validation failed (" + string(e.Kind) + "): step " + e.StepID + ": " + e.Detail
	}
	return "flow validation failed (" + string(e.Kind) + "): " + e.Detail
}
