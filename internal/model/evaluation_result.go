package model

// VerificationStatus describes a resource's current state relative to the
// declared state.
type VerificationStatus string

const (
	// StatusSatisfied means the observed state already matches the plan.
	StatusSatisfied VerificationStatus = "satisfied"
	// StatusMissing means the resource does not exist but should.
	StatusMissing VerificationStatus = "missing"
	// StatusDrifted means the resource exists with differing attributes,
	// or exists when the plan declares it absent.
	StatusDrifted VerificationStatus = "drifted"
	// StatusBlocked means the state could not be assessed.
	StatusBlocked VerificationStatus = "blocked"
	// StatusUnknown means evaluation produced no usable assessment.
	StatusUnknown VerificationStatus = "unknown"
)

// IsValid reports whether the status is one of the recognised values.
func (s VerificationStatus) IsValid() bool {
	switch s {
	case StatusSatisfied, StatusMissing, StatusDrifted, StatusBlocked, StatusUnknown:
		return true
	}
	return false
}

// Action identifies the remote call sequence Apply would perform.
type Action string

const (
	ActionNone   Action = "none"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// EvaluationResult contains the outcome of evaluating a task's observed
// state against its declared state. Returned by Reconciler.Evaluate() and
// passed to Reconciler.Apply() when action is required.
type EvaluationResult struct {
	// TaskID is the unique identifier of the evaluated task.
	TaskID string

	// CurrentState classifies the observed state relative to the plan.
	CurrentState VerificationStatus

	// RequiresAction indicates whether Apply() should be called.
	RequiresAction bool

	// Action is the call sequence Apply() would perform. ActionNone when
	// RequiresAction is false.
	Action Action

	// Message is a human-readable description of the assessment.
	Message string

	// Diff optionally describes the attribute-level changes that would be
	// applied, for dry-run previews.
	Diff string

	// InternalData is opaque data passed from Evaluate() to Apply() so the
	// apply phase does not re-fetch what evaluation already observed.
	InternalData any
}
