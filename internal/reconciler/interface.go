package reconciler

import (
	"context"

	"github.com/mvachon/purefa/internal/config"
	"github.com/mvachon/purefa/internal/model"
)

// Reconciler defines the convergence contract every resource type
// implements: a strictly read-only Evaluate phase that classifies the
// observed state, and an Apply phase that performs the minimal call
// sequence when Evaluate reported action is required.
//
// Implementations must:
//   - re-read observed state at the start of every Evaluate; nothing is
//     cached between invocations
//   - raise version gates before any mutating call
//   - be idempotent: applying twice with the same plan converges once and
//     then reports no further action
type Reconciler interface {
	// Metadata returns the reconciler's identity and version floor.
	Metadata() Metadata

	// Schema returns the struct that defines the YAML task schema for this
	// resource type.
	Schema() any

	// Evaluate assesses the observed state of the declared resource
	// without mutating anything, and reports what Apply would do.
	Evaluate(ctx context.Context, task *config.Task) (*model.EvaluationResult, error)

	// Apply performs the mutations decided by Evaluate. Only called when
	// Evaluate reported RequiresAction and dry-run is off.
	Apply(ctx context.Context, evaluation *model.EvaluationResult, task *config.Task) (*model.TaskResult, error)
}

// Metadata describes one reconciler.
type Metadata struct {
	// Name is the task type this reconciler serves.
	Name string
	// Version is the reconciler implementation version.
	Version string
	// MinRESTVersion is the lowest array REST version the base feature set
	// needs. Individual attributes may gate higher.
	MinRESTVersion string
	// Description is a one-line summary for listings.
	Description string
}

// Validate checks that metadata is usable for registration.
func (m Metadata) Validate() error {
	if m.Name == "" {
		return errEmptyName
	}
	return nil
}
