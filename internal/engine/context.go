package engine

import (
	"context"

	"github.com/mvachon/purefa/internal/config"
	"github.com/mvachon/purefa/internal/logger"
	"github.com/mvachon/purefa/internal/reconciler"
)

// ExecutionContext carries the state for one convergence run. DryRun is
// the single side-effect gate: the executor consults it once per task
// before any mutating phase, and it is never global state.
type ExecutionContext struct {
	Plan            *config.Plan
	Registry        *reconciler.Registry
	DryRun          bool
	ContinueOnError bool
	Logger          *logger.Logger
	Context         context.Context
}
