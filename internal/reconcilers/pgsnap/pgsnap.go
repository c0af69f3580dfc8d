// Package pgsnap reconciles protection-group snapshots.
package pgsnap

import (
	"context"
	"fmt"

	"github.com/mvachon/purefa/internal/config"
	"github.com/mvachon/purefa/internal/flasharray"
	"github.com/mvachon/purefa/internal/model"
	"github.com/mvachon/purefa/internal/reconciler"
	purefaerrors "github.com/mvachon/purefa/pkg/errors"
)

// API is the slice of the array client this reconciler needs.
type API interface {
	RESTVersion() string
	GetProtectionGroup(ctx context.Context, name string) (*flasharray.ProtectionGroup, error)
	GetProtectionGroupSnapshot(ctx context.Context, name string) (*flasharray.ProtectionGroupSnapshot, error)
	CreateProtectionGroupSnapshot(ctx context.Context, group, suffix string, applyRetention bool) (*flasharray.ProtectionGroupSnapshot, error)
	DestroyProtectionGroupSnapshot(ctx context.Context, name string) error
	EradicateProtectionGroupSnapshot(ctx context.Context, name string) error
}

var _ API = (*flasharray.Client)(nil)

// Reconciler converges protection-group snapshots.
type Reconciler struct {
	client API
}

var _ reconciler.Reconciler = (*Reconciler)(nil)

func New(client API) *Reconciler {
	return &Reconciler{client: client}
}

func (r *Reconciler) Metadata() reconciler.Metadata {
	return reconciler.Metadata{
		Name:           "pgsnap",
		Version:        "1.0.0",
		MinRESTVersion: "2.0",
		Description:    "Manages protection-group snapshots",
	}
}

func (r *Reconciler) Schema() any {
	return config.PgSnapTask{}
}

type plan struct {
	create    bool
	destroy   bool
	eradicate bool
}

func snapshotName(cfg *config.PgSnapTask) string {
	return cfg.Group + "." + cfg.Suffix
}

func (r *Reconciler) Evaluate(ctx context.Context, task *config.Task) (*model.EvaluationResult, error) {
	cfg := task.PgSnap
	if cfg == nil {
		return nil, purefaerrors.NewValidationError(task.ID, "pgsnap task body is missing", nil)
	}

	if task.State == config.StateAbsent {
		return r.evaluateAbsent(ctx, task, cfg)
	}
	return r.evaluatePresent(ctx, task, cfg)
}

func (r *Reconciler) evaluatePresent(ctx context.Context, task *config.Task, cfg *config.PgSnapTask) (*model.EvaluationResult, error) {
	group, err := r.client.GetProtectionGroup(ctx, cfg.Group)
	if err != nil {
		return nil, err
	}
	if group == nil {
		return nil, purefaerrors.NewValidationError(task.ID,
			fmt.Sprintf("protection group %s does not exist", cfg.Group), nil)
	}

	snap, err := r.client.GetProtectionGroupSnapshot(ctx, snapshotName(cfg))
	if err != nil {
		return nil, err
	}

	// Snapshots are immutable; an existing one, destroyed or not, blocks
	// reuse of the suffix.
	if snap != nil {
		if snap.Destroyed {
			return nil, purefaerrors.NewValidationError(task.ID,
				fmt.Sprintf("snapshot %s exists in the destroyed bucket; eradicate it or pick another suffix", snap.Name), nil)
		}
		return &model.EvaluationResult{
			TaskID:       task.ID,
			CurrentState: model.StatusSatisfied,
			Action:       model.ActionNone,
			Message:      fmt.Sprintf("snapshot %s already exists", snap.Name),
		}, nil
	}

	return &model.EvaluationResult{
		TaskID:         task.ID,
		CurrentState:   model.StatusMissing,
		RequiresAction: true,
		Action:         model.ActionCreate,
		Message:        fmt.Sprintf("snapshot %s missing, will create", snapshotName(cfg)),
		InternalData:   &plan{create: true},
	}, nil
}

func (r *Reconciler) evaluateAbsent(ctx context.Context, task *config.Task, cfg *config.PgSnapTask) (*model.EvaluationResult, error) {
	snap, err := r.client.GetProtectionGroupSnapshot(ctx, snapshotName(cfg))
	if err != nil {
		return nil, err
	}

	if snap == nil || (snap.Destroyed && !cfg.Eradicate) {
		return &model.EvaluationResult{
			TaskID:       task.ID,
			CurrentState: model.StatusSatisfied,
			Action:       model.ActionNone,
			Message:      fmt.Sprintf("snapshot %s already absent", snapshotName(cfg)),
		}, nil
	}

	evalPlan := &plan{destroy: !snap.Destroyed, eradicate: cfg.Eradicate}
	verb := "destroy"
	if cfg.Eradicate {
		verb = "destroy and eradicate"
		if snap.Destroyed {
			verb = "eradicate"
		}
	}

	return &model.EvaluationResult{
		TaskID:         task.ID,
		CurrentState:   model.StatusDrifted,
		RequiresAction: true,
		Action:         model.ActionDelete,
		Message:        fmt.Sprintf("snapshot %s present, will %s", snapshotName(cfg), verb),
		InternalData:   evalPlan,
	}, nil
}

func (r *Reconciler) Apply(ctx context.Context, evaluation *model.EvaluationResult, task *config.Task) (*model.TaskResult, error) {
	cfg := task.PgSnap
	evalPlan, ok := evaluation.InternalData.(*plan)
	if !ok || evalPlan == nil {
		return nil, purefaerrors.NewValidationError(task.ID, "evaluation data is missing", nil)
	}

	switch {
	case evalPlan.create:
		if _, err := r.client.CreateProtectionGroupSnapshot(ctx, cfg.Group, cfg.Suffix, cfg.ApplyRetention); err != nil {
			return nil, err
		}
	case evalPlan.destroy || evalPlan.eradicate:
		if evalPlan.destroy {
			if err := r.client.DestroyProtectionGroupSnapshot(ctx, snapshotName(cfg)); err != nil {
				return nil, err
			}
		}
		if evalPlan.eradicate {
			if err := r.client.EradicateProtectionGroupSnapshot(ctx, snapshotName(cfg)); err != nil {
				return nil, err
			}
		}
	}

	return &model.TaskResult{
		TaskID:  task.ID,
		Status:  model.StatusSuccess,
		Changed: true,
		Message: evaluation.Message,
	}, nil
}
