// Package volumegroup reconciles volume groups and their QoS and
// priority settings.
package volumegroup

import (
	"context"
	"fmt"
	"strings"

	"github.com/mvachon/purefa/internal/config"
	"github.com/mvachon/purefa/internal/flasharray"
	"github.com/mvachon/purefa/internal/model"
	"github.com/mvachon/purefa/internal/reconciler"
	"github.com/mvachon/purefa/internal/units"
	purefaerrors "github.com/mvachon/purefa/pkg/errors"
)

const (
	// priorityVersion gates DMM priority adjustments.
	priorityVersion = "2.13"
)

// API is the slice of the array client this reconciler needs.
type API interface {
	RESTVersion() string
	GetVolumeGroup(ctx context.Context, name string) (*flasharray.VolumeGroup, error)
	CreateVolumeGroup(ctx context.Context, name string, body flasharray.VolumeGroupPost) (*flasharray.VolumeGroup, error)
	PatchVolumeGroup(ctx context.Context, name string, patch flasharray.VolumeGroupPatch) (*flasharray.VolumeGroup, error)
	DestroyVolumeGroup(ctx context.Context, name string) error
	EradicateVolumeGroup(ctx context.Context, name string) error
}

var _ API = (*flasharray.Client)(nil)

// Reconciler converges volume groups.
type Reconciler struct {
	client API
}

var _ reconciler.Reconciler = (*Reconciler)(nil)

func New(client API) *Reconciler {
	return &Reconciler{client: client}
}

func (r *Reconciler) Metadata() reconciler.Metadata {
	return reconciler.Metadata{
		Name:           "volumegroup",
		Version:        "1.0.0",
		MinRESTVersion: "2.0",
		Description:    "Manages volume groups, QoS limits, and DMM priority",
	}
}

func (r *Reconciler) Schema() any {
	return config.VolumeGroupTask{}
}

type plan struct {
	create    *flasharray.VolumeGroupPost
	patch     *flasharray.VolumeGroupPatch
	destroy   bool
	eradicate bool
}

func (r *Reconciler) Evaluate(ctx context.Context, task *config.Task) (*model.EvaluationResult, error) {
	cfg := task.VolumeGroup
	if cfg == nil {
		return nil, purefaerrors.NewValidationError(task.ID, "volumegroup task body is missing", nil)
	}

	if cfg.PriorityOperator != "" {
		if err := reconciler.RequireVersion(r.client, "volume group priority adjustment", priorityVersion); err != nil {
			return nil, err
		}
	}

	if task.State == config.StateAbsent {
		return r.evaluateAbsent(ctx, task, cfg)
	}
	return r.evaluatePresent(ctx, task, cfg)
}

func (r *Reconciler) evaluatePresent(ctx context.Context, task *config.Task, cfg *config.VolumeGroupTask) (*model.EvaluationResult, error) {
	observed, err := r.client.GetVolumeGroup(ctx, cfg.Name)
	if err != nil {
		return nil, err
	}

	qos := desiredQoS(cfg)
	priority := desiredPriority(cfg)

	if observed == nil {
		return &model.EvaluationResult{
			TaskID:         task.ID,
			CurrentState:   model.StatusMissing,
			RequiresAction: true,
			Action:         model.ActionCreate,
			Message:        fmt.Sprintf("volume group %s missing, will create", cfg.Name),
			InternalData: &plan{
				create: &flasharray.VolumeGroupPost{QoS: qos, PriorityAdjustment: priority},
			},
		}, nil
	}

	var diffs []string
	patch := &flasharray.VolumeGroupPatch{}

	if observed.Destroyed {
		recovered := false
		patch.Destroyed = &recovered
		diffs = append(diffs, "recover from destroyed")
	}
	if qosDrifted(observed.QoS, qos) {
		patch.QoS = qos
		if patch.QoS == nil {
			patch.QoS = &flasharray.QoS{}
		}
		diffs = append(diffs, "qos limits")
	}
	if priorityDrifted(observed.PriorityAdjustment, priority) {
		patch.PriorityAdjustment = priority
		diffs = append(diffs, "priority adjustment")
	}

	if len(diffs) == 0 {
		return &model.EvaluationResult{
			TaskID:       task.ID,
			CurrentState: model.StatusSatisfied,
			Action:       model.ActionNone,
			Message:      fmt.Sprintf("volume group %s already converged", cfg.Name),
		}, nil
	}

	return &model.EvaluationResult{
		TaskID:         task.ID,
		CurrentState:   model.StatusDrifted,
		RequiresAction: true,
		Action:         model.ActionUpdate,
		Message:        fmt.Sprintf("volume group %s drifted, will update", cfg.Name),
		Diff:           strings.Join(diffs, "\n"),
		InternalData:   &plan{patch: patch},
	}, nil
}

func (r *Reconciler) evaluateAbsent(ctx context.Context, task *config.Task, cfg *config.VolumeGroupTask) (*model.EvaluationResult, error) {
	observed, err := r.client.GetVolumeGroup(ctx, cfg.Name)
	if err != nil {
		return nil, err
	}

	if observed == nil || (observed.Destroyed && !cfg.Eradicate) {
		return &model.EvaluationResult{
			TaskID:       task.ID,
			CurrentState: model.StatusSatisfied,
			Action:       model.ActionNone,
			Message:      fmt.Sprintf("volume group %s already absent", cfg.Name),
		}, nil
	}

	evalPlan := &plan{destroy: !observed.Destroyed, eradicate: cfg.Eradicate}
	verb := "destroy"
	if cfg.Eradicate {
		verb = "destroy and eradicate"
		if observed.Destroyed {
			verb = "eradicate"
		}
	}

	return &model.EvaluationResult{
		TaskID:         task.ID,
		CurrentState:   model.StatusDrifted,
		RequiresAction: true,
		Action:         model.ActionDelete,
		Message:        fmt.Sprintf("volume group %s present, will %s", cfg.Name, verb),
		InternalData:   evalPlan,
	}, nil
}

func (r *Reconciler) Apply(ctx context.Context, evaluation *model.EvaluationResult, task *config.Task) (*model.TaskResult, error) {
	cfg := task.VolumeGroup
	evalPlan, ok := evaluation.InternalData.(*plan)
	if !ok || evalPlan == nil {
		return nil, purefaerrors.NewValidationError(task.ID, "evaluation data is missing", nil)
	}

	switch {
	case evalPlan.create != nil:
		if _, err := r.client.CreateVolumeGroup(ctx, cfg.Name, *evalPlan.create); err != nil {
			return nil, err
		}
	case evalPlan.destroy || evalPlan.eradicate:
		if evalPlan.destroy {
			if err := r.client.DestroyVolumeGroup(ctx, cfg.Name); err != nil {
				return nil, err
			}
		}
		if evalPlan.eradicate {
			if err := r.client.EradicateVolumeGroup(ctx, cfg.Name); err != nil {
				return nil, err
			}
		}
	default:
		if evalPlan.patch != nil {
			if _, err := r.client.PatchVolumeGroup(ctx, cfg.Name, *evalPlan.patch); err != nil {
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

func desiredQoS(cfg *config.VolumeGroupTask) *flasharray.QoS {
	if cfg.BandwidthLimit == "" && cfg.IopsLimit == "" {
		return nil
	}
	return &flasharray.QoS{
		BandwidthLimit: units.ParseSize(cfg.BandwidthLimit),
		IopsLimit:      units.ParseCount(cfg.IopsLimit),
	}
}

func desiredPriority(cfg *config.VolumeGroupTask) *flasharray.PriorityAdjustment {
	if cfg.PriorityOperator == "" {
		return nil
	}
	return &flasharray.PriorityAdjustment{
		PriorityAdjustmentOperator: cfg.PriorityOperator,
		PriorityAdjustmentValue:    cfg.PriorityValue,
	}
}

func qosDrifted(observed, desired *flasharray.QoS) bool {
	if desired == nil {
		return false
	}
	if observed == nil {
		return desired.BandwidthLimit != 0 || desired.IopsLimit != 0
	}
	return observed.BandwidthLimit != desired.BandwidthLimit || observed.IopsLimit != desired.IopsLimit
}

func priorityDrifted(observed, desired *flasharray.PriorityAdjustment) bool {
	if desired == nil {
		return false
	}
	if observed == nil {
		return true
	}
	return observed.PriorityAdjustmentOperator != desired.PriorityAdjustmentOperator ||
		observed.PriorityAdjustmentValue != desired.PriorityAdjustmentValue
}
