// Package volume converges block volumes: size, QoS limits, volume-group
// membership, rename, and destroy/eradicate lifecycle.
package volume

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
	// qosVersion gates bandwidth and IOPS limits.
	qosVersion = "2.2"
)

// API is the slice of the array client this reconciler needs.
type API interface {
	RESTVersion() string
	GetVolume(ctx context.Context, name string) (*flasharray.Volume, error)
	CreateVolume(ctx context.Context, name string, body flasharray.VolumeCreate) (*flasharray.Volume, error)
	PatchVolume(ctx context.Context, name string, patch flasharray.VolumePatch) (*flasharray.Volume, error)
	MoveVolume(ctx context.Context, name, volumeGroup string) (*flasharray.Volume, error)
	DestroyVolume(ctx context.Context, name string) error
	EradicateVolume(ctx context.Context, name string) error
}

var _ API = (*flasharray.Client)(nil)

// Reconciler converges one declared volume per invocation.
type Reconciler struct {
	client API
}

// New creates a volume reconciler bound to an array client.
func New(client API) *Reconciler {
	return &Reconciler{client: client}
}

var _ reconciler.Reconciler = (*Reconciler)(nil)

func (r *Reconciler) Metadata() reconciler.Metadata {
	return reconciler.Metadata{
		Name:           "volume",
		Version:        "1.0.0",
		MinRESTVersion: "2.0",
		Description:    "Manages block volumes, their QoS limits, and volume group membership.",
	}
}

func (r *Reconciler) Schema() any {
	return config.VolumeTask{}
}

// plan is the evaluation outcome handed from Evaluate to Apply.
type plan struct {
	create    *flasharray.VolumeCreate
	patch     *flasharray.VolumePatch
	moveTo    *string
	renameTo  string
	destroy   bool
	eradicate bool
}

func (r *Reconciler) Evaluate(ctx context.Context, task *config.Task) (*model.EvaluationResult, error) {
	cfg := task.Volume
	if cfg == nil {
		return nil, purefaerrors.NewValidationError(task.ID, "volume task body is missing", nil)
	}

	if cfg.BandwidthLimit != "" || cfg.IopsLimit != "" {
		if err := reconciler.RequireVersion(r.client, "volume QoS limits", qosVersion); err != nil {
			return nil, err
		}
	}

	switch task.State {
	case config.StateRename:
		return r.evaluateRename(ctx, task, cfg)
	case config.StateAbsent:
		return r.evaluateAbsent(ctx, task, cfg)
	default:
		return r.evaluatePresent(ctx, task, cfg)
	}
}

func (r *Reconciler) evaluatePresent(ctx context.Context, task *config.Task, cfg *config.VolumeTask) (*model.EvaluationResult, error) {
	size := units.ParseSize(cfg.Size)
	if size == 0 {
		return nil, purefaerrors.NewValidationError(task.ID, fmt.Sprintf("invalid volume size %q", cfg.Size), nil)
	}

	observed, err := r.client.GetVolume(ctx, cfg.Name)
	if err != nil {
		return nil, err
	}

	qos := desiredQoS(cfg)

	if observed == nil {
		return &model.EvaluationResult{
			TaskID:         task.ID,
			CurrentState:   model.StatusMissing,
			RequiresAction: true,
			Action:         model.ActionCreate,
			Message:        fmt.Sprintf("volume %s missing, will create (%s)", cfg.Name, cfg.Size),
			InternalData: &plan{
				create: &flasharray.VolumeCreate{Provisioned: size, QoS: qos},
				moveTo: movedGroup(cfg, nil),
			},
		}, nil
	}

	var diffs []string
	patch := &flasharray.VolumePatch{}

	if observed.Destroyed {
		recovered := false
		patch.Destroyed = &recovered
		diffs = append(diffs, "recover from destroyed")
	}

	switch {
	case observed.Provisioned < size:
		patch.Provisioned = &size
		diffs = append(diffs, fmt.Sprintf("size %d -> %d", observed.Provisioned, size))
	case observed.Provisioned > size && cfg.Truncate:
		patch.Provisioned = &size
		patch.Truncate = true
		diffs = append(diffs, fmt.Sprintf("size %d -> %d (truncate)", observed.Provisioned, size))
	case observed.Provisioned > size:
		return nil, purefaerrors.NewValidationError(task.ID,
			fmt.Sprintf("declared size %s is smaller than provisioned %d; set truncate to allow shrinking", cfg.Size, observed.Provisioned), nil)
	}

	if qosDrifted(observed.QoS, qos) {
		patch.QoS = qos
		if patch.QoS == nil {
			patch.QoS = &flasharray.QoS{}
		}
		diffs = append(diffs, "qos limits")
	}

	moveTo := movedGroup(cfg, observed)

	if patch.Provisioned == nil && patch.QoS == nil && patch.Destroyed == nil && moveTo == nil {
		return &model.EvaluationResult{
			TaskID:       task.ID,
			CurrentState: model.StatusSatisfied,
			Action:       model.ActionNone,
			Message:      fmt.Sprintf("volume %s already converged", cfg.Name),
		}, nil
	}

	if moveTo != nil {
		diffs = append(diffs, fmt.Sprintf("volume group -> %q", *moveTo))
	}

	evalPlan := &plan{moveTo: moveTo}
	if patch.Provisioned != nil || patch.QoS != nil || patch.Destroyed != nil {
		evalPlan.patch = patch
	}

	return &model.EvaluationResult{
		TaskID:         task.ID,
		CurrentState:   model.StatusDrifted,
		RequiresAction: true,
		Action:         model.ActionUpdate,
		Message:        fmt.Sprintf("volume %s drifted, will update", cfg.Name),
		Diff:           strings.Join(diffs, "\n"),
		InternalData:   evalPlan,
	}, nil
}

func (r *Reconciler) evaluateAbsent(ctx context.Context, task *config.Task, cfg *config.VolumeTask) (*model.EvaluationResult, error) {
	observed, err := r.client.GetVolume(ctx, cfg.Name)
	if err != nil {
		return nil, err
	}

	if observed == nil || (observed.Destroyed && !cfg.Eradicate) {
		return &model.EvaluationResult{
			TaskID:       task.ID,
			CurrentState: model.StatusSatisfied,
			Action:       model.ActionNone,
			Message:      fmt.Sprintf("volume %s already absent", cfg.Name),
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
		Message:        fmt.Sprintf("volume %s present, will %s", cfg.Name, verb),
		InternalData:   evalPlan,
	}, nil
}

func (r *Reconciler) evaluateRename(ctx context.Context, task *config.Task, cfg *config.VolumeTask) (*model.EvaluationResult, error) {
	source, err := r.client.GetVolume(ctx, cfg.Name)
	if err != nil {
		return nil, err
	}
	target, err := r.client.GetVolume(ctx, cfg.RenameTo)
	if err != nil {
		return nil, err
	}

	switch {
	case source == nil && target != nil:
		return &model.EvaluationResult{
			TaskID:       task.ID,
			CurrentState: model.StatusSatisfied,
			Action:       model.ActionNone,
			Message:      fmt.Sprintf("volume already renamed to %s", cfg.RenameTo),
		}, nil
	case source == nil:
		return nil, purefaerrors.NewValidationError(task.ID, fmt.Sprintf("rename source %s does not exist", cfg.Name), nil)
	case target != nil:
		return nil, purefaerrors.NewValidationError(task.ID, fmt.Sprintf("rename target %s already exists", cfg.RenameTo), nil)
	}

	return &model.EvaluationResult{
		TaskID:         task.ID,
		CurrentState:   model.StatusDrifted,
		RequiresAction: true,
		Action:         model.ActionUpdate,
		Message:        fmt.Sprintf("volume %s will be renamed to %s", cfg.Name, cfg.RenameTo),
		InternalData:   &plan{renameTo: cfg.RenameTo},
	}, nil
}

func (r *Reconciler) Apply(ctx context.Context, evaluation *model.EvaluationResult, task *config.Task) (*model.TaskResult, error) {
	cfg := task.Volume
	evalPlan, ok := evaluation.InternalData.(*plan)
	if !ok || evalPlan == nil {
		return nil, purefaerrors.NewValidationError(task.ID, "evaluation data is missing", nil)
	}

	switch {
	case evalPlan.create != nil:
		if _, err := r.client.CreateVolume(ctx, cfg.Name, *evalPlan.create); err != nil {
			return nil, err
		}
	case evalPlan.renameTo != "":
		name := evalPlan.renameTo
		if _, err := r.client.PatchVolume(ctx, cfg.Name, flasharray.VolumePatch{Name: &name}); err != nil {
			return nil, err
		}
	case evalPlan.destroy || evalPlan.eradicate:
		if evalPlan.destroy {
			if err := r.client.DestroyVolume(ctx, cfg.Name); err != nil {
				return nil, err
			}
		}
		if evalPlan.eradicate {
			if err := r.client.EradicateVolume(ctx, cfg.Name); err != nil {
				return nil, err
			}
		}
	default:
		if evalPlan.patch != nil {
			if _, err := r.client.PatchVolume(ctx, cfg.Name, *evalPlan.patch); err != nil {
				return nil, err
			}
		}
	}

	if evalPlan.moveTo != nil {
		if _, err := r.client.MoveVolume(ctx, cfg.Name, *evalPlan.moveTo); err != nil {
			return nil, err
		}
	}

	return &model.TaskResult{
		TaskID:  task.ID,
		Status:  model.StatusSuccess,
		Changed: true,
		Message: evaluation.Message,
	}, nil
}

func desiredQoS(cfg *config.VolumeTask) *flasharray.QoS {
	if cfg.BandwidthLimit == "" && cfg.IopsLimit == "" {
		return nil
	}
	return &flasharray.QoS{
		BandwidthLimit: units.ParseSize(cfg.BandwidthLimit),
		IopsLimit:      units.ParseCount(cfg.IopsLimit),
	}
}

func qosDrifted(observed, desired *flasharray.QoS) bool {
	if desired == nil {
		// No declared limits; leave whatever the array has in place.
		return false
	}
	if observed == nil {
		return desired.BandwidthLimit != 0 || desired.IopsLimit != 0
	}
	return observed.BandwidthLimit != desired.BandwidthLimit || observed.IopsLimit != desired.IopsLimit
}

// movedGroup returns the volume group to move into when membership
// drifts, nil when no move is needed.
func movedGroup(cfg *config.VolumeTask, observed *flasharray.Volume) *string {
	if cfg.VolumeGroup == "" || strings.Contains(cfg.Name, "/") {
		// Group-prefixed names already pin membership.
		return nil
	}
	current := ""
	if observed != nil && observed.VolumeGroup != nil {
		current = observed.VolumeGroup.Name
	}
	if current == cfg.VolumeGroup {
		return nil
	}
	group := cfg.VolumeGroup
	return &group
}
