// Package pod reconciles ActiveCluster pods, their stretch targets, and
// their failover preferences.
package pod

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
	// quotaVersion gates pod quota limits.
	quotaVersion = "2.23"
)

// API is the slice of the array client this reconciler needs.
type API interface {
	RESTVersion() string
	GetPod(ctx context.Context, name string) (*flasharray.Pod, error)
	CreatePod(ctx context.Context, name string, body flasharray.PodPost) (*flasharray.Pod, error)
	PatchPod(ctx context.Context, name string, patch flasharray.PodPatch) (*flasharray.Pod, error)
	StretchPod(ctx context.Context, pod, array string) error
	UnstretchPod(ctx context.Context, pod, array string) error
	DestroyPod(ctx context.Context, name string) error
	EradicatePod(ctx context.Context, name string) error
}

var _ API = (*flasharray.Client)(nil)

// Reconciler converges pods.
type Reconciler struct {
	client API
}

var _ reconciler.Reconciler = (*Reconciler)(nil)

func New(client API) *Reconciler {
	return &Reconciler{client: client}
}

func (r *Reconciler) Metadata() reconciler.Metadata {
	return reconciler.Metadata{
		Name:           "pod",
		Version:        "1.0.0",
		MinRESTVersion: "2.0",
		Description:    "Manages ActiveCluster pods, stretching, and quotas",
	}
}

func (r *Reconciler) Schema() any {
	return config.PodTask{}
}

type plan struct {
	create        *flasharray.PodPost
	patch         *flasharray.PodPatch
	stretchTo     string
	unstretchFrom string
	destroy       bool
	eradicate     bool
}

func (r *Reconciler) Evaluate(ctx context.Context, task *config.Task) (*model.EvaluationResult, error) {
	cfg := task.Pod
	if cfg == nil {
		return nil, purefaerrors.NewValidationError(task.ID, "pod task body is missing", nil)
	}

	if cfg.Quota != "" {
		if err := reconciler.RequireVersion(r.client, "pod quota limit", quotaVersion); err != nil {
			return nil, err
		}
	}

	if task.State == config.StateAbsent {
		return r.evaluateAbsent(ctx, task, cfg)
	}
	return r.evaluatePresent(ctx, task, cfg)
}

func (r *Reconciler) evaluatePresent(ctx context.Context, task *config.Task, cfg *config.PodTask) (*model.EvaluationResult, error) {
	if cfg.StretchTo != "" && cfg.StretchTo == cfg.UnstretchFrom {
		return nil, purefaerrors.NewValidationError(task.ID,
			fmt.Sprintf("pod %s cannot stretch to and unstretch from %s in one task", cfg.Name, cfg.StretchTo), nil)
	}

	quota, err := parseQuota(task.ID, cfg.Quota)
	if err != nil {
		return nil, err
	}

	observed, err := r.client.GetPod(ctx, cfg.Name)
	if err != nil {
		return nil, err
	}

	prefs := failoverRefs(cfg.FailoverPreferences)

	if observed == nil {
		return &model.EvaluationResult{
			TaskID:         task.ID,
			CurrentState:   model.StatusMissing,
			RequiresAction: true,
			Action:         model.ActionCreate,
			Message:        fmt.Sprintf("pod %s missing, will create", cfg.Name),
			InternalData: &plan{
				create:    &flasharray.PodPost{FailoverPreferences: prefs, QuotaLimit: quota},
				stretchTo: cfg.StretchTo,
			},
		}, nil
	}

	var diffs []string
	patch := &flasharray.PodPatch{}
	evalPlan := &plan{}

	if observed.Destroyed {
		recovered := false
		patch.Destroyed = &recovered
		diffs = append(diffs, "recover from destroyed")
	}
	if quota > 0 && observed.QuotaLimit != quota {
		patch.QuotaLimit = &quota
		diffs = append(diffs, fmt.Sprintf("quota %d -> %d", observed.QuotaLimit, quota))
	}
	if len(cfg.FailoverPreferences) > 0 && !samePreferences(observed.FailoverPreferences, prefs) {
		patch.FailoverPreferences = &prefs
		diffs = append(diffs, "failover preferences")
	}
	if cfg.StretchTo != "" && !stretchedTo(observed, cfg.StretchTo) {
		evalPlan.stretchTo = cfg.StretchTo
		diffs = append(diffs, "stretch to "+cfg.StretchTo)
	}
	if cfg.UnstretchFrom != "" && stretchedTo(observed, cfg.UnstretchFrom) {
		evalPlan.unstretchFrom = cfg.UnstretchFrom
		diffs = append(diffs, "unstretch from "+cfg.UnstretchFrom)
	}

	if patch.Destroyed != nil || patch.QuotaLimit != nil || patch.FailoverPreferences != nil {
		evalPlan.patch = patch
	}

	if evalPlan.patch == nil && evalPlan.stretchTo == "" && evalPlan.unstretchFrom == "" {
		return &model.EvaluationResult{
			TaskID:       task.ID,
			CurrentState: model.StatusSatisfied,
			Action:       model.ActionNone,
			Message:      fmt.Sprintf("pod %s already converged", cfg.Name),
		}, nil
	}

	return &model.EvaluationResult{
		TaskID:         task.ID,
		CurrentState:   model.StatusDrifted,
		RequiresAction: true,
		Action:         model.ActionUpdate,
		Message:        fmt.Sprintf("pod %s drifted, will update", cfg.Name),
		Diff:           strings.Join(diffs, "\n"),
		InternalData:   evalPlan,
	}, nil
}

func (r *Reconciler) evaluateAbsent(ctx context.Context, task *config.Task, cfg *config.PodTask) (*model.EvaluationResult, error) {
	observed, err := r.client.GetPod(ctx, cfg.Name)
	if err != nil {
		return nil, err
	}

	if observed == nil || (observed.Destroyed && !cfg.Eradicate) {
		return &model.EvaluationResult{
			TaskID:       task.ID,
			CurrentState: model.StatusSatisfied,
			Action:       model.ActionNone,
			Message:      fmt.Sprintf("pod %s already absent", cfg.Name),
		}, nil
	}

	// Stretched pods refuse destruction until unstretched.
	if !observed.Destroyed && len(observed.Arrays) > 1 {
		return nil, purefaerrors.NewValidationError(task.ID,
			fmt.Sprintf("pod %s is stretched across %d arrays; unstretch it before removal", cfg.Name, len(observed.Arrays)), nil)
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
		Message:        fmt.Sprintf("pod %s present, will %s", cfg.Name, verb),
		InternalData:   evalPlan,
	}, nil
}

func (r *Reconciler) Apply(ctx context.Context, evaluation *model.EvaluationResult, task *config.Task) (*model.TaskResult, error) {
	cfg := task.Pod
	evalPlan, ok := evaluation.InternalData.(*plan)
	if !ok || evalPlan == nil {
		return nil, purefaerrors.NewValidationError(task.ID, "evaluation data is missing", nil)
	}

	switch {
	case evalPlan.create != nil:
		if _, err := r.client.CreatePod(ctx, cfg.Name, *evalPlan.create); err != nil {
			return nil, err
		}
	case evalPlan.destroy || evalPlan.eradicate:
		if evalPlan.destroy {
			if err := r.client.DestroyPod(ctx, cfg.Name); err != nil {
				return nil, err
			}
		}
		if evalPlan.eradicate {
			if err := r.client.EradicatePod(ctx, cfg.Name); err != nil {
				return nil, err
			}
		}
	default:
		if evalPlan.patch != nil {
			if _, err := r.client.PatchPod(ctx, cfg.Name, *evalPlan.patch); err != nil {
				return nil, err
			}
		}
	}

	if evalPlan.stretchTo != "" {
		if err := r.client.StretchPod(ctx, cfg.Name, evalPlan.stretchTo); err != nil {
			return nil, err
		}
	}
	if evalPlan.unstretchFrom != "" {
		if err := r.client.UnstretchPod(ctx, cfg.Name, evalPlan.unstretchFrom); err != nil {
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

func parseQuota(taskID, quota string) (int64, error) {
	if quota == "" {
		return 0, nil
	}
	parsed := units.ParseSize(quota)
	if parsed == 0 {
		return 0, purefaerrors.NewValidationError(taskID, fmt.Sprintf("invalid pod quota %q", quota), nil)
	}
	return parsed, nil
}

func failoverRefs(names []string) []flasharray.Ref {
	if len(names) == 0 {
		return nil
	}
	refs := make([]flasharray.Ref, 0, len(names))
	for _, n := range names {
		refs = append(refs, flasharray.Ref{Name: n})
	}
	return refs
}

func samePreferences(observed, desired []flasharray.Ref) bool {
	if len(observed) != len(desired) {
		return false
	}
	seen := make(map[string]bool, len(observed))
	for _, ref := range observed {
		seen[ref.Name] = true
	}
	for _, ref := range desired {
		if !seen[ref.Name] {
			return false
		}
	}
	return true
}

func stretchedTo(pod *flasharray.Pod, array string) bool {
	for _, member := range pod.Arrays {
		if member.Name == array {
			return true
		}
	}
	return false
}
