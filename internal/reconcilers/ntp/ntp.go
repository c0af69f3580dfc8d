// Package ntp reconciles the array NTP configuration.
package ntp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mvachon/purefa/internal/config"
	"github.com/mvachon/purefa/internal/flasharray"
	"github.com/mvachon/purefa/internal/model"
	"github.com/mvachon/purefa/internal/reconciler"
	purefaerrors "github.com/mvachon/purefa/pkg/errors"
)

const (
	// keyVersion gates NTP symmetric key authentication.
	keyVersion = "2.26"

	// maxServers is the array-side limit on configured NTP servers.
	maxServers = 4
)

// API is the slice of the array client this reconciler needs.
type API interface {
	RESTVersion() string
	GetArray(ctx context.Context) (*flasharray.Array, error)
	PatchArray(ctx context.Context, patch flasharray.ArrayPatch) (*flasharray.Array, error)
}

var _ API = (*flasharray.Client)(nil)

// Reconciler converges the NTP settings of the array singleton.
type Reconciler struct {
	client API
}

var _ reconciler.Reconciler = (*Reconciler)(nil)

func New(client API) *Reconciler {
	return &Reconciler{client: client}
}

func (r *Reconciler) Metadata() reconciler.Metadata {
	return reconciler.Metadata{
		Name:           "ntp",
		Version:        "1.0.0",
		MinRESTVersion: "2.0",
		Description:    "Manages array NTP servers and key authentication",
	}
}

func (r *Reconciler) Schema() any {
	return config.NtpTask{}
}

type plan struct {
	patch flasharray.ArrayPatch
}

func (r *Reconciler) Evaluate(ctx context.Context, task *config.Task) (*model.EvaluationResult, error) {
	cfg := task.Ntp
	if cfg == nil {
		return nil, purefaerrors.NewValidationError(task.ID, "ntp task body is missing", nil)
	}

	if cfg.SymmetricKey != "" {
		if err := reconciler.RequireVersion(r.client, "NTP symmetric key", keyVersion); err != nil {
			return nil, err
		}
	}

	observed, err := r.client.GetArray(ctx)
	if err != nil {
		return nil, err
	}
	if observed == nil {
		return nil, purefaerrors.NewRemoteOperationError("get array", 0, "array settings unavailable")
	}

	if task.State == config.StateAbsent {
		return r.evaluateAbsent(task, observed)
	}

	servers := cfg.Servers
	if len(servers) > maxServers {
		servers = servers[:maxServers]
	}

	var diffs []string
	patch := flasharray.ArrayPatch{}

	if !sameServers(observed.NtpServers, servers) {
		patch.NtpServers = &servers
		diffs = append(diffs, fmt.Sprintf("ntp servers %v -> %v", observed.NtpServers, servers))
	}
	if cfg.SymmetricKey != "" && observed.NtpSymmetricKey != cfg.SymmetricKey {
		key := cfg.SymmetricKey
		patch.NtpSymmetricKey = &key
		diffs = append(diffs, "ntp symmetric key")
	}

	if len(diffs) == 0 {
		return &model.EvaluationResult{
			TaskID:       task.ID,
			CurrentState: model.StatusSatisfied,
			Action:       model.ActionNone,
			Message:      "ntp already converged",
		}, nil
	}

	return &model.EvaluationResult{
		TaskID:         task.ID,
		CurrentState:   model.StatusDrifted,
		RequiresAction: true,
		Action:         model.ActionUpdate,
		Message:        "ntp drifted, will update",
		Diff:           strings.Join(diffs, "\n"),
		InternalData:   &plan{patch: patch},
	}, nil
}

func (r *Reconciler) evaluateAbsent(task *config.Task, observed *flasharray.Array) (*model.EvaluationResult, error) {
	if len(observed.NtpServers) == 0 {
		return &model.EvaluationResult{
			TaskID:       task.ID,
			CurrentState: model.StatusSatisfied,
			Action:       model.ActionNone,
			Message:      "ntp already unconfigured",
		}, nil
	}

	empty := []string{}
	return &model.EvaluationResult{
		TaskID:         task.ID,
		CurrentState:   model.StatusDrifted,
		RequiresAction: true,
		Action:         model.ActionDelete,
		Message:        "ntp configured, will clear server list",
		InternalData:   &plan{patch: flasharray.ArrayPatch{NtpServers: &empty}},
	}, nil
}

func (r *Reconciler) Apply(ctx context.Context, evaluation *model.EvaluationResult, task *config.Task) (*model.TaskResult, error) {
	evalPlan, ok := evaluation.InternalData.(*plan)
	if !ok || evalPlan == nil {
		return nil, purefaerrors.NewValidationError(task.ID, "evaluation data is missing", nil)
	}

	if _, err := r.client.PatchArray(ctx, evalPlan.patch); err != nil {
		return nil, err
	}

	return &model.TaskResult{
		TaskID:  task.ID,
		Status:  model.StatusSuccess,
		Changed: true,
		Message: evaluation.Message,
	}, nil
}

// sameServers compares server lists in order; the first entry is the
// preferred source.
func sameServers(observed, desired []string) bool {
	if len(observed) != len(desired) {
		return false
	}
	for i := range observed {
		if observed[i] != desired[i] {
			return false
		}
	}
	return true
}
