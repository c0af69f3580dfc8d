// Package hostgroup reconciles host groups, their membership, and their
// shared volume connections.
package hostgroup

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/mvachon/purefa/internal/config"
	"github.com/mvachon/purefa/internal/flasharray"
	"github.com/mvachon/purefa/internal/model"
	"github.com/mvachon/purefa/internal/reconciler"
	purefaerrors "github.com/mvachon/purefa/pkg/errors"
)

// API is the slice of the array client this reconciler needs.
type API interface {
	RESTVersion() string
	GetHostGroup(ctx context.Context, name string) (*flasharray.HostGroup, error)
	CreateHostGroup(ctx context.Context, name string) (*flasharray.HostGroup, error)
	DeleteHostGroup(ctx context.Context, name string) error
	ListHostGroupMembers(ctx context.Context, group string) ([]string, error)
	AddHostGroupMembers(ctx context.Context, group string, hosts []string) error
	RemoveHostGroupMembers(ctx context.Context, group string, hosts []string) error
	ListHostGroupConnections(ctx context.Context, group string) ([]flasharray.Connection, error)
	ConnectGroupVolume(ctx context.Context, group, volume string) error
	DisconnectGroupVolume(ctx context.Context, group, volume string) error
}

var _ API = (*flasharray.Client)(nil)

// Reconciler converges host groups.
type Reconciler struct {
	client API
}

var _ reconciler.Reconciler = (*Reconciler)(nil)

func New(client API) *Reconciler {
	return &Reconciler{client: client}
}

func (r *Reconciler) Metadata() reconciler.Metadata {
	return reconciler.Metadata{
		Name:           "hostgroup",
		Version:        "1.0.0",
		MinRESTVersion: "2.0",
		Description:    "Manages host groups, membership, and shared connections",
	}
}

func (r *Reconciler) Schema() any {
	return config.HostGroupTask{}
}

type plan struct {
	create        bool
	addHosts      []string
	removeHosts   []string
	connect       []string
	disconnect    []string
	removeMembers []string
	delete        bool
}

func (r *Reconciler) Evaluate(ctx context.Context, task *config.Task) (*model.EvaluationResult, error) {
	cfg := task.HostGroup
	if cfg == nil {
		return nil, purefaerrors.NewValidationError(task.ID, "hostgroup task body is missing", nil)
	}

	if task.State == config.StateAbsent {
		return r.evaluateAbsent(ctx, task, cfg)
	}
	return r.evaluatePresent(ctx, task, cfg)
}

func (r *Reconciler) evaluatePresent(ctx context.Context, task *config.Task, cfg *config.HostGroupTask) (*model.EvaluationResult, error) {
	observed, err := r.client.GetHostGroup(ctx, cfg.Name)
	if err != nil {
		return nil, err
	}

	if observed == nil {
		evalPlan := &plan{
			create:   true,
			addHosts: append([]string(nil), cfg.Hosts...),
			connect:  append([]string(nil), cfg.Volumes...),
		}
		return &model.EvaluationResult{
			TaskID:         task.ID,
			CurrentState:   model.StatusMissing,
			RequiresAction: true,
			Action:         model.ActionCreate,
			Message:        fmt.Sprintf("host group %s missing, will create", cfg.Name),
			InternalData:   evalPlan,
		}, nil
	}

	members, err := r.client.ListHostGroupMembers(ctx, cfg.Name)
	if err != nil {
		return nil, err
	}
	conns, err := r.client.ListHostGroupConnections(ctx, cfg.Name)
	if err != nil {
		return nil, err
	}
	connected := make([]string, 0, len(conns))
	for _, conn := range conns {
		connected = append(connected, conn.Volume.Name)
	}

	evalPlan := &plan{}
	var diffs []string

	evalPlan.addHosts = difference(cfg.Hosts, members)
	evalPlan.connect = difference(cfg.Volumes, connected)
	if cfg.Exclusive {
		evalPlan.removeHosts = difference(members, cfg.Hosts)
		evalPlan.disconnect = difference(connected, cfg.Volumes)
	}

	for _, h := range evalPlan.addHosts {
		diffs = append(diffs, "add host "+h)
	}
	for _, h := range evalPlan.removeHosts {
		diffs = append(diffs, "remove host "+h)
	}
	for _, v := range evalPlan.connect {
		diffs = append(diffs, "connect "+v)
	}
	for _, v := range evalPlan.disconnect {
		diffs = append(diffs, "disconnect "+v)
	}

	if len(diffs) == 0 {
		return &model.EvaluationResult{
			TaskID:       task.ID,
			CurrentState: model.StatusSatisfied,
			Action:       model.ActionNone,
			Message:      fmt.Sprintf("host group %s already converged", cfg.Name),
		}, nil
	}

	return &model.EvaluationResult{
		TaskID:         task.ID,
		CurrentState:   model.StatusDrifted,
		RequiresAction: true,
		Action:         model.ActionUpdate,
		Message:        fmt.Sprintf("host group %s drifted, will update", cfg.Name),
		Diff:           strings.Join(diffs, "\n"),
		InternalData:   evalPlan,
	}, nil
}

func (r *Reconciler) evaluateAbsent(ctx context.Context, task *config.Task, cfg *config.HostGroupTask) (*model.EvaluationResult, error) {
	observed, err := r.client.GetHostGroup(ctx, cfg.Name)
	if err != nil {
		return nil, err
	}

	if observed == nil {
		return &model.EvaluationResult{
			TaskID:       task.ID,
			CurrentState: model.StatusSatisfied,
			Action:       model.ActionNone,
			Message:      fmt.Sprintf("host group %s already absent", cfg.Name),
		}, nil
	}

	// Group deletion requires detaching connections and members first.
	conns, err := r.client.ListHostGroupConnections(ctx, cfg.Name)
	if err != nil {
		return nil, err
	}
	members, err := r.client.ListHostGroupMembers(ctx, cfg.Name)
	if err != nil {
		return nil, err
	}

	evalPlan := &plan{delete: true, removeMembers: members}
	for _, conn := range conns {
		evalPlan.disconnect = append(evalPlan.disconnect, conn.Volume.Name)
	}
	sort.Strings(evalPlan.disconnect)

	return &model.EvaluationResult{
		TaskID:         task.ID,
		CurrentState:   model.StatusDrifted,
		RequiresAction: true,
		Action:         model.ActionDelete,
		Message:        fmt.Sprintf("host group %s present, will delete", cfg.Name),
		InternalData:   evalPlan,
	}, nil
}

func (r *Reconciler) Apply(ctx context.Context, evaluation *model.EvaluationResult, task *config.Task) (*model.TaskResult, error) {
	cfg := task.HostGroup
	evalPlan, ok := evaluation.InternalData.(*plan)
	if !ok || evalPlan == nil {
		return nil, purefaerrors.NewValidationError(task.ID, "evaluation data is missing", nil)
	}

	if evalPlan.delete {
		for _, volume := range evalPlan.disconnect {
			if err := r.client.DisconnectGroupVolume(ctx, cfg.Name, volume); err != nil {
				return nil, err
			}
		}
		if len(evalPlan.removeMembers) > 0 {
			if err := r.client.RemoveHostGroupMembers(ctx, cfg.Name, evalPlan.removeMembers); err != nil {
				return nil, err
			}
		}
		if err := r.client.DeleteHostGroup(ctx, cfg.Name); err != nil {
			return nil, err
		}
		return &model.TaskResult{
			TaskID:  task.ID,
			Status:  model.StatusSuccess,
			Changed: true,
			Message: evaluation.Message,
		}, nil
	}

	if evalPlan.create {
		if _, err := r.client.CreateHostGroup(ctx, cfg.Name); err != nil {
			return nil, err
		}
	}
	if len(evalPlan.addHosts) > 0 {
		if err := r.client.AddHostGroupMembers(ctx, cfg.Name, evalPlan.addHosts); err != nil {
			return nil, err
		}
	}
	if len(evalPlan.removeHosts) > 0 {
		if err := r.client.RemoveHostGroupMembers(ctx, cfg.Name, evalPlan.removeHosts); err != nil {
			return nil, err
		}
	}
	for _, volume := range evalPlan.connect {
		if err := r.client.ConnectGroupVolume(ctx, cfg.Name, volume); err != nil {
			return nil, err
		}
	}
	for _, volume := range evalPlan.disconnect {
		if err := r.client.DisconnectGroupVolume(ctx, cfg.Name, volume); err != nil {
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

// difference returns the members of want that are not in have, sorted.
func difference(want, have []string) []string {
	present := make(map[string]bool, len(have))
	for _, h := range have {
		present[h] = true
	}
	var missing []string
	for _, w := range want {
		if !present[w] {
			missing = append(missing, w)
		}
	}
	sort.Strings(missing)
	return missing
}
