// Package subnet reconciles network subnets.
package subnet

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
	GetSubnet(ctx context.Context, name string) (*flasharray.Subnet, error)
	CreateSubnet(ctx context.Context, name string, body flasharray.SubnetPost) (*flasharray.Subnet, error)
	PatchSubnet(ctx context.Context, name string, patch flasharray.SubnetPatch) (*flasharray.Subnet, error)
	DeleteSubnet(ctx context.Context, name string) error
}

var _ API = (*flasharray.Client)(nil)

// Reconciler converges network subnets.
type Reconciler struct {
	client API
}

var _ reconciler.Reconciler = (*Reconciler)(nil)

func New(client API) *Reconciler {
	return &Reconciler{client: client}
}

func (r *Reconciler) Metadata() reconciler.Metadata {
	return reconciler.Metadata{
		Name:           "subnet",
		Version:        "1.0.0",
		MinRESTVersion: "2.0",
		Description:    "Manages network subnets",
	}
}

func (r *Reconciler) Schema() any {
	return config.SubnetTask{}
}

type plan struct {
	create *flasharray.SubnetPost
	patch  *flasharray.SubnetPatch
	delete bool
}

func (r *Reconciler) Evaluate(ctx context.Context, task *config.Task) (*model.EvaluationResult, error) {
	cfg := task.Subnet
	if cfg == nil {
		return nil, purefaerrors.NewValidationError(task.ID, "subnet task body is missing", nil)
	}

	observed, err := r.client.GetSubnet(ctx, cfg.Name)
	if err != nil {
		return nil, err
	}

	if task.State == config.StateAbsent {
		if observed == nil {
			return &model.EvaluationResult{
				TaskID:       task.ID,
				CurrentState: model.StatusSatisfied,
				Action:       model.ActionNone,
				Message:      fmt.Sprintf("subnet %s already absent", cfg.Name),
			}, nil
		}
		return &model.EvaluationResult{
			TaskID:         task.ID,
			CurrentState:   model.StatusDrifted,
			RequiresAction: true,
			Action:         model.ActionDelete,
			Message:        fmt.Sprintf("subnet %s present, will delete", cfg.Name),
			InternalData:   &plan{delete: true},
		}, nil
	}

	enabled := true
	if cfg.Enabled != nil {
		enabled = *cfg.Enabled
	}

	if observed == nil {
		return &model.EvaluationResult{
			TaskID:         task.ID,
			CurrentState:   model.StatusMissing,
			RequiresAction: true,
			Action:         model.ActionCreate,
			Message:        fmt.Sprintf("subnet %s missing, will create", cfg.Name),
			InternalData: &plan{create: &flasharray.SubnetPost{
				Enabled:  enabled,
				Prefix:   cfg.Prefix,
				Gateway:  cfg.Gateway,
				Mtu:      cfg.Mtu,
				Vlan:     cfg.Vlan,
				Services: cfg.Services,
			}},
		}, nil
	}

	var diffs []string
	patch := &flasharray.SubnetPatch{}

	if cfg.Prefix != "" && observed.Prefix != cfg.Prefix {
		prefix := cfg.Prefix
		patch.Prefix = &prefix
		diffs = append(diffs, fmt.Sprintf("prefix %s -> %s", observed.Prefix, cfg.Prefix))
	}
	if cfg.Gateway != "" && observed.Gateway != cfg.Gateway {
		gateway := cfg.Gateway
		patch.Gateway = &gateway
		diffs = append(diffs, fmt.Sprintf("gateway %s -> %s", observed.Gateway, cfg.Gateway))
	}
	if cfg.Mtu != 0 && observed.Mtu != cfg.Mtu {
		mtu := cfg.Mtu
		patch.Mtu = &mtu
		diffs = append(diffs, fmt.Sprintf("mtu %d -> %d", observed.Mtu, cfg.Mtu))
	}
	if cfg.Vlan != 0 && observed.Vlan != cfg.Vlan {
		vlan := cfg.Vlan
		patch.Vlan = &vlan
		diffs = append(diffs, fmt.Sprintf("vlan %d -> %d", observed.Vlan, cfg.Vlan))
	}
	if len(cfg.Services) > 0 && !sameServices(observed.Services, cfg.Services) {
		services := cfg.Services
		patch.Services = &services
		diffs = append(diffs, "services")
	}
	if cfg.Enabled != nil && observed.Enabled != enabled {
		patch.Enabled = &enabled
		diffs = append(diffs, fmt.Sprintf("enabled %t -> %t", observed.Enabled, enabled))
	}

	if len(diffs) == 0 {
		return &model.EvaluationResult{
			TaskID:       task.ID,
			CurrentState: model.StatusSatisfied,
			Action:       model.ActionNone,
			Message:      fmt.Sprintf("subnet %s already converged", cfg.Name),
		}, nil
	}

	return &model.EvaluationResult{
		TaskID:         task.ID,
		CurrentState:   model.StatusDrifted,
		RequiresAction: true,
		Action:         model.ActionUpdate,
		Message:        fmt.Sprintf("subnet %s drifted, will update", cfg.Name),
		Diff:           strings.Join(diffs, "\n"),
		InternalData:   &plan{patch: patch},
	}, nil
}

func (r *Reconciler) Apply(ctx context.Context, evaluation *model.EvaluationResult, task *config.Task) (*model.TaskResult, error) {
	cfg := task.Subnet
	evalPlan, ok := evaluation.InternalData.(*plan)
	if !ok || evalPlan == nil {
		return nil, purefaerrors.NewValidationError(task.ID, "evaluation data is missing", nil)
	}

	switch {
	case evalPlan.create != nil:
		if _, err := r.client.CreateSubnet(ctx, cfg.Name, *evalPlan.create); err != nil {
			return nil, err
		}
	case evalPlan.delete:
		if err := r.client.DeleteSubnet(ctx, cfg.Name); err != nil {
			return nil, err
		}
	default:
		if evalPlan.patch != nil {
			if _, err := r.client.PatchSubnet(ctx, cfg.Name, *evalPlan.patch); err != nil {
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

func sameServices(observed, desired []string) bool {
	if len(observed) != len(desired) {
		return false
	}
	a := append([]string(nil), observed...)
	b := append([]string(nil), desired...)
	sort.Strings(a)
	sort.Strings(b)
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
