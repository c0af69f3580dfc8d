// Package user reconciles local array administrators.
package user

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
	// roleVersion gates role assignment on admin records.
	roleVersion = "2.2"
)

// API is the slice of the array client this reconciler needs.
type API interface {
	RESTVersion() string
	GetAdmin(ctx context.Context, name string) (*flasharray.AdminUser, error)
	CreateAdmin(ctx context.Context, name string, body flasharray.AdminPost) (*flasharray.AdminUser, error)
	PatchAdmin(ctx context.Context, name string, patch flasharray.AdminPatch) (*flasharray.AdminUser, error)
	DeleteAdmin(ctx context.Context, name string) error
	CreateAdminApiToken(ctx context.Context, name string) (*flasharray.ApiToken, error)
	DeleteAdminApiToken(ctx context.Context, name string) error
}

var _ API = (*flasharray.Client)(nil)

// Reconciler converges local users.
type Reconciler struct {
	client API
}

var _ reconciler.Reconciler = (*Reconciler)(nil)

func New(client API) *Reconciler {
	return &Reconciler{client: client}
}

func (r *Reconciler) Metadata() reconciler.Metadata {
	return reconciler.Metadata{
		Name:           "user",
		Version:        "1.0.0",
		MinRESTVersion: "2.0",
		Description:    "Manages local array users, roles, and API tokens",
	}
}

func (r *Reconciler) Schema() any {
	return config.UserTask{}
}

type plan struct {
	create      *flasharray.AdminPost
	patch       *flasharray.AdminPatch
	createToken bool
	deleteToken bool
	delete      bool
}

func (r *Reconciler) Evaluate(ctx context.Context, task *config.Task) (*model.EvaluationResult, error) {
	cfg := task.User
	if cfg == nil {
		return nil, purefaerrors.NewValidationError(task.ID, "user task body is missing", nil)
	}

	if cfg.CreateApiToken && cfg.DeleteApiToken {
		return nil, purefaerrors.NewValidationError(task.ID,
			fmt.Sprintf("user %s cannot create and delete an api token in one task", cfg.Name), nil)
	}

	if cfg.Role != "" {
		if err := reconciler.RequireVersion(r.client, "admin role assignment", roleVersion); err != nil {
			return nil, err
		}
	}

	observed, err := r.client.GetAdmin(ctx, cfg.Name)
	if err != nil {
		return nil, err
	}

	if task.State == config.StateAbsent {
		if observed == nil {
			return &model.EvaluationResult{
				TaskID:       task.ID,
				CurrentState: model.StatusSatisfied,
				Action:       model.ActionNone,
				Message:      fmt.Sprintf("user %s already absent", cfg.Name),
			}, nil
		}
		return &model.EvaluationResult{
			TaskID:         task.ID,
			CurrentState:   model.StatusDrifted,
			RequiresAction: true,
			Action:         model.ActionDelete,
			Message:        fmt.Sprintf("user %s present, will delete", cfg.Name),
			InternalData:   &plan{delete: true},
		}, nil
	}

	if observed == nil {
		create := &flasharray.AdminPost{Password: cfg.Password}
		if cfg.Role != "" {
			create.Role = &flasharray.Ref{Name: cfg.Role}
		}
		return &model.EvaluationResult{
			TaskID:         task.ID,
			CurrentState:   model.StatusMissing,
			RequiresAction: true,
			Action:         model.ActionCreate,
			Message:        fmt.Sprintf("user %s missing, will create", cfg.Name),
			InternalData:   &plan{create: create, createToken: cfg.CreateApiToken},
		}, nil
	}

	var diffs []string
	patch := &flasharray.AdminPatch{}
	evalPlan := &plan{}

	observedRole := ""
	if observed.Role != nil {
		observedRole = observed.Role.Name
	}
	if cfg.Role != "" && observedRole != cfg.Role {
		patch.Role = &flasharray.Ref{Name: cfg.Role}
		diffs = append(diffs, fmt.Sprintf("role %q -> %q", observedRole, cfg.Role))
	}
	if cfg.SetPassword {
		// Passwords cannot be diffed, so updates happen only on request.
		password := cfg.Password
		patch.Password = &password
		diffs = append(diffs, "password")
	}
	if cfg.CreateApiToken {
		evalPlan.createToken = true
		diffs = append(diffs, "api token")
	}
	if cfg.DeleteApiToken {
		// Token presence is not reported, so revocation happens on request.
		evalPlan.deleteToken = true
		diffs = append(diffs, "revoke api token")
	}

	if patch.Role != nil || patch.Password != nil {
		evalPlan.patch = patch
	}

	if evalPlan.patch == nil && !evalPlan.createToken && !evalPlan.deleteToken {
		return &model.EvaluationResult{
			TaskID:       task.ID,
			CurrentState: model.StatusSatisfied,
			Action:       model.ActionNone,
			Message:      fmt.Sprintf("user %s already converged", cfg.Name),
		}, nil
	}

	return &model.EvaluationResult{
		TaskID:         task.ID,
		CurrentState:   model.StatusDrifted,
		RequiresAction: true,
		Action:         model.ActionUpdate,
		Message:        fmt.Sprintf("user %s drifted, will update", cfg.Name),
		Diff:           strings.Join(diffs, "\n"),
		InternalData:   evalPlan,
	}, nil
}

func (r *Reconciler) Apply(ctx context.Context, evaluation *model.EvaluationResult, task *config.Task) (*model.TaskResult, error) {
	cfg := task.User
	evalPlan, ok := evaluation.InternalData.(*plan)
	if !ok || evalPlan == nil {
		return nil, purefaerrors.NewValidationError(task.ID, "evaluation data is missing", nil)
	}

	switch {
	case evalPlan.create != nil:
		if _, err := r.client.CreateAdmin(ctx, cfg.Name, *evalPlan.create); err != nil {
			return nil, err
		}
	case evalPlan.delete:
		if err := r.client.DeleteAdmin(ctx, cfg.Name); err != nil {
			return nil, err
		}
	default:
		if evalPlan.patch != nil {
			if _, err := r.client.PatchAdmin(ctx, cfg.Name, *evalPlan.patch); err != nil {
				return nil, err
			}
		}
	}

	result := &model.TaskResult{
		TaskID:  task.ID,
		Status:  model.StatusSuccess,
		Changed: true,
		Message: evaluation.Message,
	}

	if evalPlan.createToken {
		token, err := r.client.CreateAdminApiToken(ctx, cfg.Name)
		if err != nil {
			return nil, err
		}
		if token != nil {
			result.Message = fmt.Sprintf("%s; api token issued for %s", result.Message, cfg.Name)
		}
	}
	if evalPlan.deleteToken {
		if err := r.client.DeleteAdminApiToken(ctx, cfg.Name); err != nil {
			return nil, err
		}
	}

	return result, nil
}
