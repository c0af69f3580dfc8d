// Package snmp reconciles SNMP notification managers.
package snmp

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
	defaultVersion      = "v2c"
	defaultNotification = "trap"
)

// API is the slice of the array client this reconciler needs.
type API interface {
	RESTVersion() string
	GetSnmpManager(ctx context.Context, name string) (*flasharray.SnmpManager, error)
	CreateSnmpManager(ctx context.Context, name string, body flasharray.SnmpManagerPost) (*flasharray.SnmpManager, error)
	PatchSnmpManager(ctx context.Context, name string, patch flasharray.SnmpManagerPatch) (*flasharray.SnmpManager, error)
	DeleteSnmpManager(ctx context.Context, name string) error
}

var _ API = (*flasharray.Client)(nil)

// Reconciler converges SNMP managers.
type Reconciler struct {
	client API
}

var _ reconciler.Reconciler = (*Reconciler)(nil)

func New(client API) *Reconciler {
	return &Reconciler{client: client}
}

func (r *Reconciler) Metadata() reconciler.Metadata {
	return reconciler.Metadata{
		Name:           "snmp",
		Version:        "1.0.0",
		MinRESTVersion: "2.0",
		Description:    "Manages SNMP notification managers",
	}
}

func (r *Reconciler) Schema() any {
	return config.SnmpTask{}
}

type plan struct {
	create *flasharray.SnmpManagerPost
	patch  *flasharray.SnmpManagerPatch
	delete bool
}

func (r *Reconciler) Evaluate(ctx context.Context, task *config.Task) (*model.EvaluationResult, error) {
	cfg := task.Snmp
	if cfg == nil {
		return nil, purefaerrors.NewValidationError(task.ID, "snmp task body is missing", nil)
	}

	observed, err := r.client.GetSnmpManager(ctx, cfg.Name)
	if err != nil {
		return nil, err
	}

	if task.State == config.StateAbsent {
		if observed == nil {
			return &model.EvaluationResult{
				TaskID:       task.ID,
				CurrentState: model.StatusSatisfied,
				Action:       model.ActionNone,
				Message:      fmt.Sprintf("snmp manager %s already absent", cfg.Name),
			}, nil
		}
		return &model.EvaluationResult{
			TaskID:         task.ID,
			CurrentState:   model.StatusDrifted,
			RequiresAction: true,
			Action:         model.ActionDelete,
			Message:        fmt.Sprintf("snmp manager %s present, will delete", cfg.Name),
			InternalData:   &plan{delete: true},
		}, nil
	}

	version := cfg.Version
	if version == "" {
		version = defaultVersion
	}
	notification := cfg.Notification
	if notification == "" {
		notification = defaultNotification
	}

	if observed == nil {
		create := &flasharray.SnmpManagerPost{
			Host:         cfg.Host,
			Version:      version,
			Notification: notification,
		}
		switch version {
		case "v2c":
			create.V2C = &flasharray.SnmpV2C{Community: cfg.Community}
		case "v3":
			create.V3 = desiredV3(cfg)
		}
		return &model.EvaluationResult{
			TaskID:         task.ID,
			CurrentState:   model.StatusMissing,
			RequiresAction: true,
			Action:         model.ActionCreate,
			Message:        fmt.Sprintf("snmp manager %s missing, will create", cfg.Name),
			InternalData:   &plan{create: create},
		}, nil
	}

	var diffs []string
	patch := &flasharray.SnmpManagerPatch{}

	if observed.Host != cfg.Host {
		host := cfg.Host
		patch.Host = &host
		diffs = append(diffs, fmt.Sprintf("host %s -> %s", observed.Host, cfg.Host))
	}
	if observed.Version != version {
		v := version
		patch.Version = &v
		diffs = append(diffs, fmt.Sprintf("version %s -> %s", observed.Version, version))
	}
	if observed.Notification != notification {
		n := notification
		patch.Notification = &n
		diffs = append(diffs, fmt.Sprintf("notification %s -> %s", observed.Notification, notification))
	}
	if version == "v3" && observed.V3 != nil && cfg.User != "" && observed.V3.User != cfg.User {
		patch.V3 = desiredV3(cfg)
		diffs = append(diffs, "v3 user")
	}
	if cfg.UpdateSecrets {
		// Community strings and passphrases are write-only; re-applying
		// them happens only on request.
		switch version {
		case "v2c":
			patch.V2C = &flasharray.SnmpV2C{Community: cfg.Community}
		case "v3":
			patch.V3 = desiredV3(cfg)
		}
		diffs = append(diffs, "secrets")
	}
	// A version change carries the matching credential block along.
	if patch.Version != nil && patch.V2C == nil && patch.V3 == nil {
		switch version {
		case "v2c":
			patch.V2C = &flasharray.SnmpV2C{Community: cfg.Community}
		case "v3":
			patch.V3 = desiredV3(cfg)
		}
	}

	if len(diffs) == 0 {
		return &model.EvaluationResult{
			TaskID:       task.ID,
			CurrentState: model.StatusSatisfied,
			Action:       model.ActionNone,
			Message:      fmt.Sprintf("snmp manager %s already converged", cfg.Name),
		}, nil
	}

	return &model.EvaluationResult{
		TaskID:         task.ID,
		CurrentState:   model.StatusDrifted,
		RequiresAction: true,
		Action:         model.ActionUpdate,
		Message:        fmt.Sprintf("snmp manager %s drifted, will update", cfg.Name),
		Diff:           strings.Join(diffs, "\n"),
		InternalData:   &plan{patch: patch},
	}, nil
}

func (r *Reconciler) Apply(ctx context.Context, evaluation *model.EvaluationResult, task *config.Task) (*model.TaskResult, error) {
	cfg := task.Snmp
	evalPlan, ok := evaluation.InternalData.(*plan)
	if !ok || evalPlan == nil {
		return nil, purefaerrors.NewValidationError(task.ID, "evaluation data is missing", nil)
	}

	switch {
	case evalPlan.create != nil:
		if _, err := r.client.CreateSnmpManager(ctx, cfg.Name, *evalPlan.create); err != nil {
			return nil, err
		}
	case evalPlan.delete:
		if err := r.client.DeleteSnmpManager(ctx, cfg.Name); err != nil {
			return nil, err
		}
	default:
		if evalPlan.patch != nil {
			if _, err := r.client.PatchSnmpManager(ctx, cfg.Name, *evalPlan.patch); err != nil {
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

func desiredV3(cfg *config.SnmpTask) *flasharray.SnmpV3 {
	return &flasharray.SnmpV3{
		User:              cfg.User,
		AuthProtocol:      cfg.AuthProtocol,
		AuthPassphrase:    cfg.AuthPass,
		PrivacyProtocol:   cfg.PrivProtocol,
		PrivacyPassphrase: cfg.PrivPass,
	}
}
