// Package syslog reconciles remote syslog destinations.
package syslog

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

const (
	// servicesVersion gates per-destination service routing.
	servicesVersion = "2.4"

	defaultPort     = 514
	defaultProtocol = "udp"
)

// API is the slice of the array client this reconciler needs.
type API interface {
	RESTVersion() string
	GetSyslogServer(ctx context.Context, name string) (*flasharray.SyslogServer, error)
	CreateSyslogServer(ctx context.Context, name string, body flasharray.SyslogServerPost) (*flasharray.SyslogServer, error)
	PatchSyslogServer(ctx context.Context, name string, patch flasharray.SyslogServerPatch) (*flasharray.SyslogServer, error)
	DeleteSyslogServer(ctx context.Context, name string) error
}

var _ API = (*flasharray.Client)(nil)

// Reconciler converges syslog destinations.
type Reconciler struct {
	client API
}

var _ reconciler.Reconciler = (*Reconciler)(nil)

func New(client API) *Reconciler {
	return &Reconciler{client: client}
}

func (r *Reconciler) Metadata() reconciler.Metadata {
	return reconciler.Metadata{
		Name:           "syslog",
		Version:        "1.0.0",
		MinRESTVersion: "2.0",
		Description:    "Manages remote syslog destinations",
	}
}

func (r *Reconciler) Schema() any {
	return config.SyslogTask{}
}

type plan struct {
	create *flasharray.SyslogServerPost
	patch  *flasharray.SyslogServerPatch
	delete bool
}

// desiredUri builds the destination URI the array expects,
// protocol://address:port.
func desiredUri(cfg *config.SyslogTask) string {
	protocol := cfg.Protocol
	if protocol == "" {
		protocol = defaultProtocol
	}
	port := cfg.Port
	if port == 0 {
		port = defaultPort
	}
	return fmt.Sprintf("%s://%s:%d", protocol, cfg.Address, port)
}

func (r *Reconciler) Evaluate(ctx context.Context, task *config.Task) (*model.EvaluationResult, error) {
	cfg := task.Syslog
	if cfg == nil {
		return nil, purefaerrors.NewValidationError(task.ID, "syslog task body is missing", nil)
	}

	if len(cfg.Services) > 0 {
		if err := reconciler.RequireVersion(r.client, "syslog service routing", servicesVersion); err != nil {
			return nil, err
		}
	}

	observed, err := r.client.GetSyslogServer(ctx, cfg.Name)
	if err != nil {
		return nil, err
	}

	if task.State == config.StateAbsent {
		if observed == nil {
			return &model.EvaluationResult{
				TaskID:       task.ID,
				CurrentState: model.StatusSatisfied,
				Action:       model.ActionNone,
				Message:      fmt.Sprintf("syslog server %s already absent", cfg.Name),
			}, nil
		}
		return &model.EvaluationResult{
			TaskID:         task.ID,
			CurrentState:   model.StatusDrifted,
			RequiresAction: true,
			Action:         model.ActionDelete,
			Message:        fmt.Sprintf("syslog server %s present, will delete", cfg.Name),
			InternalData:   &plan{delete: true},
		}, nil
	}

	uri := desiredUri(cfg)

	if observed == nil {
		return &model.EvaluationResult{
			TaskID:         task.ID,
			CurrentState:   model.StatusMissing,
			RequiresAction: true,
			Action:         model.ActionCreate,
			Message:        fmt.Sprintf("syslog server %s missing, will create", cfg.Name),
			InternalData: &plan{create: &flasharray.SyslogServerPost{
				Uri:      uri,
				Services: cfg.Services,
			}},
		}, nil
	}

	var diffs []string
	patch := &flasharray.SyslogServerPatch{}

	if observed.Uri != uri {
		patch.Uri = &uri
		diffs = append(diffs, fmt.Sprintf("uri %s -> %s", observed.Uri, uri))
	}
	if len(cfg.Services) > 0 && !sameServices(observed.Services, cfg.Services) {
		services := cfg.Services
		patch.Services = &services
		diffs = append(diffs, "services")
	}

	if len(diffs) == 0 {
		return &model.EvaluationResult{
			TaskID:       task.ID,
			CurrentState: model.StatusSatisfied,
			Action:       model.ActionNone,
			Message:      fmt.Sprintf("syslog server %s already converged", cfg.Name),
		}, nil
	}

	return &model.EvaluationResult{
		TaskID:         task.ID,
		CurrentState:   model.StatusDrifted,
		RequiresAction: true,
		Action:         model.ActionUpdate,
		Message:        fmt.Sprintf("syslog server %s drifted, will update", cfg.Name),
		Diff:           strings.Join(diffs, "\n"),
		InternalData:   &plan{patch: patch},
	}, nil
}

func (r *Reconciler) Apply(ctx context.Context, evaluation *model.EvaluationResult, task *config.Task) (*model.TaskResult, error) {
	cfg := task.Syslog
	evalPlan, ok := evaluation.InternalData.(*plan)
	if !ok || evalPlan == nil {
		return nil, purefaerrors.NewValidationError(task.ID, "evaluation data is missing", nil)
	}

	switch {
	case evalPlan.create != nil:
		if _, err := r.client.CreateSyslogServer(ctx, cfg.Name, *evalPlan.create); err != nil {
			return nil, err
		}
	case evalPlan.delete:
		if err := r.client.DeleteSyslogServer(ctx, cfg.Name); err != nil {
			return nil, err
		}
	default:
		if evalPlan.patch != nil {
			if _, err := r.client.PatchSyslogServer(ctx, cfg.Name, *evalPlan.patch); err != nil {
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
