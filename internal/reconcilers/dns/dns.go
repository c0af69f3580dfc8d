// Package dns reconciles the array-global DNS configuration.
package dns

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

// maxNameservers is the array-side limit on configured resolvers.
const maxNameservers = 3

// API is the slice of the array client this reconciler needs.
type API interface {
	RESTVersion() string
	GetDNS(ctx context.Context) (*flasharray.DNS, error)
	PatchDNS(ctx context.Context, cfg flasharray.DNS) (*flasharray.DNS, error)
}

var _ API = (*flasharray.Client)(nil)

// Reconciler converges the DNS singleton.
type Reconciler struct {
	client API
}

var _ reconciler.Reconciler = (*Reconciler)(nil)

func New(client API) *Reconciler {
	return &Reconciler{client: client}
}

func (r *Reconciler) Metadata() reconciler.Metadata {
	return reconciler.Metadata{
		Name:           "dns",
		Version:        "1.0.0",
		MinRESTVersion: "2.0",
		Description:    "Manages the array DNS domain and nameservers",
	}
}

func (r *Reconciler) Schema() any {
	return config.DNSTask{}
}

type plan struct {
	set flasharray.DNS
}

func (r *Reconciler) Evaluate(ctx context.Context, task *config.Task) (*model.EvaluationResult, error) {
	cfg := task.DNS
	if cfg == nil {
		return nil, purefaerrors.NewValidationError(task.ID, "dns task body is missing", nil)
	}

	observed, err := r.client.GetDNS(ctx)
	if err != nil {
		return nil, err
	}
	if observed == nil {
		observed = &flasharray.DNS{}
	}

	if task.State == config.StateAbsent {
		return r.evaluateAbsent(task, observed)
	}

	desired := flasharray.DNS{
		Domain:      cfg.Domain,
		Nameservers: cfg.Nameservers,
	}
	if len(desired.Nameservers) > maxNameservers {
		desired.Nameservers = desired.Nameservers[:maxNameservers]
	}

	var diffs []string
	// Domains compare case-insensitively.
	if desired.Domain != "" && !strings.EqualFold(observed.Domain, desired.Domain) {
		diffs = append(diffs, fmt.Sprintf("domain %q -> %q", observed.Domain, desired.Domain))
	}
	if desired.Nameservers != nil && !sameServers(observed.Nameservers, desired.Nameservers) {
		diffs = append(diffs, fmt.Sprintf("nameservers %v -> %v", observed.Nameservers, desired.Nameservers))
	}

	if len(diffs) == 0 {
		return &model.EvaluationResult{
			TaskID:       task.ID,
			CurrentState: model.StatusSatisfied,
			Action:       model.ActionNone,
			Message:      "dns already converged",
		}, nil
	}

	// Unchanged fields are resent so the patch never clears them.
	if desired.Domain == "" {
		desired.Domain = observed.Domain
	}
	if desired.Nameservers == nil {
		desired.Nameservers = observed.Nameservers
	}

	return &model.EvaluationResult{
		TaskID:         task.ID,
		CurrentState:   model.StatusDrifted,
		RequiresAction: true,
		Action:         model.ActionUpdate,
		Message:        "dns drifted, will update",
		Diff:           strings.Join(diffs, "\n"),
		InternalData:   &plan{set: desired},
	}, nil
}

func (r *Reconciler) evaluateAbsent(task *config.Task, observed *flasharray.DNS) (*model.EvaluationResult, error) {
	if observed.Domain == "" && len(observed.Nameservers) == 0 {
		return &model.EvaluationResult{
			TaskID:       task.ID,
			CurrentState: model.StatusSatisfied,
			Action:       model.ActionNone,
			Message:      "dns already unconfigured",
		}, nil
	}

	return &model.EvaluationResult{
		TaskID:         task.ID,
		CurrentState:   model.StatusDrifted,
		RequiresAction: true,
		Action:         model.ActionDelete,
		Message:        "dns configured, will clear domain and nameservers",
		InternalData:   &plan{set: flasharray.DNS{Nameservers: []string{}}},
	}, nil
}

func (r *Reconciler) Apply(ctx context.Context, evaluation *model.EvaluationResult, task *config.Task) (*model.TaskResult, error) {
	evalPlan, ok := evaluation.InternalData.(*plan)
	if !ok || evalPlan == nil {
		return nil, purefaerrors.NewValidationError(task.ID, "evaluation data is missing", nil)
	}

	if _, err := r.client.PatchDNS(ctx, evalPlan.set); err != nil {
		return nil, err
	}

	return &model.TaskResult{
		TaskID:  task.ID,
		Status:  model.StatusSuccess,
		Changed: true,
		Message: evaluation.Message,
	}, nil
}

// sameServers compares resolver lists in order; resolver order matters
// for lookup behavior.
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
