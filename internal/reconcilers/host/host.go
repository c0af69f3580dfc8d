// Package host reconciles hosts, their initiators, and their volume
// connections.
package host

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/mvachon/purefa/internal/apiversion"
	"github.com/mvachon/purefa/internal/config"
	"github.com/mvachon/purefa/internal/flasharray"
	"github.com/mvachon/purefa/internal/model"
	"github.com/mvachon/purefa/internal/reconciler"
	purefaerrors "github.com/mvachon/purefa/pkg/errors"
)

const (
	// nqnVersion gates NVMe qualified names on host records.
	nqnVersion = "2.2"
	// expandedInitiatorVersion raises the per-list initiator cap.
	expandedInitiatorVersion = "2.16"

	baseInitiatorMax     = 16
	expandedInitiatorMax = 64
)

// API is the slice of the array client this reconciler needs.
type API interface {
	RESTVersion() string
	GetHost(ctx context.Context, name string) (*flasharray.Host, error)
	CreateHost(ctx context.Context, name string, body flasharray.HostPost) (*flasharray.Host, error)
	PatchHost(ctx context.Context, name string, patch flasharray.HostPatch) (*flasharray.Host, error)
	DeleteHost(ctx context.Context, name string) error
	ListHostConnections(ctx context.Context, host string) ([]flasharray.Connection, error)
	ConnectVolume(ctx context.Context, host, volume string, lun int) error
	DisconnectVolume(ctx context.Context, host, volume string) error
}

var _ API = (*flasharray.Client)(nil)

// Reconciler converges hosts and their volume connections.
type Reconciler struct {
	client API
}

var _ reconciler.Reconciler = (*Reconciler)(nil)

func New(client API) *Reconciler {
	return &Reconciler{client: client}
}

func (r *Reconciler) Metadata() reconciler.Metadata {
	return reconciler.Metadata{
		Name:           "host",
		Version:        "1.0.0",
		MinRESTVersion: "2.0",
		Description:    "Manages hosts, initiators, and volume connections",
	}
}

func (r *Reconciler) Schema() any {
	return config.HostTask{}
}

type plan struct {
	create     *flasharray.HostPost
	patch      *flasharray.HostPatch
	connect    []config.HostVolume
	disconnect []string
	delete     bool
}

func (r *Reconciler) Evaluate(ctx context.Context, task *config.Task) (*model.EvaluationResult, error) {
	cfg := task.Host
	if cfg == nil {
		return nil, purefaerrors.NewValidationError(task.ID, "host task body is missing", nil)
	}

	if len(cfg.Nqns) > 0 {
		if err := reconciler.RequireVersion(r.client, "NVMe host initiators", nqnVersion); err != nil {
			return nil, err
		}
	}

	if task.State == config.StateAbsent {
		return r.evaluateAbsent(ctx, task, cfg)
	}
	return r.evaluatePresent(ctx, task, cfg)
}

// initiatorMax is the per-list initiator cap the connected REST version
// supports; declared lists longer than the cap are truncated.
func (r *Reconciler) initiatorMax() int {
	if apiversion.AtLeast(r.client.RESTVersion(), expandedInitiatorVersion) {
		return expandedInitiatorMax
	}
	return baseInitiatorMax
}

func capInitiators(list []string, max int) []string {
	if len(list) > max {
		return list[:max]
	}
	return list
}

func (r *Reconciler) evaluatePresent(ctx context.Context, task *config.Task, cfg *config.HostTask) (*model.EvaluationResult, error) {
	limit := r.initiatorMax()
	iqns := capInitiators(cfg.Iqns, limit)
	wwns := capInitiators(cfg.Wwns, limit)
	nqns := capInitiators(cfg.Nqns, limit)

	observed, err := r.client.GetHost(ctx, cfg.Name)
	if err != nil {
		return nil, err
	}

	if observed == nil {
		evalPlan := &plan{
			create: &flasharray.HostPost{
				Iqns:        iqns,
				Wwns:        wwns,
				Nqns:        nqns,
				Personality: cfg.Personality,
				Chap:        desiredChap(cfg),
			},
			connect: cfg.Volumes,
		}
		return &model.EvaluationResult{
			TaskID:         task.ID,
			CurrentState:   model.StatusMissing,
			RequiresAction: true,
			Action:         model.ActionCreate,
			Message:        fmt.Sprintf("host %s missing, will create", cfg.Name),
			InternalData:   evalPlan,
		}, nil
	}

	var diffs []string
	patch := &flasharray.HostPatch{}

	if cfg.Iqns != nil && !sameSet(observed.Iqns, iqns) {
		patch.Iqns = &iqns
		diffs = append(diffs, "iqns")
	}
	if cfg.Wwns != nil && !sameSet(observed.Wwns, wwns) {
		patch.Wwns = &wwns
		diffs = append(diffs, "wwns")
	}
	if cfg.Nqns != nil && !sameSet(observed.Nqns, nqns) {
		patch.Nqns = &nqns
		diffs = append(diffs, "nqns")
	}
	if cfg.Personality != "" && observed.Personality != cfg.Personality {
		personality := cfg.Personality
		patch.Personality = &personality
		diffs = append(diffs, fmt.Sprintf("personality %q -> %q", observed.Personality, cfg.Personality))
	}
	if chap := desiredChap(cfg); chapDrifted(observed.Chap, chap) {
		// Passwords are write-only, so usernames stand in for the whole
		// credential when deciding drift.
		patch.Chap = chap
		diffs = append(diffs, "chap credentials")
	}

	var connect []config.HostVolume
	if len(cfg.Volumes) > 0 {
		conns, err := r.client.ListHostConnections(ctx, cfg.Name)
		if err != nil {
			return nil, err
		}
		connect = missingConnections(cfg.Volumes, conns)
		for _, hv := range connect {
			diffs = append(diffs, fmt.Sprintf("connect %s", hv.Name))
		}
	}

	patched := patch.Iqns != nil || patch.Wwns != nil || patch.Nqns != nil ||
		patch.Personality != nil || patch.Chap != nil

	if !patched && len(connect) == 0 {
		return &model.EvaluationResult{
			TaskID:       task.ID,
			CurrentState: model.StatusSatisfied,
			Action:       model.ActionNone,
			Message:      fmt.Sprintf("host %s already converged", cfg.Name),
		}, nil
	}

	evalPlan := &plan{connect: connect}
	if patched {
		evalPlan.patch = patch
	}

	return &model.EvaluationResult{
		TaskID:         task.ID,
		CurrentState:   model.StatusDrifted,
		RequiresAction: true,
		Action:         model.ActionUpdate,
		Message:        fmt.Sprintf("host %s drifted, will update", cfg.Name),
		Diff:           strings.Join(diffs, "\n"),
		InternalData:   evalPlan,
	}, nil
}

func (r *Reconciler) evaluateAbsent(ctx context.Context, task *config.Task, cfg *config.HostTask) (*model.EvaluationResult, error) {
	observed, err := r.client.GetHost(ctx, cfg.Name)
	if err != nil {
		return nil, err
	}

	if observed == nil {
		return &model.EvaluationResult{
			TaskID:       task.ID,
			CurrentState: model.StatusSatisfied,
			Action:       model.ActionNone,
			Message:      fmt.Sprintf("host %s already absent", cfg.Name),
		}, nil
	}

	// Hosts refuse deletion while connections remain, so those go first.
	conns, err := r.client.ListHostConnections(ctx, cfg.Name)
	if err != nil {
		return nil, err
	}
	evalPlan := &plan{delete: true}
	for _, conn := range conns {
		evalPlan.disconnect = append(evalPlan.disconnect, conn.Volume.Name)
	}
	sort.Strings(evalPlan.disconnect)

	return &model.EvaluationResult{
		TaskID:         task.ID,
		CurrentState:   model.StatusDrifted,
		RequiresAction: true,
		Action:         model.ActionDelete,
		Message:        fmt.Sprintf("host %s present, will delete", cfg.Name),
		InternalData:   evalPlan,
	}, nil
}

func (r *Reconciler) Apply(ctx context.Context, evaluation *model.EvaluationResult, task *config.Task) (*model.TaskResult, error) {
	cfg := task.Host
	evalPlan, ok := evaluation.InternalData.(*plan)
	if !ok || evalPlan == nil {
		return nil, purefaerrors.NewValidationError(task.ID, "evaluation data is missing", nil)
	}

	switch {
	case evalPlan.create != nil:
		if _, err := r.client.CreateHost(ctx, cfg.Name, *evalPlan.create); err != nil {
			return nil, err
		}
	case evalPlan.delete:
		for _, volume := range evalPlan.disconnect {
			if err := r.client.DisconnectVolume(ctx, cfg.Name, volume); err != nil {
				return nil, err
			}
		}
		if err := r.client.DeleteHost(ctx, cfg.Name); err != nil {
			return nil, err
		}
	default:
		if evalPlan.patch != nil {
			if _, err := r.client.PatchHost(ctx, cfg.Name, *evalPlan.patch); err != nil {
				return nil, err
			}
		}
	}

	for _, hv := range evalPlan.connect {
		if err := r.client.ConnectVolume(ctx, cfg.Name, hv.Name, hv.Lun); err != nil {
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

func desiredChap(cfg *config.HostTask) *flasharray.Chap {
	if cfg.HostUser == "" && cfg.TargetUser == "" {
		return nil
	}
	return &flasharray.Chap{
		HostUser:       cfg.HostUser,
		HostPassword:   cfg.HostPass,
		TargetUser:     cfg.TargetUser,
		TargetPassword: cfg.TargetPass,
	}
}

func chapDrifted(observed, desired *flasharray.Chap) bool {
	if desired == nil {
		return false
	}
	if observed == nil {
		return true
	}
	return observed.HostUser != desired.HostUser || observed.TargetUser != desired.TargetUser
}

// missingConnections returns the declared connections the host does not
// have yet. Connections the declaration does not mention stay in place.
func missingConnections(desired []config.HostVolume, observed []flasharray.Connection) []config.HostVolume {
	connected := make(map[string]bool, len(observed))
	for _, conn := range observed {
		connected[conn.Volume.Name] = true
	}
	var missing []config.HostVolume
	for _, hv := range desired {
		if !connected[hv.Name] {
			missing = append(missing, hv)
		}
	}
	return missing
}

func sameSet(observed, desired []string) bool {
	if len(observed) != len(desired) {
		return false
	}
	seen := make(map[string]bool, len(observed))
	for _, v := range observed {
		seen[strings.ToLower(v)] = true
	}
	for _, v := range desired {
		if !seen[strings.ToLower(v)] {
			return false
		}
	}
	return true
}
