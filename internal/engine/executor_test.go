package engine

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mvachon/purefa/internal/config"
	"github.com/mvachon/purefa/internal/model"
	"github.com/mvachon/purefa/internal/reconciler"
)

// scriptedReconciler drives the executor with canned evaluate and apply
// outcomes while recording which phases ran.
type scriptedReconciler struct {
	name       string
	evaluation *model.EvaluationResult
	evalErr    error
	applyErr   error

	evaluateCalls int
	applyCalls    int
}

func (s *scriptedReconciler) Metadata() reconciler.Metadata {
	return reconciler.Metadata{Name: s.name, Version: "1.0.0"}
}

func (s *scriptedReconciler) Schema() any { return struct{}{} }

func (s *scriptedReconciler) Evaluate(ctx context.Context, task *config.Task) (*model.EvaluationResult, error) {
	s.evaluateCalls++
	if s.evalErr != nil {
		return nil, s.evalErr
	}
	res := *s.evaluation
	res.TaskID = task.ID
	return &res, nil
}

func (s *scriptedReconciler) Apply(ctx context.Context, evaluation *model.EvaluationResult, task *config.Task) (*model.TaskResult, error) {
	s.applyCalls++
	if s.applyErr != nil {
		return nil, s.applyErr
	}
	return &model.TaskResult{TaskID: task.ID, Status: model.StatusSuccess, Changed: true, Message: "applied"}, nil
}

func planWithTasks(tasks ...config.Task) *config.Plan {
	return &config.Plan{
		Version:    "1.0",
		Name:       "test",
		Connection: config.Connection{Endpoint: "array1", APIToken: "t"},
		Tasks:      tasks,
	}
}

func task(id, taskType string) config.Task {
	return config.Task{ID: id, Type: taskType, State: config.StatePresent, Enabled: true}
}

func newExecCtx(t *testing.T, plan *config.Plan, recs ...*scriptedReconciler) *ExecutionContext {
	t.Helper()
	reg := reconciler.NewRegistry()
	for _, rec := range recs {
		require.NoError(t, reg.Register(rec))
	}
	return &ExecutionContext{Plan: plan, Registry: reg}
}

func TestExecuteAppliesWhenActionRequired(t *testing.T) {
	t.Parallel()

	rec := &scriptedReconciler{
		name: "volume",
		evaluation: &model.EvaluationResult{
			CurrentState:   model.StatusMissing,
			RequiresAction: true,
			Action:         model.ActionCreate,
			Message:        "volume missing",
		},
	}

	results, err := Execute(newExecCtx(t, planWithTasks(task("t1", "volume")), rec))
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, model.StatusSuccess, results[0].Status)
	require.True(t, results[0].Changed)
	require.Equal(t, 1, rec.evaluateCalls)
	require.Equal(t, 1, rec.applyCalls)
}

func TestExecuteSkipsApplyWhenConverged(t *testing.T) {
	t.Parallel()

	rec := &scriptedReconciler{
		name: "volume",
		evaluation: &model.EvaluationResult{
			CurrentState:   model.StatusSatisfied,
			RequiresAction: false,
			Action:         model.ActionNone,
			Message:        "already converged",
		},
	}

	results, err := Execute(newExecCtx(t, planWithTasks(task("t1", "volume")), rec))
	require.NoError(t, err)
	require.Equal(t, model.StatusUnchanged, results[0].Status)
	require.False(t, results[0].Changed)
	require.Zero(t, rec.applyCalls, "no mutating phase for a converged task")
}

func TestExecuteDryRunNeverApplies(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		action     model.Action
		wantStatus string
	}{
		{"create", model.ActionCreate, model.StatusWouldCreate},
		{"update", model.ActionUpdate, model.StatusWouldUpdate},
		{"delete", model.ActionDelete, model.StatusWouldDelete},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := &scriptedReconciler{
				name: "volume",
				evaluation: &model.EvaluationResult{
					CurrentState:   model.StatusDrifted,
					RequiresAction: true,
					Action:         tt.action,
					Message:        "pending change",
				},
			}

			execCtx := newExecCtx(t, planWithTasks(task("t1", "volume")), rec)
			execCtx.DryRun = true

			results, err := Execute(execCtx)
			require.NoError(t, err)
			require.Equal(t, tt.wantStatus, results[0].Status)
			require.Zero(t, rec.applyCalls, "dry-run must not reach the mutating phase")
		})
	}
}

func TestExecuteSkipsDisabledTasks(t *testing.T) {
	t.Parallel()

	rec := &scriptedReconciler{
		name:       "volume",
		evaluation: &model.EvaluationResult{RequiresAction: true, Action: model.ActionCreate},
	}

	disabled := task("t1", "volume")
	disabled.Enabled = false

	results, err := Execute(newExecCtx(t, planWithTasks(disabled), rec))
	require.NoError(t, err)
	require.Equal(t, model.StatusSkipped, results[0].Status)
	require.Zero(t, rec.evaluateCalls)
}

func TestExecuteAbortsOnFirstFailure(t *testing.T) {
	t.Parallel()

	failing := &scriptedReconciler{name: "volume", evalErr: fmt.Errorf("array unreachable")}
	after := &scriptedReconciler{
		name:       "host",
		evaluation: &model.EvaluationResult{RequiresAction: false, Message: "ok"},
	}

	results, err := Execute(newExecCtx(t, planWithTasks(task("t1", "volume"), task("t2", "host")), failing, after))
	require.Error(t, err)
	require.Len(t, results, 1)
	require.Equal(t, model.StatusFailed, results[0].Status)
	require.Zero(t, after.evaluateCalls, "later tasks must not run after a failure")
}

func TestExecuteContinueOnError(t *testing.T) {
	t.Parallel()

	failing := &scriptedReconciler{name: "volume", evalErr: fmt.Errorf("array unreachable")}
	after := &scriptedReconciler{
		name:       "host",
		evaluation: &model.EvaluationResult{RequiresAction: false, Message: "ok"},
	}

	execCtx := newExecCtx(t, planWithTasks(task("t1", "volume"), task("t2", "host")), failing, after)
	execCtx.ContinueOnError = true

	results, err := Execute(execCtx)
	require.Error(t, err, "first error is still reported")
	require.Len(t, results, 2)
	require.Equal(t, model.StatusFailed, results[0].Status)
	require.Equal(t, model.StatusUnchanged, results[1].Status)
}

func TestExecuteUnknownTaskType(t *testing.T) {
	t.Parallel()

	results, err := Execute(newExecCtx(t, planWithTasks(task("t1", "widget"))))
	require.Error(t, err)
	require.Equal(t, model.StatusFailed, results[0].Status)
}

func TestExecuteNilContexts(t *testing.T) {
	t.Parallel()

	_, err := Execute(nil)
	require.Error(t, err)

	_, err = Execute(&ExecutionContext{})
	require.Error(t, err)
}

func TestExecuteHonoursCancellation(t *testing.T) {
	t.Parallel()

	rec := &scriptedReconciler{
		name:       "volume",
		evaluation: &model.EvaluationResult{RequiresAction: false, Message: "ok"},
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	execCtx := newExecCtx(t, planWithTasks(task("t1", "volume")), rec)
	execCtx.Context = ctx

	_, err := Execute(execCtx)
	require.Error(t, err)
	require.Zero(t, rec.evaluateCalls)
}
