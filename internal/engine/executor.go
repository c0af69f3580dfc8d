package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/mvachon/purefa/internal/config"
	"github.com/mvachon/purefa/internal/model"
	purefaerrors "github.com/mvachon/purefa/pkg/errors"
)

// Execute converges every task of the plan strictly in declaration order.
// Execution is fully synchronous: one task at a time, each a fresh
// read-diff-write cycle with no state carried between tasks. The first
// failure aborts the run unless ContinueOnError is set.
func Execute(execCtx *ExecutionContext) ([]model.TaskResult, error) {
	if execCtx == nil {
		return nil, purefaerrors.NewReconcileError("", fmt.Errorf("execution context is nil"))
	}
	if execCtx.Plan == nil {
		return nil, purefaerrors.NewReconcileError("", fmt.Errorf("execution context plan is nil"))
	}
	if execCtx.Registry == nil {
		return nil, purefaerrors.NewReconcileError("", fmt.Errorf("execution context registry is nil"))
	}

	ctx := execCtx.Context
	if ctx == nil {
		ctx = context.Background()
	}

	var results []model.TaskResult
	var firstErr error

	for i := range execCtx.Plan.Tasks {
		task := &execCtx.Plan.Tasks[i]

		if ctx.Err() != nil {
			return results, purefaerrors.NewReconcileError(task.ID, ctx.Err())
		}

		res, err := executeTask(ctx, execCtx, task)
		if res != nil {
			results = append(results, *res)
		}
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			if !execCtx.ContinueOnError {
				return results, err
			}
		}
	}

	return results, firstErr
}

func executeTask(ctx context.Context, execCtx *ExecutionContext, task *config.Task) (*model.TaskResult, error) {
	started := time.Now()
	log := execCtx.Logger.WithTask(task.ID, task.Type)

	if !task.Enabled {
		log.Debug("task disabled, skipping")
		return &model.TaskResult{
			TaskID:    task.ID,
			Type:      task.Type,
			Status:    model.StatusSkipped,
			Message:   "task disabled",
			Timestamp: started,
		}, nil
	}

	rec, err := execCtx.Registry.Get(task.Type)
	if err != nil {
		wrapped := purefaerrors.NewReconcileError(task.ID, err)
		return failedResult(task, started, wrapped), wrapped
	}

	log.Debug("evaluating observed state")
	evaluation, err := rec.Evaluate(ctx, task)
	if err != nil {
		wrapped := purefaerrors.NewReconcileError(task.ID, err)
		return failedResult(task, started, wrapped), wrapped
	}

	if !evaluation.RequiresAction {
		log.Debug("already converged")
		return &model.TaskResult{
			TaskID:    task.ID,
			Type:      task.Type,
			Status:    model.StatusUnchanged,
			Message:   evaluation.Message,
			Duration:  time.Since(started),
			Timestamp: started,
		}, nil
	}

	if execCtx.DryRun {
		log.Info("dry-run: " + evaluation.Message)
		return &model.TaskResult{
			TaskID:    task.ID,
			Type:      task.Type,
			Status:    dryRunStatus(evaluation.Action),
			Changed:   true,
			Message:   evaluation.Message,
			Duration:  time.Since(started),
			Timestamp: started,
		}, nil
	}

	log.Info(evaluation.Message)
	result, err := rec.Apply(ctx, evaluation, task)
	if err != nil {
		wrapped := purefaerrors.NewReconcileError(task.ID, err)
		return failedResult(task, started, wrapped), wrapped
	}

	result.Type = task.Type
	result.Duration = time.Since(started)
	result.Timestamp = started
	return result, nil
}

func dryRunStatus(action model.Action) string {
	switch action {
	case model.ActionCreate:
		return model.StatusWouldCreate
	case model.ActionDelete:
		return model.StatusWouldDelete
	default:
		return model.StatusWouldUpdate
	}
}

func failedResult(task *config.Task, started time.Time, err error) *model.TaskResult {
	return &model.TaskResult{
		TaskID:    task.ID,
		Type:      task.Type,
		Status:    model.StatusFailed,
		Message:   err.Error(),
		Error:     err,
		Duration:  time.Since(started),
		Timestamp: started,
	}
}
