package model

import (
	"time"
)

const (
	// StatusPending indicates a task has not started yet.
	StatusPending = "pending"
	// StatusRunning indicates a task is actively executing.
	StatusRunning = "running"
	// StatusSuccess marks a completed task that changed the array.
	StatusSuccess = "success"
	// StatusUnchanged marks a completed task that was already converged.
	StatusUnchanged = "unchanged"
	// StatusSkipped indicates the executor skipped the task.
	StatusSkipped = "skipped"
	// StatusFailed marks a failure during task execution.
	StatusFailed = "failed"
	// StatusWouldCreate indicates dry-run would create the resource.
	StatusWouldCreate = "would_create"
	// StatusWouldUpdate indicates dry-run would update the resource.
	StatusWouldUpdate = "would_update"
	// StatusWouldDelete indicates dry-run would delete the resource.
	StatusWouldDelete = "would_delete"
)

// TaskResult captures the outcome of executing a single task.
type TaskResult struct {
	TaskID    string
	Type      string
	Status    string
	Changed   bool
	Message   string
	Error     error
	Duration  time.Duration
	Timestamp time.Time
}

// ConvergenceSummary aggregates task results for reporting.
type ConvergenceSummary struct {
	TotalTasks int
	Changed    int
	Unchanged  int
	Failed     int
	Skipped    int
	WouldAct   int
	Duration   time.Duration
}

// AllConverged reports whether every task finished without requiring or
// performing further changes.
func (s *ConvergenceSummary) AllConverged() bool {
	if s == nil {
		return false
	}
	return s.Failed == 0 && s.WouldAct == 0
}

// Summarize builds a ConvergenceSummary from task results.
func Summarize(results []TaskResult) *ConvergenceSummary {
	summary := &ConvergenceSummary{TotalTasks: len(results)}
	for _, res := range results {
		summary.Duration += res.Duration
		switch res.Status {
		case StatusSuccess:
			summary.Changed++
		case StatusUnchanged:
			summary.Unchanged++
		case StatusFailed:
			summary.Failed++
		case StatusSkipped:
			summary.Skipped++
		case StatusWouldCreate, StatusWouldUpdate, StatusWouldDelete:
			summary.WouldAct++
		}
	}
	return summary
}
