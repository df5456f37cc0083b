package model

import "time"

// TaskState is the outcome of a task within one run.
type TaskState string

const (
	PendingState TaskState = "pending"
	SkippedState TaskState = "skipped"
	RanState     TaskState = "ran"
	FailedState  TaskState = "failed"
)

// TaskInfo describes a task registered in the pipeline.
type TaskInfo struct {
	Name     string
	Requires []string
	State    TaskState
	Elapsed  time.Duration
	Err      error
}

// Done reports whether the task ended in a terminal state during the run.
func (ti *TaskInfo) Done() bool {
	return ti.State == SkippedState || ti.State == RanState
}
