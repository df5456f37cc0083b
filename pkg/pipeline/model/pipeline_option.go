package model

import "time"

// PipelineOption defines the interface for pipeline options.
type PipelineOption interface {
	// New initialises the pipeline option.
	New() error

	pipelineTaskOption

	// Finish runs after the pipeline is finished, whether it failed or not.
	Finish() error
}

// pipelineTaskOption defines the interface for task options at the pipeline level.
type pipelineTaskOption interface {
	// PrepareTask runs once per task when the graph is linked, with the tasks it depends on.
	PrepareTask(parents []*TaskInfo, task *TaskInfo) error
	// OnTaskSkipped runs when a task is already complete and is not executed.
	OnTaskSkipped(task *TaskInfo) error
	// OnTaskDone runs after a task executed successfully.
	OnTaskDone(task *TaskInfo, elapsed time.Duration) error
	// OnTaskFailed runs after a task failed. The run stops right after.
	OnTaskFailed(task *TaskInfo, elapsed time.Duration, err error) error
}
