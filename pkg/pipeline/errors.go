package pipeline

import (
	"github.com/pkg/errors"
)

var (
	ErrPipelineMustBeSet = errors.New("pipeline must be set")
	ErrTaskMustBeSet     = errors.New("task must be set")
	ErrTaskNameMustBeSet = errors.New("task name must be set")
	ErrTaskAlreadyExists = errors.New("task already exists")
	ErrUnknownTask       = errors.New("unknown task")
	ErrUnknownDependency = errors.New("unknown dependency")
	ErrCycle             = errors.New("dependency cycle")
	ErrIncompleteOutput  = errors.New("task finished without producing all of its outputs")
	// ErrOutputsUnresolved is wrapped by Task.Outputs when the outputs depend on upstream
	// artifacts that do not exist yet.
	ErrOutputsUnresolved = errors.New("outputs cannot be resolved yet")
)

// TaskError carries the name of the task that stopped the run.
type TaskError struct {
	Task string
	Err  error
}

func (e *TaskError) Error() string {
	return "task " + e.Task + ": " + e.Err.Error()
}

func (e *TaskError) Unwrap() error {
	return e.Err
}
