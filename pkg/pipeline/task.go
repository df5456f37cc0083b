package pipeline

import (
	"context"
	"os"

	"github.com/pkg/errors"
)

// Task is a node of the pipeline graph.
type Task interface {
	// Name identifies the task in the graph. It must be unique within a pipeline.
	Name() string
	// Requires lists the names of the tasks whose outputs this task consumes.
	Requires() []string
	// Outputs lists the files the task produces. It may be derived from upstream artifacts, in
	// which case it returns an error wrapping ErrOutputsUnresolved until they exist.
	Outputs() ([]string, error)
	// Run produces the outputs.
	Run(ctx context.Context) error
}

// Completer is implemented by tasks that decide by themselves whether they are complete, instead
// of relying on the presence of their outputs.
type Completer interface {
	Complete() (bool, error)
}

// Complete reports whether the task has nothing left to do.
func Complete(task Task) (bool, error) {
	if c, ok := task.(Completer); ok {
		return c.Complete()
	}

	missing, err := MissingOutputs(task)
	if err != nil {
		return false, err
	}

	return len(missing) == 0, nil
}

// MissingOutputs returns the declared outputs of the task that do not exist on disk.
func MissingOutputs(task Task) ([]string, error) {
	outputs, err := task.Outputs()
	if err != nil {
		return nil, errors.Wrap(err, "unable to resolve outputs")
	}

	missing := []string{}
	for _, output := range outputs {
		_, err := os.Stat(output)
		if errors.Is(err, os.ErrNotExist) {
			missing = append(missing, output)

			continue
		}
		if err != nil {
			return nil, errors.Wrapf(err, "unable to stat %s", output)
		}
	}

	return missing, nil
}
