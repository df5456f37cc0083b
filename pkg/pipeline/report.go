package pipeline

import (
	"time"

	"github.com/askiada/geo-pipeline/pkg/pipeline/model"
)

// Report describes what one run did to each task it visited, in execution order.
type Report struct {
	Target  string
	Tasks   []*model.TaskInfo
	Elapsed time.Duration
	start   time.Time
}

// Count returns the number of visited tasks in the given state.
func (r *Report) Count(state model.TaskState) int {
	total := 0
	for _, task := range r.Tasks {
		if task.State == state {
			total++
		}
	}

	return total
}

// Failed returns the task that stopped the run, if any.
func (r *Report) Failed() *model.TaskInfo {
	for _, task := range r.Tasks {
		if task.State == model.FailedState {
			return task
		}
	}

	return nil
}
