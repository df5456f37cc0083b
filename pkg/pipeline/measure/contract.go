package measure

import (
	"time"

	"github.com/askiada/geo-pipeline/pkg/pipeline/model"
)

// Measure collects one metric per task.
type Measure interface {
	AddMetric(name string) Metric
	GetMetric(name string) Metric
	AllMetrics() map[string]Metric
}

// Metric records what happened to a task during a run.
type Metric interface {
	SetState(state model.TaskState)
	State() model.TaskState
	AddDuration(elapsed time.Duration)
	Duration() time.Duration
}
