package measure

import (
	"sync"
	"time"

	"github.com/askiada/geo-pipeline/pkg/pipeline/model"
)

type DefaultMetric struct {
	mu      *sync.Mutex
	state   model.TaskState
	elapsed time.Duration
}

func (mt *DefaultMetric) SetState(state model.TaskState) {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	mt.state = state
}

func (mt *DefaultMetric) State() model.TaskState {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	if mt.state == "" {
		return model.PendingState
	}

	return mt.state
}

func (mt *DefaultMetric) AddDuration(elapsed time.Duration) {
	mt.mu.Lock()
	defer mt.mu.Unlock()
	mt.elapsed += elapsed
}

// Duration returns the time spent running the task, rounded for display.
func (mt *DefaultMetric) Duration() time.Duration {
	mt.mu.Lock()
	defer mt.mu.Unlock()

	return round(mt.elapsed)
}

func round(d time.Duration) time.Duration {
	switch {
	case d > time.Hour:
		d = d.Round(time.Minute)
	case d > time.Second:
		d = d.Round(time.Millisecond)
	case d > time.Millisecond:
		d = d.Round(time.Microsecond)
	}

	return d
}

var _ Metric = (*DefaultMetric)(nil)
