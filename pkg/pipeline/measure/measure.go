package measure

import (
	"sync"
)

type DefaultMeasure struct {
	mu    sync.RWMutex
	Tasks map[string]Metric
}

func NewDefaultMeasure() *DefaultMeasure {
	return &DefaultMeasure{
		Tasks: make(map[string]Metric),
	}
}

// AddMetric registers a task. Adding the same task twice keeps the existing metric.
func (m *DefaultMeasure) AddMetric(name string) Metric {
	m.mu.Lock()
	defer m.mu.Unlock()

	if mt, ok := m.Tasks[name]; ok {
		return mt
	}

	mt := &DefaultMetric{mu: &sync.Mutex{}}
	m.Tasks[name] = mt

	return mt
}

func (m *DefaultMeasure) GetMetric(name string) Metric {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.Tasks[name]
}

func (m *DefaultMeasure) AllMetrics() map[string]Metric {
	m.mu.RLock()
	defer m.mu.RUnlock()

	res := make(map[string]Metric, len(m.Tasks))
	for name, mt := range m.Tasks {
		res[name] = mt
	}

	return res
}

var _ Measure = (*DefaultMeasure)(nil)
