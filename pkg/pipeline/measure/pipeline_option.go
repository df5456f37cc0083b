package measure

import (
	"time"

	"github.com/askiada/geo-pipeline/pkg/pipeline/model"
)

type pipelineMeasure struct {
	Measure
}

func (pm *pipelineMeasure) New() error {
	return nil
}

func (pm *pipelineMeasure) PrepareTask(_ []*model.TaskInfo, task *model.TaskInfo) error {
	pm.AddMetric(task.Name)

	return nil
}

func (pm *pipelineMeasure) OnTaskSkipped(task *model.TaskInfo) error {
	pm.AddMetric(task.Name).SetState(model.SkippedState)

	return nil
}

func (pm *pipelineMeasure) OnTaskDone(task *model.TaskInfo, elapsed time.Duration) error {
	mt := pm.AddMetric(task.Name)
	mt.AddDuration(elapsed)
	mt.SetState(model.RanState)

	return nil
}

func (pm *pipelineMeasure) OnTaskFailed(task *model.TaskInfo, elapsed time.Duration, _ error) error {
	mt := pm.AddMetric(task.Name)
	mt.AddDuration(elapsed)
	mt.SetState(model.FailedState)

	return nil
}

func (pm *pipelineMeasure) Finish() error {
	return nil
}

// PipelineMeasure records the state and duration of every task into the measure.
func PipelineMeasure(measure Measure) model.PipelineOption {
	return &pipelineMeasure{measure}
}
