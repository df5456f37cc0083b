package drawer

import (
	"time"

	"github.com/pkg/errors"

	"github.com/askiada/geo-pipeline/pkg/pipeline/measure"
	"github.com/askiada/geo-pipeline/pkg/pipeline/model"
)

type pipelineDrawer struct {
	Drawer
	m measure.Measure
}

func (pd *pipelineDrawer) New() error {
	return nil
}

func (pd *pipelineDrawer) PrepareTask(parents []*model.TaskInfo, task *model.TaskInfo) error {
	err := pd.AddTask(task.Name)
	if err != nil {
		return err
	}

	for _, parent := range parents {
		err := pd.AddLink(parent.Name, task.Name)
		if err != nil {
			return err
		}
	}

	return nil
}

func (pd *pipelineDrawer) OnTaskSkipped(task *model.TaskInfo) error {
	return pd.SetState(task.Name, model.SkippedState)
}

func (pd *pipelineDrawer) OnTaskDone(task *model.TaskInfo, _ time.Duration) error {
	return pd.SetState(task.Name, model.RanState)
}

func (pd *pipelineDrawer) OnTaskFailed(task *model.TaskInfo, _ time.Duration, _ error) error {
	return pd.SetState(task.Name, model.FailedState)
}

func (pd *pipelineDrawer) Finish() error {
	if pd.m != nil {
		err := pd.AddMeasure(pd.m)
		if err != nil {
			return errors.Wrap(err, "unable to add measure")
		}
	}

	err := pd.Draw()
	if err != nil {
		return errors.Wrap(err, "unable to draw pipeline")
	}

	return nil
}

// PipelineDrawer draws the task graph once the run is finished. The measure is optional.
func PipelineDrawer(drawer Drawer, measure measure.Measure) model.PipelineOption {
	return &pipelineDrawer{drawer, measure}
}
