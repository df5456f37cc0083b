package drawer

import (
	"github.com/askiada/geo-pipeline/pkg/pipeline/measure"
	"github.com/askiada/geo-pipeline/pkg/pipeline/model"
)

// Drawer is an interface that defines the methods for drawing a pipeline.
type Drawer interface {
	// AddTask adds a task to the pipeline drawer.
	AddTask(name string) error
	// AddLink adds a link from a task to a task that requires it.
	AddLink(parentName, childName string) error
	// SetState records the outcome of a task.
	SetState(name string, state model.TaskState) error
	// AddMeasure decorates the tasks with the durations of the measure.
	AddMeasure(measure measure.Measure) error
	// Draw creates a file with the pipeline graph.
	Draw() error
}
