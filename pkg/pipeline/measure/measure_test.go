package measure_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/geo-pipeline/pkg/pipeline/measure"
	"github.com/askiada/geo-pipeline/pkg/pipeline/model"
)

func TestDefaultMeasure(t *testing.T) {
	t.Parallel()

	msr := measure.NewDefaultMeasure()
	assert.Nil(t, msr.GetMetric("a"))

	mt := msr.AddMetric("a")
	assert.Same(t, mt, msr.AddMetric("a"))
	assert.Equal(t, model.PendingState, mt.State())

	mt.AddDuration(time.Second + 400*time.Microsecond)
	mt.AddDuration(time.Second)
	mt.SetState(model.RanState)

	assert.Equal(t, 2*time.Second, mt.Duration())
	assert.Equal(t, model.RanState, msr.GetMetric("a").State())
	assert.Len(t, msr.AllMetrics(), 1)
}

func TestPipelineMeasure(t *testing.T) {
	t.Parallel()

	msr := measure.NewDefaultMeasure()
	opt := measure.PipelineMeasure(msr)

	task := &model.TaskInfo{Name: "download"}
	require.NoError(t, opt.New())
	require.NoError(t, opt.PrepareTask(nil, task))
	assert.Equal(t, model.PendingState, msr.GetMetric("download").State())

	require.NoError(t, opt.OnTaskFailed(task, 3*time.Millisecond, assert.AnError))
	assert.Equal(t, model.FailedState, msr.GetMetric("download").State())
	assert.Equal(t, 3*time.Millisecond, msr.GetMetric("download").Duration())

	require.NoError(t, opt.OnTaskDone(task, 2*time.Millisecond))
	assert.Equal(t, model.RanState, msr.GetMetric("download").State())
	assert.Equal(t, 5*time.Millisecond, msr.GetMetric("download").Duration())

	require.NoError(t, opt.OnTaskSkipped(&model.TaskInfo{Name: "extract"}))
	assert.Equal(t, model.SkippedState, msr.GetMetric("extract").State())
	require.NoError(t, opt.Finish())
}
