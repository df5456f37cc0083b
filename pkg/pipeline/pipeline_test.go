package pipeline_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/askiada/geo-pipeline/pkg/pipeline"
	"github.com/askiada/geo-pipeline/pkg/pipeline/model"
)

func newPipe(t *testing.T, tasks ...pipeline.Task) *pipeline.Pipeline {
	t.Helper()

	pipe, err := pipeline.New(nil)
	require.NoError(t, err)
	for _, task := range tasks {
		require.NoError(t, pipe.AddTask(task))
	}
	return pipe
}

func names(infos []*model.TaskInfo) []string {
	res := make([]string, 0, len(infos))
	for _, info := range infos {
		res = append(res, info.Name)
	}
	return res
}

func TestAddTaskNilPipe(t *testing.T) {
	t.Parallel()

	var pipe *pipeline.Pipeline
	err := pipe.AddTask(&fileTask{name: "a"})
	assert.ErrorIs(t, err, pipeline.ErrPipelineMustBeSet)
}

func TestAddTaskErrors(t *testing.T) {
	t.Parallel()

	pipe := newPipe(t, &fileTask{name: "a"})

	assert.ErrorIs(t, pipe.AddTask(nil), pipeline.ErrTaskMustBeSet)
	assert.ErrorIs(t, pipe.AddTask(&fileTask{}), pipeline.ErrTaskNameMustBeSet)
	assert.ErrorIs(t, pipe.AddTask(&fileTask{name: "a"}), pipeline.ErrTaskAlreadyExists)
}

func TestRunOrder(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	_, tasks := newChain(t, rec)
	// registration order does not matter
	pipe := newPipe(t, tasks["c"], tasks["a"], tasks["b"])

	report, err := pipe.Run(context.Background(), "c")
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, rec.get())
	assert.Equal(t, []string{"a", "b", "c"}, names(report.Tasks))
	assert.Equal(t, 3, report.Count(model.RanState))
	assert.Nil(t, report.Failed())
	assert.Equal(t, "c", report.Target)
}

func TestRunTwice(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	_, tasks := newChain(t, rec)
	pipe := newPipe(t, tasks["a"], tasks["b"], tasks["c"])

	_, err := pipe.Run(context.Background(), "c")
	require.NoError(t, err)

	report, err := pipe.Run(context.Background(), "c")
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, rec.get())
	require.Len(t, report.Tasks, 1)
	assert.Equal(t, model.SkippedState, report.Tasks[0].State)
}

func TestRunCompleteTaskPrunesDependencies(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	dir, tasks := newChain(t, rec)
	touch(t, filepath.Join(dir, "b.out"))
	pipe := newPipe(t, tasks["a"], tasks["b"], tasks["c"])

	report, err := pipe.Run(context.Background(), "c")
	require.NoError(t, err)

	// a is missing, but b is complete so a is never needed
	assert.Equal(t, []string{"c"}, rec.get())
	assert.Equal(t, []string{"b", "c"}, names(report.Tasks))
	assert.Equal(t, model.SkippedState, report.Tasks[0].State)
	assert.Equal(t, model.RanState, report.Tasks[1].State)
}

func TestRunDoesNotTouchDownstream(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	_, tasks := newChain(t, rec)
	pipe := newPipe(t, tasks["a"], tasks["b"], tasks["c"])

	report, err := pipe.Run(context.Background(), "b")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, rec.get())
	assert.Equal(t, []string{"a", "b"}, names(report.Tasks))
}

func TestRunUnknownTask(t *testing.T) {
	t.Parallel()

	pipe := newPipe(t, &fileTask{name: "a"})

	_, err := pipe.Run(context.Background(), "nope")
	assert.ErrorIs(t, err, pipeline.ErrUnknownTask)
}

func TestRunUnknownDependency(t *testing.T) {
	t.Parallel()

	pipe := newPipe(t, &fileTask{name: "a", requires: []string{"ghost"}})

	_, err := pipe.Run(context.Background(), "a")
	assert.ErrorIs(t, err, pipeline.ErrUnknownDependency)

	_, err = pipe.Plan("a")
	assert.ErrorIs(t, err, pipeline.ErrUnknownDependency)
}

func TestRunCycle(t *testing.T) {
	t.Parallel()

	pipe := newPipe(t,
		&fileTask{name: "a", requires: []string{"c"}},
		&fileTask{name: "b", requires: []string{"a"}},
		&fileTask{name: "c", requires: []string{"b"}},
	)

	_, err := pipe.Run(context.Background(), "c")
	assert.ErrorIs(t, err, pipeline.ErrCycle)
}

func TestRunFailure(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	_, tasks := newChain(t, rec)
	cause := errors.New("boom")
	tasks["b"].err = cause
	pipe := newPipe(t, tasks["a"], tasks["b"], tasks["c"])

	report, err := pipe.Run(context.Background(), "c")
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "task b: boom", err.Error())

	var taskErr *pipeline.TaskError
	require.True(t, errors.As(err, &taskErr))
	assert.Equal(t, "b", taskErr.Task)

	assert.Equal(t, []string{"a", "b"}, rec.get())
	require.NotNil(t, report.Failed())
	assert.Equal(t, "b", report.Failed().Name)
	assert.Equal(t, cause, report.Failed().Err)
	assert.Equal(t, 1, report.Count(model.RanState))
	assert.Equal(t, 1, report.Count(model.PendingState))

	// fixing the failure resumes from b
	tasks["b"].err = nil
	_, err = pipe.Run(context.Background(), "c")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "b", "c"}, rec.get())
}

func TestRunIncompleteOutput(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	_, tasks := newChain(t, rec)
	tasks["a"].noProduce = true
	pipe := newPipe(t, tasks["a"], tasks["b"], tasks["c"])

	_, err := pipe.Run(context.Background(), "c")
	assert.ErrorIs(t, err, pipeline.ErrIncompleteOutput)
	assert.Equal(t, []string{"a"}, rec.get())
}

func TestRunOutputsResolvedAfterDependencies(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	dir, tasks := newChain(t, rec)
	upstream := tasks["a"].outputs[0]

	// b cannot list its outputs before a produced its own
	tasks["b"].outputsErr = func() error {
		if _, err := os.Stat(upstream); err != nil {
			return errors.Wrap(pipeline.ErrOutputsUnresolved, err.Error())
		}
		return nil
	}

	pipe := newPipe(t, tasks["a"], tasks["b"], tasks["c"])

	plan, err := pipe.Plan("c")
	require.NoError(t, err)
	require.Len(t, plan, 3)

	_, err = pipe.Run(context.Background(), "c")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, rec.get())
	assert.FileExists(t, filepath.Join(dir, "b.out"))
}

func TestRunOutputsError(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	_, tasks := newChain(t, rec)
	denied := errors.New("permission denied")
	tasks["b"].outputsErr = func() error { return denied }

	pipe := newPipe(t, tasks["a"], tasks["b"], tasks["c"])

	_, err := pipe.Plan("c")
	assert.ErrorIs(t, err, denied)

	_, err = pipe.Run(context.Background(), "c")
	require.Error(t, err)
	assert.ErrorIs(t, err, denied)
	assert.Contains(t, err.Error(), "unable to check task b")
	assert.Empty(t, rec.get())
}

func TestRunForce(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	_, tasks := newChain(t, rec)
	pipe := newPipe(t, tasks["a"], tasks["b"], tasks["c"])

	_, err := pipe.Run(context.Background(), "c")
	require.NoError(t, err)

	report, err := pipe.Run(context.Background(), "b", pipeline.Force("b"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names(report.Tasks))
	assert.Equal(t, model.SkippedState, report.Tasks[0].State)
	assert.Equal(t, model.RanState, report.Tasks[1].State)

	report, err = pipe.Run(context.Background(), "c", pipeline.ForceAll())
	require.NoError(t, err)
	assert.Equal(t, 3, report.Count(model.RanState))

	assert.Equal(t, []string{"a", "b", "c", "b", "a", "b", "c"}, rec.get())
}

func TestRunCanceled(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	_, tasks := newChain(t, rec)
	pipe := newPipe(t, tasks["a"], tasks["b"], tasks["c"])

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := pipe.Run(ctx, "c")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, rec.get())
}

func TestPlan(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	dir, tasks := newChain(t, rec)
	touch(t, filepath.Join(dir, "a.out"))
	pipe := newPipe(t, tasks["a"], tasks["b"], tasks["c"])

	plan, err := pipe.Plan("c")
	require.NoError(t, err)

	got := map[string]model.TaskState{}
	for _, info := range plan {
		got[info.Name] = info.State
	}
	assert.Equal(t, map[string]model.TaskState{
		"a": model.SkippedState,
		"b": model.PendingState,
		"c": model.PendingState,
	}, got)
	assert.Equal(t, []string{"b"}, plan[2].Requires)
	assert.Empty(t, rec.get())
	assert.Equal(t, []string{"a", "b", "c"}, pipe.Tasks())
}

type cleaner struct {
	fileTask
	clean bool
}

func (c *cleaner) Complete() (bool, error) { return c.clean, nil }

func (c *cleaner) Run(ctx context.Context) error {
	c.clean = true
	return c.fileTask.Run(ctx)
}

func TestRunCompleter(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	task := &cleaner{fileTask: fileTask{name: "clean", rec: rec, noProduce: true}}
	pipe := newPipe(t, task)

	report, err := pipe.Run(context.Background(), "clean")
	require.NoError(t, err)
	assert.Equal(t, 1, report.Count(model.RanState))

	report, err = pipe.Run(context.Background(), "clean")
	require.NoError(t, err)
	assert.Equal(t, 1, report.Count(model.SkippedState))
	assert.Equal(t, []string{"clean"}, rec.get())
}

// hooks counts the calls made to a pipeline option.
type hooks struct {
	news, prepared, skipped, done, failed, finished int
	finishErr                                       error
}

func (h *hooks) New() error { h.news++; return nil }

func (h *hooks) PrepareTask(_ []*model.TaskInfo, _ *model.TaskInfo) error {
	h.prepared++
	return nil
}

func (h *hooks) OnTaskSkipped(_ *model.TaskInfo) error { h.skipped++; return nil }

func (h *hooks) OnTaskDone(_ *model.TaskInfo, _ time.Duration) error { h.done++; return nil }

func (h *hooks) OnTaskFailed(_ *model.TaskInfo, _ time.Duration, _ error) error {
	h.failed++
	return nil
}

func (h *hooks) Finish() error { h.finished++; return h.finishErr }

func TestPipelineOptions(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	dir, tasks := newChain(t, rec)
	touch(t, filepath.Join(dir, "a.out"))
	tasks["c"].err = errors.New("boom")

	opt := &hooks{finishErr: errors.New("finish failed")}
	pipe, err := pipeline.New(nil, opt)
	require.NoError(t, err)
	for _, name := range []string{"a", "b", "c"} {
		require.NoError(t, pipe.AddTask(tasks[name]))
	}

	_, err = pipe.Run(context.Background(), "c")
	require.Error(t, err)
	// the task failure wins over the finish failure
	var taskErr *pipeline.TaskError
	require.True(t, errors.As(err, &taskErr))

	assert.Equal(t, 1, opt.news)
	assert.Equal(t, 3, opt.prepared)
	assert.Equal(t, 1, opt.skipped)
	assert.Equal(t, 1, opt.done)
	assert.Equal(t, 1, opt.failed)
	assert.Equal(t, 1, opt.finished)

	tasks["c"].err = nil
	_, err = pipe.Run(context.Background(), "c")
	assert.EqualError(t, err, "unable to finish pipeline option: finish failed")
	assert.Equal(t, 2, opt.finished)
	// tasks are prepared once
	assert.Equal(t, 3, opt.prepared)
}

func TestAddTaskAfterRun(t *testing.T) {
	t.Parallel()

	rec := &recorder{}
	dir, tasks := newChain(t, rec)

	opt := &hooks{}
	pipe, err := pipeline.New(nil, opt)
	require.NoError(t, err)
	for _, name := range []string{"a", "b", "c"} {
		require.NoError(t, pipe.AddTask(tasks[name]))
	}

	_, err = pipe.Run(context.Background(), "c")
	require.NoError(t, err)
	assert.Equal(t, 3, opt.prepared)

	d := &fileTask{name: "d", requires: []string{"c"}, outputs: []string{filepath.Join(dir, "d.out")}, rec: rec}
	require.NoError(t, pipe.AddTask(d))

	report, err := pipe.Run(context.Background(), "d")
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "d"}, names(report.Tasks))
	assert.Equal(t, 4, opt.prepared)
	assert.Equal(t, []string{"a", "b", "c", "d"}, rec.get())
}
