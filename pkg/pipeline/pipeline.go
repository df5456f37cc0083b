package pipeline

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"

	"github.com/askiada/geo-pipeline/internal/store"
	"github.com/askiada/geo-pipeline/pkg/pipeline/model"
)

type node struct {
	task Task
	info *model.TaskInfo
}

func nodeHash(n *node) string {
	return n.info.Name
}

// Pipeline is a graph of tasks linked by their declared dependencies.
type Pipeline struct {
	opts   []model.PipelineOption
	logger *slog.Logger
	store  store.CustomStore[string, *node]
	graph  graph.Graph[string, *node]
	linked bool
	// prepared holds the tasks already handed to the options.
	prepared map[string]bool
}

// New creates a new pipeline. A nil logger discards every log entry.
func New(logger *slog.Logger, opts ...model.PipelineOption) (*Pipeline, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	st := store.NewOrderedStore[string, *node]()
	pipe := &Pipeline{
		opts:     opts,
		logger:   logger,
		store:    st,
		graph:    graph.NewWithStore[string, *node](nodeHash, st, graph.Directed(), graph.PreventCycles()),
		prepared: make(map[string]bool),
	}

	for _, opt := range opts {
		err := opt.New()
		if err != nil {
			return nil, errors.Wrap(err, "unable to apply pipeline option")
		}
	}

	return pipe, nil
}

// AddTask registers a task. Dependencies are resolved lazily, so tasks may be added in any order.
func (p *Pipeline) AddTask(task Task) error {
	if p == nil {
		return ErrPipelineMustBeSet
	}
	if task == nil {
		return ErrTaskMustBeSet
	}
	if task.Name() == "" {
		return ErrTaskNameMustBeSet
	}

	n := &node{
		task: task,
		info: &model.TaskInfo{
			Name:     task.Name(),
			Requires: task.Requires(),
			State:    model.PendingState,
		},
	}

	err := p.graph.AddVertex(n)
	if errors.Is(err, graph.ErrVertexAlreadyExists) {
		return errors.Wrap(ErrTaskAlreadyExists, task.Name())
	}
	if err != nil {
		return errors.Wrapf(err, "unable to add task %s", task.Name())
	}

	p.linked = false

	return nil
}

// link adds one edge per declared dependency and lets the options prepare each task once, even
// when tasks are added between runs.
func (p *Pipeline) link() error {
	if p.linked {
		return nil
	}

	names, err := p.store.ListVertices()
	if err != nil {
		return errors.Wrap(err, "unable to list tasks")
	}

	for _, name := range names {
		child, err := p.graph.Vertex(name)
		if err != nil {
			return errors.Wrapf(err, "unable to get task %s", name)
		}

		parents := make([]*model.TaskInfo, 0, len(child.info.Requires))
		for _, dep := range child.info.Requires {
			parent, err := p.graph.Vertex(dep)
			if errors.Is(err, graph.ErrVertexNotFound) {
				return errors.Wrapf(ErrUnknownDependency, "%s requires %s", name, dep)
			}
			if err != nil {
				return errors.Wrapf(err, "unable to get task %s", dep)
			}

			err = p.graph.AddEdge(dep, name)
			switch {
			case errors.Is(err, graph.ErrEdgeAlreadyExists):
			case errors.Is(err, graph.ErrEdgeCreatesCycle):
				return errors.Wrapf(ErrCycle, "%s -> %s", dep, name)
			case err != nil:
				return errors.Wrapf(err, "unable to link %s to %s", dep, name)
			}

			parents = append(parents, parent.info)
		}

		if p.prepared[name] {
			continue
		}

		for _, opt := range p.opts {
			err := opt.PrepareTask(parents, child.info)
			if err != nil {
				return errors.Wrapf(err, "unable to prepare task %s", name)
			}
		}
		p.prepared[name] = true
	}

	p.linked = true

	return nil
}

// Tasks returns the task names in registration order.
func (p *Pipeline) Tasks() []string {
	names, _ := p.store.ListVertices()

	return names
}

// order returns every task, upstream first, registration order breaking ties.
func (p *Pipeline) order() ([]string, error) {
	order, err := graph.StableTopologicalSort(p.graph, func(a, b string) bool {
		return p.store.Position(a) < p.store.Position(b)
	})
	if err != nil {
		return nil, errors.Wrap(err, "unable to sort tasks")
	}

	return order, nil
}

// schedule walks the graph from the target towards its dependencies. A complete task stops the
// walk: its own dependencies are neither checked nor run. It returns the visited tasks in execution
// order and the subset that must run.
func (p *Pipeline) schedule(target string, rc *runConfig) ([]string, map[string]bool, error) {
	if err := p.link(); err != nil {
		return nil, nil, err
	}

	if _, err := p.graph.Vertex(target); err != nil {
		return nil, nil, errors.Wrap(ErrUnknownTask, target)
	}

	predecessors, err := p.graph.PredecessorMap()
	if err != nil {
		return nil, nil, errors.Wrap(err, "unable to get predecessors")
	}

	visited := make(map[string]bool)
	stale := make(map[string]bool)
	queue := []string{target}

	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]

		if visited[name] {
			continue
		}
		visited[name] = true

		n, err := p.graph.Vertex(name)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "unable to get task %s", name)
		}

		if !rc.forced(name) {
			complete, err := Complete(n.task)
			switch {
			case errors.Is(err, ErrOutputsUnresolved):
				p.logger.Debug("outputs not resolved yet", "task", name, "reason", err)
			case err != nil:
				return nil, nil, errors.Wrapf(err, "unable to check task %s", name)
			case complete:
				continue
			}
		}

		stale[name] = true
		for dep := range predecessors[name] {
			queue = append(queue, dep)
		}
	}

	order, err := p.order()
	if err != nil {
		return nil, nil, err
	}

	res := make([]string, 0, len(visited))
	for _, name := range order {
		if visited[name] {
			res = append(res, name)
		}
	}

	return res, stale, nil
}

// Plan returns the tasks involved in building the target, in execution order, with the state the
// next run would leave them in if every task succeeded.
func (p *Pipeline) Plan(target string, opts ...RunOption) ([]model.TaskInfo, error) {
	rc := newRunConfig(opts...)

	order, stale, err := p.schedule(target, rc)
	if err != nil {
		return nil, err
	}

	res := make([]model.TaskInfo, 0, len(order))
	for _, name := range order {
		n, _ := p.graph.Vertex(name)
		info := model.TaskInfo{Name: name, Requires: n.info.Requires, State: model.SkippedState}
		if stale[name] {
			info.State = model.PendingState
		}
		res = append(res, info)
	}

	return res, nil
}

// Run builds the target, running every stale task it depends on, upstream first.
// It stops on the first failure and returns a *TaskError naming the failed task.
func (p *Pipeline) Run(ctx context.Context, target string, opts ...RunOption) (*Report, error) {
	rc := newRunConfig(opts...)
	report := &Report{Target: target, start: time.Now()}

	order, stale, err := p.schedule(target, rc)
	if err != nil {
		return report, err
	}

	for _, name := range order {
		n, _ := p.graph.Vertex(name)
		n.info.State = model.PendingState
		n.info.Elapsed = 0
		n.info.Err = nil
		report.Tasks = append(report.Tasks, n.info)
	}

	runErr := p.run(ctx, order, stale)
	report.Elapsed = time.Since(report.start)

	err = p.finishRun()
	if runErr != nil {
		if err != nil {
			p.logger.Error("unable to finish pipeline options", "error", err)
		}

		return report, runErr
	}

	return report, err
}

func (p *Pipeline) run(ctx context.Context, order []string, stale map[string]bool) error {
	for _, name := range order {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, "pipeline interrupted")
		}

		n, _ := p.graph.Vertex(name)
		logger := p.logger.With("task", name)

		if !stale[name] {
			logger.Info("task already complete")
			n.info.State = model.SkippedState
			if err := p.onSkipped(n.info); err != nil {
				return err
			}

			continue
		}

		logger.Info("running task")
		start := time.Now()
		err := p.runTask(ctx, n)
		elapsed := time.Since(start)
		n.info.Elapsed = elapsed

		if err != nil {
			logger.Error("task failed", "error", err, "elapsed", elapsed)
			n.info.State = model.FailedState
			n.info.Err = err
			for _, opt := range p.opts {
				if hookErr := opt.OnTaskFailed(n.info, elapsed, err); hookErr != nil {
					logger.Error("unable to run failure hook", "error", hookErr)
				}
			}

			return &TaskError{Task: name, Err: err}
		}

		logger.Info("task done", "elapsed", elapsed)
		n.info.State = model.RanState
		for _, opt := range p.opts {
			if err := opt.OnTaskDone(n.info, elapsed); err != nil {
				return errors.Wrapf(err, "unable to run done hook for %s", name)
			}
		}
	}

	return nil
}

func (p *Pipeline) runTask(ctx context.Context, n *node) error {
	err := n.task.Run(ctx)
	if err != nil {
		return err
	}

	if c, ok := n.task.(Completer); ok {
		complete, err := c.Complete()
		if err != nil {
			return err
		}
		if !complete {
			return ErrIncompleteOutput
		}

		return nil
	}

	missing, err := MissingOutputs(n.task)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return errors.Wrapf(ErrIncompleteOutput, "missing %v", missing)
	}

	return nil
}

func (p *Pipeline) onSkipped(info *model.TaskInfo) error {
	for _, opt := range p.opts {
		if err := opt.OnTaskSkipped(info); err != nil {
			return errors.Wrapf(err, "unable to run skip hook for %s", info.Name)
		}
	}

	return nil
}

func (p *Pipeline) finishRun() error {
	for _, opt := range p.opts {
		err := opt.Finish()
		if err != nil {
			return errors.Wrap(err, "unable to finish pipeline option")
		}
	}

	return nil
}

func newRunConfig(opts ...RunOption) *runConfig {
	rc := &runConfig{force: make(map[string]struct{})}
	for _, opt := range opts {
		opt(rc)
	}

	return rc
}
