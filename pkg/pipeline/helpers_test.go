package pipeline_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

// recorder collects the names of the tasks in the order they ran.
type recorder struct {
	mu   sync.Mutex
	runs []string
}

func (r *recorder) add(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, name)
}

func (r *recorder) get() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string{}, r.runs...)
}

type fileTask struct {
	name     string
	requires []string
	outputs  []string
	rec      *recorder

	err        error
	noProduce  bool
	outputsErr func() error
}

func (f *fileTask) Name() string { return f.name }

func (f *fileTask) Requires() []string { return f.requires }

func (f *fileTask) Outputs() ([]string, error) {
	if f.outputsErr != nil {
		if err := f.outputsErr(); err != nil {
			return nil, err
		}
	}
	return f.outputs, nil
}

func (f *fileTask) Run(_ context.Context) error {
	f.rec.add(f.name)
	if f.err != nil {
		return f.err
	}
	if f.noProduce {
		return nil
	}
	for _, output := range f.outputs {
		if err := os.WriteFile(output, []byte(f.name), 0o644); err != nil {
			return errors.Wrap(err, "unable to write output")
		}
	}
	return nil
}

// newChain returns tasks a <- b <- c, each producing <dir>/<name>.out.
func newChain(t *testing.T, rec *recorder) (string, map[string]*fileTask) {
	t.Helper()

	dir := t.TempDir()
	tasks := map[string]*fileTask{}
	previous := ""
	for _, name := range []string{"a", "b", "c"} {
		task := &fileTask{
			name:    name,
			outputs: []string{filepath.Join(dir, name+".out")},
			rec:     rec,
		}
		if previous != "" {
			task.requires = []string{previous}
		}
		tasks[name] = task
		previous = name
	}

	return dir, tasks
}

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte("done"), 0o644))
}
