package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/askiada/geo-pipeline/pkg/pipeline"
	"github.com/askiada/geo-pipeline/pkg/pipeline/model"
)

// summary prints the outcome of a run, in colour when w is a terminal.
type summary struct {
	w      io.Writer
	colors map[model.TaskState]*color.Color
}

func newSummary(w io.Writer) *summary {
	s := &summary{
		w: w,
		colors: map[model.TaskState]*color.Color{
			model.RanState:     color.New(color.FgGreen),
			model.SkippedState: color.New(color.FgCyan),
			model.FailedState:  color.New(color.FgRed, color.Bold),
			model.PendingState: color.New(color.FgHiBlack),
		},
	}

	tty := false
	if f, ok := w.(*os.File); ok {
		tty = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	for _, c := range s.colors {
		if tty {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	return s
}

func (s *summary) label(state model.TaskState) string {
	text := fmt.Sprintf("%-8s", state)
	if state == model.SkippedState {
		text = fmt.Sprintf("%-8s", "complete")
	}
	if c, ok := s.colors[state]; ok {
		return c.Sprint(text)
	}
	return text
}

func (s *summary) task(name string, state model.TaskState) {
	fmt.Fprintf(s.w, "%s %s\n", s.label(state), name)
}

func (s *summary) write(report *pipeline.Report) {
	for _, info := range report.Tasks {
		line := fmt.Sprintf("%s %s", s.label(info.State), info.Name)
		if info.State == model.RanState || info.State == model.FailedState {
			line += fmt.Sprintf(" (%s)", info.Elapsed.Round(time.Millisecond))
		}
		if info.Err != nil {
			line += ": " + info.Err.Error()
		}
		fmt.Fprintln(s.w, line)
	}

	fmt.Fprintf(s.w, "%d tasks: %d ran, %d already complete, %d failed\n",
		len(report.Tasks),
		report.Count(model.RanState),
		report.Count(model.SkippedState),
		report.Count(model.FailedState))
}
