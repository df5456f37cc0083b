package geo

import (
	"log/slog"
	"net/http"

	"github.com/pkg/errors"

	"github.com/askiada/geo-pipeline/internal/config"
	"github.com/askiada/geo-pipeline/pkg/pipeline"
)

// Task names, in execution order.
const (
	TaskDownload        = "download"
	TaskExtractArchives = "extract-archives"
	TaskExtractFiles    = "extract-files"
	TaskSplitTables     = "split-tables"
	TaskTrimProbes      = "trim-probes"
	TaskClean           = "clean"

	// DefaultTarget runs the whole chain.
	DefaultTarget = TaskClean
)

// TaskNames returns the names of the stages in execution order.
func TaskNames() []string {
	return []string{TaskDownload, TaskExtractArchives, TaskExtractFiles, TaskSplitTables, TaskTrimProbes, TaskClean}
}

// NewDecompressor returns the decompressor selected by the configuration.
func NewDecompressor(cfg config.DecompressConfig) (Decompressor, error) {
	switch cfg.Backend {
	case config.BackendExec:
		return ExecDecompressor{Command: cfg.Command}, nil
	case config.BackendGzip:
		return GzipDecompressor{}, nil
	default:
		return nil, errors.Errorf("unknown decompression backend %q", cfg.Backend)
	}
}

// NewTasks creates the stages of a dataset, in execution order.
func NewTasks(cfg *config.Config, logger *slog.Logger) ([]pipeline.Task, error) {
	if logger == nil {
		return nil, errors.New("logger must be set")
	}

	dec, err := NewDecompressor(cfg.Decompress)
	if err != nil {
		return nil, err
	}

	layout := Layout{Root: cfg.Root, Dataset: cfg.Dataset}
	client := &http.Client{Timeout: cfg.Fetch.Timeout}

	fetcher := NewFetcher(layout, cfg.Fetch.URLTemplate, cfg.Fetch.Host, client, logger)
	expander := NewArchiveExpander(layout, logger)
	extractor := NewLayerDecompressor(layout, expander, cfg.Decompress.Suffix, dec, cfg.Workers, logger)
	splitter := NewSectionSplitter(extractor, cfg.Schema, cfg.Workers, logger)
	trimmer := NewColumnTrimmer(splitter, cfg.Schema, logger)
	cleaner := NewArtifactCleaner(trimmer, cfg.Schema.TabularSuffix, logger)

	return []pipeline.Task{fetcher, expander, extractor, splitter, trimmer, cleaner}, nil
}

// Register adds the stages of a dataset to pipe.
func Register(pipe *pipeline.Pipeline, cfg *config.Config, logger *slog.Logger) error {
	tasks, err := NewTasks(cfg, logger)
	if err != nil {
		return err
	}

	for _, task := range tasks {
		if err := pipe.AddTask(task); err != nil {
			return errors.Wrapf(err, "unable to add task %s", task.Name())
		}
	}

	return nil
}

var (
	_ pipeline.Task      = (*Fetcher)(nil)
	_ pipeline.Task      = (*ArchiveExpander)(nil)
	_ pipeline.Task      = (*LayerDecompressor)(nil)
	_ pipeline.Task      = (*SectionSplitter)(nil)
	_ pipeline.Task      = (*ColumnTrimmer)(nil)
	_ pipeline.Task      = (*ArtifactCleaner)(nil)
	_ pipeline.Completer = (*ArtifactCleaner)(nil)
)
