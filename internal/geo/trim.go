package geo

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/askiada/geo-pipeline/internal/config"
	"github.com/askiada/geo-pipeline/internal/table"
)

// ColumnTrimmer derives a table without the configured columns from one of the split tables.
type ColumnTrimmer struct {
	source        *SectionSplitter
	trim          config.TrimConfig
	tabularSuffix string
	logger        *slog.Logger
}

// NewColumnTrimmer creates the stage trimming the tables produced by source.
func NewColumnTrimmer(source *SectionSplitter, schema config.SchemaConfig, logger *slog.Logger) *ColumnTrimmer {
	return &ColumnTrimmer{
		source:        source,
		trim:          schema.Trim,
		tabularSuffix: schema.TabularSuffix,
		logger:        logger.With("task", TaskTrimProbes),
	}
}

func (c *ColumnTrimmer) Name() string { return TaskTrimProbes }

func (c *ColumnTrimmer) Requires() []string { return []string{TaskSplitTables} }

// Outputs lists one trimmed table per directory of split tables.
func (c *ColumnTrimmer) Outputs() ([]string, error) {
	tables, err := c.source.Outputs()
	if err != nil {
		return nil, err
	}

	res := []string{}
	seen := make(map[string]struct{})
	for _, tbl := range tables {
		dir := filepath.Dir(tbl)
		if _, ok := seen[dir]; ok {
			continue
		}
		seen[dir] = struct{}{}

		res = append(res, c.trimmedPath(filepath.Join(dir, c.trim.Table+c.tabularSuffix)))
	}

	return res, nil
}

// trimmedPath names the derived table after src, changing the base name only.
func (c *ColumnTrimmer) trimmedPath(src string) string {
	base := strings.Replace(filepath.Base(src), c.trim.Table, c.trim.Table+c.trim.Suffix, 1)

	return filepath.Join(filepath.Dir(src), base)
}

func (c *ColumnTrimmer) Run(ctx context.Context) error {
	tables, err := c.source.Outputs()
	if err != nil {
		return err
	}

	for _, tbl := range tables {
		if filepath.Base(tbl) != c.trim.Table+c.tabularSuffix {
			continue
		}

		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, "interrupted")
		}

		if err := c.trimTable(tbl); err != nil {
			return err
		}
	}

	return nil
}

func (c *ColumnTrimmer) trimTable(path string) error {
	c.logger.Info("trimming table", "path", path, "columns", c.trim.Drop)

	src, err := table.ReadFile(path)
	if err != nil {
		return &FilesystemError{Op: "read", Path: path, Err: err}
	}

	trimmed, err := src.Drop(c.trim.Drop...)
	if err != nil {
		var missingErr *table.MissingColumnsError
		if errors.As(err, &missingErr) {
			return &SchemaError{Path: path, Missing: missingErr.Columns}
		}

		return errors.Wrapf(err, "unable to trim %s", path)
	}

	out := c.trimmedPath(path)
	if err := trimmed.WriteFile(out); err != nil {
		return &FilesystemError{Op: "write", Path: out, Err: err}
	}

	c.logger.Info("trimmed table saved", "path", out, "columns", len(trimmed.Header), "rows", len(trimmed.Rows))

	return nil
}
