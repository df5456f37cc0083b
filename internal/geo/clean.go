package geo

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/askiada/geo-pipeline/internal/fsutil"
)

// ArtifactCleaner deletes the intermediate files left next to the tables.
type ArtifactCleaner struct {
	source        *ColumnTrimmer
	tabularSuffix string
	logger        *slog.Logger
}

// NewArtifactCleaner creates the stage cleaning the directories of the tables produced by source.
// Only the regular files of those directories not ending in tabularSuffix are deleted.
func NewArtifactCleaner(source *ColumnTrimmer, tabularSuffix string, logger *slog.Logger) *ArtifactCleaner {
	return &ArtifactCleaner{
		source:        source,
		tabularSuffix: tabularSuffix,
		logger:        logger.With("task", TaskClean),
	}
}

func (c *ArtifactCleaner) Name() string { return TaskClean }

func (c *ArtifactCleaner) Requires() []string { return []string{TaskTrimProbes} }

// Outputs lists the cleaned directories.
func (c *ArtifactCleaner) Outputs() ([]string, error) {
	tables, err := c.source.Outputs()
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(tables))
	dirs := []string{}
	for _, tbl := range tables {
		dir := filepath.Dir(tbl)
		if _, ok := seen[dir]; ok {
			continue
		}
		seen[dir] = struct{}{}
		dirs = append(dirs, dir)
	}

	return dirs, nil
}

// Complete reports whether the trimmed tables exist and no intermediate file is left.
func (c *ArtifactCleaner) Complete() (bool, error) {
	tables, err := c.source.Outputs()
	if err != nil {
		return false, err
	}

	for _, tbl := range tables {
		ok, err := fsutil.Exists(tbl)
		if err != nil || !ok {
			return false, err
		}
	}

	leftovers, err := c.Leftovers()
	if err != nil {
		return false, err
	}

	return len(leftovers) == 0, nil
}

// Leftovers lists the files the next run would delete.
func (c *ArtifactCleaner) Leftovers() ([]string, error) {
	dirs, err := c.Outputs()
	if err != nil {
		return nil, err
	}

	res := []string{}
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, &FilesystemError{Op: "list", Path: dir, Err: err}
		}

		for _, entry := range entries {
			if entry.IsDir() || strings.HasSuffix(entry.Name(), c.tabularSuffix) {
				continue
			}
			res = append(res, filepath.Join(dir, entry.Name()))
		}
	}

	sort.Strings(res)

	return res, nil
}

func (c *ArtifactCleaner) Run(ctx context.Context) error {
	leftovers, err := c.Leftovers()
	if err != nil {
		return err
	}

	for _, path := range leftovers {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, "interrupted")
		}

		err := os.Remove(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return &FilesystemError{Op: "remove", Path: path, Err: err}
		}

		if fsutil.IsTemp(path) {
			c.logger.Warn("interrupted write deleted", "path", path)

			continue
		}

		c.logger.Info("file deleted", "path", path)
	}

	return nil
}
