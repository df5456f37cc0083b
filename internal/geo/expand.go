package geo

import (
	"archive/tar"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/askiada/geo-pipeline/internal/fsutil"
	"github.com/askiada/geo-pipeline/pkg/pipeline"
)

var (
	errEscapesTarget = errors.New("path escapes the target directory")
	errEmptyArchive  = errors.New("empty archive")
)

// ArchiveExpander extracts the members of the container archive.
type ArchiveExpander struct {
	layout Layout
	logger *slog.Logger
}

// NewArchiveExpander creates the extraction stage of the container archive.
func NewArchiveExpander(layout Layout, logger *slog.Logger) *ArchiveExpander {
	return &ArchiveExpander{
		layout: layout,
		logger: logger.With("task", TaskExtractArchives),
	}
}

func (e *ArchiveExpander) Name() string { return TaskExtractArchives }

func (e *ArchiveExpander) Requires() []string { return []string{TaskDownload} }

// Outputs lists the target directory followed by the extracted members.
func (e *ArchiveExpander) Outputs() ([]string, error) {
	members, err := e.Members()
	if err != nil {
		return nil, err
	}

	return append([]string{e.layout.ArchivesDir()}, members...), nil
}

// Members lists the paths the regular files of the archive are extracted to. The list is read
// from the archive, not from the target directory. Before the archive is downloaded, the error
// wraps pipeline.ErrOutputsUnresolved.
func (e *ArchiveExpander) Members() ([]string, error) {
	members := []string{}

	err := e.walk(func(hdr *tar.Header, path string, _ io.Reader) error {
		if hdr.Typeflag == tar.TypeReg {
			members = append(members, path)
		}

		return nil
	})
	if errors.Is(err, os.ErrNotExist) {
		return nil, errors.Wrapf(pipeline.ErrOutputsUnresolved, "archive %s not downloaded", e.layout.Archive())
	}
	if err != nil {
		return nil, err
	}

	return members, nil
}

func (e *ArchiveExpander) Run(ctx context.Context) error {
	dir := e.layout.ArchivesDir()

	e.logger.Info("creating directory", "path", dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &FilesystemError{Op: "mkdir", Path: dir, Err: err}
	}

	e.logger.Info("extracting archive", "archive", e.layout.Archive(), "target", dir)

	count := 0
	err := e.walk(func(hdr *tar.Header, path string, content io.Reader) error {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, "interrupted")
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(path, 0o755); err != nil {
				return &FilesystemError{Op: "mkdir", Path: path, Err: err}
			}
		case tar.TypeReg:
			err := fsutil.WriteAtomic(path, func(w io.Writer) error {
				_, err := io.Copy(w, content)

				return err
			})
			if err != nil {
				return &FilesystemError{Op: "extract", Path: path, Err: err}
			}
			count++
		default:
			e.logger.Debug("ignoring archive member", "member", hdr.Name, "type", string(hdr.Typeflag))
		}

		return nil
	})
	if err != nil {
		return err
	}

	e.logger.Info("archive extracted", "target", dir, "members", count)

	return nil
}

// walk calls fn on every member of the archive with the path it extracts to. An archive without
// any member is an error.
func (e *ArchiveExpander) walk(fn func(hdr *tar.Header, path string, content io.Reader) error) error {
	archive := e.layout.Archive()

	file, err := os.Open(archive)
	if err != nil {
		return &FilesystemError{Op: "open", Path: archive, Err: err}
	}
	defer file.Close()

	dir := e.layout.ArchivesDir()
	reader := tar.NewReader(file)

	for headers := 0; ; headers++ {
		hdr, err := reader.Next()
		if errors.Is(err, io.EOF) && headers == 0 {
			return &ArchiveError{Path: archive, Err: errEmptyArchive}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return &ArchiveError{Path: archive, Err: err}
		}

		path, err := memberPath(dir, hdr.Name)
		if err != nil {
			return &ArchiveError{Path: archive, Member: hdr.Name, Err: err}
		}

		if err := fn(hdr, path, reader); err != nil {
			return err
		}
	}
}

// memberPath joins name to dir, refusing names that resolve outside of dir.
func memberPath(dir, name string) (string, error) {
	if filepath.IsAbs(name) {
		return "", errEscapesTarget
	}

	path := filepath.Join(dir, name)

	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return "", errors.Wrap(err, "unable to resolve member path")
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errEscapesTarget
	}

	return path, nil
}
