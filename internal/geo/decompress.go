package geo

import (
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/askiada/geo-pipeline/internal/fsutil"
)

// Decompressor writes the decompressed content of a single file compressed member to dst.
type Decompressor interface {
	Decompress(ctx context.Context, src string, dst io.Writer) error
}

// ExecDecompressor runs an external command per member. The member path is appended to Command
// and the command must write the decompressed content to its standard output.
type ExecDecompressor struct {
	Command []string
}

func (d ExecDecompressor) Decompress(ctx context.Context, src string, dst io.Writer) error {
	if len(d.Command) == 0 {
		return errors.New("no decompression command")
	}

	args := append(append([]string{}, d.Command[1:]...), src)
	cmd := exec.CommandContext(ctx, d.Command[0], args...)

	stderr := &bytes.Buffer{}
	cmd.Stdout = dst
	cmd.Stderr = stderr

	err := cmd.Run()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return errors.Wrapf(err, "%s: %s", strings.Join(d.Command, " "), msg)
		}

		return errors.Wrap(err, strings.Join(d.Command, " "))
	}

	return nil
}

// GzipDecompressor decompresses gzip members in process.
type GzipDecompressor struct{}

func (GzipDecompressor) Decompress(ctx context.Context, src string, dst io.Writer) error {
	file, err := os.Open(src)
	if err != nil {
		return errors.Wrapf(err, "unable to open %s", src)
	}
	defer file.Close()

	reader, err := gzip.NewReader(file)
	if err != nil {
		return errors.Wrap(err, "invalid gzip stream")
	}
	defer reader.Close()

	_, err = io.Copy(dst, contextReader{ctx: ctx, r: reader})
	if err != nil {
		return errors.Wrap(err, "unable to decompress")
	}

	return nil
}

type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}

	return c.r.Read(p)
}

type decompressJob struct {
	src string
	dst string
}

// LayerDecompressor decompresses every compressed member of the container archive into its own
// directory.
type LayerDecompressor struct {
	layout       Layout
	source       *ArchiveExpander
	suffix       string
	decompressor Decompressor
	workers      int
	logger       *slog.Logger
}

// NewLayerDecompressor creates the decompression stage of the members listed by source. Members
// are selected by their compression suffix.
func NewLayerDecompressor(layout Layout, source *ArchiveExpander, suffix string, decompressor Decompressor, workers int, logger *slog.Logger) *LayerDecompressor {
	return &LayerDecompressor{
		layout:       layout,
		source:       source,
		suffix:       suffix,
		decompressor: decompressor,
		workers:      workers,
		logger:       logger.With("task", TaskExtractFiles),
	}
}

func (d *LayerDecompressor) Name() string { return TaskExtractFiles }

func (d *LayerDecompressor) Requires() []string { return []string{TaskExtractArchives} }

// Outputs lists the decompressed files.
func (d *LayerDecompressor) Outputs() ([]string, error) {
	jobs, err := d.jobs()
	if err != nil {
		return nil, err
	}

	res := make([]string, 0, len(jobs))
	for _, job := range jobs {
		res = append(res, job.dst)
	}

	return res, nil
}

func (d *LayerDecompressor) jobs() ([]decompressJob, error) {
	members, err := d.source.Members()
	if err != nil {
		return nil, err
	}

	jobs := []decompressJob{}
	for _, member := range members {
		if !strings.HasSuffix(member, d.suffix) {
			continue
		}

		jobs = append(jobs, decompressJob{src: member, dst: d.layout.Decompressed(member, d.suffix)})
	}

	return jobs, nil
}

func (d *LayerDecompressor) Run(ctx context.Context) error {
	jobs, err := d.jobs()
	if err != nil {
		return err
	}

	return forEach(ctx, d.workers, jobs, d.decompress)
}

func (d *LayerDecompressor) decompress(ctx context.Context, job decompressJob) error {
	dir := filepath.Dir(job.dst)

	d.logger.Info("creating directory", "path", dir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &FilesystemError{Op: "mkdir", Path: dir, Err: err}
	}

	err := fsutil.WriteAtomic(job.dst, func(w io.Writer) error {
		return d.decompressor.Decompress(ctx, job.src, w)
	})
	if err != nil {
		return &DecompressionError{Path: job.src, Err: err}
	}

	d.logger.Info("member decompressed", "member", job.src, "path", job.dst)

	return nil
}
