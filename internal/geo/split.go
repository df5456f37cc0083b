package geo

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/askiada/geo-pipeline/internal/config"
	"github.com/askiada/geo-pipeline/internal/table"
)

// Section is one bracketed block of a text file, parsed as a table.
type Section struct {
	Label string
	Table *table.Table
}

// SplitSections parses a text file made of sections each starting with a "[Label]" line.
// Lines before the first label are ignored. Headerless sections are read without a header row,
// any other section takes its first line as header. The last section of the input follows the
// same rule when finalSection is config.FinalSectionSame, and always takes a header when it is
// config.FinalSectionInfer.
func SplitSections(r io.Reader, schema config.SchemaConfig) ([]Section, error) {
	sections := []Section{}
	reader := bufio.NewReader(r)
	buf := &bytes.Buffer{}
	label := ""
	open := false

	flush := func(last bool) error {
		header := !schema.IsHeaderless(label)
		if last && schema.FinalSection == config.FinalSectionInfer {
			header = true
		}

		t, err := table.Read(bytes.NewReader(buf.Bytes()), header)
		if err != nil {
			return errors.Wrapf(err, "section %s", label)
		}

		sections = append(sections, Section{Label: label, Table: t})

		return nil
	}

	for {
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, errors.Wrap(err, "unable to read line")
		}

		if strings.HasPrefix(line, "[") {
			if open {
				if err := flush(false); err != nil {
					return nil, err
				}
			}

			label = strings.Trim(strings.TrimRight(line, "\r\n"), "[]")
			open = true
			buf.Reset()
		} else if open {
			buf.WriteString(line)
		}

		if errors.Is(err, io.EOF) {
			break
		}
	}

	if open {
		if err := flush(true); err != nil {
			return nil, err
		}
	}

	return sections, nil
}

// SectionSplitter writes every section of the decompressed files to its own table file.
type SectionSplitter struct {
	source  *LayerDecompressor
	schema  config.SchemaConfig
	workers int
	logger  *slog.Logger
}

// NewSectionSplitter creates the stage splitting the files produced by source.
func NewSectionSplitter(source *LayerDecompressor, schema config.SchemaConfig, workers int, logger *slog.Logger) *SectionSplitter {
	return &SectionSplitter{
		source:  source,
		schema:  schema,
		workers: workers,
		logger:  logger.With("task", TaskSplitTables),
	}
}

func (s *SectionSplitter) Name() string { return TaskSplitTables }

func (s *SectionSplitter) Requires() []string { return []string{TaskExtractFiles} }

// Outputs lists one table file per expected section, next to each decompressed file.
func (s *SectionSplitter) Outputs() ([]string, error) {
	files, err := s.source.Outputs()
	if err != nil {
		return nil, err
	}

	res := make([]string, 0, len(files)*len(s.schema.Sections))
	for _, file := range files {
		for _, section := range s.schema.Sections {
			res = append(res, s.tablePath(file, section))
		}
	}

	return res, nil
}

func (s *SectionSplitter) tablePath(file, section string) string {
	return filepath.Join(filepath.Dir(file), section+s.schema.TabularSuffix)
}

func (s *SectionSplitter) Run(ctx context.Context) error {
	files, err := s.source.Outputs()
	if err != nil {
		return err
	}

	return forEach(ctx, s.workers, files, func(_ context.Context, file string) error {
		return s.split(file)
	})
}

func (s *SectionSplitter) split(path string) error {
	s.logger.Info("splitting file into tables", "path", path)

	file, err := os.Open(path)
	if err != nil {
		return &FilesystemError{Op: "open", Path: path, Err: err}
	}
	defer file.Close()

	sections, err := SplitSections(file, s.schema)
	if err != nil {
		return errors.Wrapf(err, "unable to split %s", path)
	}

	found := make(map[string]struct{}, len(sections))
	for _, section := range sections {
		if section.Label == "" || filepath.Base(section.Label) != section.Label {
			return errors.Errorf("%s: invalid section label %q", path, section.Label)
		}

		out := s.tablePath(path, section.Label)
		if err := section.Table.WriteFile(out); err != nil {
			return &FilesystemError{Op: "write", Path: out, Err: err}
		}
		found[section.Label] = struct{}{}

		s.logger.Info("table saved", "section", section.Label, "path", out, "rows", len(section.Table.Rows))
	}

	for _, expected := range s.schema.Sections {
		if _, ok := found[expected]; !ok {
			return &MissingTableError{Path: path, Section: expected}
		}
	}

	return nil
}
