// Package table reads and writes the tab separated tables produced by the pipeline.
//
// A Table is a list of rows of text fields, optionally preceded by a header naming the columns.
// Values are kept as they appear in the source file: nothing is converted to numbers, so writing a
// table back produces the same fields it was read from.
package table

import (
	"bufio"
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/askiada/geo-pipeline/internal/fsutil"
)

// Delimiter separates the fields of a row.
const Delimiter = '\t'

// Table is an in-memory table.
type Table struct {
	// Header names the columns. It is nil for tables read without a header row.
	Header []string
	Rows   [][]string
}

// MissingColumnsError is returned when columns expected by an operation are not in the header.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return "missing columns: " + strings.Join(e.Columns, ", ")
}

// Read parses tab separated rows. When header is true, the first row names the columns.
// Blank lines are ignored. Rows shorter than the widest row are padded with empty fields, and
// header cells that are empty or repeated are renamed so that every column has a distinct name.
func Read(r io.Reader, header bool) (*Table, error) {
	reader := csv.NewReader(r)
	reader.Comma = Delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "unable to read rows")
	}

	if records == nil {
		records = [][]string{}
	}

	t := &Table{Rows: records}
	if header && len(records) > 0 {
		t.Header = records[0]
		t.Rows = records[1:]
	}

	t.normalize()

	return t, nil
}

// ReadFile reads a table with a header row from path.
func ReadFile(path string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open %s", path)
	}
	defer file.Close()

	t, err := Read(file, true)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to parse %s", path)
	}

	return t, nil
}

// Width returns the number of columns.
func (t *Table) Width() int {
	width := len(t.Header)
	for _, row := range t.Rows {
		if len(row) > width {
			width = len(row)
		}
	}

	return width
}

func (t *Table) normalize() {
	width := t.Width()

	for i, row := range t.Rows {
		for len(row) < width {
			row = append(row, "")
		}
		t.Rows[i] = row
	}

	if t.Header == nil {
		return
	}

	seen := make(map[string]int, width)
	for i := 0; i < width; i++ {
		if i >= len(t.Header) {
			t.Header = append(t.Header, "")
		}

		name := t.Header[i]
		if name == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}

		if count, ok := seen[name]; ok {
			renamed := name + "." + strconv.Itoa(count)
			seen[name] = count + 1
			name = renamed
		}
		seen[name]++

		t.Header[i] = name
	}
}

// Index returns the position of the named column, or -1.
func (t *Table) Index(name string) int {
	for i, col := range t.Header {
		if col == name {
			return i
		}
	}

	return -1
}

// Drop returns a copy of the table without the named columns. Every name must be a column of the
// table, otherwise a *MissingColumnsError listing the absent ones is returned.
func (t *Table) Drop(names ...string) (*Table, error) {
	drop := make(map[int]struct{}, len(names))
	missing := []string{}

	for _, name := range names {
		idx := t.Index(name)
		if idx < 0 {
			missing = append(missing, name)

			continue
		}
		drop[idx] = struct{}{}
	}

	if len(missing) > 0 {
		return nil, &MissingColumnsError{Columns: missing}
	}

	keep := func(row []string) []string {
		res := make([]string, 0, len(row)-len(drop))
		for i, field := range row {
			if _, ok := drop[i]; !ok {
				res = append(res, field)
			}
		}

		return res
	}

	res := &Table{
		Header: keep(t.Header),
		Rows:   make([][]string, len(t.Rows)),
	}
	for i, row := range t.Rows {
		res.Rows[i] = keep(row)
	}

	return res, nil
}

// Write encodes the table, header first when there is one. Only the fields holding the delimiter,
// a quote or a line break are quoted.
func (t *Table) Write(w io.Writer) error {
	buf := bufio.NewWriter(w)

	if t.Header != nil {
		err := writeRow(buf, t.Header)
		if err != nil {
			return errors.Wrap(err, "unable to write header")
		}
	}

	for _, row := range t.Rows {
		err := writeRow(buf, row)
		if err != nil {
			return errors.Wrap(err, "unable to write rows")
		}
	}

	return errors.Wrap(buf.Flush(), "unable to write rows")
}

func writeRow(w *bufio.Writer, row []string) error {
	for i, field := range row {
		if i > 0 {
			if err := w.WriteByte(Delimiter); err != nil {
				return err
			}
		}

		if strings.ContainsAny(field, "\t\"\r\n") {
			field = `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
		}

		if _, err := w.WriteString(field); err != nil {
			return err
		}
	}

	return w.WriteByte('\n')
}

// WriteFile writes the table to path atomically.
func (t *Table) WriteFile(path string) error {
	return fsutil.WriteAtomic(path, t.Write)
}
