package geo

import (
	"fmt"
	"strings"
)

// TransferError is returned when the download answers with a non 2xx status.
type TransferError struct {
	URL        string
	StatusCode int
	Status     string
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("download %s: unexpected status %s", e.URL, e.Status)
}

// ArchiveError is returned when the container archive cannot be read, or holds a member that would
// be extracted outside of the target directory.
type ArchiveError struct {
	Path   string
	Member string
	Err    error
}

func (e *ArchiveError) Error() string {
	if e.Member != "" {
		return fmt.Sprintf("archive %s: member %s: %v", e.Path, e.Member, e.Err)
	}

	return fmt.Sprintf("archive %s: %v", e.Path, e.Err)
}

func (e *ArchiveError) Unwrap() error {
	return e.Err
}

// DecompressionError is returned when a member cannot be decompressed.
type DecompressionError struct {
	Path string
	Err  error
}

func (e *DecompressionError) Error() string {
	return fmt.Sprintf("decompress %s: %v", e.Path, e.Err)
}

func (e *DecompressionError) Unwrap() error {
	return e.Err
}

// MissingTableError is returned when a split file lacks one of the expected sections.
type MissingTableError struct {
	Path    string
	Section string
}

func (e *MissingTableError) Error() string {
	return fmt.Sprintf("%s: section %s not found", e.Path, e.Section)
}

// SchemaError is returned when columns that must be dropped are not in the table.
type SchemaError struct {
	Path    string
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: missing columns %s", e.Path, strings.Join(e.Missing, ", "))
}

// FilesystemError wraps the file system failures of the stages.
type FilesystemError struct {
	Op   string
	Path string
	Err  error
}

func (e *FilesystemError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FilesystemError) Unwrap() error {
	return e.Err
}
