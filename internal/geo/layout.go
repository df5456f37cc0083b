// Package geo implements the stages turning a GEO dataset archive into trimmed tab separated tables.
//
// The working tree of a dataset is:
//
//	<root>/<dataset>.tar
//	<root>/<dataset>/archives/<member>
//	<root>/<dataset>/archives/files/<base name>/<decompressed member>
//	<root>/<dataset>/archives/files/<base name>/<section>.tsv
//
// Every stage is a pipeline.Task whose outputs are derived from the outputs of the previous one,
// so that the runner can tell which stages are left to do from what is on disk.
package geo

import (
	"path/filepath"
	"strings"
)

// Layout resolves the paths of the working tree of one dataset.
type Layout struct {
	Root    string
	Dataset string
}

// Archive is the container archive downloaded from the repository.
func (l Layout) Archive() string {
	return filepath.Join(l.Root, l.Dataset+".tar")
}

// ArchivesDir is the directory the container archive is expanded into.
func (l Layout) ArchivesDir() string {
	return filepath.Join(l.Root, l.Dataset, "archives")
}

// FilesDir holds one directory per decompressed member.
func (l Layout) FilesDir() string {
	return filepath.Join(l.ArchivesDir(), "files")
}

// Decompressed returns the path a compressed member is decompressed to. suffix is the compression
// suffix, e.g. "GSM1.txt.gz" becomes files/GSM1/GSM1.txt.
func (l Layout) Decompressed(member, suffix string) string {
	name := strings.TrimSuffix(filepath.Base(member), suffix)

	return filepath.Join(l.FilesDir(), baseName(name), name)
}

// baseName strips one extension layer.
func baseName(name string) string {
	if ext := filepath.Ext(name); ext != "" && ext != name {
		return strings.TrimSuffix(name, ext)
	}

	return name
}
