package geo

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/askiada/geo-pipeline/internal/config"
	"github.com/askiada/geo-pipeline/internal/logging"
)

const sample = "^SAMPLE = GSM1\n" +
	"[Heading]\n" +
	"Customer\tACME\n" +
	"Date\t2015-05-05\n" +
	"[Probes]\n" +
	"ID\tSymbol\tDefinition\tOntology_Component\tOntology_Process\tOntology_Function\tSynonyms\tObsolete_Probe_Id\tProbe_Sequence\tChromosome\n" +
	"ILMN_1\tGAPDH\tdef\tcomp\tproc\tfunc\tsyn\tobs\tACGT\t12\n" +
	"ILMN_2\tACTB\tdef\tcomp\tproc\tfunc\tsyn\tobs\tTTGA\t7\n" +
	"[Controls]\n" +
	"Probe_Id\tSymbol\n" +
	"ILMN_9\tcontrol\n" +
	"[Columns]\n" +
	"Column\tDescription\n" +
	"ID\tprobe identifier\n"

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := config.Default()
	cfg.Root = t.TempDir()
	cfg.Dataset = "GSE1"
	cfg.Decompress.Backend = config.BackendGzip

	return cfg
}

func testLayout(cfg *config.Config) Layout {
	return Layout{Root: cfg.Root, Dataset: cfg.Dataset}
}

func gzipBytes(t *testing.T, content string) []byte {
	t.Helper()

	buf := &bytes.Buffer{}
	zw := gzip.NewWriter(buf)
	_, err := zw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	return buf.Bytes()
}

// tarBytes builds an archive holding the members in name order.
func tarBytes(t *testing.T, members map[string][]byte) []byte {
	t.Helper()

	names := make([]string, 0, len(members))
	for name := range members {
		names = append(names, name)
	}
	sort.Strings(names)

	buf := &bytes.Buffer{}
	tw := tar.NewWriter(buf)
	for _, name := range names {
		content := members[name]
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     name,
			Mode:     0o644,
			Size:     int64(len(content)),
			Typeflag: tar.TypeReg,
		}))
		_, err := tw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())

	return buf.Bytes()
}

func writeFile(t *testing.T, path string, content []byte) {
	t.Helper()

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, content, 0o644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	return string(raw)
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}

	return names
}

// newStages wires the stages of cfg without a pipeline.
func newStages(t *testing.T, cfg *config.Config) (*Fetcher, *ArchiveExpander, *LayerDecompressor, *SectionSplitter, *ColumnTrimmer, *ArtifactCleaner) {
	t.Helper()

	tasks, err := NewTasks(cfg, logging.Discard())
	require.NoError(t, err)
	require.Len(t, tasks, 6)

	return tasks[0].(*Fetcher), tasks[1].(*ArchiveExpander), tasks[2].(*LayerDecompressor),
		tasks[3].(*SectionSplitter), tasks[4].(*ColumnTrimmer), tasks[5].(*ArtifactCleaner)
}
