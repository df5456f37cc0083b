package geo

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArtifactCleaner(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	layout := testLayout(cfg)
	writeFile(t, layout.Archive(), tarBytes(t, map[string][]byte{
		"GSM1.txt.gz": gzipBytes(t, sample),
	}))

	_, _, _, _, _, cleaner := newStages(t, cfg)

	dir := filepath.Join(layout.FilesDir(), "GSM1")
	writeFile(t, filepath.Join(dir, "raw.txt"), []byte("raw"))
	writeFile(t, filepath.Join(dir, "Probes.tsv"), []byte("A\n"))
	writeFile(t, filepath.Join(dir, "Probes_trimmed.tsv"), []byte("A\n"))
	writeFile(t, filepath.Join(dir, "nested", "keep.txt"), []byte("kept"))

	complete, err := cleaner.Complete()
	require.NoError(t, err)
	assert.False(t, complete)

	leftovers, err := cleaner.Leftovers()
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "raw.txt")}, leftovers)

	require.NoError(t, cleaner.Run(context.Background()))

	assert.ElementsMatch(t, []string{"Probes.tsv", "Probes_trimmed.tsv", "nested"}, listDir(t, dir))
	assert.Equal(t, []string{"keep.txt"}, listDir(t, filepath.Join(dir, "nested")))

	complete, err = cleaner.Complete()
	require.NoError(t, err)
	assert.True(t, complete)
}

func TestArtifactCleanerNotCompleteBeforeTrim(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)
	writeFile(t, testLayout(cfg).Archive(), tarBytes(t, map[string][]byte{
		"GSM1.txt.gz": gzipBytes(t, sample),
	}))

	_, _, _, _, _, cleaner := newStages(t, cfg)

	complete, err := cleaner.Complete()
	require.NoError(t, err)
	assert.False(t, complete)
}
