package summary

import (
	"encoding/csv"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/gorgonia/mnistae/encoding/grid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readScalars(t *testing.T, dir string) [][]string {
	f, err := os.Open(filepath.Join(dir, ScalarsFile))
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func TestWriter(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	w, err := NewWriter(dir)
	require.NoError(t, err)
	assert.NotEmpty(t, w.Run())

	g, err := grid.Form([]float32{0, 1, 2, 3}, 2, 2, 1, 1)
	require.NoError(t, err)
	for _, step := range []int{0, 500} {
		s := Summary{
			Scalar("Loss", 1/float32(step/500+1)),
			Image("Output", g),
		}
		require.NoError(t, w.Add(s, step))
		require.NoError(t, w.Flush())
	}
	require.NoError(t, w.WriteGraph("digraph G {}"))
	require.NoError(t, w.Close())

	records := readScalars(t, dir)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"run", "step", "tag", "value"}, records[0])
	assert.Equal(t, []string{w.Run(), "0", "Loss", "1"}, records[1])
	assert.Equal(t, []string{w.Run(), "500", "Loss", "0.5"}, records[2])

	f, err := os.Open(w.ImageFilename("Output", 500))
	require.NoError(t, err)
	defer f.Close()
	im, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, 2, im.Bounds().Dx())
	assert.Equal(t, filepath.Join(dir, "images", "Output", "000500.png"), w.ImageFilename("Output", 500))

	for _, name := range []string{PlotFile, GraphFile} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
}

func TestWriterAppendsRuns(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 2; i++ {
		w, err := NewWriter(dir)
		require.NoError(t, err)
		require.NoError(t, w.Add(Summary{Scalar("Loss", 0.5)}, 0))
		require.NoError(t, w.Close())
	}
	records := readScalars(t, dir)
	require.Len(t, records, 3, "one header and a row per run")
	assert.NotEqual(t, records[1][0], records[2][0], "runs have distinct ids")
}

func TestLatentScatter(t *testing.T) {
	dir := t.TempDir()
	latent := []float32{0, 0, 1, 1, -1, 2, 0.5, -0.5}
	labels := []uint8{0, 1, 9, 1}
	filename := filepath.Join(dir, "latent.png")
	require.NoError(t, LatentScatter(filename, latent, labels, 2))
	_, err := os.Stat(filename)
	assert.NoError(t, err)

	assert.Error(t, LatentScatter(filename, latent, labels, 1))
	assert.Error(t, LatentScatter(filename, latent[:6], labels, 2))
}
