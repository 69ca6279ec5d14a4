package mnist

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeIdx writes a synthetic pair of idx files. Image i has every pixel set to i and label i%10.
func writeIdx(t *testing.T, dir, imagesFile, labelsFile string, count int) {
	t.Helper()
	var images, labels bytes.Buffer
	binary.Write(&images, binary.BigEndian, imageFileHeader{imageMagic, int32(count), Height, Width})
	binary.Write(&labels, binary.BigEndian, labelFileHeader{labelMagic, int32(count)})
	for i := 0; i < count; i++ {
		images.Write(bytes.Repeat([]byte{byte(i)}, ImageSize))
		labels.WriteByte(byte(i % 10))
	}
	write(t, filepath.Join(dir, imagesFile), images.Bytes())
	write(t, filepath.Join(dir, labelsFile), labels.Bytes())
}

// write gzips the data when the name asks for it.
func write(t *testing.T, filename string, data []byte) {
	t.Helper()
	if strings.HasSuffix(filename, ".gz") {
		var buf bytes.Buffer
		w := gzip.NewWriter(&buf)
		w.Write(data)
		require.NoError(t, w.Close())
		data = buf.Bytes()
	}
	require.NoError(t, os.WriteFile(filename, data, 0644))
}

func fixture(t *testing.T) string {
	dir := t.TempDir()
	writeIdx(t, dir, TrainImagesFile, TrainLabelsFile, 12)
	// the test split is stored uncompressed
	writeIdx(t, dir, strings.TrimSuffix(TestImagesFile, ".gz"), strings.TrimSuffix(TestLabelsFile, ".gz"), 5)
	return dir
}

func TestRead(t *testing.T) {
	dir := fixture(t)
	ds, err := Read(dir, Options{ValidationSize: 2, Seed: 1})
	require.NoError(t, err)

	assert.Equal(t, 10, ds.Train.Len())
	assert.Equal(t, 2, ds.Validation.Len())
	assert.Equal(t, 5, ds.Test.Len())

	// validation is the tail of the training files
	assert.Equal(t, []uint8{0, 1}, ds.Validation.Labels())
	assert.InDelta(t, float32(10)/255, ds.Validation.Image(0)[0], 1e-7)
	assert.InDelta(t, float32(4)/255, ds.Test.Image(4)[ImageSize-1], 1e-7)
	for _, p := range ds.Train.Images() {
		assert.True(t, p >= 0 && p <= 1)
	}
}

func TestReadErrors(t *testing.T) {
	t.Run("missing", func(t *testing.T) {
		_, err := Read(t.TempDir(), DefaultOptions())
		assert.Error(t, err)
	})
	t.Run("bad magic", func(t *testing.T) {
		dir := fixture(t)
		var buf bytes.Buffer
		binary.Write(&buf, binary.BigEndian, imageFileHeader{labelMagic, 0, Height, Width})
		write(t, filepath.Join(dir, TrainImagesFile), buf.Bytes())
		_, err := Read(dir, Options{})
		assert.True(t, errors.Is(err, ErrFormat), "got %v", err)
	})
	t.Run("validation too large", func(t *testing.T) {
		_, err := Read(fixture(t), Options{ValidationSize: 13})
		assert.Error(t, err)
	})
}

func TestNextBatch(t *testing.T) {
	images := make([]float32, 4*ImageSize)
	labels := []uint8{0, 1, 2, 3}
	for i := range labels {
		for j := 0; j < ImageSize; j++ {
			images[i*ImageSize+j] = float32(i)
		}
	}
	ds := NewDataSet(images, labels, rand.New(rand.NewSource(7)))

	var seen []int
	for i := 0; i < 2; i++ {
		batch, lbls := ds.NextBatch(2)
		require.Len(t, batch, 2*ImageSize)
		require.Len(t, lbls, 2)
		for k, l := range lbls {
			assert.Equal(t, float32(l), batch[k*ImageSize], "image and label should travel together")
			seen = append(seen, int(l))
		}
	}
	sort.Ints(seen)
	assert.Equal(t, []int{0, 1, 2, 3}, seen, "one epoch visits every example once")
	assert.Equal(t, 0, ds.Epochs())

	// crossing the epoch boundary
	_, lbls := ds.NextBatch(3)
	assert.Len(t, lbls, 3)
	assert.Equal(t, 1, ds.Epochs())
}

func TestNextBatchUnshuffled(t *testing.T) {
	ds := NewDataSet(make([]float32, 3*ImageSize), []uint8{5, 6, 7}, nil)
	_, lbls := ds.NextBatch(5)
	assert.Equal(t, []uint8{5, 6, 7, 5, 6}, lbls)
}

func TestDownload(t *testing.T) {
	var mu sync.Mutex
	var requests []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requests = append(requests, r.URL.Path)
		mu.Unlock()
		w.Write([]byte("payload"))
	}))
	defer srv.Close()
	old := DownloadURL
	DownloadURL = srv.URL
	defer func() { DownloadURL = old }()

	dir := t.TempDir()
	// already present uncompressed, so it must not be fetched
	write(t, filepath.Join(dir, strings.TrimSuffix(TestLabelsFile, ".gz")), []byte("x"))

	require.NoError(t, Download(dir))
	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []string{"/" + TrainImagesFile, "/" + TrainLabelsFile, "/" + TestImagesFile}, requests)
	got, err := os.ReadFile(filepath.Join(dir, TrainImagesFile))
	require.NoError(t, err)
	assert.Equal(t, "payload", string(got))
	_, err = os.Stat(filepath.Join(dir, TrainImagesFile+".partial"))
	assert.True(t, os.IsNotExist(err))
}
