// Package mnist reads the MNIST database of handwritten digits and serves shuffled batches of it.
//
// Images are flattened to Width×Height float32 values in [0,1].
package mnist

import (
	"bufio"
	"compress/gzip"
	"encoding/binary"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	TrainImagesFile = "train-images-idx3-ubyte.gz"
	TrainLabelsFile = "train-labels-idx1-ubyte.gz"
	TestImagesFile  = "t10k-images-idx3-ubyte.gz"
	TestLabelsFile  = "t10k-labels-idx1-ubyte.gz"

	Width     = 28
	Height    = 28
	ImageSize = Width * Height

	imageMagic = 0x00000803
	labelMagic = 0x00000801

	// DefaultValidationSize is the number of training examples held out for validation.
	DefaultValidationSize = 5000
)

// ErrFormat is returned when a file is not an MNIST idx file.
var ErrFormat = errors.New("mnist: invalid format")

type imageFileHeader struct {
	Magic     int32
	NumImages int32
	Height    int32
	Width     int32
}

type labelFileHeader struct {
	Magic     int32
	NumLabels int32
}

// Options control how the data sets are split and shuffled.
type Options struct {
	ValidationSize int   // taken from the end of the training files
	Seed           int64 // shuffling seed. 0 means time based
}

// DefaultOptions holds out DefaultValidationSize examples for validation.
func DefaultOptions() Options { return Options{ValidationSize: DefaultValidationSize} }

// Datasets are the three splits of MNIST.
type Datasets struct {
	Train      *DataSet
	Validation *DataSet
	Test       *DataSet
}

// Read loads the data sets from dir. Each file may be stored gzipped (as distributed) or raw.
func Read(dir string, opts Options) (*Datasets, error) {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	r := rand.New(rand.NewSource(seed))

	trainImages, trainLabels, err := readPair(dir, TrainImagesFile, TrainLabelsFile)
	if err != nil {
		return nil, err
	}
	testImages, testLabels, err := readPair(dir, TestImagesFile, TestLabelsFile)
	if err != nil {
		return nil, err
	}

	total := len(trainLabels)
	if opts.ValidationSize < 0 || opts.ValidationSize > total {
		return nil, errors.Errorf("validation size %d is not within [0, %d]", opts.ValidationSize, total)
	}
	split := total - opts.ValidationSize
	return &Datasets{
		Train:      NewDataSet(trainImages[:split*ImageSize], trainLabels[:split], r),
		Validation: NewDataSet(trainImages[split*ImageSize:], trainLabels[split:], r),
		Test:       NewDataSet(testImages, testLabels, r),
	}, nil
}

func readPair(dir, imagesFile, labelsFile string) ([]float32, []uint8, error) {
	images, err := readImages(locate(dir, imagesFile))
	if err != nil {
		return nil, nil, err
	}
	labels, err := readLabels(locate(dir, labelsFile))
	if err != nil {
		return nil, nil, err
	}
	if len(images) != len(labels)*ImageSize {
		return nil, nil, errors.Wrapf(ErrFormat, "%d images but %d labels in %s", len(images)/ImageSize, len(labels), dir)
	}
	return images, labels, nil
}

// locate prefers the gzipped file and falls back on the uncompressed one.
func locate(dir, name string) string {
	gz := filepath.Join(dir, name)
	if _, err := os.Stat(gz); err == nil {
		return gz
	}
	raw := filepath.Join(dir, strings.TrimSuffix(name, ".gz"))
	if _, err := os.Stat(raw); err == nil {
		return raw
	}
	return gz
}

// open returns a reader of the decompressed contents of filename.
func open(filename string) (io.Reader, func() error, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, nil, errors.WithStack(err)
	}
	if !strings.HasSuffix(filename, ".gz") {
		return bufio.NewReader(f), f.Close, nil
	}
	gz, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, nil, errors.Wrapf(err, "gzip.NewReader %s", filename)
	}
	closer := func() error {
		gz.Close()
		return f.Close()
	}
	return bufio.NewReader(gz), closer, nil
}

// readImages parses an idx3 file and scales every pixel to [0,1].
func readImages(filename string) ([]float32, error) {
	r, closer, err := open(filename)
	if err != nil {
		return nil, err
	}
	defer closer()

	var header imageFileHeader
	if err = binary.Read(r, binary.BigEndian, &header); err != nil {
		return nil, errors.Wrapf(err, "reading header of %s", filename)
	}
	if header.Magic != imageMagic || header.Width != Width || header.Height != Height || header.NumImages < 0 {
		return nil, errors.Wrapf(ErrFormat, "%s: magic %#x, %d×%d images", filename, header.Magic, header.Height, header.Width)
	}

	pix := make([]byte, int(header.NumImages)*ImageSize)
	if _, err = io.ReadFull(r, pix); err != nil {
		return nil, errors.Wrapf(err, "reading %d images from %s", header.NumImages, filename)
	}
	retVal := make([]float32, len(pix))
	for i, p := range pix {
		retVal[i] = float32(p) / 255
	}
	return retVal, nil
}

func readLabels(filename string) ([]uint8, error) {
	r, closer, err := open(filename)
	if err != nil {
		return nil, err
	}
	defer closer()

	var header labelFileHeader
	if err = binary.Read(r, binary.BigEndian, &header); err != nil {
		return nil, errors.Wrapf(err, "reading header of %s", filename)
	}
	if header.Magic != labelMagic || header.NumLabels < 0 {
		return nil, errors.Wrapf(ErrFormat, "%s: magic %#x", filename, header.Magic)
	}
	labels := make([]uint8, header.NumLabels)
	if _, err = io.ReadFull(r, labels); err != nil {
		return nil, errors.Wrapf(err, "reading %d labels from %s", header.NumLabels, filename)
	}
	return labels, nil
}
