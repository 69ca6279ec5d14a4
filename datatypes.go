package mnistae

import (
	"github.com/gorgonia/mnistae/aenet"
	"github.com/gorgonia/mnistae/encoding"
)

type Config struct {
	Name   string
	NNConf aenet.Config

	Steps      int     // number of training steps
	LogEvery   int     // log the loss and write summaries every LogEvery steps
	ImageEvery int     // hand a snapshot to the output encoders every ImageEvery steps
	LearnRate  float64 // Adam learning rate

	GridRows, GridCols        int // how a batch is tiled in image summaries
	ImageHeight, ImageWidth int // how an input vector is shaped into an image

	LogDir   string // summaries. Empty disables them
	ImageDir string // output_%06d.jpg reconstructions. Empty disables them

	// extensions
	OutputEncoders []OutputEncoder
}

// DefaultConfig trains the MNIST autoencoder for 100000 steps of 50 images.
func DefaultConfig() Config {
	return Config{
		Name:   "MNIST Autoencoder",
		NNConf: aenet.DefaultConf(),

		Steps:      100000,
		LogEvery:   500,
		ImageEvery: 1000,
		LearnRate:  1e-5,

		GridRows:    5,
		GridCols:    10,
		ImageHeight: 28,
		ImageWidth:  28,

		LogDir:   "logs",
		ImageDir: "images",
	}
}

func (conf Config) IsValid() bool {
	return conf.NNConf.IsValid() &&
		!conf.NNConf.FwdOnly &&
		conf.Steps >= 0 &&
		conf.LogEvery > 0 &&
		conf.ImageEvery > 0 &&
		// every image step is also a log step
		conf.ImageEvery%conf.LogEvery == 0 &&
		conf.LearnRate > 0 &&
		conf.GridRows*conf.GridCols == conf.NNConf.BatchSize &&
		conf.ImageHeight*conf.ImageWidth == conf.NNConf.Input
}

// IsLogStep reports whether the loss and the summaries are recorded at step.
func (conf Config) IsLogStep(step int) bool { return step%conf.LogEvery == 0 }

// IsImageStep reports whether the output encoders are handed the snapshot of step.
func (conf Config) IsImageStep(step int) bool { return step%conf.ImageEvery == 0 }

// BatchSource provides training batches: n flattened images and their labels.
//
// *mnist.DataSet is a BatchSource.
type BatchSource interface {
	NextBatch(n int) (images []float32, labels []uint8)
}

// OutputEncoder encodes a training snapshot as whatever.
//
// An example OutputEncoder is the JPEG writer. Another example would be a GIF of the reconstructions.
type OutputEncoder interface {
	Encode(ms encoding.Snapshot) error
	Flush() error
}

// Progress is advanced once per training step. *progressbar.ProgressBar is a Progress.
type Progress interface {
	Add(n int) error
}
