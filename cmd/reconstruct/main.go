// reconstruct loads a model saved by mnistae, encodes the MNIST test set and writes
// a scatter plot of the latent codes and a grid of test images next to their reconstructions.
package main

import (
	"flag"
	"image"
	"image/color"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/dustin/go-humanize"
	"github.com/gorgonia/mnistae"
	"github.com/gorgonia/mnistae/aenet"
	"github.com/gorgonia/mnistae/encoding/grid"
	"github.com/gorgonia/mnistae/mnist"
	"github.com/gorgonia/mnistae/summary"
	"github.com/janpfeifer/must"
	"k8s.io/klog/v2"
)

var (
	flagModel = flag.String("model", "model.gob", "Model saved by mnistae -save.")
	flagData  = flag.String("data", "./MNIST_data", "Directory holding the MNIST idx files.")
	flagOut   = flag.String("out", "reconstruct", "Output directory.")
	flagBatch = flag.Int("batch", 500, "Inference batch size.")
	flagRows  = flag.Int("rows", 5, "Rows of the reconstruction grid.")
	flagCols  = flag.Int("cols", 10, "Columns of the reconstruction grid.")
	flagScale = flag.Int("scale", 2, "Upscaling of the reconstruction grid.")
)

const (
	latentFile      = "latent.png"
	comparisonFile  = "reconstruction.jpg"
	comparisonSpace = 4
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	nn := must.M1(mnistae.Load(aenet.DefaultConf(), *flagModel))
	inf := must.M1(aenet.Infer(nn, *flagBatch))
	defer inf.Close()

	opts := mnist.DefaultOptions()
	opts.ValidationSize = 0
	ds := must.M1(mnist.Read(*flagData, opts))
	test := ds.Test
	klog.Infof("Encoding %s test images", humanize.Comma(int64(test.Len())))

	must.M(os.MkdirAll(*flagOut, 0755))

	latent := must.M1(inf.Encode(test.Images()))
	filename := filepath.Join(*flagOut, latentFile)
	must.M(summary.LatentScatter(filename, latent, test.Labels(), nn.Latent))
	klog.Infof("Latent codes plotted in %v", filename)

	n := *flagRows * *flagCols
	if n > test.Len() {
		klog.Fatalf("A %d×%d grid needs %d images, the test set has %d", *flagRows, *flagCols, n, test.Len())
	}
	images := test.Images()[:n*mnist.ImageSize]
	recons := must.M1(inf.Reconstruct(images))
	img := must.M1(compare(images, recons, *flagRows, *flagCols, *flagScale))
	filename = filepath.Join(*flagOut, comparisonFile)
	must.M(imaging.Save(img, filename, imaging.JPEGQuality(95)))
	klog.Infof("Reconstructions written to %v", filename)
}

// compare lays the grid of the originals left of the grid of their reconstructions.
func compare(originals, reconstructions []float32, rows, cols, scale int) (image.Image, error) {
	left, err := grid.Form(originals, rows, cols, mnist.Height, mnist.Width)
	if err != nil {
		return nil, err
	}
	right, err := grid.Form(reconstructions, rows, cols, mnist.Height, mnist.Width)
	if err != nil {
		return nil, err
	}
	l, r := left.Upscale(scale), right.Upscale(scale)
	w, h := l.Bounds().Dx(), l.Bounds().Dy()
	dst := imaging.New(2*w+comparisonSpace, h, color.White)
	dst = imaging.Paste(dst, l, image.Pt(0, 0))
	dst = imaging.Paste(dst, r, image.Pt(w+comparisonSpace, 0))
	return dst, nil
}
