// mnistae trains the MNIST autoencoder.
//
// Summaries go to -logdir, reconstructions of the training batch to -images/output_%06d.jpg.
// With -serve the reconstructions are also streamed as MJPEG at /stream and the losses
// are pushed as JSON over a websocket at /ws.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/gorgonia/mnistae"
	"github.com/gorgonia/mnistae/encoding/gif"
	"github.com/gorgonia/mnistae/encoding/mjpeg"
	"github.com/gorgonia/mnistae/mnist"
	"github.com/janpfeifer/must"
	"github.com/schollz/progressbar/v3"
	"k8s.io/klog/v2"
)

var (
	flagData       = flag.String("data", "./MNIST_data", "Directory holding the MNIST idx files.")
	flagDownload   = flag.Bool("download", false, "Download the MNIST files missing from -data.")
	flagLogDir     = flag.String("logdir", "./logs", "Directory for the summaries. Empty disables them.")
	flagImages     = flag.String("images", "images", "Directory for the output_%06d.jpg reconstructions. Empty disables them.")
	flagSteps      = flag.Int("steps", 100000, "Number of training steps.")
	flagBatch      = flag.Int("batch", 50, "Batch size. Must be 5×cols.")
	flagLR         = flag.Float64("lr", 1e-5, "Adam learning rate.")
	flagLogEvery   = flag.Int("log_every", 500, "Log the loss and write summaries every n steps.")
	flagImageEvery = flag.Int("image_every", 1000, "Write reconstructions every n steps. Must be a multiple of -log_every.")
	flagSeed       = flag.Int64("seed", 0, "Seed for the weights and the shuffling. 0 seeds from the clock.")
	flagGif        = flag.String("gif", "", "Write an animated GIF of the reconstructions to this file.")
	flagServe      = flag.String("serve", "", "Serve the live preview on this address, e.g. :8080.")
	flagSave       = flag.String("save", "", "Save the trained model to this file.")
	flagStats      = flag.String("stats", "", "Dump the loss history as CSV to this file.")
	flagProgress   = flag.Bool("progress", true, "Show a progress bar.")
)

const gridRows = 5

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	if *flagDownload {
		must.M(mnist.Download(*flagData))
	}
	opts := mnist.DefaultOptions()
	opts.Seed = *flagSeed
	ds := must.M1(mnist.Read(*flagData, opts))
	klog.Infof("Read %s training, %s validation and %s test images from %v",
		humanize.Comma(int64(ds.Train.Len())), humanize.Comma(int64(ds.Validation.Len())), humanize.Comma(int64(ds.Test.Len())), *flagData)

	conf := mnistae.DefaultConfig()
	conf.NNConf.BatchSize = *flagBatch
	conf.NNConf.Seed = *flagSeed
	conf.GridRows = gridRows
	conf.GridCols = *flagBatch / gridRows
	conf.Steps = *flagSteps
	conf.LearnRate = *flagLR
	conf.LogEvery = *flagLogEvery
	conf.ImageEvery = *flagImageEvery
	conf.LogDir = *flagLogDir
	conf.ImageDir = *flagImages

	var gifEnc *gif.Encoder
	var gifFile *os.File
	if *flagGif != "" {
		gifFile = must.M1(os.Create(*flagGif))
		defer gifFile.Close()
		gifEnc = gif.NewGifEncoder(gifFile, 2)
		conf.OutputEncoders = append(conf.OutputEncoders, gifEnc)
	}

	if *flagServe != "" {
		stream := mjpeg.NewEncoder(4)
		feed := NewEncoder()
		conf.OutputEncoders = append(conf.OutputEncoders, stream, feed)
		go serve(*flagServe, stream, feed)
	}

	if !conf.IsValid() {
		klog.Fatalf("Invalid configuration: %+v", conf)
	}

	a := mnistae.New(conf, ds.Train)
	a.Validation = ds.Validation
	if *flagProgress {
		a.Progress = progressbar.NewOptions(conf.Steps,
			progressbar.OptionSetDescription("Training"),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("steps"),
			progressbar.OptionSetTheme(progressbar.ThemeASCII),
			progressbar.OptionSetWriter(os.Stderr),
		)
	}

	start := time.Now()
	if err := a.Learn(); err != nil {
		klog.Fatalf("Training failed: %+v", err)
	}
	elapsed := time.Since(start)
	fmt.Fprintln(os.Stderr)

	if *flagSave != "" {
		must.M(a.Save(*flagSave))
	}
	if *flagStats != "" {
		must.M(a.Dump(*flagStats))
	}
	report(a, elapsed, gifEnc)
}

func serve(addr string, stream *mjpeg.Encoder, feed *Encoder) {
	mux := http.NewServeMux()
	mux.Handle("/stream", stream)
	mux.Handle("/ws", feed)
	klog.Infof("Live preview at http://%v/stream", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		klog.Errorf("Preview server stopped: %v", err)
	}
}

var (
	cellStyle  = lipgloss.NewStyle().Padding(0, 1)
	titleStyle = lipgloss.NewStyle().Align(lipgloss.Right).Padding(0, 1).Bold(true)
)

func report(a *mnistae.AE, elapsed time.Duration, gifEnc *gif.Encoder) {
	conf := a.Config()
	t := lgtable.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("#705090"))).
		StyleFunc(func(row, col int) lipgloss.Style {
			if col == 0 {
				return titleStyle
			}
			return cellStyle
		})
	t.Row("Steps", humanize.Comma(int64(a.Step())))
	t.Row("Images seen", humanize.Comma(int64(a.Step()*conf.NNConf.BatchSize)))
	t.Row("Elapsed", elapsed.Round(time.Second).String())
	if step, loss, ok := a.Last(); ok {
		t.Row("Last loss", fmt.Sprintf("%.6g (step %s)", loss, humanize.Comma(int64(step))))
	}
	if step, loss, ok := a.Best(); ok {
		t.Row("Best loss", fmt.Sprintf("%.6g (step %s)", loss, humanize.Comma(int64(step))))
	}
	if conf.LogDir != "" {
		t.Row("Summaries", conf.LogDir)
	}
	if conf.ImageDir != "" {
		t.Row("Reconstructions", conf.ImageDir)
	}
	if gifEnc != nil {
		t.Row("GIF frames", humanize.Comma(int64(gifEnc.Frames())))
	}
	fmt.Println(t.String())
}
