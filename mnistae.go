// Package mnistae trains a fully connected MNIST autoencoder and reports on its progress.
package mnistae

import (
	"encoding/gob"
	"fmt"
	"os"

	"github.com/gorgonia/mnistae/aenet"
	"github.com/gorgonia/mnistae/encoding"
	"github.com/gorgonia/mnistae/encoding/jpeg"
	"github.com/gorgonia/mnistae/summary"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Summary tags.
const (
	LossTag           = "Loss"
	ValidationLossTag = "ValidationLoss"
	InputTag          = "Input"
	EncoderTag        = "Encoder"
	OutputTag         = "Output"
)

// AE is the top level structure and the entry point of the API.
// It wraps the network, the data it learns from and everything that reports on the learning.
type AE struct {
	Statistics

	// Validation, when set, is sampled for one batch at every log step.
	Validation BatchSource
	// Progress, when set, is advanced once per step.
	Progress Progress

	conf   Config
	data   BatchSource
	nn     *aenet.Net
	outEnc []OutputEncoder
	step   int
}

// New autoencoder trainer. It takes a configuration and the source of the training batches.
func New(conf Config, data BatchSource) *AE {
	if !conf.IsValid() {
		panic("Config is not valid. Unable to proceed")
	}
	nn := aenet.New(conf.NNConf)
	if err := nn.Init(); err != nil {
		panic(fmt.Sprintf("%+v", err))
	}

	var outEnc []OutputEncoder
	if conf.ImageDir != "" {
		outEnc = append(outEnc, jpeg.NewEncoder(conf.ImageDir))
	}
	outEnc = append(outEnc, conf.OutputEncoders...)

	return &AE{
		Statistics: makeStatistics(),
		conf:       conf,
		data:       data,
		nn:         nn,
		outEnc:     outEnc,
	}
}

// Net returns the network being learnt.
func (a *AE) Net() *aenet.Net { return a.nn }

// Config returns the configuration the trainer was created with.
func (a *AE) Config() Config { return a.conf }

// Step returns the current step. After Learn it is the number of steps taken.
func (a *AE) Step() int { return a.step }

// Learn trains the network for conf.Steps steps.
//
// At every log step the loss is logged and the summaries are written. At every image step
// the snapshot of the batch is handed to the output encoders. What is reported for a step
// is what the network computed before that step's update.
func (a *AE) Learn() (err error) {
	s, err := aenet.NewSession(a.nn, a.conf.LearnRate)
	if err != nil {
		return err
	}
	defer s.Close()

	var w *summary.Writer
	if a.conf.LogDir != "" {
		if w, err = summary.NewWriter(a.conf.LogDir); err != nil {
			return err
		}
		defer func() {
			if cerr := w.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}()
		if err = w.WriteGraph(a.nn.ToDot()); err != nil {
			return err
		}
		klog.V(1).Infof("Run %v logging to %v", w.Run(), w.Dir())
	}

	for a.step = 0; a.step < a.conf.Steps; a.step++ {
		images, labels := a.data.NextBatch(a.conf.NNConf.BatchSize)
		res, err := s.Step(images)
		if err != nil {
			return errors.WithMessage(err, fmt.Sprintf("Step %d", a.step))
		}
		snap := a.snapshot(res, images, labels)

		if a.conf.IsLogStep(a.step) {
			if err = a.log(s, w, snap); err != nil {
				return errors.WithMessage(err, fmt.Sprintf("Logging step %d", a.step))
			}
		}
		if a.conf.IsImageStep(a.step) {
			for _, enc := range a.outEnc {
				if err = enc.Encode(snap); err != nil {
					return errors.WithMessage(err, fmt.Sprintf("Encoding step %d", a.step))
				}
			}
		}
		if a.Progress != nil {
			a.Progress.Add(1)
		}
	}

	for _, enc := range a.outEnc {
		if err = enc.Flush(); err != nil {
			return err
		}
	}
	return nil
}

func (a *AE) snapshot(res aenet.Result, images []float32, labels []uint8) encoding.Snapshot {
	return encoding.Snapshot{
		Step:      a.step,
		Loss:      res.Loss,
		Input:     images,
		Output:    res.Output,
		Latent:    res.Latent,
		Labels:    labels,
		Rows:      a.conf.GridRows,
		Cols:      a.conf.GridCols,
		Height:    a.conf.ImageHeight,
		Width:     a.conf.ImageWidth,
		LatentDim: a.conf.NNConf.Latent,
	}
}

func (a *AE) log(s *aenet.Session, w *summary.Writer, snap encoding.Snapshot) error {
	klog.Infof("Step: %d, Loss: %g", snap.Step, snap.Loss)

	vloss := noLoss
	if a.Validation != nil {
		images, _ := a.Validation.NextBatch(a.conf.NNConf.BatchSize)
		res, err := s.Forward(images)
		if err != nil {
			return errors.WithMessage(err, "Validation")
		}
		vloss = res.Loss
		klog.V(1).Infof("Step: %d, Validation Loss: %g", snap.Step, vloss)
	}
	a.update(snap.Step, snap.Loss, vloss)

	if w == nil {
		return nil
	}
	input, err := snap.InputGrid()
	if err != nil {
		return err
	}
	latent, err := snap.LatentGrid()
	if err != nil {
		return err
	}
	output, err := snap.OutputGrid()
	if err != nil {
		return err
	}
	sum := summary.Summary{
		summary.Scalar(LossTag, snap.Loss),
		summary.Image(InputTag, input),
		summary.Image(EncoderTag, latent),
		summary.Image(OutputTag, output),
	}
	if a.Validation != nil {
		sum = append(sum, summary.Scalar(ValidationLossTag, vloss))
	}
	if err = w.Add(sum, snap.Step); err != nil {
		return err
	}
	return w.Flush()
}

// Save the network parameters into filename.
func (a *AE) Save(filename string) error {
	f, err := os.OpenFile(filename, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return errors.WithStack(err)
	}
	defer f.Close()

	enc := gob.NewEncoder(f)
	if err = enc.Encode(a.nn); err != nil {
		return errors.WithStack(err)
	}
	return errors.WithStack(f.Close())
}

// Load the network parameters from filename. The file must have been saved by a network of the same shape.
func (a *AE) Load(filename string) error {
	nn, err := Load(a.conf.NNConf, filename)
	if err != nil {
		return err
	}
	a.nn = nn
	return nil
}

// Load reads a network saved by (*AE).Save. conf describes its shape.
func Load(conf aenet.Config, filename string) (*aenet.Net, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer f.Close()

	nn := aenet.New(conf)
	dec := gob.NewDecoder(f)
	if err = dec.Decode(nn); err != nil {
		return nil, errors.Wrapf(err, "Unable to decode %v", filename)
	}
	return nn, nil
}
