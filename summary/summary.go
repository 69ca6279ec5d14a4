// Package summary records training summaries into a log directory.
//
// Layout of a log directory:
//
//	scalars.csv              run,step,tag,value rows, appended by every run
//	images/<tag>/<step>.png  image summaries
//	loss.png                 every scalar tag of the current run plotted against the step
//	graph.dot                the model topology
package summary

import (
	"encoding/csv"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorgonia/mnistae/encoding/grid"
	"github.com/pkg/errors"
	"gonum.org/v1/plot/plotter"
)

const (
	ScalarsFile = "scalars.csv"
	ImagesDir   = "images"
	PlotFile    = "loss.png"
	GraphFile   = "graph.dot"
)

// Value is one tagged summary: a scalar, or an image when Image is set.
type Value struct {
	Tag    string
	Scalar float32
	Image  *grid.Grid
}

// Summary is a set of values recorded at the same step.
type Summary []Value

// Scalar makes a scalar value.
func Scalar(tag string, v float32) Value { return Value{Tag: tag, Scalar: v} }

// Image makes an image value. The grid is converted to 8 bits when written.
func Image(tag string, g *grid.Grid) Value { return Value{Tag: tag, Image: g} }

// Writer appends summaries to a log directory.
type Writer struct {
	dir string
	run string

	f   *os.File
	csv *csv.Writer

	tags   []string // scalar tags, in order of appearance
	points map[string]plotter.XYs
}

// NewWriter opens (creating if needed) the log directory dir. Every writer gets a new run id.
func NewWriter(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.WithStack(err)
	}
	f, err := os.OpenFile(filepath.Join(dir, ScalarsFile), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	w := &Writer{
		dir:    dir,
		run:    uuid.NewString(),
		f:      f,
		csv:    csv.NewWriter(f),
		points: make(map[string]plotter.XYs),
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.WithStack(err)
	}
	if info.Size() == 0 {
		if err = w.csv.Write([]string{"run", "step", "tag", "value"}); err != nil {
			f.Close()
			return nil, errors.WithStack(err)
		}
	}
	return w, nil
}

// Dir is the log directory.
func (w *Writer) Dir() string { return w.dir }

// Run is the id that tags every scalar row written by w.
func (w *Writer) Run() string { return w.run }

// Add records the summary at step. Scalars are buffered until Flush, images are written immediately.
func (w *Writer) Add(s Summary, step int) error {
	for _, v := range s {
		if v.Image != nil {
			if err := w.writeImage(v.Tag, v.Image, step); err != nil {
				return err
			}
			continue
		}
		record := []string{w.run, strconv.Itoa(step), v.Tag, strconv.FormatFloat(float64(v.Scalar), 'g', -1, 32)}
		if err := w.csv.Write(record); err != nil {
			return errors.WithStack(err)
		}
		if _, ok := w.points[v.Tag]; !ok {
			w.tags = append(w.tags, v.Tag)
		}
		w.points[v.Tag] = append(w.points[v.Tag], plotter.XY{X: float64(step), Y: float64(v.Scalar)})
	}
	return nil
}

// ImageFilename is where the image summary of tag at step is written.
func (w *Writer) ImageFilename(tag string, step int) string {
	return filepath.Join(w.dir, ImagesDir, tag, fmt.Sprintf("%06d.png", step))
}

func (w *Writer) writeImage(tag string, g *grid.Grid, step int) error {
	filename := w.ImageFilename(tag, step)
	if err := os.MkdirAll(filepath.Dir(filename), 0755); err != nil {
		return errors.WithStack(err)
	}
	f, err := os.Create(filename)
	if err != nil {
		return errors.WithStack(err)
	}
	err = png.Encode(f, g.Gray())
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return errors.Wrapf(err, "writing %s", filename)
}

// Flush writes the buffered scalars and redraws the scalar plot.
func (w *Writer) Flush() error {
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		return errors.WithStack(err)
	}
	if len(w.tags) == 0 {
		return nil
	}
	return w.plotScalars(filepath.Join(w.dir, PlotFile))
}

// WriteGraph writes the DOT representation of the model.
func (w *Writer) WriteGraph(dot string) error {
	return errors.WithStack(os.WriteFile(filepath.Join(w.dir, GraphFile), []byte(dot), 0644))
}

// Close flushes and closes the scalar file.
func (w *Writer) Close() error {
	err := w.Flush()
	if cerr := w.f.Close(); err == nil {
		err = errors.WithStack(cerr)
	}
	return err
}
