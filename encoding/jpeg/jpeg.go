// Package jpeg writes the reconstruction grid of a snapshot to a numbered JPEG file.
package jpeg

import (
	"bufio"
	"fmt"
	"image/jpeg"
	"os"
	"path/filepath"

	"github.com/gorgonia/mnistae/encoding"
	"github.com/pkg/errors"
)

// DefaultPattern names the files after the step.
const DefaultPattern = "output_%06d.jpg"

// DefaultQuality matches the quality image encoders default to.
const DefaultQuality = 95

// Encoder writes one JPEG per encoded snapshot into Dir.
type Encoder struct {
	Dir     string
	Pattern string // formatted with the step
	Quality int
}

// NewEncoder writes images/output_%06d.jpg style files into dir.
func NewEncoder(dir string) *Encoder {
	return &Encoder{
		Dir:     dir,
		Pattern: DefaultPattern,
		Quality: DefaultQuality,
	}
}

// Filename returns where the snapshot of the given step is written.
func (enc *Encoder) Filename(step int) string {
	return filepath.Join(enc.Dir, fmt.Sprintf(enc.Pattern, step))
}

// Encode writes the reconstruction grid of ms.
func (enc *Encoder) Encode(ms encoding.Snapshot) error {
	g, err := ms.OutputGrid()
	if err != nil {
		return err
	}
	if err = os.MkdirAll(enc.Dir, 0755); err != nil {
		return errors.WithStack(err)
	}
	filename := enc.Filename(ms.Step)
	f, err := os.Create(filename)
	if err != nil {
		return errors.WithStack(err)
	}
	w := bufio.NewWriter(f)
	if err = jpeg.Encode(w, g.Gray(), &jpeg.Options{Quality: enc.Quality}); err == nil {
		err = w.Flush()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return errors.Wrapf(err, "writing %s", filename)
}

func (enc *Encoder) Flush() error { return nil }
