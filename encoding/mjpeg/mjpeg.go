package mjpeg

import (
	"bytes"
	"image/jpeg"
	"net/http"

	"github.com/gorgonia/mnistae/encoding"
	"github.com/mattn/go-mjpeg"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Encoder is a structure that streams captioned reconstruction grids as Motion JPEG.
type Encoder struct {
	Scale int

	stream *mjpeg.Stream
	frames int
}

func (e *Encoder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	e.stream.ServeHTTP(w, r)
}

// NewEncoder with the upscaling factor of the grid.
func NewEncoder(scale int) *Encoder {
	return &Encoder{
		Scale:  scale,
		stream: mjpeg.NewStream(),
	}
}

// Encode publishes a frame to every connected client.
func (enc *Encoder) Encode(ms encoding.Snapshot) error {
	im, err := encoding.Frame(ms, enc.Scale)
	if err != nil {
		return err
	}
	var b bytes.Buffer
	if err = jpeg.Encode(&b, im, nil); err != nil {
		klog.Errorf("encoding frame of step %d: %v", ms.Step, err)
		return errors.WithStack(err)
	}
	if err = enc.stream.Update(b.Bytes()); err != nil {
		klog.Errorf("updating stream at step %d: %v", ms.Step, err)
		return errors.WithStack(err)
	}
	enc.frames++
	return nil
}

// Frames is the number of frames published so far.
func (enc *Encoder) Frames() int { return enc.frames }

func (enc *Encoder) Flush() error { return nil }
