package gif

import (
	"image"
	"image/color"
	"image/gif"
	"io"

	"github.com/gorgonia/mnistae/encoding"
	"github.com/pkg/errors"
)

var globPalette color.Palette

func init() {
	globPalette = make(color.Palette, 256)
	for i := range globPalette {
		globPalette[i] = color.Gray{Y: uint8(i)}
	}
}

// Encoder is a structure that collects snapshots into an animated GIF, one captioned frame per snapshot.
type Encoder struct {
	io.Writer
	Scale int // upscaling of the reconstruction grid
	Delay int // per frame, in 100ths of a second

	out *gif.GIF
}

// NewGifEncoder writes to w when flushed.
func NewGifEncoder(w io.Writer, scale int) *Encoder {
	return &Encoder{
		Writer: w,
		Scale:  scale,
		Delay:  20,
		out:    &gif.GIF{LoopCount: 0},
	}
}

// Encode adds a frame.
func (enc *Encoder) Encode(ms encoding.Snapshot) error {
	frame, err := encoding.Frame(ms, enc.Scale)
	if err != nil {
		return err
	}
	// the palette index of a gray level is the level itself
	im := image.NewPaletted(frame.Bounds(), globPalette)
	copy(im.Pix, frame.Pix)

	enc.out.Image = append(enc.out.Image, im)
	enc.out.Delay = append(enc.out.Delay, enc.Delay)
	return nil
}

// Frames is the number of frames encoded so far.
func (enc *Encoder) Frames() int { return len(enc.out.Image) }

// Flush writes the gif into the writer
func (enc *Encoder) Flush() error {
	if len(enc.out.Image) == 0 {
		return nil
	}
	return errors.WithStack(gif.EncodeAll(enc.Writer, enc.out))
}
