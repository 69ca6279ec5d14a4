// Package grid tiles a batch of images into one image and converts it to 8 bits.
//
// The conversion follows the normalization image summaries use: grids with negative values are
// centered on 128, non negative grids are stretched to [0, 255], and grids too close to zero are
// left at the offset.
package grid

import (
	"image"

	"github.com/chewxy/math32"
	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	"gorgonia.org/vecf32"
)

// ZeroThreshold is the magnitude under which a grid is considered blank.
const ZeroThreshold = 1e-6

// Grid is Rows×Cols images of H×W pixels laid out as a single (Rows·H)×(Cols·W) image.
type Grid struct {
	Rows, Cols int
	H, W       int
	Pix        []float32
}

// Form tiles Rows·Cols flattened H×W images. Image i lands in row i/cols, column i%cols.
func Form(batch []float32, rows, cols, h, w int) (*Grid, error) {
	if rows <= 0 || cols <= 0 || h <= 0 || w <= 0 {
		return nil, errors.Errorf("Cannot form a %d×%d grid of %d×%d images", rows, cols, h, w)
	}
	size := h * w
	if len(batch) != rows*cols*size {
		return nil, errors.Errorf("A %d×%d grid of %d×%d images needs %d values. Got %d", rows, cols, h, w, rows*cols*size, len(batch))
	}
	g := &Grid{
		Rows: rows,
		Cols: cols,
		H:    h,
		W:    w,
		Pix:  make([]float32, len(batch)),
	}
	stride := g.Width()
	for i := 0; i < rows*cols; i++ {
		top := (i / cols) * h
		left := (i % cols) * w
		img := batch[i*size : (i+1)*size]
		for y := 0; y < h; y++ {
			start := (top+y)*stride + left
			copy(g.Pix[start:start+w], img[y*w:(y+1)*w])
		}
	}
	return g, nil
}

// Width of the grid in pixels.
func (g *Grid) Width() int { return g.Cols * g.W }

// Height of the grid in pixels.
func (g *Grid) Height() int { return g.Rows * g.H }

// MinMax returns the extrema of the grid.
func (g *Grid) MinMax() (min, max float32) {
	return vecf32.MinOf(g.Pix), vecf32.MaxOf(g.Pix)
}

// ScaleOffset returns the affine map from grid values to 8 bit intensities.
func ScaleOffset(min, max float32) (scale, offset float32) {
	maxVal := math32.Max(math32.Abs(min), math32.Abs(max))
	if min < 0 {
		if maxVal < ZeroThreshold {
			return 0, 128
		}
		return 127 / maxVal, 128
	}
	if max < ZeroThreshold {
		return 0, 0
	}
	return 255 / max, 0
}

// Gray renders the grid as an 8 bit image: pixel·scale + offset, truncated and clamped to [0, 255].
func (g *Grid) Gray() *image.Gray {
	scale, offset := ScaleOffset(g.MinMax())
	scaled := make([]float32, len(g.Pix))
	copy(scaled, g.Pix)
	vecf32.Scale(scaled, scale)
	vecf32.Trans(scaled, offset)

	im := image.NewGray(image.Rect(0, 0, g.Width(), g.Height()))
	for i, v := range scaled {
		im.Pix[i] = toUint8(v)
	}
	return im
}

// Upscale renders the grid factor times larger with nearest neighbour sampling, for previews.
func (g *Grid) Upscale(factor int) image.Image {
	im := g.Gray()
	if factor <= 1 {
		return im
	}
	return imaging.Resize(im, g.Width()*factor, g.Height()*factor, imaging.NearestNeighbor)
}

func toUint8(v float32) uint8 {
	v = math32.Trunc(v)
	switch {
	case math32.IsNaN(v), v < 0:
		return 0
	case v > 255:
		return 255
	}
	return uint8(v)
}
