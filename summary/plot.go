package summary

import (
	"image/color"
	"strconv"

	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// digitColors gives each digit its own color in latent plots.
var digitColors = []color.Color{
	color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff},
	color.RGBA{R: 0xff, G: 0x7f, B: 0x0e, A: 0xff},
	color.RGBA{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff},
	color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff},
	color.RGBA{R: 0x94, G: 0x67, B: 0xbd, A: 0xff},
	color.RGBA{R: 0x8c, G: 0x56, B: 0x4b, A: 0xff},
	color.RGBA{R: 0xe3, G: 0x77, B: 0xc2, A: 0xff},
	color.RGBA{R: 0x7f, G: 0x7f, B: 0x7f, A: 0xff},
	color.RGBA{R: 0xbc, G: 0xbd, B: 0x22, A: 0xff},
	color.RGBA{R: 0x17, G: 0xbe, B: 0xcf, A: 0xff},
}

func (w *Writer) plotScalars(filename string) error {
	p := plot.New()
	p.Title.Text = "Run " + w.run
	p.X.Label.Text = "Step"
	p.Y.Label.Text = "Value"
	p.Add(plotter.NewGrid())
	for i, tag := range w.tags {
		line, err := plotter.NewLine(w.points[tag])
		if err != nil {
			return errors.Wrapf(err, "plotting %q", tag)
		}
		line.Color = plotutil.Color(i)
		p.Add(line)
		p.Legend.Add(tag, line)
	}
	return errors.WithStack(p.Save(6*vg.Inch, 4*vg.Inch, filename))
}

// LatentScatter plots the first two latent dimensions of every example, colored by label.
// The format follows the extension of filename.
func LatentScatter(filename string, latent []float32, labels []uint8, dim int) error {
	if dim < 2 {
		return errors.Errorf("Cannot scatter %d dimensional codes", dim)
	}
	if len(latent) != len(labels)*dim {
		return errors.Errorf("%d latent values do not match %d labels of %d dimensions", len(latent), len(labels), dim)
	}

	groups := make([]plotter.XYs, len(digitColors))
	for i, l := range labels {
		d := int(l) % len(groups)
		groups[d] = append(groups[d], plotter.XY{X: float64(latent[i*dim]), Y: float64(latent[i*dim+1])})
	}

	p := plot.New()
	p.Title.Text = "Latent space"
	p.X.Label.Text = "z₀"
	p.Y.Label.Text = "z₁"
	for digit, xys := range groups {
		if len(xys) == 0 {
			continue
		}
		s, err := plotter.NewScatter(xys)
		if err != nil {
			return errors.Wrapf(err, "plotting digit %d", digit)
		}
		s.GlyphStyle.Color = digitColors[digit]
		s.GlyphStyle.Radius = vg.Points(1.5)
		s.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(s)
		p.Legend.Add(strconv.Itoa(digit), s)
	}
	return errors.WithStack(p.Save(6*vg.Inch, 6*vg.Inch, filename))
}
