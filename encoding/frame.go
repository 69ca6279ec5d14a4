package encoding

import (
	"fmt"
	"image"
	"image/draw"
	"math"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/math/fixed"
)

var regular *truetype.Font

const (
	dpi        = 144.0
	fontsize   = 12.0
	lineheight = 1.2
	pad        = 10
)

func init() {
	var err error
	if regular, err = truetype.Parse(gomono.TTF); err != nil {
		panic(err)
	}
}

// Frame renders the reconstruction grid of s, scaled up by scale, above a caption with the step and the loss.
func Frame(s Snapshot, scale int) (*image.Gray, error) {
	g, err := s.OutputGrid()
	if err != nil {
		return nil, err
	}
	reconstructed := g.Upscale(scale)
	b := reconstructed.Bounds()

	dy := int(math.Ceil(fontsize * lineheight * dpi / 72))
	im := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()+dy+pad))
	draw.Draw(im, im.Bounds(), image.White, image.Point{}, draw.Src)
	draw.Draw(im, image.Rect(0, 0, b.Dx(), b.Dy()), reconstructed, b.Min, draw.Src)

	face := truetype.NewFace(regular, &truetype.Options{
		Size:    fontsize,
		DPI:     dpi,
		Hinting: font.HintingFull,
	})
	defer face.Close()
	d := font.Drawer{
		Dst:  im,
		Src:  image.Black,
		Face: face,
		Dot:  fixed.P(pad, b.Dy()+dy),
	}
	d.DrawString(fmt.Sprintf("Step %d, Loss %.5f", s.Step, s.Loss))
	return im, nil
}
