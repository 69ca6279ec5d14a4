// Package encoding holds what output encoders are handed during training, and the helpers they share.
package encoding

import (
	"github.com/gorgonia/mnistae/encoding/grid"
)

// Snapshot is the state of a training batch at one step, as computed before that step's update.
type Snapshot struct {
	Step int
	Loss float32

	Input  []float32 // flattened images
	Output []float32 // flattened reconstructions
	Latent []float32 // LatentDim values per image
	Labels []uint8

	Rows, Cols    int // grid layout of the batch
	Height, Width int // image size
	LatentDim     int
}

// InputGrid tiles the input images.
func (s Snapshot) InputGrid() (*grid.Grid, error) {
	return grid.Form(s.Input, s.Rows, s.Cols, s.Height, s.Width)
}

// OutputGrid tiles the reconstructions.
func (s Snapshot) OutputGrid() (*grid.Grid, error) {
	return grid.Form(s.Output, s.Rows, s.Cols, s.Height, s.Width)
}

// LatentGrid tiles the latent codes, each shown as a LatentDim×1 image.
func (s Snapshot) LatentGrid() (*grid.Grid, error) {
	return grid.Form(s.Latent, s.Rows, s.Cols, s.LatentDim, 1)
}
