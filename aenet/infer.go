package aenet

import (
	"github.com/pkg/errors"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Inferencer is a struct that holds the state for a forward only *Net and a VM. By using an Inferencer,
// there is no longer a need to create a VM every time an inference needs to be done.
type Inferencer struct {
	n *Net
	m G.VM

	input *tensor.Dense
}

// Infer takes a trained *Net, and creates an inference data structure that processes batchSize images at a time.
func Infer(n *Net, batchSize int) (*Inferencer, error) {
	conf := n.Config
	conf.FwdOnly = true
	conf.BatchSize = batchSize
	if !conf.IsValid() {
		return nil, errors.Errorf("Invalid inference config %+v", conf)
	}
	retVal := &Inferencer{
		n:     New(conf),
		input: tensor.New(tensor.WithShape(batchSize, conf.Input), tensor.Of(Float)),
	}
	if err := retVal.n.Init(); err != nil {
		return nil, err
	}
	if err := retVal.n.copyParams(n); err != nil {
		return nil, err
	}
	retVal.m = G.NewTapeMachine(retVal.n.g)
	return retVal, nil
}

// Encode returns the latent codes of the images, Latent values per image.
func (m *Inferencer) Encode(images []float32) ([]float32, error) {
	return m.infer(images, m.n.Latent, func() G.Value { return m.n.latentValue })
}

// Reconstruct returns the reconstruction of the images, Input values per image.
func (m *Inferencer) Reconstruct(images []float32) ([]float32, error) {
	return m.infer(images, m.n.Input, func() G.Value { return m.n.outValue })
}

func (m *Inferencer) infer(images []float32, width int, read func() G.Value) ([]float32, error) {
	if len(images)%m.n.Input != 0 {
		return nil, errors.Errorf("Expected a multiple of %d values. Got %d", m.n.Input, len(images))
	}
	count := len(images) / m.n.Input
	retVal := make([]float32, 0, count*width)
	for start := 0; start < count; start += m.n.BatchSize {
		end := minInt(start+m.n.BatchSize, count)

		// copy the images to the provided preallocated input tensor, zero padding a short batch
		m.input.Zero()
		data := m.input.Data().([]float32)
		copy(data, images[start*m.n.Input:end*m.n.Input])

		G.Let(m.n.x, m.input)
		if err := m.m.RunAll(); err != nil {
			m.m.Reset()
			return nil, errors.WithStack(err)
		}
		out := read().Data().([]float32)
		retVal = append(retVal, out[:(end-start)*width]...)
		m.m.Reset()
	}
	return retVal, nil
}

// Net returns the forward only network.
func (m *Inferencer) Net() *Net { return m.n }

// Close implements a closer, because well, a gorgonia VM is a resource.
func (m *Inferencer) Close() error { return m.m.Close() }
