package aenet

import (
	"fmt"

	rng "github.com/leesper/go_rng"
	"github.com/pkg/errors"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

type maebe struct {
	err error
}

// generic monad... may be useful
func (m *maebe) do(f func() (*G.Node, error)) (retVal *G.Node) {
	if m.err != nil {
		return nil
	}
	if retVal, m.err = f(); m.err != nil {
		m.err = errors.WithStack(m.err)
	}
	return
}

// linear is a fully connected layer: input×w + b, with b broadcast along the batch axis.
func (m *maebe) linear(input *G.Node, l layerSpec, wInit, bInit G.InitWFn) (retVal, w, b *G.Node) {
	if m.err != nil {
		return nil, nil, nil
	}
	w = G.NewMatrix(input.Graph(), Float, G.WithShape(l.in, l.out), G.WithInit(wInit), G.WithName(l.name+"_w"))
	b = G.NewMatrix(input.Graph(), Float, G.WithShape(1, l.out), G.WithInit(bInit), G.WithName(l.name+"_b"))
	xw := m.do(func() (*G.Node, error) { return G.Mul(input, w) })
	retVal = m.do(func() (*G.Node, error) { return G.BroadcastAdd(xw, b, nil, []byte{0}) })
	return
}

func (m *maebe) tanh(input *G.Node) *G.Node {
	return m.do(func() (*G.Node, error) { return G.Tanh(input) })
}

// mse is the mean of the squared differences over every element.
func (m *maebe) mse(target, output *G.Node) *G.Node {
	diff := m.do(func() (*G.Node, error) { return G.Sub(target, output) })
	sq := m.do(func() (*G.Node, error) { return G.Square(diff) })
	return m.do(func() (*G.Node, error) { return G.Mean(sq) })
}

// truncatedNormal draws from N(0, stddev²), redrawing anything further than 2 stddev from the mean.
func truncatedNormal(gen *rng.GaussianGenerator, stddev float64) G.InitWFn {
	draw := func() float64 {
		for {
			v := gen.Gaussian(0, stddev)
			if v >= -2*stddev && v <= 2*stddev {
				return v
			}
		}
	}
	return func(dt tensor.Dtype, s ...int) interface{} {
		size := tensor.Shape(s).TotalSize()
		switch dt {
		case tensor.Float32:
			retVal := make([]float32, size)
			for i := range retVal {
				retVal[i] = float32(draw())
			}
			return retVal
		case tensor.Float64:
			retVal := make([]float64, size)
			for i := range retVal {
				retVal[i] = draw()
			}
			return retVal
		default:
			panic(fmt.Sprintf("Dtype %v not supported for truncated normal initialization", dt))
		}
	}
}

// constant fills a tensor with v.
func constant(v float64) G.InitWFn {
	return func(dt tensor.Dtype, s ...int) interface{} {
		size := tensor.Shape(s).TotalSize()
		switch dt {
		case tensor.Float32:
			retVal := make([]float32, size)
			for i := range retVal {
				retVal[i] = float32(v)
			}
			return retVal
		case tensor.Float64:
			retVal := make([]float64, size)
			for i := range retVal {
				retVal[i] = v
			}
			return retVal
		default:
			panic(fmt.Sprintf("Dtype %v not supported for constant initialization", dt))
		}
	}
}
