package aenet

import (
	"github.com/pkg/errors"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Result holds the values computed by one forward pass. The slices are copies.
type Result struct {
	Loss   float32
	Output []float32 // BatchSize×Input reconstructions
	Latent []float32 // BatchSize×Latent codes
}

// Session trains a *Net. It holds the VM and the Adam solver for the whole training run.
type Session struct {
	n      *Net
	m      G.VM
	solver G.Solver
	model  []G.ValueGrad

	input *tensor.Dense
}

// NewSession creates a training session for an initialized, trainable *Net.
func NewSession(n *Net, learnRate float64) (*Session, error) {
	if n.g == nil {
		return nil, errors.New("Net has not been initialized")
	}
	if n.FwdOnly {
		return nil, errors.New("Cannot train a forward only Net")
	}
	return &Session{
		n: n,
		m: G.NewTapeMachine(n.g, G.BindDualValues(n.Model()...)),
		solver: G.NewAdamSolver(
			G.WithLearnRate(learnRate),
			G.WithBeta1(0.9),
			G.WithBeta2(0.999),
			G.WithEps(1e-8),
		),
		model: G.NodesToValueGrads(n.Model()),
		input: tensor.New(tensor.WithShape(n.BatchSize, n.Input), tensor.Of(Float)),
	}, nil
}

// Net returns the network being trained.
func (s *Session) Net() *Net { return s.n }

// Step runs one forward and backward pass over the batch, then applies one Adam update.
// The returned Result is what the network computed before the update.
func (s *Session) Step(batch []float32) (Result, error) {
	defer s.m.Reset()
	if err := s.run(batch); err != nil {
		return Result{}, err
	}
	res := s.n.result()
	if err := s.solver.Step(s.model); err != nil {
		return Result{}, errors.WithStack(err)
	}
	return res, nil
}

// Forward runs the batch through the network without updating it.
func (s *Session) Forward(batch []float32) (Result, error) {
	defer s.m.Reset()
	if err := s.run(batch); err != nil {
		return Result{}, err
	}
	return s.n.result(), nil
}

func (s *Session) run(batch []float32) error {
	data := s.input.Data().([]float32)
	if len(batch) != len(data) {
		return errors.Errorf("Expected a batch of %d values (%d×%d). Got %d", len(data), s.n.BatchSize, s.n.Input, len(batch))
	}
	copy(data, batch)
	if err := G.Let(s.n.x, s.input); err != nil {
		return errors.WithStack(err)
	}
	if err := s.m.RunAll(); err != nil {
		return errors.WithStack(err)
	}
	return nil
}

// Close implements a closer, because well, a gorgonia VM is a resource.
func (s *Session) Close() error { return s.m.Close() }
