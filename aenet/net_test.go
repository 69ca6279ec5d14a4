package aenet

import (
	"bytes"
	"encoding/gob"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

func smallConf() Config {
	conf := DefaultConf()
	conf.Input = 16
	conf.Hidden = 8
	conf.BatchSize = 4
	conf.Seed = 1337
	return conf
}

func randomBatch(n int) []float32 {
	return G.Uniform(0, 1)(tensor.Float32, n).([]float32)
}

func TestSanity(t *testing.T) {
	conf := DefaultConf()
	n := New(conf)
	if err := n.Init(); err != nil {
		t.Fatalf("%+v", err)
	}
	t.Logf("Number of nodes: %d", len(n.g.AllNodes()))
	if _, _, err := G.Compile(n.g); err != nil {
		t.Fatal(err)
	}
	assert.Len(t, n.Model(), 12, "six layers with a weight and a bias each")

	s, err := NewSession(n, 1e-5)
	require.NoError(t, err)
	defer s.Close()

	res, err := s.Step(randomBatch(conf.BatchSize * conf.Input))
	require.NoError(t, err)
	assert.True(t, res.Loss >= 0, "loss should be non negative. Got %v", res.Loss)
	assert.Len(t, res.Output, 50*784)
	assert.Len(t, res.Latent, 50*2)
}

func TestForwardIsIdempotent(t *testing.T) {
	n := New(DefaultConf())
	require.NoError(t, n.Init())
	s, err := NewSession(n, 1e-5)
	require.NoError(t, err)
	defer s.Close()

	batch := randomBatch(50 * 784)
	first, err := s.Forward(batch)
	require.NoError(t, err)
	second, err := s.Forward(batch)
	require.NoError(t, err)

	assert.Equal(t, first.Loss, second.Loss)
	if diff := cmp.Diff(first.Output, second.Output); diff != "" {
		t.Errorf("Output differs between two forward passes (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(first.Latent, second.Latent); diff != "" {
		t.Errorf("Latent differs between two forward passes (-first +second):\n%s", diff)
	}
}

func TestStepReportsPreUpdateValues(t *testing.T) {
	n := New(smallConf())
	require.NoError(t, n.Init())
	s, err := NewSession(n, 0.01)
	require.NoError(t, err)
	defer s.Close()

	batch := randomBatch(4 * 16)
	fwd, err := s.Forward(batch)
	require.NoError(t, err)
	step, err := s.Step(batch)
	require.NoError(t, err)
	assert.Equal(t, fwd.Loss, step.Loss)

	after, err := s.Forward(batch)
	require.NoError(t, err)
	assert.NotEqual(t, step.Loss, after.Loss, "the update should have changed the loss")
}

func TestTrainReducesLoss(t *testing.T) {
	n := New(smallConf())
	require.NoError(t, n.Init())
	s, err := NewSession(n, 0.01)
	require.NoError(t, err)
	defer s.Close()

	batch := randomBatch(4 * 16)
	first, err := s.Step(batch)
	require.NoError(t, err)
	var last Result
	for i := 0; i < 300; i++ {
		if last, err = s.Step(batch); err != nil {
			t.Fatalf("Step %d: %+v", i, err)
		}
	}
	assert.Less(t, last.Loss, first.Loss)
}

func TestStepBatchSize(t *testing.T) {
	n := New(smallConf())
	require.NoError(t, n.Init())
	s, err := NewSession(n, 0.01)
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Step(make([]float32, 3))
	assert.Error(t, err)
}

func TestNewSessionRequiresTrainableNet(t *testing.T) {
	_, err := NewSession(New(smallConf()), 0.1)
	assert.Error(t, err, "uninitialized")

	conf := smallConf()
	conf.FwdOnly = true
	n := New(conf)
	require.NoError(t, n.Init())
	_, err = NewSession(n, 0.1)
	assert.Error(t, err, "forward only")
}

func TestInitialization(t *testing.T) {
	conf := smallConf()
	n := New(conf)
	require.NoError(t, n.Init())

	for i, node := range n.Model() {
		data := node.Value().Data().([]float32)
		if i%2 == 1 {
			for _, v := range data {
				assert.Equal(t, float32(conf.BiasInit), v, "bias %v", node)
			}
			continue
		}
		limit := float32(2 * conf.WeightStdDev)
		for _, v := range data {
			assert.True(t, v >= -limit && v <= limit, "weight %v of %v outside the truncation bounds", v, node)
		}
	}
}

func TestSeedIsDeterministic(t *testing.T) {
	a := New(smallConf())
	b := New(smallConf())
	require.NoError(t, a.Init())
	require.NoError(t, b.Init())
	for i, node := range a.Model() {
		if diff := cmp.Diff(node.Value().Data(), b.Model()[i].Value().Data()); diff != "" {
			t.Errorf("learnable %d differs:\n%s", i, diff)
		}
	}
}

func TestEncodeDecode(t *testing.T) {
	assert := assert.New(t)
	conf := smallConf()
	conf.Seed = 0
	n := New(conf)
	if err := n.Init(); err != nil {
		t.Fatalf("%+v", err)
	}

	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	if err := enc.Encode(n); err != nil {
		t.Fatalf("Encoding Failure %v", err)
	}

	dec := gob.NewDecoder(&buf)
	n2 := New(conf)
	if err := dec.Decode(n2); err != nil {
		t.Fatalf("Decoding Failure %v", err)
	}

	model := n.Model()
	model2 := n2.Model()
	for i, node := range model {
		fstVal := node.Value()
		sndVal := model2[i].Value()
		assert.Equal(fstVal.Data(), sndVal.Data(), "%d - %v vs %v should have the same data", i, model[i], model2[i])
	}
}

func TestClone(t *testing.T) {
	conf := smallConf()
	conf.Seed = 0
	n := New(conf)
	require.NoError(t, n.Init())
	n2, err := n.Clone()
	require.NoError(t, err)
	for i, node := range n.Model() {
		assert.Equal(t, node.Value().Data(), n2.Model()[i].Value().Data())
	}
}

func TestToDot(t *testing.T) {
	n := New(DefaultConf())
	dot := n.ToDot()
	for _, want := range []string{"Encoder1", "Encoder2", "Latent", "Decoder1", "Decoder2", "Output", "loss", "->"} {
		assert.True(t, strings.Contains(dot, want), "expected %q in\n%s", want, dot)
	}
}
