package aenet

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"strconv"
	"time"

	"github.com/awalterschulze/gographviz"
	rng "github.com/leesper/go_rng"
	"github.com/pkg/errors"
	G "gorgonia.org/gorgonia"
)

var Float = G.Float32

// Net is the whole neural network architecture of the autoencoder.
//
// The loss is the mean squared error between the input and its reconstruction.
type Net struct {
	Config

	g          *G.ExprGraph
	learnables G.Nodes

	x      *G.Node // input images, BatchSize×Input
	cost   *G.Node
	out    *G.Node
	latent *G.Node

	costValue   G.Value
	outValue    G.Value
	latentValue G.Value
}

// New returns a new, uninitialized *Net.
func New(conf Config) *Net {
	return &Net{Config: conf}
}

func (n *Net) Init() error {
	n.reset()
	n.g = G.NewGraph()
	if err := n.fwd(); err != nil {
		return err
	}
	return n.bwd()
}

func (n *Net) fwd() error {
	seed := n.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	wInit := truncatedNormal(rng.NewGaussianGenerator(seed), n.WeightStdDev)
	bInit := constant(n.BiasInit)

	n.x = G.NewMatrix(n.g, Float, G.WithShape(n.BatchSize, n.Input), G.WithName("x"))

	var m maebe
	layer := n.x
	for i, l := range n.layers() {
		var w, b *G.Node
		if layer, w, b = m.linear(layer, l, wInit, bInit); m.err != nil {
			return m.err
		}
		if l.tanh {
			layer = m.tanh(layer)
		}
		if i == latentLayer {
			n.latent = layer
		}
		n.learnables = append(n.learnables, w, b)
	}
	n.out = layer
	n.cost = m.mse(n.x, n.out)
	if m.err != nil {
		return m.err
	}

	G.Read(n.cost, &n.costValue)
	G.Read(n.out, &n.outValue)
	G.Read(n.latent, &n.latentValue)
	return nil
}

func (n *Net) bwd() error {
	if n.FwdOnly {
		return nil
	}
	if _, err := G.Grad(n.cost, n.Model()...); err != nil {
		return errors.WithStack(err)
	}
	return nil
}

// Model returns the learnables, in the order the layers were built.
func (n *Net) Model() G.Nodes { return n.learnables }

// Graph returns the expression graph. It is nil until Init is called.
func (n *Net) Graph() *G.ExprGraph { return n.g }

func (n *Net) Clone() (*Net, error) {
	n2 := New(n.Config)
	if err := n2.Init(); err != nil {
		return nil, err
	}
	if err := n2.copyParams(n); err != nil {
		return nil, err
	}
	return n2, nil
}

// copyParams copies the parameter values of src into n. Both nets must share the layer sizes.
func (n *Net) copyParams(src *Net) error {
	model := src.Model()
	model2 := n.Model()
	if len(model) != len(model2) {
		return errors.Errorf("Cannot copy %d learnables into %d", len(model), len(model2))
	}
	for i, node := range model {
		original := node.Value().Data().([]float32)
		cloned := model2[i].Value().Data().([]float32)
		if len(original) != len(cloned) {
			return errors.Errorf("Learnable %v has %d values, expected %d", model2[i], len(original), len(cloned))
		}
		copy(cloned, original)
	}
	return nil
}

func (n *Net) reset() {
	n.g = nil
	n.learnables = nil
	n.x = nil
	n.cost = nil
	n.out = nil
	n.latent = nil
}

// result copies out the values read during the last run.
func (n *Net) result() Result {
	return Result{
		Loss:   n.costValue.Data().(float32),
		Output: cloneF32(n.outValue.Data().([]float32)),
		Latent: cloneF32(n.latentValue.Data().([]float32)),
	}
}

func (n *Net) GobEncode() (retVal []byte, err error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	for _, node := range n.Model() {
		v := node.Value()
		if err = enc.Encode(&v); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func (n *Net) GobDecode(p []byte) error {
	if err := n.Init(); err != nil {
		return err
	}

	buf := bytes.NewBuffer(p)
	dec := gob.NewDecoder(buf)
	for _, node := range n.Model() {
		var v G.Value
		if err := dec.Decode(&v); err != nil {
			return errors.Wrapf(err, "decoding %v", node)
		}
		if err := G.Let(node, v); err != nil {
			return errors.WithStack(err)
		}
	}
	return nil
}

// ToDot renders the layer topology (not the full expression graph) as graphviz DOT.
func (n *Net) ToDot() string {
	g := gographviz.NewGraph()
	if err := g.SetName("Autoencoder"); err != nil {
		panic(err)
	}
	g.SetDir(true)

	prev := "x"
	g.AddNode("Autoencoder", prev, map[string]string{
		"shape": "oval",
		"label": strconv.Quote(fmt.Sprintf("x (%d)", n.Input)),
	})
	for _, l := range n.layers() {
		label := fmt.Sprintf("%s\\n%d → %d", l.name, l.in, l.out)
		if l.tanh {
			label += "\\ntanh"
		}
		g.AddNode("Autoencoder", l.name, map[string]string{
			"shape": "box",
			"label": `"` + label + `"`,
		})
		g.AddEdge(prev, l.name, true, nil)
		prev = l.name
	}
	g.AddNode("Autoencoder", "loss", map[string]string{
		"shape": "diamond",
		"label": strconv.Quote("mean((x - Output)²)"),
	})
	g.AddEdge(prev, "loss", true, nil)
	g.AddEdge("x", "loss", true, map[string]string{"style": "dashed"})
	return g.String()
}
