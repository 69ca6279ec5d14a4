package aenet

// Config configures the autoencoder.
type Config struct {
	Input  int // flattened image size
	Hidden int // width of the two hidden layers on each side of the bottleneck
	Latent int // bottleneck width

	WeightStdDev float64 // stddev of the truncated normal used for weights
	BiasInit     float64 // constant every bias starts at

	BatchSize int   // batch size
	Seed      int64 // seed for weight initialization. 0 means time based
	FwdOnly   bool  // is this a fwd only graph?
}

// DefaultConf returns the configuration of the 784-50-50-2-50-50-784 MNIST autoencoder.
func DefaultConf() Config {
	return Config{
		Input:  28 * 28,
		Hidden: 50,
		Latent: 2,

		WeightStdDev: 0.1,
		BiasInit:     0.1,

		BatchSize: 50,
	}
}

func (conf Config) IsValid() bool {
	return conf.Input >= 1 &&
		conf.Hidden >= 1 &&
		conf.Latent >= 1 &&
		conf.WeightStdDev > 0 &&
		conf.BatchSize >= 1
}

// layerSpec describes one fully connected layer of the autoencoder.
type layerSpec struct {
	name    string
	in, out int
	tanh    bool
}

// latentLayer is the index of the bottleneck in layers().
const latentLayer = 2

// layers lists the layers of the network in order. The bottleneck and the output are linear.
func (conf Config) layers() []layerSpec {
	return []layerSpec{
		{"Encoder1", conf.Input, conf.Hidden, true},
		{"Encoder2", conf.Hidden, conf.Hidden, true},
		{"Latent", conf.Hidden, conf.Latent, false},
		{"Decoder1", conf.Latent, conf.Hidden, true},
		{"Decoder2", conf.Hidden, conf.Hidden, true},
		{"Output", conf.Hidden, conf.Input, false},
	}
}
