package model

import (
	"math/rand/v2"

	"github.com/cwbudde/algo-anomaly/internal/fault"
	"github.com/cwbudde/algo-anomaly/nn"
)

// DefaultDenseL2 is the L2 coefficient of the hidden dense kernel.
const DefaultDenseL2 = 0.01

// poolSize of both pooling stages.
const poolSize = 2

// Option configures Build.
type Option func(*options)

type options struct {
	denseL2 float64
}

// WithDenseL2 overrides the hidden dense kernel penalty.
func WithDenseL2(l2 float64) Option {
	return func(o *options) { o.denseL2 = l2 }
}

// Stages returns the step count after each temporal stage: first
// convolution, first pooling, second convolution, second pooling.
func Stages(c Config, steps int) [4]int {
	conv1 := steps - c.KernelSize + 1
	pool1 := max(conv1, 0) / poolSize
	conv2 := pool1 - c.KernelSize + 1
	pool2 := max(conv2, 0) / poolSize
	return [4]int{conv1, pool1, conv2, pool2}
}

// CheckShape reports whether c can run over samples of shape
// (windows, bins). A stage that would reach zero steps is a configuration
// error.
func CheckShape(c Config, input []int) error {
	if len(input) != 2 || input[0] <= 0 || input[1] <= 0 {
		return fault.Configuration("model: input must be (windows, bins), got %v", input)
	}

	names := [4]string{"first convolution", "first pooling", "second convolution", "second pooling"}
	for i, n := range Stages(c, input[0]) {
		if n <= 0 {
			return fault.Configuration("model: kernel size %d leaves no steps after the %s of %d windows",
				c.KernelSize, names[i], input[0])
		}
	}
	return nil
}

// MaxKernelSize returns the largest kernel size that passes CheckShape over
// windows time steps, or 0 when none does.
func MaxKernelSize(windows int) int {
	k := 0
	for c := 1; c <= windows; c++ {
		if CheckShape(Config{KernelSize: c}, []int{windows, 1}) != nil {
			break
		}
		k = c
	}
	return k
}

// Build returns a freshly initialized classifier for samples of shape
// (windows, bins). Weights draw from r.
func Build(c Config, input []int, r *rand.Rand, opts ...Option) (*nn.Sequential, error) {
	o := options{denseL2: DefaultDenseL2}
	for _, opt := range opts {
		opt(&o)
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := CheckShape(c, input); err != nil {
		return nil, err
	}

	return nn.NewSequential(input, r,
		nn.NewConv1D(c.ConvFilters, c.KernelSize, nn.ReLU),
		nn.NewBatchNorm(),
		nn.NewMaxPool1D(poolSize),
		nn.NewDropout(c.DropoutRate),

		nn.NewConv1D(2*c.ConvFilters, c.KernelSize, nn.ReLU),
		nn.NewBatchNorm(),
		nn.NewMaxPool1D(poolSize),
		nn.NewDropout(c.DropoutRate),

		nn.NewLSTM(c.RecurrentUnits, c.L2Reg),
		nn.NewBatchNorm(),
		nn.NewDropout(c.DropoutRate),

		nn.NewDense(c.DenseUnits, nn.ReLU, o.denseL2),
		nn.NewBatchNorm(),
		nn.NewDropout(c.DropoutRate),

		nn.NewDense(1, nn.Sigmoid, 0),
	)
}

// Optimizer returns the Adam optimizer for c.
func (c Config) Optimizer() *nn.Adam {
	return nn.NewAdam(c.LearningRate)
}
