package nn

import (
	"math/rand/v2"

	"github.com/pkg/errors"

	"github.com/cwbudde/algo-anomaly/internal/fault"
)

// Sequential is a linear stack of layers with a fixed per-sample input
// shape.
type Sequential struct {
	input  []int
	output []int
	layers []Layer
}

// NewSequential builds layers in order for samples of shape input. Weight
// initialization draws from r, so the same shape, layers and generator
// state produce identical weights. A layer whose output would be empty
// fails with fault.ErrConfiguration.
func NewSequential(input []int, r *rand.Rand, layers ...Layer) (*Sequential, error) {
	if len(input) == 0 {
		return nil, fault.Configuration("nn: empty input shape")
	}
	for _, d := range input {
		if d <= 0 {
			return nil, fault.Configuration("nn: input shape %v has non-positive size", input)
		}
	}
	if len(layers) == 0 {
		return nil, fault.Configuration("nn: model has no layers")
	}

	shape := append([]int(nil), input...)
	for i, l := range layers {
		out, err := l.build(shape, r)
		if err != nil {
			return nil, errors.Wrapf(err, "layer %d (%s) on input %v", i, l.Kind(), shape)
		}
		shape = out
	}

	return &Sequential{
		input:  append([]int(nil), input...),
		output: shape,
		layers: layers,
	}, nil
}

// InputShape returns the per-sample input shape.
func (m *Sequential) InputShape() []int { return append([]int(nil), m.input...) }

// OutputShape returns the per-sample output shape.
func (m *Sequential) OutputShape() []int { return append([]int(nil), m.output...) }

// Layers returns the layer stack.
func (m *Sequential) Layers() []Layer { return m.layers }

// Params returns every parameter in layer order.
func (m *Sequential) Params() []*Param {
	var out []*Param
	for _, l := range m.layers {
		out = append(out, l.params()...)
	}
	return out
}

// ParamCount returns the number of trainable scalars.
func (m *Sequential) ParamCount() int {
	n := 0
	for _, p := range m.Params() {
		if p.Trainable {
			n += len(p.Value)
		}
	}
	return n
}

// Forward runs x through every layer. Training mode uses batch statistics
// and dropout masks and caches what Backward needs.
func (m *Sequential) Forward(x *Tensor, training bool) (*Tensor, error) {
	if !sameShape(x.SampleShape(), m.input) {
		return nil, errors.Wrapf(errShapeMismatch, "got %v, want %v", x.SampleShape(), m.input)
	}
	if x.Batch() == 0 {
		return nil, fault.Input("nn: empty batch")
	}

	out := x
	for _, l := range m.layers {
		out = l.forward(out, training)
	}
	return out, nil
}

// backward propagates the output gradient through the cached forward pass
// and accumulates parameter gradients.
func (m *Sequential) backward(grad *Tensor) {
	for i := len(m.layers) - 1; i >= 0; i-- {
		grad = m.layers[i].backward(grad)
	}
}

func (m *Sequential) zeroGrad() {
	for _, p := range m.Params() {
		for i := range p.Grad {
			p.Grad[i] = 0
		}
	}
}

// Predict runs inference in chunks of batchSize and returns the flattened
// outputs, one block of OutputShape values per sample.
func (m *Sequential) Predict(x *Tensor, batchSize int) ([]float64, error) {
	if err := validatePositive("batch size", batchSize); err != nil {
		return nil, err
	}

	out := make([]float64, 0, x.Batch()*volume(m.output))
	for lo := 0; lo < x.Batch(); lo += batchSize {
		hi := min(lo+batchSize, x.Batch())
		y, err := m.Forward(x.Slice(lo, hi), false)
		if err != nil {
			return nil, err
		}
		out = append(out, y.Data...)
	}
	return out, nil
}

// snapshot copies every parameter value, trainable or not.
func (m *Sequential) snapshot() [][]float64 {
	params := m.Params()
	out := make([][]float64, len(params))
	for i, p := range params {
		out[i] = append([]float64(nil), p.Value...)
	}
	return out
}

func (m *Sequential) restore(s [][]float64) {
	for i, p := range m.Params() {
		copy(p.Value, s[i])
	}
}
