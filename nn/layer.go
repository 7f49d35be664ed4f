package nn

import "math/rand/v2"

// Layer kinds as stored in artifacts.
const (
	KindConv1D    = "conv1d"
	KindBatchNorm = "batch_norm"
	KindMaxPool1D = "max_pool1d"
	KindDropout   = "dropout"
	KindLSTM      = "lstm"
	KindDense     = "dense"
)

// Param is one weight array of a layer together with its gradient.
type Param struct {
	Name  string
	Value []float64
	Grad  []float64

	// Trainable parameters are updated by the optimizer. Others, such as
	// batch normalization moving statistics, are updated by the layer.
	Trainable bool

	// L2 adds L2*sum(Value^2) to the loss.
	L2 float64
}

func newParam(name string, value []float64, trainable bool) *Param {
	return &Param{
		Name:      name,
		Value:     value,
		Grad:      make([]float64, len(value)),
		Trainable: trainable,
	}
}

// Layer is one stage of a Sequential model. The set of layers is closed:
// only the constructors of this package produce them.
type Layer interface {
	// Kind names the layer type.
	Kind() string

	// OutputShape returns the per-sample output shape. Valid after build.
	OutputShape() []int

	build(in []int, r *rand.Rand) ([]int, error)
	forward(x *Tensor, training bool) *Tensor
	backward(grad *Tensor) *Tensor
	params() []*Param
	spec() LayerSpec
}

// LayerSpec is the serializable description of a layer.
type LayerSpec struct {
	Kind       string  `json:"kind"`
	Units      int     `json:"units,omitempty"`
	Kernel     int     `json:"kernel,omitempty"`
	Pool       int     `json:"pool,omitempty"`
	Rate       float64 `json:"rate,omitempty"`
	Activation string  `json:"activation,omitempty"`
	L2         float64 `json:"l2,omitempty"`
	Momentum   float64 `json:"momentum,omitempty"`
	Epsilon    float64 `json:"epsilon,omitempty"`
}
