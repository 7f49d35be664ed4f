package nn

import (
	"math/rand/v2"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-anomaly/internal/fault"
)

// Dense is a fully connected layer over flat samples.
type Dense struct {
	units int
	act   Activation
	l2    float64

	inputs int
	w, b   *Param

	x, y *Tensor
	tmp  []float64
}

// NewDense returns a dense layer with an L2 penalty l2 on its kernel.
func NewDense(units int, act Activation, l2 float64) *Dense {
	return &Dense{units: units, act: act, l2: l2}
}

func (l *Dense) Kind() string { return KindDense }

func (l *Dense) OutputShape() []int { return []int{l.units} }

func (l *Dense) build(in []int, r *rand.Rand) ([]int, error) {
	if err := validatePositive("dense units", l.units); err != nil {
		return nil, err
	}
	if l.l2 < 0 {
		return nil, fault.Configuration("nn: dense l2 must be >= 0: %g", l.l2)
	}
	if len(in) != 1 {
		return nil, fault.Configuration("nn: dense needs flat input, got %v", in)
	}
	l.inputs = in[0]

	l.w = newParam("kernel", glorotUniform(r, l.inputs*l.units, l.inputs, l.units), true)
	l.w.L2 = l.l2
	l.b = newParam("bias", make([]float64, l.units), true)
	l.tmp = make([]float64, l.units)

	return l.OutputShape(), nil
}

func (l *Dense) forward(x *Tensor, _ bool) *Tensor {
	batch := x.Batch()
	u := l.units
	y := NewTensor(batch, u)

	for b := 0; b < batch; b++ {
		out := y.Sample(b)
		copy(out, l.b.Value)
		for c, v := range x.Sample(b) {
			axpy(out, l.w.Value[c*u:(c+1)*u], v, l.tmp)
		}
	}
	l.act.apply(y.Data)

	l.x, l.y = x, y
	return y
}

func (l *Dense) backward(grad *Tensor) *Tensor {
	batch := grad.Batch()
	u := l.units

	dz := grad.Clone()
	l.act.backward(l.y.Data, dz.Data)
	dx := NewTensor(batch, l.inputs)

	for b := 0; b < batch; b++ {
		g := dz.Sample(b)
		vecmath.AddBlockInPlace(l.b.Grad, g)
		drow := dx.Sample(b)
		for c, v := range l.x.Sample(b) {
			axpy(l.w.Grad[c*u:(c+1)*u], g, v, l.tmp)
			drow[c] = dot(l.w.Value[c*u:(c+1)*u], g)
		}
	}
	return dx
}

func (l *Dense) params() []*Param { return []*Param{l.w, l.b} }

func (l *Dense) spec() LayerSpec {
	return LayerSpec{Kind: KindDense, Units: l.units, Activation: l.act.String(), L2: l.l2}
}
