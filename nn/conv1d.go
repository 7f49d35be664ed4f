package nn

import (
	"math/rand/v2"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-anomaly/internal/fault"
)

// Conv1D is a valid-padding, stride-1 convolution over the step axis of
// (steps, channels) samples.
type Conv1D struct {
	filters int
	kernel  int
	act     Activation

	steps    int
	channels int
	w, b     *Param

	x, y *Tensor
	tmp  []float64
}

// NewConv1D returns a convolution with the given filter count and kernel
// length.
func NewConv1D(filters, kernel int, act Activation) *Conv1D {
	return &Conv1D{filters: filters, kernel: kernel, act: act}
}

func (l *Conv1D) Kind() string { return KindConv1D }

func (l *Conv1D) OutputShape() []int { return []int{l.steps - l.kernel + 1, l.filters} }

func (l *Conv1D) build(in []int, r *rand.Rand) ([]int, error) {
	if err := validatePositive("conv1d filters", l.filters); err != nil {
		return nil, err
	}
	if err := validatePositive("conv1d kernel", l.kernel); err != nil {
		return nil, err
	}
	if len(in) != 2 {
		return nil, fault.Configuration("nn: conv1d needs (steps, channels) input, got %v", in)
	}
	l.steps, l.channels = in[0], in[1]
	if l.steps-l.kernel+1 <= 0 {
		return nil, fault.Configuration("nn: conv1d kernel %d exceeds %d steps", l.kernel, l.steps)
	}

	fanIn := l.kernel * l.channels
	fanOut := l.kernel * l.filters
	l.w = newParam("kernel", glorotUniform(r, l.kernel*l.channels*l.filters, fanIn, fanOut), true)
	l.b = newParam("bias", make([]float64, l.filters), true)
	l.tmp = make([]float64, l.filters)

	return l.OutputShape(), nil
}

func (l *Conv1D) forward(x *Tensor, _ bool) *Tensor {
	batch := x.Batch()
	outSteps := l.steps - l.kernel + 1
	f := l.filters
	y := NewTensor(batch, outSteps, f)

	for b := 0; b < batch; b++ {
		for t := 0; t < outSteps; t++ {
			out := y.Data[(b*outSteps+t)*f : (b*outSteps+t+1)*f]
			copy(out, l.b.Value)
			for k := 0; k < l.kernel; k++ {
				row := x.Data[(b*l.steps+t+k)*l.channels : (b*l.steps+t+k+1)*l.channels]
				for c, v := range row {
					off := (k*l.channels + c) * f
					axpy(out, l.w.Value[off:off+f], v, l.tmp)
				}
			}
		}
	}
	l.act.apply(y.Data)

	l.x, l.y = x, y
	return y
}

func (l *Conv1D) backward(grad *Tensor) *Tensor {
	batch := grad.Batch()
	outSteps := l.steps - l.kernel + 1
	f := l.filters

	dz := grad.Clone()
	l.act.backward(l.y.Data, dz.Data)
	dx := NewTensor(batch, l.steps, l.channels)

	for b := 0; b < batch; b++ {
		for t := 0; t < outSteps; t++ {
			g := dz.Data[(b*outSteps+t)*f : (b*outSteps+t+1)*f]
			vecmath.AddBlockInPlace(l.b.Grad, g)
			for k := 0; k < l.kernel; k++ {
				base := (b*l.steps + t + k) * l.channels
				row := l.x.Data[base : base+l.channels]
				drow := dx.Data[base : base+l.channels]
				for c, v := range row {
					off := (k*l.channels + c) * f
					axpy(l.w.Grad[off:off+f], g, v, l.tmp)
					drow[c] += dot(l.w.Value[off:off+f], g)
				}
			}
		}
	}
	return dx
}

func (l *Conv1D) params() []*Param { return []*Param{l.w, l.b} }

func (l *Conv1D) spec() LayerSpec {
	return LayerSpec{Kind: KindConv1D, Units: l.filters, Kernel: l.kernel, Activation: l.act.String()}
}
