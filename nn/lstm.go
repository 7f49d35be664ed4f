package nn

import (
	"math"
	"math/rand/v2"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-anomaly/internal/fault"
)

// LSTM runs a long short-term memory cell over the step axis of
// (steps, channels) samples and returns the last hidden state.
//
// Gates are packed in the order input, forget, cell, output. The forget
// gate bias starts at 1.
type LSTM struct {
	units int
	l2    float64

	steps    int
	channels int

	kernel, recurrent, bias *Param

	// Per sample caches: gates [steps][4*units], cell and hidden state
	// [steps+1][units] with the zero initial state at index 0.
	x      *Tensor
	gates  []float64
	cell   []float64
	hidden []float64
	tmp    []float64
}

// NewLSTM returns an LSTM with an L2 penalty l2 on the input kernel.
func NewLSTM(units int, l2 float64) *LSTM {
	return &LSTM{units: units, l2: l2}
}

func (l *LSTM) Kind() string { return KindLSTM }

func (l *LSTM) OutputShape() []int { return []int{l.units} }

func (l *LSTM) build(in []int, r *rand.Rand) ([]int, error) {
	if err := validatePositive("lstm units", l.units); err != nil {
		return nil, err
	}
	if l.l2 < 0 {
		return nil, fault.Configuration("nn: lstm l2 must be >= 0: %g", l.l2)
	}
	if len(in) != 2 {
		return nil, fault.Configuration("nn: lstm needs (steps, channels) input, got %v", in)
	}
	l.steps, l.channels = in[0], in[1]

	u4 := 4 * l.units
	l.kernel = newParam("kernel", glorotUniform(r, l.channels*u4, l.channels, u4), true)
	l.kernel.L2 = l.l2
	l.recurrent = newParam("recurrent_kernel", orthogonal(r, l.units, u4), true)

	bias := make([]float64, u4)
	for j := l.units; j < 2*l.units; j++ {
		bias[j] = 1
	}
	l.bias = newParam("bias", bias, true)
	l.tmp = make([]float64, u4)

	return l.OutputShape(), nil
}

func (l *LSTM) forward(x *Tensor, _ bool) *Tensor {
	batch := x.Batch()
	u, u4 := l.units, 4*l.units
	y := NewTensor(batch, u)

	l.x = x
	l.gates = make([]float64, batch*l.steps*u4)
	l.cell = make([]float64, batch*(l.steps+1)*u)
	l.hidden = make([]float64, batch*(l.steps+1)*u)

	for b := 0; b < batch; b++ {
		for t := 0; t < l.steps; t++ {
			z := l.gates[(b*l.steps+t)*u4 : (b*l.steps+t+1)*u4]
			copy(z, l.bias.Value)

			xt := x.Data[(b*l.steps+t)*l.channels : (b*l.steps+t+1)*l.channels]
			for c, v := range xt {
				axpy(z, l.kernel.Value[c*u4:(c+1)*u4], v, l.tmp)
			}
			hPrev := l.state(l.hidden, b, t)
			for j, v := range hPrev {
				axpy(z, l.recurrent.Value[j*u4:(j+1)*u4], v, l.tmp)
			}

			cPrev := l.state(l.cell, b, t)
			cNext := l.state(l.cell, b, t+1)
			hNext := l.state(l.hidden, b, t+1)
			for j := 0; j < u; j++ {
				i := sigmoid(z[j])
				f := sigmoid(z[u+j])
				g := math.Tanh(z[2*u+j])
				o := sigmoid(z[3*u+j])
				z[j], z[u+j], z[2*u+j], z[3*u+j] = i, f, g, o

				cNext[j] = f*cPrev[j] + i*g
				hNext[j] = o * math.Tanh(cNext[j])
			}
		}
		copy(y.Sample(b), l.state(l.hidden, b, l.steps))
	}
	return y
}

func (l *LSTM) backward(grad *Tensor) *Tensor {
	batch := grad.Batch()
	u, u4 := l.units, 4*l.units
	dx := NewTensor(batch, l.steps, l.channels)

	dh := make([]float64, u)
	dc := make([]float64, u)
	dz := make([]float64, u4)

	for b := 0; b < batch; b++ {
		copy(dh, grad.Sample(b))
		for j := range dc {
			dc[j] = 0
		}

		for t := l.steps - 1; t >= 0; t-- {
			gates := l.gates[(b*l.steps+t)*u4 : (b*l.steps+t+1)*u4]
			cPrev := l.state(l.cell, b, t)
			cNext := l.state(l.cell, b, t+1)

			for j := 0; j < u; j++ {
				i, f, g, o := gates[j], gates[u+j], gates[2*u+j], gates[3*u+j]
				tc := math.Tanh(cNext[j])

				do := dh[j] * tc
				dcj := dc[j] + dh[j]*o*(1-tc*tc)

				dz[j] = dcj * g * i * (1 - i)
				dz[u+j] = dcj * cPrev[j] * f * (1 - f)
				dz[2*u+j] = dcj * i * (1 - g*g)
				dz[3*u+j] = do * o * (1 - o)
				dc[j] = dcj * f
			}

			vecmath.AddBlockInPlace(l.bias.Grad, dz)

			base := (b*l.steps + t) * l.channels
			xt := l.x.Data[base : base+l.channels]
			dxt := dx.Data[base : base+l.channels]
			for c, v := range xt {
				axpy(l.kernel.Grad[c*u4:(c+1)*u4], dz, v, l.tmp)
				dxt[c] = dot(l.kernel.Value[c*u4:(c+1)*u4], dz)
			}

			hPrev := l.state(l.hidden, b, t)
			for j, v := range hPrev {
				axpy(l.recurrent.Grad[j*u4:(j+1)*u4], dz, v, l.tmp)
				dh[j] = dot(l.recurrent.Value[j*u4:(j+1)*u4], dz)
			}
		}
	}
	return dx
}

// state returns the cached cell or hidden vector of sample b at index t.
func (l *LSTM) state(buf []float64, b, t int) []float64 {
	off := (b*(l.steps+1) + t) * l.units
	return buf[off : off+l.units]
}

func (l *LSTM) params() []*Param { return []*Param{l.kernel, l.recurrent, l.bias} }

func (l *LSTM) spec() LayerSpec {
	return LayerSpec{Kind: KindLSTM, Units: l.units, L2: l.l2}
}
