package nn

import (
	"math/rand/v2"

	"github.com/cwbudde/algo-anomaly/internal/fault"
)

// MaxPool1D takes the maximum over non-overlapping step windows of length
// pool. Trailing steps that do not fill a window are dropped.
type MaxPool1D struct {
	pool int

	steps    int
	channels int

	argmax []int
}

// NewMaxPool1D returns a pooling layer with stride equal to pool.
func NewMaxPool1D(pool int) *MaxPool1D {
	return &MaxPool1D{pool: pool}
}

func (l *MaxPool1D) Kind() string { return KindMaxPool1D }

func (l *MaxPool1D) OutputShape() []int { return []int{l.steps / l.pool, l.channels} }

func (l *MaxPool1D) build(in []int, _ *rand.Rand) ([]int, error) {
	if err := validatePositive("max pool size", l.pool); err != nil {
		return nil, err
	}
	if len(in) != 2 {
		return nil, fault.Configuration("nn: max pool needs (steps, channels) input, got %v", in)
	}
	l.steps, l.channels = in[0], in[1]
	if l.steps/l.pool == 0 {
		return nil, fault.Configuration("nn: max pool %d exceeds %d steps", l.pool, l.steps)
	}
	return l.OutputShape(), nil
}

func (l *MaxPool1D) forward(x *Tensor, _ bool) *Tensor {
	batch := x.Batch()
	outSteps := l.steps / l.pool
	c := l.channels
	y := NewTensor(batch, outSteps, c)
	l.argmax = make([]int, len(y.Data))

	for b := 0; b < batch; b++ {
		for t := 0; t < outSteps; t++ {
			for j := 0; j < c; j++ {
				best := (b*l.steps+t*l.pool)*c + j
				for p := 1; p < l.pool; p++ {
					i := (b*l.steps+t*l.pool+p)*c + j
					if x.Data[i] > x.Data[best] {
						best = i
					}
				}
				o := (b*outSteps+t)*c + j
				y.Data[o] = x.Data[best]
				l.argmax[o] = best
			}
		}
	}
	return y
}

func (l *MaxPool1D) backward(grad *Tensor) *Tensor {
	dx := NewTensor(grad.Batch(), l.steps, l.channels)
	for o, i := range l.argmax {
		dx.Data[i] += grad.Data[o]
	}
	return dx
}

func (l *MaxPool1D) params() []*Param { return nil }

func (l *MaxPool1D) spec() LayerSpec {
	return LayerSpec{Kind: KindMaxPool1D, Pool: l.pool}
}
