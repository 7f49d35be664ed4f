package nn

import "math/rand/v2"

// Dropout zeroes a rate fraction of its inputs while training and scales the
// survivors by 1/(1-rate). At inference it is the identity.
type Dropout struct {
	rate float64

	shape []int
	rand  *rand.Rand
	mask  []float64
}

// NewDropout returns a dropout layer.
func NewDropout(rate float64) *Dropout {
	return &Dropout{rate: rate}
}

func (l *Dropout) Kind() string { return KindDropout }

func (l *Dropout) OutputShape() []int { return append([]int(nil), l.shape...) }

func (l *Dropout) build(in []int, r *rand.Rand) ([]int, error) {
	if err := validateRate("dropout rate", l.rate); err != nil {
		return nil, err
	}
	l.shape = append([]int(nil), in...)
	// Masks come from a stream split off the build generator.
	l.rand = rand.New(rand.NewPCG(r.Uint64(), r.Uint64()))
	return l.OutputShape(), nil
}

func (l *Dropout) forward(x *Tensor, training bool) *Tensor {
	if !training || l.rate == 0 {
		l.mask = nil
		return x
	}

	keep := 1 - l.rate
	scale := 1 / keep
	y := NewTensor(x.Shape...)
	l.mask = make([]float64, len(x.Data))
	for i, v := range x.Data {
		if l.rand.Float64() < keep {
			l.mask[i] = scale
			y.Data[i] = v * scale
		}
	}
	return y
}

func (l *Dropout) backward(grad *Tensor) *Tensor {
	if l.mask == nil {
		return grad
	}
	dx := NewTensor(grad.Shape...)
	for i, g := range grad.Data {
		dx.Data[i] = g * l.mask[i]
	}
	return dx
}

func (l *Dropout) params() []*Param { return nil }

func (l *Dropout) spec() LayerSpec {
	return LayerSpec{Kind: KindDropout, Rate: l.rate}
}
