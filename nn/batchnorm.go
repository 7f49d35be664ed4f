package nn

import (
	"math"
	"math/rand/v2"
)

// Batch normalization defaults.
const (
	BatchNormMomentum = 0.99
	BatchNormEpsilon  = 1e-3
)

// BatchNorm normalizes the last axis with batch statistics while training
// and with moving averages of them at inference.
type BatchNorm struct {
	momentum float64
	epsilon  float64

	shape    []int
	channels int

	gamma, beta    *Param
	mean, variance *Param

	xhat   []float64
	invStd []float64
}

// NewBatchNorm returns a batch normalization layer with the default
// momentum and epsilon.
func NewBatchNorm() *BatchNorm {
	return &BatchNorm{momentum: BatchNormMomentum, epsilon: BatchNormEpsilon}
}

func (l *BatchNorm) Kind() string { return KindBatchNorm }

func (l *BatchNorm) OutputShape() []int { return append([]int(nil), l.shape...) }

func (l *BatchNorm) build(in []int, _ *rand.Rand) ([]int, error) {
	if err := validateRate("batch norm momentum", l.momentum); err != nil {
		return nil, err
	}
	l.shape = append([]int(nil), in...)
	l.channels = in[len(in)-1]

	ones := make([]float64, l.channels)
	for i := range ones {
		ones[i] = 1
	}
	l.gamma = newParam("gamma", ones, true)
	l.beta = newParam("beta", make([]float64, l.channels), true)
	l.mean = newParam("moving_mean", make([]float64, l.channels), false)
	l.variance = newParam("moving_variance", append([]float64(nil), ones...), false)

	return l.OutputShape(), nil
}

func (l *BatchNorm) forward(x *Tensor, training bool) *Tensor {
	c := l.channels
	rows := len(x.Data) / c
	y := NewTensor(x.Shape...)

	mean, variance := l.mean.Value, l.variance.Value
	if training {
		mean = make([]float64, c)
		variance = make([]float64, c)
		for r := 0; r < rows; r++ {
			for j, v := range x.Data[r*c : (r+1)*c] {
				mean[j] += v
			}
		}
		for j := range mean {
			mean[j] /= float64(rows)
		}
		for r := 0; r < rows; r++ {
			for j, v := range x.Data[r*c : (r+1)*c] {
				d := v - mean[j]
				variance[j] += d * d
			}
		}
		for j := range variance {
			variance[j] /= float64(rows)
			l.mean.Value[j] = l.momentum*l.mean.Value[j] + (1-l.momentum)*mean[j]
			l.variance.Value[j] = l.momentum*l.variance.Value[j] + (1-l.momentum)*variance[j]
		}
	}

	invStd := make([]float64, c)
	for j := range invStd {
		invStd[j] = 1 / math.Sqrt(variance[j]+l.epsilon)
	}

	xhat := make([]float64, len(x.Data))
	for r := 0; r < rows; r++ {
		for j := 0; j < c; j++ {
			i := r*c + j
			xhat[i] = (x.Data[i] - mean[j]) * invStd[j]
			y.Data[i] = l.gamma.Value[j]*xhat[i] + l.beta.Value[j]
		}
	}

	l.xhat, l.invStd = xhat, invStd
	return y
}

func (l *BatchNorm) backward(grad *Tensor) *Tensor {
	c := l.channels
	rows := len(grad.Data) / c
	m := float64(rows)

	sumDxhat := make([]float64, c)
	sumDxhatXhat := make([]float64, c)
	for r := 0; r < rows; r++ {
		for j := 0; j < c; j++ {
			i := r*c + j
			g := grad.Data[i]
			l.gamma.Grad[j] += g * l.xhat[i]
			l.beta.Grad[j] += g
			dxhat := g * l.gamma.Value[j]
			sumDxhat[j] += dxhat
			sumDxhatXhat[j] += dxhat * l.xhat[i]
		}
	}

	dx := NewTensor(grad.Shape...)
	for r := 0; r < rows; r++ {
		for j := 0; j < c; j++ {
			i := r*c + j
			dxhat := grad.Data[i] * l.gamma.Value[j]
			dx.Data[i] = l.invStd[j] / m * (m*dxhat - sumDxhat[j] - l.xhat[i]*sumDxhatXhat[j])
		}
	}
	return dx
}

func (l *BatchNorm) params() []*Param {
	return []*Param{l.gamma, l.beta, l.mean, l.variance}
}

func (l *BatchNorm) spec() LayerSpec {
	return LayerSpec{Kind: KindBatchNorm, Momentum: l.momentum, Epsilon: l.epsilon}
}
