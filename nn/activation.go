package nn

import (
	"math"

	"github.com/cwbudde/algo-anomaly/internal/fault"
)

// Activation is an elementwise nonlinearity.
type Activation int

const (
	Linear Activation = iota
	ReLU
	Sigmoid
	Tanh
)

var activationNames = map[Activation]string{
	Linear:  "linear",
	ReLU:    "relu",
	Sigmoid: "sigmoid",
	Tanh:    "tanh",
}

func (a Activation) String() string {
	if s, ok := activationNames[a]; ok {
		return s
	}
	return "unknown"
}

// ParseActivation is the inverse of String.
func ParseActivation(s string) (Activation, error) {
	for a, name := range activationNames {
		if name == s {
			return a, nil
		}
	}
	return Linear, fault.Configuration("nn: unknown activation %q", s)
}

// apply evaluates a in place.
func (a Activation) apply(x []float64) {
	switch a {
	case ReLU:
		for i, v := range x {
			if v < 0 {
				x[i] = 0
			}
		}
	case Sigmoid:
		for i, v := range x {
			x[i] = sigmoid(v)
		}
	case Tanh:
		for i, v := range x {
			x[i] = math.Tanh(v)
		}
	}
}

// backward multiplies grad by the derivative of a, expressed through the
// activation output y.
func (a Activation) backward(y, grad []float64) {
	switch a {
	case ReLU:
		for i := range grad {
			if y[i] <= 0 {
				grad[i] = 0
			}
		}
	case Sigmoid:
		for i := range grad {
			grad[i] *= y[i] * (1 - y[i])
		}
	case Tanh:
		for i := range grad {
			grad[i] *= 1 - y[i]*y[i]
		}
	}
}

func sigmoid(x float64) float64 {
	if x >= 0 {
		return 1 / (1 + math.Exp(-x))
	}
	e := math.Exp(x)
	return e / (1 + e)
}
