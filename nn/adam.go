package nn

import "math"

// Adam defaults.
const (
	AdamBeta1   = 0.9
	AdamBeta2   = 0.999
	AdamEpsilon = 1e-7
)

// Adam is the adaptive moment estimation optimizer. Moment buffers are
// allocated on the first step and bound to the order of the params slice.
type Adam struct {
	LearningRate float64
	Beta1        float64
	Beta2        float64
	Epsilon      float64

	step int
	m, v [][]float64
}

// NewAdam returns an optimizer with the default betas and epsilon.
func NewAdam(learningRate float64) *Adam {
	return &Adam{
		LearningRate: learningRate,
		Beta1:        AdamBeta1,
		Beta2:        AdamBeta2,
		Epsilon:      AdamEpsilon,
	}
}

// Steps returns the number of updates applied.
func (a *Adam) Steps() int { return a.step }

// Step updates every trainable param from its gradient.
func (a *Adam) Step(params []*Param) {
	if a.m == nil {
		a.m = make([][]float64, len(params))
		a.v = make([][]float64, len(params))
		for i, p := range params {
			a.m[i] = make([]float64, len(p.Value))
			a.v[i] = make([]float64, len(p.Value))
		}
	}

	a.step++
	t := float64(a.step)
	b1t := 1 - math.Pow(a.Beta1, t)
	b2t := 1 - math.Pow(a.Beta2, t)
	alpha := a.LearningRate * math.Sqrt(b2t) / b1t

	for i, p := range params {
		if !p.Trainable {
			continue
		}
		m, v := a.m[i], a.v[i]
		for j, g := range p.Grad {
			m[j] = a.Beta1*m[j] + (1-a.Beta1)*g
			v[j] = a.Beta2*v[j] + (1-a.Beta2)*g*g
			p.Value[j] -= alpha * m[j] / (math.Sqrt(v[j]) + a.Epsilon)
		}
	}
}
