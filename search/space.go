package search

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/cwbudde/algo-anomaly/internal/fault"
)

// Distribution draws one hyperparameter value.
type Distribution interface {
	Sample(r *rand.Rand) float64
	Contains(v float64) bool
	validate() error
	fmt.Stringer
}

// IntRange is uniform over Low, Low+Step, ... up to High inclusive.
type IntRange struct {
	Low, High, Step int
}

func (d IntRange) Sample(r *rand.Rand) float64 {
	n := (d.High-d.Low)/d.Step + 1
	return float64(d.Low + d.Step*r.IntN(n))
}

func (d IntRange) Contains(v float64) bool {
	if v != math.Trunc(v) || v < float64(d.Low) || v > float64(d.High) {
		return false
	}
	return (int(v)-d.Low)%d.Step == 0
}

func (d IntRange) validate() error {
	if d.Step < 1 || d.Low > d.High {
		return fault.Configuration("search: invalid int range %v", d)
	}
	return nil
}

func (d IntRange) String() string {
	return fmt.Sprintf("int[%d..%d step %d]", d.Low, d.High, d.Step)
}

// Uniform is uniform over [Low, High).
type Uniform struct {
	Low, High float64
}

func (d Uniform) Sample(r *rand.Rand) float64 {
	return d.Low + (d.High-d.Low)*r.Float64()
}

func (d Uniform) Contains(v float64) bool { return v >= d.Low && v <= d.High }

func (d Uniform) validate() error {
	if !(d.Low <= d.High) || math.IsInf(d.Low, 0) || math.IsInf(d.High, 0) {
		return fault.Configuration("search: invalid uniform range %v", d)
	}
	return nil
}

func (d Uniform) String() string { return fmt.Sprintf("uniform[%g, %g)", d.Low, d.High) }

// LogUniform is uniform in log space over [Low, High).
type LogUniform struct {
	Low, High float64
}

func (d LogUniform) Sample(r *rand.Rand) float64 {
	lo, hi := math.Log(d.Low), math.Log(d.High)
	return math.Exp(lo + (hi-lo)*r.Float64())
}

func (d LogUniform) Contains(v float64) bool { return v >= d.Low && v <= d.High }

func (d LogUniform) validate() error {
	if !(d.Low > 0 && d.Low <= d.High) || math.IsInf(d.High, 0) {
		return fault.Configuration("search: invalid log-uniform range %v", d)
	}
	return nil
}

func (d LogUniform) String() string { return fmt.Sprintf("loguniform[%g, %g)", d.Low, d.High) }

// Space is an ordered set of named distributions. Sampling follows the
// declaration order.
type Space struct {
	names []string
	dists map[string]Distribution
}

// NewSpace returns an empty space.
func NewSpace() *Space {
	return &Space{dists: make(map[string]Distribution)}
}

// Add declares name. Redeclaring a name replaces its distribution and keeps
// its position.
func (s *Space) Add(name string, d Distribution) *Space {
	if _, ok := s.dists[name]; !ok {
		s.names = append(s.names, name)
	}
	s.dists[name] = d
	return s
}

// Int declares an integer range.
func (s *Space) Int(name string, low, high, step int) *Space {
	return s.Add(name, IntRange{Low: low, High: high, Step: step})
}

// Float declares a uniform float range.
func (s *Space) Float(name string, low, high float64) *Space {
	return s.Add(name, Uniform{Low: low, High: high})
}

// LogFloat declares a log-uniform float range.
func (s *Space) LogFloat(name string, low, high float64) *Space {
	return s.Add(name, LogUniform{Low: low, High: high})
}

// Names returns the declared names in order.
func (s *Space) Names() []string { return append([]string(nil), s.names...) }

// Distribution returns the distribution of name.
func (s *Space) Distribution(name string) (Distribution, bool) {
	d, ok := s.dists[name]
	return d, ok
}

// Contains reports whether every value of params lies in its distribution
// and every declared name is present.
func (s *Space) Contains(params map[string]float64) bool {
	if len(params) != len(s.names) {
		return false
	}
	for _, name := range s.names {
		v, ok := params[name]
		if !ok || !s.dists[name].Contains(v) {
			return false
		}
	}
	return true
}

// Validate checks that the space is non-empty and every range is usable.
func (s *Space) Validate() error {
	if len(s.names) == 0 {
		return fault.Configuration("search: empty space")
	}
	for _, name := range s.names {
		if name == "" {
			return fault.Configuration("search: unnamed parameter")
		}
		if err := s.dists[name].validate(); err != nil {
			return err
		}
	}
	return nil
}

// Sampler proposes the parameters of trial number n.
type Sampler interface {
	Sample(space *Space, n int) map[string]float64
}

// RandomSampler draws every parameter independently.
type RandomSampler struct {
	rand *rand.Rand
}

// NewRandomSampler returns a sampler drawing from r.
func NewRandomSampler(r *rand.Rand) *RandomSampler {
	return &RandomSampler{rand: r}
}

func (s *RandomSampler) Sample(space *Space, _ int) map[string]float64 {
	out := make(map[string]float64, len(space.names))
	for _, name := range space.names {
		out[name] = space.dists[name].Sample(s.rand)
	}
	return out
}
