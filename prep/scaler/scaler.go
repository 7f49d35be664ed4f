// Package scaler standardizes features with a per-feature mean and
// population standard deviation frozen at fit time.
package scaler

import (
	"math"

	"github.com/cwbudde/algo-anomaly/internal/fault"
)

// minStd is the standard deviation below which a feature is treated as
// constant.
const minStd = 1e-12

// Scaler holds frozen standardization parameters. It is safe for concurrent
// use because nothing mutates it after Fit.
type Scaler struct {
	mean []float64
	std  []float64
}

// Fit computes per-feature mean and population standard deviation of x
// with Welford's online update.
func Fit(x [][]float64) (*Scaler, error) {
	if len(x) == 0 || len(x[0]) == 0 {
		return nil, fault.Input("scaler: no samples to fit")
	}

	d := len(x[0])
	mean := make([]float64, d)
	m2 := make([]float64, d)

	for i, row := range x {
		if len(row) != d {
			return nil, fault.Input("scaler: row %d has %d features, want %d", i, len(row), d)
		}
		n := float64(i + 1)
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fault.Numeric("scaler: non-finite value at row %d feature %d", i, j)
			}
			delta := v - mean[j]
			mean[j] += delta / n
			m2[j] += delta * (v - mean[j])
		}
	}

	std := make([]float64, d)
	nf := float64(len(x))
	for j := range std {
		std[j] = math.Sqrt(m2[j] / nf)
	}

	return &Scaler{mean: mean, std: std}, nil
}

// Params is the serializable form of a fitted Scaler.
type Params struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

// Params returns copies of the fitted parameters.
func (s *Scaler) Params() Params {
	return Params{Mean: s.Mean(), Std: s.Std()}
}

// FromParams restores a Scaler from stored parameters.
func FromParams(p Params) (*Scaler, error) {
	if len(p.Mean) == 0 || len(p.Mean) != len(p.Std) {
		return nil, fault.Input("scaler: %d means and %d deviations", len(p.Mean), len(p.Std))
	}
	for j := range p.Mean {
		if math.IsNaN(p.Mean[j]) || math.IsInf(p.Mean[j], 0) || math.IsNaN(p.Std[j]) || math.IsInf(p.Std[j], 0) {
			return nil, fault.Numeric("scaler: non-finite parameter for feature %d", j)
		}
		if p.Std[j] < 0 {
			return nil, fault.Input("scaler: negative deviation for feature %d", j)
		}
	}
	return &Scaler{
		mean: append([]float64(nil), p.Mean...),
		std:  append([]float64(nil), p.Std...),
	}, nil
}

// Features returns the fitted feature count.
func (s *Scaler) Features() int { return len(s.mean) }

// Mean returns a copy of the fitted means.
func (s *Scaler) Mean() []float64 { return append([]float64(nil), s.mean...) }

// Std returns a copy of the fitted standard deviations.
func (s *Scaler) Std() []float64 { return append([]float64(nil), s.std...) }

// Constant reports whether feature j has zero variance.
func (s *Scaler) Constant(j int) bool { return s.std[j] < minStd }

// Transform returns (x - mean) / std per feature. Constant features map to 0.
func (s *Scaler) Transform(x [][]float64) ([][]float64, error) {
	return s.apply(x, func(j int, v float64) float64 {
		if s.Constant(j) {
			return 0
		}
		return (v - s.mean[j]) / s.std[j]
	})
}

// InverseTransform returns x*std + mean per feature. Constant features map
// to their mean.
func (s *Scaler) InverseTransform(x [][]float64) ([][]float64, error) {
	return s.apply(x, func(j int, v float64) float64 {
		if s.Constant(j) {
			return s.mean[j]
		}
		return v*s.std[j] + s.mean[j]
	})
}

func (s *Scaler) apply(x [][]float64, f func(j int, v float64) float64) ([][]float64, error) {
	out := make([][]float64, len(x))
	for i, row := range x {
		if len(row) != len(s.mean) {
			return nil, fault.Input("scaler: row %d has %d features, fitted %d", i, len(row), len(s.mean))
		}
		dst := make([]float64, len(row))
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fault.Numeric("scaler: non-finite input at row %d feature %d", i, j)
			}
			dst[j] = f(j, v)
			if math.IsNaN(dst[j]) || math.IsInf(dst[j], 0) {
				return nil, fault.Numeric("scaler: non-finite output at row %d feature %d", i, j)
			}
		}
		out[i] = dst
	}
	return out, nil
}
