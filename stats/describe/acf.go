package describe

import (
	"math"

	"github.com/montanaflynn/stats"

	"github.com/cwbudde/algo-anomaly/internal/fault"
)

// Autocorrelation returns the sample autocorrelation of seq for lags
// 0..lags, normalized by the lag-0 autocovariance:
//
//	r_k = sum_{t<n-k} (x_t - m)(x_{t+k} - m) / sum_t (x_t - m)^2
//
// r_0 is 1 unless seq is constant, in which case every coefficient is 0.
func Autocorrelation(seq []float64, lags int) ([]float64, error) {
	n := len(seq)
	if n == 0 {
		return nil, fault.Input("describe: autocorrelation of an empty sequence")
	}
	if lags < 0 || lags >= n {
		return nil, fault.Configuration("describe: lags %d outside [0, %d)", lags, n)
	}

	mean, err := stats.Mean(seq)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(mean) || math.IsInf(mean, 0) {
		return nil, fault.Numeric("describe: non-finite sequence")
	}

	centered := make([]float64, n)
	for i, x := range seq {
		centered[i] = x - mean
	}

	out := make([]float64, lags+1)
	c0 := dot(centered, centered)
	if c0 == 0 {
		return out, nil
	}
	for k := range out {
		out[k] = dot(centered[:n-k], centered[k:]) / c0
	}
	return out, nil
}

// MeanAutocorrelation averages Autocorrelation over seqs.
func MeanAutocorrelation(seqs [][]float64, lags int) ([]float64, error) {
	if len(seqs) == 0 {
		return nil, fault.Input("describe: no sequences")
	}
	var out []float64
	for _, seq := range seqs {
		acf, err := Autocorrelation(seq, lags)
		if err != nil {
			return nil, err
		}
		if out == nil {
			out = acf
			continue
		}
		for k, v := range acf {
			out[k] += v
		}
	}
	for k := range out {
		out[k] /= float64(len(seqs))
	}
	return out, nil
}

func dot(a, b []float64) float64 {
	s := 0.0
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}
