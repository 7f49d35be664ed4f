// Package window generates tapers applied to signal frames before a
// discrete Fourier transform to reduce spectral leakage.
package window

import (
	"math"

	"github.com/cwbudde/algo-vecmath"
)

// Type identifies a window function.
type Type int

const (
	TypeRectangular Type = iota
	TypeHann
	TypeHamming
	TypeBlackman
	TypeBlackmanHarris
)

// Cosine-sum coefficients: w(x) = sum_k c[k] * cos(2*pi*k*x), x in [0, 1].
var (
	hannCoeffs           = []float64{0.5, -0.5}
	hammingCoeffs        = []float64{0.54, -0.46}
	blackmanCoeffs       = []float64{0.42, -0.5, 0.08}
	blackmanHarrisCoeffs = []float64{0.35875, -0.48829, 0.14128, -0.01168}
)

var names = map[Type]string{
	TypeRectangular:    "Rectangular",
	TypeHann:           "Hann",
	TypeHamming:        "Hamming",
	TypeBlackman:       "Blackman",
	TypeBlackmanHarris: "Blackman-Harris",
}

// String returns the window name.
func (t Type) String() string {
	if n, ok := names[t]; ok {
		return n
	}
	return "Unknown"
}

// Option configures window generation.
type Option func(*config)

type config struct {
	periodic bool
}

// WithPeriodic selects the periodic form (denominator N) used for FFT
// framing instead of the symmetric form (denominator N-1).
func WithPeriodic() Option {
	return func(c *config) {
		c.periodic = true
	}
}

// Generate returns window coefficients of the given length.
//
// The symmetric Hann window is w[i] = 0.5 - 0.5*cos(2*pi*i/(N-1)).
func Generate(t Type, length int, opts ...Option) []float64 {
	if length <= 0 {
		return nil
	}

	var cfg config
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	coeffs := coefficients(t)
	out := make([]float64, length)
	for i := range out {
		if coeffs == nil {
			out[i] = 1
			continue
		}
		out[i] = cosineSum(samplePosition(i, length, cfg.periodic), coeffs)
	}

	return out
}

// Hann returns Hann window coefficients.
func Hann(size int, opts ...Option) ([]float64, error) {
	return Generate(TypeHann, size, opts...), validateLength(size)
}

// ApplyCoefficients multiplies samples with coefficients into dst.
// dst may alias samples.
func ApplyCoefficients(dst, samples, coeffs []float64) error {
	if len(samples) != len(coeffs) || len(dst) != len(samples) {
		return errMismatchedLength
	}

	vecmath.MulBlock(dst, samples, coeffs)

	return nil
}

// coherentGain returns sum(w[n]) / N.
func coherentGain(coeffs []float64) (float64, error) {
	if len(coeffs) == 0 {
		return 0, errEmptyCoeffs
	}

	sum := 0.0
	for _, c := range coeffs {
		sum += c
	}

	return sum / float64(len(coeffs)), nil
}

func coefficients(t Type) []float64 {
	switch t {
	case TypeHann:
		return hannCoeffs
	case TypeHamming:
		return hammingCoeffs
	case TypeBlackman:
		return blackmanCoeffs
	case TypeBlackmanHarris:
		return blackmanHarrisCoeffs
	default:
		return nil
	}
}

func cosineSum(x float64, coeffs []float64) float64 {
	phase := 2 * math.Pi * x

	sum := 0.0
	for k, c := range coeffs {
		sum += c * math.Cos(float64(k)*phase)
	}

	return sum
}

func samplePosition(n, size int, periodic bool) float64 {
	if size <= 1 {
		return 0
	}

	den := float64(size - 1)
	if periodic {
		den = float64(size)
	}

	return float64(n) / den
}
