package frequency

import (
	"math"
	"sort"

	"github.com/cwbudde/algo-anomaly/dsp/spectral"
	"github.com/cwbudde/algo-anomaly/internal/fault"
)

// DefaultRolloff is the energy fraction used by Calculate for the rolloff
// frequency.
const DefaultRolloff = 0.85

// Stats holds descriptors of a magnitude spectrum. All frequencies are in
// the units of the frequency slice passed to Calculate.
type Stats struct {
	Class     int     `json:"class" csv:"class"`
	BinCount  int     `json:"bins" csv:"bins"`
	Peak      float64 `json:"peak" csv:"peak"`
	PeakFreq  float64 `json:"peak_freq" csv:"peak_freq"`
	Mean      float64 `json:"mean" csv:"mean"`
	Energy    float64 `json:"energy" csv:"energy"`
	Centroid  float64 `json:"centroid" csv:"centroid"`
	Spread    float64 `json:"spread" csv:"spread"`
	Flatness  float64 `json:"flatness" csv:"flatness"`
	Rolloff   float64 `json:"rolloff" csv:"rolloff"`
	Bandwidth float64 `json:"bandwidth" csv:"bandwidth"`
}

// Calculate computes all descriptors of magnitude (linear scale) whose bin
// i lies at freqs[i].
func Calculate(magnitude, freqs []float64) (Stats, error) {
	if err := check(magnitude, freqs); err != nil {
		return Stats{}, err
	}

	n := len(magnitude)
	s := Stats{BinCount: n}
	if n == 0 {
		return s, nil
	}

	sum := 0.0
	for i, v := range magnitude {
		sum += v
		s.Energy += v * v
		if i == 0 || v > s.Peak {
			s.Peak = v
			s.PeakFreq = freqs[i]
		}
	}
	s.Mean = sum / float64(n)

	s.Centroid = centroid(magnitude, freqs, sum)
	s.Spread = spread(magnitude, freqs, s.Centroid, sum)
	s.Flatness = Flatness(magnitude)
	s.Rolloff = rolloff(magnitude, freqs, DefaultRolloff, s.Energy)
	s.Bandwidth = bandwidth(magnitude, freqs)
	return s, nil
}

// ByClass computes the descriptors of the class-mean spectrum of every label
// present in labels. The result is ordered by class.
func ByClass(s *spectral.Spectra, labels []int, freqs []float64) ([]Stats, error) {
	if s.Len() != len(labels) {
		return nil, fault.Input("%d spectra but %d labels", s.Len(), len(labels))
	}

	members := map[int][]int{}
	for i, y := range labels {
		members[y] = append(members[y], i)
	}
	classes := make([]int, 0, len(members))
	for c := range members {
		classes = append(classes, c)
	}
	sort.Ints(classes)

	out := make([]Stats, 0, len(classes))
	for _, c := range classes {
		st, err := Calculate(s.MeanSpectrum(members[c]), freqs)
		if err != nil {
			return nil, err
		}
		st.Class = c
		out = append(out, st)
	}
	return out, nil
}

// Centroid returns the magnitude-weighted mean frequency.
//
//	centroid = sum(f_i * |X_i|) / sum(|X_i|)
func Centroid(magnitude, freqs []float64) float64 {
	sum := 0.0
	for _, v := range magnitude {
		sum += v
	}
	return centroid(magnitude, freqs, sum)
}

func centroid(magnitude, freqs []float64, sum float64) float64 {
	if len(magnitude) < 2 || sum == 0 {
		return 0
	}
	weighted := 0.0
	for i, v := range magnitude {
		weighted += freqs[i] * v
	}
	return weighted / sum
}

// spread is the magnitude-weighted standard deviation around the centroid.
func spread(magnitude, freqs []float64, cent, sum float64) float64 {
	if len(magnitude) < 2 || sum == 0 {
		return 0
	}
	weighted := 0.0
	for i, v := range magnitude {
		d := freqs[i] - cent
		weighted += d * d * v
	}
	return math.Sqrt(weighted / sum)
}

// Flatness returns the Wiener entropy of bins 1..N-1 in the range 0..1:
// the geometric over the arithmetic mean. The DC bin is excluded. A zero bin
// makes the geometric mean, and the result, zero.
func Flatness(magnitude []float64) float64 {
	n := len(magnitude)
	if n < 2 {
		return 0
	}

	sumLin, sumLog := 0.0, 0.0
	for _, v := range magnitude[1:] {
		if v <= 0 {
			return 0
		}
		sumLin += v
		sumLog += math.Log(v)
	}

	bins := float64(n - 1)
	return math.Exp(sumLog/bins) / (sumLin / bins)
}

// Rolloff returns the frequency below which the fraction percent of the
// spectral energy (sum of squared magnitudes) lies.
func Rolloff(magnitude, freqs []float64, percent float64) float64 {
	energy := 0.0
	for _, v := range magnitude {
		energy += v * v
	}
	return rolloff(magnitude, freqs, percent, energy)
}

func rolloff(magnitude, freqs []float64, percent, energy float64) float64 {
	n := len(magnitude)
	if n < 2 || energy == 0 {
		return 0
	}
	threshold := percent * energy
	cum := 0.0
	for i, v := range magnitude {
		cum += v * v
		if cum >= threshold {
			return freqs[i]
		}
	}
	return freqs[n-1]
}

// Bandwidth returns the width of the -3 dB band around the peak, with
// linear interpolation between bins at both edges.
func Bandwidth(magnitude, freqs []float64) float64 {
	return bandwidth(magnitude, freqs)
}

func bandwidth(magnitude, freqs []float64) float64 {
	n := len(magnitude)
	if n < 2 {
		return 0
	}

	peak := 0
	for i, v := range magnitude {
		if v > magnitude[peak] {
			peak = i
		}
	}
	if magnitude[peak] == 0 {
		return 0
	}
	threshold := magnitude[peak] / math.Sqrt2

	lower := freqs[0]
	for i := peak; i >= 1; i-- {
		if magnitude[i-1] <= threshold && magnitude[i] > threshold {
			lower = interp(freqs[i-1], freqs[i], magnitude[i-1], magnitude[i], threshold)
			break
		}
	}

	upper := freqs[n-1]
	for i := peak; i < n-1; i++ {
		if magnitude[i+1] <= threshold && magnitude[i] > threshold {
			upper = interp(freqs[i], freqs[i+1], magnitude[i], magnitude[i+1], threshold)
			break
		}
	}

	return math.Max(upper-lower, 0)
}

// interp finds where the line through (fa, ma) and (fb, mb) crosses level.
func interp(fa, fb, ma, mb, level float64) float64 {
	d := mb - ma
	if d == 0 {
		return (fa + fb) / 2
	}
	return fa + (level-ma)/d*(fb-fa)
}

func check(magnitude, freqs []float64) error {
	if len(magnitude) != len(freqs) {
		return fault.Input("%d magnitudes but %d frequencies", len(magnitude), len(freqs))
	}
	for i, v := range magnitude {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fault.Numeric("magnitude %d is %v", i, v)
		}
		if v < 0 {
			return fault.Input("magnitude %d is negative", i)
		}
	}
	return nil
}
