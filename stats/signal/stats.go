package signal

import (
	"math"
	"sort"

	"github.com/cwbudde/algo-anomaly/internal/fault"
)

// Stats holds time-domain statistics of one sequence, or the per-field mean
// over the sequences of one class when produced by ByClass.
type Stats struct {
	Class         int     `json:"class" csv:"class"`
	Sequences     int     `json:"sequences" csv:"sequences"`
	Length        int     `json:"length" csv:"length"`
	Mean          float64 `json:"mean" csv:"mean"`
	RMS           float64 `json:"rms" csv:"rms"`
	Max           float64 `json:"max" csv:"max"`
	Min           float64 `json:"min" csv:"min"`
	Peak          float64 `json:"peak" csv:"peak"` // max(|max|, |min|)
	CrestFactor   float64 `json:"crest_factor" csv:"crest_factor"`
	Energy        float64 `json:"energy" csv:"energy"`
	ZeroCrossings float64 `json:"zero_crossings" csv:"zero_crossings"`
	Variance      float64 `json:"variance" csv:"variance"`
	Skewness      float64 `json:"skewness" csv:"skewness"`
	Kurtosis      float64 `json:"kurtosis" csv:"kurtosis"` // excess
}

// moments is a single-pass accumulator.
type moments struct {
	n              int
	mean           float64
	m2, m3, m4     float64
	sumSq          float64
	maxVal, minVal float64
	crossings      int
	last           float64
}

func (m *moments) add(x float64) {
	m.n++
	ni := float64(m.n)
	delta := x - m.mean
	deltaN := delta / ni
	deltaN2 := deltaN * deltaN
	term1 := delta * deltaN * float64(m.n-1)

	// M4 before M3 before M2.
	m.m4 += term1*deltaN2*(ni*ni-3*ni+3) + 6*deltaN2*m.m2 - 4*deltaN*m.m3
	m.m3 += term1*deltaN*(float64(m.n-1)-1) - 3*deltaN*m.m2
	m.m2 += term1
	m.mean += deltaN

	m.sumSq += x * x

	if m.n == 1 {
		m.maxVal, m.minVal = x, x
	} else {
		m.maxVal = math.Max(m.maxVal, x)
		m.minVal = math.Min(m.minVal, x)
		if m.last*x < 0 {
			m.crossings++
		}
	}
	m.last = x
}

func (m *moments) result() Stats {
	if m.n == 0 {
		return Stats{}
	}

	nf := float64(m.n)
	s := Stats{
		Sequences:     1,
		Length:        m.n,
		Mean:          m.mean,
		RMS:           math.Sqrt(m.sumSq / nf),
		Max:           m.maxVal,
		Min:           m.minVal,
		Peak:          math.Max(math.Abs(m.maxVal), math.Abs(m.minVal)),
		Energy:        m.sumSq,
		ZeroCrossings: float64(m.crossings),
		Variance:      m.m2 / nf,
	}
	if s.RMS > 0 {
		s.CrestFactor = s.Peak / s.RMS
	}
	if s.Variance > 0 {
		s.Skewness = (m.m3 / nf) / (s.Variance * math.Sqrt(s.Variance))
		s.Kurtosis = (m.m4/nf)/(s.Variance*s.Variance) - 3
	}
	return s
}

// Calculate returns the statistics of seq. A crossing is counted when
// consecutive samples have opposite signs, so exact zeros break a crossing.
func Calculate(seq []float64) Stats {
	var m moments
	for _, x := range seq {
		m.add(x)
	}
	return m.result()
}

// ByClass averages Calculate over the sequences of each label. The result is
// ordered by class; Sequences holds the member count.
func ByClass(seqs [][]float64, labels []int) ([]Stats, error) {
	if len(seqs) != len(labels) {
		return nil, fault.Input("%d sequences but %d labels", len(seqs), len(labels))
	}

	sums := map[int]*Stats{}
	for i, seq := range seqs {
		st := Calculate(seq)
		acc, ok := sums[labels[i]]
		if !ok {
			acc = &Stats{Class: labels[i]}
			sums[labels[i]] = acc
		}
		acc.add(st)
	}

	classes := make([]int, 0, len(sums))
	for c := range sums {
		classes = append(classes, c)
	}
	sort.Ints(classes)

	out := make([]Stats, 0, len(classes))
	for _, c := range classes {
		out = append(out, sums[c].mean())
	}
	return out, nil
}

func (s *Stats) add(o Stats) {
	s.Sequences++
	s.Length += o.Length
	s.Mean += o.Mean
	s.RMS += o.RMS
	s.Max += o.Max
	s.Min += o.Min
	s.Peak += o.Peak
	s.CrestFactor += o.CrestFactor
	s.Energy += o.Energy
	s.ZeroCrossings += o.ZeroCrossings
	s.Variance += o.Variance
	s.Skewness += o.Skewness
	s.Kurtosis += o.Kurtosis
}

func (s *Stats) mean() Stats {
	if s.Sequences == 0 {
		return *s
	}
	k := float64(s.Sequences)
	out := *s
	out.Length = s.Length / s.Sequences
	out.Mean /= k
	out.RMS /= k
	out.Max /= k
	out.Min /= k
	out.Peak /= k
	out.CrestFactor /= k
	out.Energy /= k
	out.ZeroCrossings /= k
	out.Variance /= k
	out.Skewness /= k
	out.Kurtosis /= k
	return out
}
