package signal

import (
	"errors"
	"math"
	"testing"

	"github.com/cwbudde/algo-anomaly/internal/fault"
	"github.com/cwbudde/algo-anomaly/internal/testutil"
)

const tolerance = 1e-12

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func generateSquare(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 1
		if i%2 == 1 {
			out[i] = -1
		}
	}
	return out
}

func TestCalculateConstant(t *testing.T) {
	s := Calculate(testutil.Constant(1, 1000))

	if s.Length != 1000 || s.Sequences != 1 {
		t.Errorf("Length/Sequences: got %d/%d, want 1000/1", s.Length, s.Sequences)
	}
	if !almostEqual(s.Mean, 1, tolerance) || !almostEqual(s.RMS, 1, tolerance) {
		t.Errorf("Mean/RMS: got %g/%g, want 1/1", s.Mean, s.RMS)
	}
	if !almostEqual(s.CrestFactor, 1, tolerance) {
		t.Errorf("CrestFactor: got %g, want 1", s.CrestFactor)
	}
	if s.ZeroCrossings != 0 {
		t.Errorf("ZeroCrossings: got %g, want 0", s.ZeroCrossings)
	}
	if !almostEqual(s.Variance, 0, tolerance) || s.Skewness != 0 || s.Kurtosis != 0 {
		t.Errorf("moments: got var=%g skew=%g kurt=%g", s.Variance, s.Skewness, s.Kurtosis)
	}
	if !almostEqual(s.Energy, 1000, 1e-9) {
		t.Errorf("Energy: got %g, want 1000", s.Energy)
	}
}

func TestCalculateSquare(t *testing.T) {
	s := Calculate(generateSquare(1000))

	if !almostEqual(s.Mean, 0, tolerance) {
		t.Errorf("Mean: got %g, want 0", s.Mean)
	}
	if s.Max != 1 || s.Min != -1 || s.Peak != 1 {
		t.Errorf("Max/Min/Peak: got %g/%g/%g", s.Max, s.Min, s.Peak)
	}
	if s.ZeroCrossings != 999 {
		t.Errorf("ZeroCrossings: got %g, want 999", s.ZeroCrossings)
	}
	if !almostEqual(s.Variance, 1, 1e-12) {
		t.Errorf("Variance: got %g, want 1", s.Variance)
	}
	// Two-point distribution: excess kurtosis is -2.
	if !almostEqual(s.Kurtosis, -2, 1e-9) {
		t.Errorf("Kurtosis: got %g, want -2", s.Kurtosis)
	}
}

func TestCalculateSine(t *testing.T) {
	// 8 full cycles of 16 samples.
	s := Calculate(testutil.Sine(1, 16, 1, 128))

	if !almostEqual(s.RMS, 1/math.Sqrt2, 1e-9) {
		t.Errorf("RMS: got %g, want %g", s.RMS, 1/math.Sqrt2)
	}
	if !almostEqual(s.Variance, 0.5, 1e-9) {
		t.Errorf("Variance: got %g, want 0.5", s.Variance)
	}
	if !almostEqual(s.Skewness, 0, 1e-9) {
		t.Errorf("Skewness: got %g, want 0", s.Skewness)
	}
}

func TestCalculateMatchesTwoPass(t *testing.T) {
	seq := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	s := Calculate(seq)

	if !almostEqual(s.Mean, 5, tolerance) {
		t.Errorf("Mean: got %g, want 5", s.Mean)
	}
	if !almostEqual(s.Variance, 4, 1e-12) {
		t.Errorf("Variance: got %g, want 4", s.Variance)
	}

	m3, m4 := 0.0, 0.0
	for _, x := range seq {
		d := x - 5
		m3 += d * d * d
		m4 += d * d * d * d
	}
	m3 /= 8
	m4 /= 8
	if !almostEqual(s.Skewness, m3/8, 1e-12) {
		t.Errorf("Skewness: got %g, want %g", s.Skewness, m3/8)
	}
	if !almostEqual(s.Kurtosis, m4/16-3, 1e-12) {
		t.Errorf("Kurtosis: got %g, want %g", s.Kurtosis, m4/16-3)
	}
}

func TestCalculateEmpty(t *testing.T) {
	if s := Calculate(nil); s != (Stats{}) {
		t.Errorf("got %+v, want zero value", s)
	}
}

func TestByClass(t *testing.T) {
	seqs := [][]float64{
		testutil.Constant(1, 4),
		testutil.Constant(3, 4),
		generateSquare(4),
	}
	got, err := ByClass(seqs, []int{0, 0, 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d classes, want 2", len(got))
	}

	healthy := got[0]
	if healthy.Class != 0 || healthy.Sequences != 2 || healthy.Length != 4 {
		t.Errorf("class 0 header: %+v", healthy)
	}
	if !almostEqual(healthy.Mean, 2, tolerance) || !almostEqual(healthy.Peak, 2, tolerance) {
		t.Errorf("class 0 mean/peak: got %g/%g, want 2/2", healthy.Mean, healthy.Peak)
	}

	anomaly := got[1]
	if anomaly.Class != 1 || anomaly.Sequences != 1 || anomaly.ZeroCrossings != 3 {
		t.Errorf("class 1: %+v", anomaly)
	}

	if _, err := ByClass(seqs, []int{0}); !errors.Is(err, fault.ErrInput) {
		t.Errorf("mismatch: got %v, want ErrInput", err)
	}
}
