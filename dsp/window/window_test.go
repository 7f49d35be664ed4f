package window

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-anomaly/internal/testutil"
)

func TestHannMatchesClosedForm(t *testing.T) {
	for _, n := range []int{2, 5, 16, 1024} {
		got, err := Hann(n)
		if err != nil {
			t.Fatalf("Hann(%d) error: %v", n, err)
		}

		want := make([]float64, n)
		for i := range want {
			want[i] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/float64(n-1))
		}

		testutil.RequireSliceNearlyEqual(t, got, want, 1e-12)
	}
}

func TestHannSymmetricEndpoints(t *testing.T) {
	w := Generate(TypeHann, 9)
	if math.Abs(w[0]) > 1e-15 || math.Abs(w[8]) > 1e-15 {
		t.Fatalf("endpoints = %v %v, want 0", w[0], w[8])
	}
	if math.Abs(w[4]-1) > 1e-15 {
		t.Fatalf("center = %v, want 1", w[4])
	}
	for i := 0; i < 4; i++ {
		if math.Abs(w[i]-w[8-i]) > 1e-15 {
			t.Fatalf("asymmetric at %d: %v vs %v", i, w[i], w[8-i])
		}
	}
}

func TestPeriodicDiffersFromSymmetric(t *testing.T) {
	a := Generate(TypeHann, 16)
	b := Generate(TypeHann, 16, WithPeriodic())

	if math.Abs(b[15]) < 1e-6 {
		t.Fatalf("periodic last sample should be non-zero: %v", b[15])
	}
	if a[15] != 0 && math.Abs(a[15]) > 1e-15 {
		t.Fatalf("symmetric last sample should be zero: %v", a[15])
	}
	if math.Abs(b[8]-1) > 1e-15 {
		t.Fatalf("periodic peak = %v, want 1", b[8])
	}
}

func TestRectangularAndFamily(t *testing.T) {
	for _, typ := range []Type{TypeRectangular, TypeHann, TypeHamming, TypeBlackman, TypeBlackmanHarris} {
		t.Run(typ.String(), func(t *testing.T) {
			w := Generate(typ, 64)
			if len(w) != 64 {
				t.Fatalf("len=%d, want 64", len(w))
			}
			testutil.RequireFinite(t, w)
			for i, v := range w {
				if v < -1e-12 || v > 1+1e-12 {
					t.Fatalf("coefficient[%d]=%v outside [0,1]", i, v)
				}
			}
		})
	}

	for i, v := range Generate(TypeRectangular, 8) {
		if v != 1 {
			t.Fatalf("rectangular[%d]=%v, want 1", i, v)
		}
	}
}

func TestGenerateInvalidLength(t *testing.T) {
	if w := Generate(TypeHann, 0); w != nil {
		t.Fatalf("expected nil for zero length, got %v", w)
	}
	if _, err := Hann(-1); err == nil {
		t.Fatal("expected error for negative size")
	}
}

func TestApplyCoefficients(t *testing.T) {
	samples := []float64{1, 2, 3, 4}
	coeffs := []float64{0, 0.5, 0.5, 1}
	dst := make([]float64, 4)

	if err := ApplyCoefficients(dst, samples, coeffs); err != nil {
		t.Fatalf("ApplyCoefficients error: %v", err)
	}
	testutil.RequireSliceNearlyEqual(t, dst, []float64{0, 1, 1.5, 4}, 1e-15)

	if err := ApplyCoefficients(dst, samples, coeffs[:3]); err == nil {
		t.Fatal("expected length mismatch error")
	}
}

func TestCoherentGain(t *testing.T) {
	g, err := coherentGain(Generate(TypeHann, 1024, WithPeriodic()))
	if err != nil {
		t.Fatalf("coherentGain error: %v", err)
	}
	if math.Abs(g-0.5) > 1e-12 {
		t.Fatalf("periodic Hann coherent gain = %v, want 0.5", g)
	}
	if _, err := coherentGain(nil); err == nil {
		t.Fatal("expected error for empty coefficients")
	}
}
