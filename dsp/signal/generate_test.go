package signal

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/cwbudde/algo-anomaly/internal/fault"
)

func newTestGenerator(t *testing.T, seed uint64, opts ...Option) *Generator {
	t.Helper()
	opts = append([]Option{WithRand(rand.New(rand.NewPCG(seed, 0)))}, opts...)
	g, err := NewGenerator(opts...)
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}
	return g
}

func peak(x []float64) float64 {
	p := 0.0
	for _, v := range x {
		p = math.Max(p, math.Abs(v))
	}
	return p
}

func TestDefaults(t *testing.T) {
	g := newTestGenerator(t, 1)
	if g.SampleRate() != DefaultSampleRate || g.Length() != DefaultLength {
		t.Fatalf("defaults = %v/%d", g.SampleRate(), g.Length())
	}
	if n := len(g.Healthy()); n != DefaultLength {
		t.Fatalf("len = %d, want %d", n, DefaultLength)
	}
}

func TestCorpusDeterministic(t *testing.T) {
	h1, a1, err := newTestGenerator(t, 42, WithLength(64)).Corpus(3, 4)
	if err != nil {
		t.Fatal(err)
	}
	h2, a2, err := newTestGenerator(t, 42, WithLength(64)).Corpus(3, 4)
	if err != nil {
		t.Fatal(err)
	}
	if len(h1) != 3 || len(a1) != 4 {
		t.Fatalf("sizes = %d/%d", len(h1), len(a1))
	}
	for i := range h1 {
		for j := range h1[i] {
			if h1[i][j] != h2[i][j] {
				t.Fatalf("healthy %d differs at %d", i, j)
			}
		}
	}
	for i := range a1 {
		for j := range a1[i] {
			if a1[i][j] != a2[i][j] {
				t.Fatalf("anomaly %d differs at %d", i, j)
			}
		}
	}
}

func TestSeedsDiffer(t *testing.T) {
	a := newTestGenerator(t, 1, WithLength(32)).Healthy()
	b := newTestGenerator(t, 2, WithLength(32)).Healthy()
	same := true
	for i := range a {
		if a[i] != b[i] {
			same = false
			break
		}
	}
	if same {
		t.Fatal("expected different seeds to produce different sequences")
	}
}

func TestHealthyBounded(t *testing.T) {
	g := newTestGenerator(t, 3, WithTone(10, 1), WithNoise(0.1))
	// Tone plus harmonic never exceeds 1.3, noise adds at most 0.1.
	if p := peak(g.Healthy()); p > 1.4+1e-12 {
		t.Fatalf("peak = %v, want <= 1.4", p)
	}
}

func TestImpulseBurstExceedsHealthyPeak(t *testing.T) {
	g := newTestGenerator(t, 4, WithNoise(0))
	x, err := g.Anomaly(ImpulseBurst)
	if err != nil {
		t.Fatal(err)
	}
	if p := peak(x); p < 2.7 {
		t.Fatalf("peak = %v, want a burst above 2.7", p)
	}
}

func TestAmplitudeDriftGrows(t *testing.T) {
	g := newTestGenerator(t, 5, WithNoise(0), WithLength(1024))
	x, err := g.Anomaly(AmplitudeDrift)
	if err != nil {
		t.Fatal(err)
	}
	if peak(x[768:]) <= peak(x[:256]) {
		t.Fatalf("tail peak %v not above head peak %v", peak(x[768:]), peak(x[:256]))
	}
}

func TestToneShiftChangesCrossings(t *testing.T) {
	crossings := func(x []float64) int {
		n := 0
		for i := 1; i < len(x); i++ {
			if x[i-1]*x[i] < 0 {
				n++
			}
		}
		return n
	}
	g := newTestGenerator(t, 6, WithNoise(0), WithTone(8, 1))
	shifted, err := g.Anomaly(ToneShift)
	if err != nil {
		t.Fatal(err)
	}
	if crossings(shifted) <= crossings(g.Healthy()) {
		t.Fatal("shifted tone should cross zero more often")
	}
}

func TestFaultNames(t *testing.T) {
	if ImpulseBurst.String() != "impulse_burst" || Fault(99).String() != "unknown" {
		t.Fatalf("names = %q, %q", ImpulseBurst, Fault(99))
	}
	if _, err := newTestGenerator(t, 1).Anomaly(Fault(99)); !errors.Is(err, fault.ErrConfiguration) {
		t.Fatalf("err = %v", err)
	}
}

func TestNewGeneratorValidation(t *testing.T) {
	cases := map[string][]Option{
		"sample rate": {WithSampleRate(0)},
		"length":      {WithLength(0)},
		"nyquist":     {WithSampleRate(100), WithTone(50, 1)},
		"noise":       {WithNoise(-1)},
	}
	for name, opts := range cases {
		if _, err := NewGenerator(opts...); !errors.Is(err, fault.ErrConfiguration) {
			t.Errorf("%s: err = %v", name, err)
		}
	}
}

func TestSineAndNoiseErrors(t *testing.T) {
	g := newTestGenerator(t, 1)
	if _, err := g.Sine(10, 1, 0, 0); err == nil {
		t.Fatal("expected error for zero samples")
	}
	if _, err := g.WhiteNoise(-1, 4); err == nil {
		t.Fatal("expected error for negative amplitude")
	}
	n, err := g.WhiteNoise(0.5, 64)
	if err != nil {
		t.Fatal(err)
	}
	if p := peak(n); p > 0.5 {
		t.Fatalf("noise peak = %v", p)
	}
}

func TestNormalize(t *testing.T) {
	out, err := Normalize([]float64{-0.5, 1.0, -0.25}, 0.5)
	if err != nil {
		t.Fatalf("Normalize() error = %v", err)
	}
	if out[1] != 0.5 {
		t.Fatalf("peak = %v, want 0.5", out[1])
	}
	if _, err := Normalize(nil, 1); !errors.Is(err, fault.ErrInput) {
		t.Fatalf("err = %v", err)
	}
}
