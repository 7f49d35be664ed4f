package signal

import (
	"math"
	"math/rand/v2"

	"github.com/cwbudde/algo-anomaly/internal/fault"
)

// Defaults of a new Generator. DefaultLength gives seven windows under the
// default 1024/512 spectral framing, enough for kernel sizes up to 2.
const (
	DefaultSampleRate = 1024.0
	DefaultLength     = 4096
	DefaultTone       = 50.0
	DefaultAmplitude  = 1.0
	DefaultNoise      = 0.2
)

// Fault is an anomaly signature.
type Fault int

const (
	// ImpulseBurst adds short high-amplitude spikes at random positions.
	ImpulseBurst Fault = iota
	// ToneShift moves the base tone up in frequency.
	ToneShift
	// AmplitudeDrift ramps the amplitude over the sequence.
	AmplitudeDrift

	numFaults
)

var faultNames = [...]string{"impulse_burst", "tone_shift", "amplitude_drift"}

func (f Fault) String() string {
	if f < 0 || f >= numFaults {
		return "unknown"
	}
	return faultNames[f]
}

// Generator creates deterministic sensor sequences. It is not safe for
// concurrent use.
type Generator struct {
	sampleRate float64
	length     int
	tone       float64
	amplitude  float64
	noise      float64
	r          *rand.Rand
}

// Option configures a Generator.
type Option func(*Generator)

// WithSampleRate sets the sample rate in Hz.
func WithSampleRate(sr float64) Option {
	return func(g *Generator) { g.sampleRate = sr }
}

// WithLength sets the samples per sequence.
func WithLength(n int) Option {
	return func(g *Generator) { g.length = n }
}

// WithTone sets the base tone frequency and amplitude.
func WithTone(freqHz, amplitude float64) Option {
	return func(g *Generator) {
		g.tone = freqHz
		g.amplitude = amplitude
	}
}

// WithNoise sets the white noise amplitude.
func WithNoise(amplitude float64) Option {
	return func(g *Generator) { g.noise = amplitude }
}

// WithRand sets the random source. The default is a fixed seed.
func WithRand(r *rand.Rand) Option {
	return func(g *Generator) { g.r = r }
}

// NewGenerator validates the options and returns a Generator.
func NewGenerator(opts ...Option) (*Generator, error) {
	g := &Generator{
		sampleRate: DefaultSampleRate,
		length:     DefaultLength,
		tone:       DefaultTone,
		amplitude:  DefaultAmplitude,
		noise:      DefaultNoise,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	if g.r == nil {
		g.r = rand.New(rand.NewPCG(1, 1))
	}

	switch {
	case g.sampleRate <= 0:
		return nil, fault.Configuration("signal: sample rate must be > 0: %g", g.sampleRate)
	case g.length <= 0:
		return nil, fault.Configuration("signal: length must be > 0: %d", g.length)
	case g.tone <= 0 || g.tone >= g.sampleRate/2:
		return nil, fault.Configuration("signal: tone %g Hz outside (0, %g)", g.tone, g.sampleRate/2)
	case g.amplitude < 0 || g.noise < 0:
		return nil, fault.Configuration("signal: amplitudes must be >= 0")
	}
	return g, nil
}

// SampleRate returns the configured sample rate.
func (g *Generator) SampleRate() float64 { return g.sampleRate }

// Length returns the samples per sequence.
func (g *Generator) Length() int { return g.length }

// Sine generates amplitude*sin(2*pi*freqHz*n/sampleRate + phase).
func (g *Generator) Sine(freqHz, amplitude, phase float64, samples int) ([]float64, error) {
	if samples <= 0 {
		return nil, fault.Configuration("signal: sine samples must be > 0: %d", samples)
	}
	out := make([]float64, samples)
	step := 2 * math.Pi * freqHz / g.sampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i)+phase)
	}
	return out, nil
}

// WhiteNoise generates uniform noise in [-amplitude, amplitude] and
// advances the random source.
func (g *Generator) WhiteNoise(amplitude float64, samples int) ([]float64, error) {
	if samples <= 0 {
		return nil, fault.Configuration("signal: noise samples must be > 0: %d", samples)
	}
	if amplitude < 0 {
		return nil, fault.Configuration("signal: noise amplitude must be >= 0: %g", amplitude)
	}
	out := make([]float64, samples)
	for i := range out {
		out[i] = (g.r.Float64()*2 - 1) * amplitude
	}
	return out, nil
}

// Healthy returns one normal sequence.
func (g *Generator) Healthy() []float64 {
	return g.base(g.tone)
}

// Anomaly returns one sequence carrying the signature f.
func (g *Generator) Anomaly(f Fault) ([]float64, error) {
	switch f {
	case ImpulseBurst:
		out := g.base(g.tone)
		bursts := 1 + g.r.IntN(3)
		for b := 0; b < bursts; b++ {
			at := g.r.IntN(g.length)
			width := 1 + g.r.IntN(8)
			sign := 1.0
			if g.r.IntN(2) == 0 {
				sign = -1
			}
			for i := at; i < at+width && i < g.length; i++ {
				out[i] += sign * 4 * g.amplitude * (1 + g.r.Float64())
			}
		}
		return out, nil
	case ToneShift:
		shifted := g.tone * (1.5 + g.r.Float64())
		if shifted >= g.sampleRate/2 {
			shifted = g.sampleRate / 2 * 0.9
		}
		return g.base(shifted), nil
	case AmplitudeDrift:
		out := g.base(g.tone)
		gain := 1 + g.r.Float64()
		for i := range out {
			out[i] *= 1 + gain*float64(i)/float64(g.length)
		}
		return out, nil
	default:
		return nil, fault.Configuration("signal: unknown fault %d", int(f))
	}
}

// Corpus generates healthy and anomalous sequences. Anomalies cycle
// through every Fault in declaration order.
func (g *Generator) Corpus(healthy, anomalies int) ([][]float64, [][]float64, error) {
	if healthy < 0 || anomalies < 0 {
		return nil, nil, fault.Configuration("signal: negative corpus size")
	}
	h := make([][]float64, healthy)
	for i := range h {
		h[i] = g.Healthy()
	}
	a := make([][]float64, anomalies)
	for i := range a {
		seq, err := g.Anomaly(Fault(i % int(numFaults)))
		if err != nil {
			return nil, nil, err
		}
		a[i] = seq
	}
	return h, a, nil
}

// base is tone + 0.3 * second harmonic + noise, with a random phase.
func (g *Generator) base(freqHz float64) []float64 {
	phase := g.r.Float64() * 2 * math.Pi
	step := 2 * math.Pi * freqHz / g.sampleRate
	out := make([]float64, g.length)
	for i := range out {
		arg := step*float64(i) + phase
		out[i] = g.amplitude*(math.Sin(arg)+0.3*math.Sin(2*arg)) + (g.r.Float64()*2-1)*g.noise
	}
	return out
}

// Normalize scales data to targetPeak and returns a new slice.
func Normalize(data []float64, targetPeak float64) ([]float64, error) {
	if targetPeak < 0 {
		return nil, fault.Configuration("signal: normalize target peak must be >= 0: %g", targetPeak)
	}
	if len(data) == 0 {
		return nil, fault.Input("signal: normalize input must not be empty")
	}

	maxAbs := 0.0
	for _, v := range data {
		maxAbs = math.Max(maxAbs, math.Abs(v))
	}

	out := make([]float64, len(data))
	if maxAbs == 0 || targetPeak == 0 {
		return out, nil
	}
	scale := targetPeak / maxAbs
	for i, v := range data {
		out[i] = v * scale
	}
	return out, nil
}
