// Package testutil provides deterministic sensor signals, labeled datasets,
// and tolerance assertions for tests.
package testutil

import (
	"math"
	"math/rand/v2"
)

// Sine returns amplitude*sin(2*pi*freqHz*n/sampleRate) for n in [0, length).
func Sine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}
	return out
}

// Noise returns uniform white noise in [-amplitude, amplitude] from seed.
func Noise(seed uint64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	r := rand.New(rand.NewPCG(seed, seed^0x5bd1e995))
	for i := range out {
		out[i] = (r.Float64()*2 - 1) * amplitude
	}
	return out
}

// Constant returns a signal holding value.
func Constant(value float64, length int) []float64 {
	out := make([]float64, length)
	for i := range out {
		out[i] = value
	}
	return out
}

// Healthy returns a vibration-like sequence: a 5 Hz tone plus light noise.
// Each index produces a different phase and noise stream.
func Healthy(index int, length int, sampleRate float64) []float64 {
	out := Sine(5, sampleRate, 1, length)
	noise := Noise(uint64(index)+1, 0.1, length)
	shift := float64(index%7) * 0.01
	for i := range out {
		out[i] += noise[i] + shift
	}
	return out
}

// Anomaly returns a healthy-like sequence with a strong high-frequency
// component added, which dominates the upper spectral bins.
func Anomaly(index int, length int, sampleRate float64) []float64 {
	out := Healthy(index+10_000, length, sampleRate)
	hf := Sine(sampleRate/4, sampleRate, 0.8, length)
	for i := range out {
		out[i] += hf[i]
	}
	return out
}

// Labeled returns healthy followed by anomaly sequences with their labels.
func Labeled(healthy, anomalies, length int, sampleRate float64) ([][]float64, []int) {
	x := make([][]float64, 0, healthy+anomalies)
	y := make([]int, 0, healthy+anomalies)
	for i := 0; i < healthy; i++ {
		x = append(x, Healthy(i, length, sampleRate))
		y = append(y, 0)
	}
	for i := 0; i < anomalies; i++ {
		x = append(x, Anomaly(i, length, sampleRate))
		y = append(y, 1)
	}
	return x, y
}
