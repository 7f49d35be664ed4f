// Package rng hands out explicitly seeded random generators.
//
// Every stochastic stage receives its own *rand.Rand derived from one root
// seed plus a fixed per-component offset, so a stage's draws never depend on
// how many numbers another stage consumed.
package rng

import "math/rand/v2"

// Component identifies a stochastic stage. The value is the seed offset.
type Component uint64

const (
	Loader    Component = 1
	Splitter  Component = 2
	Balancer  Component = 3
	ModelInit Component = 4
	Dropout   Component = 5
	Shuffle   Component = 6
	Sampler   Component = 7
	Synth     Component = 8
	Explore   Component = 9
)

const stream = 0x9e3779b97f4a7c15

// trialStride separates the seeds of consecutive trials for one component.
const trialStride = 1 << 20

// New returns a generator seeded with root + c.
func New(root uint64, c Component) *rand.Rand {
	return rand.New(rand.NewPCG(root+uint64(c), stream))
}

// ForTrial returns a generator for component c inside trial n. Trial 0 of a
// component differs from New(root, c) so retraining never replays a trial's
// exact stream by accident.
func ForTrial(root uint64, c Component, n int) *rand.Rand {
	return rand.New(rand.NewPCG(root+uint64(c)+uint64(n+1)*trialStride, stream))
}
