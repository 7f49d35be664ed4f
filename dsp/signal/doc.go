// Package signal generates seeded synthetic sensor sequences.
//
// Healthy sequences are a base tone with random phase, a weaker second
// harmonic, and white noise. Anomalous sequences start from the same model
// and add one fault signature: impulse bursts, a shifted tone, or an
// amplitude drift. All randomness comes from the generator's *rand.Rand, so
// a seed reproduces a whole corpus.
package signal
