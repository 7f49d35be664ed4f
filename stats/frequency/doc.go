// Package frequency computes shape descriptors of one-sided magnitude
// spectra.
//
// Bin frequencies are passed explicitly so the same code serves spectra of
// any window size; spectral.Frequencies produces them for the sliding-window
// transform. Descriptors are most useful on class-mean spectra, where they
// summarize how the energy of healthy and anomalous sequences is placed.
package frequency
