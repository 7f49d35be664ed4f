// Package spectral converts fixed-length sequences into stacks of windowed
// frequency-magnitude vectors (a short-time Fourier magnitude spectrogram).
//
// Each sequence is cut into frames of windowSize samples advanced by
// windowSize-overlap samples. Every frame is multiplied by a Hann taper,
// transformed with a forward FFT, and reduced to the magnitudes of the
// non-negative frequency bins. Magnitudes are not normalized by the window
// length, so values are comparable across calls with equal parameters.
//
// Shape law for a sequence of length L:
//
//	windows = (L - windowSize) / (windowSize - overlap) + 1
//	bins    = windowSize/2 + 1
package spectral
