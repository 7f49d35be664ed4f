package spectral

import (
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-anomaly/dsp/window"
	"github.com/cwbudde/algo-anomaly/internal/fault"
)

// Spectra holds the magnitude spectrogram of a batch of sequences.
//
// Data[i] is window-major: the magnitude of bin b in window w of sequence i
// is Data[i][w*Bins+b].
type Spectra struct {
	Windows int
	Bins    int
	Data    [][]float64
}

// Len returns the number of sequences.
func (s *Spectra) Len() int { return len(s.Data) }

// Window returns the magnitude vector of window w of sequence i. The slice
// aliases the underlying storage.
func (s *Spectra) Window(i, w int) []float64 {
	off := w * s.Bins
	return s.Data[i][off : off+s.Bins]
}

// Shape returns (sequences, windows, bins).
func (s *Spectra) Shape() (int, int, int) {
	return len(s.Data), s.Windows, s.Bins
}

// MeanSpectrum averages the magnitude vectors over all windows of the
// selected sequences. A nil selection averages every sequence.
func (s *Spectra) MeanSpectrum(selected []int) []float64 {
	out := make([]float64, s.Bins)
	if selected == nil {
		selected = make([]int, len(s.Data))
		for i := range selected {
			selected[i] = i
		}
	}
	if len(selected) == 0 || s.Windows == 0 {
		return out
	}

	for _, i := range selected {
		for w := 0; w < s.Windows; w++ {
			vecmath.AddBlockInPlace(out, s.Window(i, w))
		}
	}
	vecmath.ScaleBlock(out, out, 1/float64(len(selected)*s.Windows))
	return out
}

// Option configures a Transformer.
type Option func(*options)

type options struct {
	periodic bool
}

// WithPeriodicTaper uses the periodic (FFT framing) Hann form instead of the
// symmetric one.
func WithPeriodicTaper() Option {
	return func(o *options) {
		o.periodic = true
	}
}

// Shape returns the window and bin counts for a sequence of length seqLen.
func Shape(seqLen, windowSize, overlap int) (windows, bins int, err error) {
	if err := validateParams(windowSize, overlap); err != nil {
		return 0, 0, err
	}
	if seqLen < windowSize {
		return 0, 0, fault.Input("sequence length %d shorter than window size %d", seqLen, windowSize)
	}

	step := windowSize - overlap
	return (seqLen-windowSize)/step + 1, windowSize/2 + 1, nil
}

// Frequencies returns the bin center frequencies k*sampleRate/windowSize for
// k in [0, windowSize/2].
func Frequencies(windowSize int, sampleRate float64) []float64 {
	if windowSize <= 0 {
		return nil
	}

	out := make([]float64, windowSize/2+1)
	for k := range out {
		out[k] = float64(k) * sampleRate / float64(windowSize)
	}
	return out
}

// Transformer computes frame spectra for sequences of one fixed length. It
// owns scratch buffers and is not safe for concurrent use.
type Transformer struct {
	windowSize int
	step       int
	bins       int
	taper      []float64

	plan  *algofft.Plan[complex128]
	frame []float64
	in    []complex128
	out   []complex128
	re    []float64
	im    []float64
}

// NewTransformer prepares the FFT plan and taper for windowSize.
func NewTransformer(windowSize, overlap int, opts ...Option) (*Transformer, error) {
	if err := validateParams(windowSize, overlap); err != nil {
		return nil, err
	}

	var o options
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	var winOpts []window.Option
	if o.periodic {
		winOpts = append(winOpts, window.WithPeriodic())
	}

	taper, err := window.Hann(windowSize, winOpts...)
	if err != nil {
		return nil, fault.Configuration("spectral: taper: %v", err)
	}

	plan, err := algofft.NewPlan64(windowSize)
	if err != nil {
		return nil, fault.Configuration("spectral: fft plan for size %d: %v", windowSize, err)
	}

	bins := windowSize/2 + 1

	return &Transformer{
		windowSize: windowSize,
		step:       windowSize - overlap,
		bins:       bins,
		taper:      taper,
		plan:       plan,
		frame:      make([]float64, windowSize),
		in:         make([]complex128, windowSize),
		out:        make([]complex128, windowSize),
		re:         make([]float64, bins),
		im:         make([]float64, bins),
	}, nil
}

// Bins returns the number of non-negative frequency bins.
func (t *Transformer) Bins() int { return t.bins }

// Windows returns the frame count for a sequence of length seqLen.
func (t *Transformer) Windows(seqLen int) int {
	if seqLen < t.windowSize {
		return 0
	}
	return (seqLen-t.windowSize)/t.step + 1
}

// Sequence appends the magnitude vectors of every frame of seq to dst and
// returns the extended slice.
func (t *Transformer) Sequence(dst, seq []float64) ([]float64, error) {
	windows := t.Windows(len(seq))
	if windows == 0 {
		return dst, fault.Input("sequence length %d shorter than window size %d", len(seq), t.windowSize)
	}

	for w := 0; w < windows; w++ {
		start := w * t.step
		if err := window.ApplyCoefficients(t.frame, seq[start:start+t.windowSize], t.taper); err != nil {
			return dst, err
		}
		for i, v := range t.frame {
			t.in[i] = complex(v, 0)
		}

		if err := t.plan.Forward(t.out, t.in); err != nil {
			return dst, fault.Numeric("spectral: forward fft: %v", err)
		}

		for k := 0; k < t.bins; k++ {
			t.re[k] = real(t.out[k])
			t.im[k] = imag(t.out[k])
		}

		off := len(dst)
		dst = append(dst, make([]float64, t.bins)...)
		mag := dst[off:]
		vecmath.Magnitude(mag, t.re, t.im)

		for k, v := range mag {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return dst, fault.Numeric("spectral: non-finite magnitude at window %d bin %d", w, k)
			}
		}
	}

	return dst, nil
}

// Transform computes the magnitude spectrogram of every sequence and the bin
// frequencies. All sequences must share one length of at least windowSize.
func Transform(seqs [][]float64, windowSize, overlap int, sampleRate float64, opts ...Option) (*Spectra, []float64, error) {
	if sampleRate <= 0 {
		return nil, nil, fault.Configuration("spectral: sample rate must be > 0: %g", sampleRate)
	}
	if len(seqs) == 0 {
		return nil, nil, fault.Input("spectral: no sequences to transform")
	}

	seqLen := len(seqs[0])
	for i, s := range seqs {
		if len(s) != seqLen {
			return nil, nil, fault.Input("spectral: sequence %d has length %d, want %d", i, len(s), seqLen)
		}
		for j, v := range s {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, nil, fault.Numeric("spectral: non-finite sample at sequence %d index %d", i, j)
			}
		}
	}

	windows, bins, err := Shape(seqLen, windowSize, overlap)
	if err != nil {
		return nil, nil, err
	}

	tr, err := NewTransformer(windowSize, overlap, opts...)
	if err != nil {
		return nil, nil, err
	}

	out := &Spectra{
		Windows: windows,
		Bins:    bins,
		Data:    make([][]float64, len(seqs)),
	}
	for i, s := range seqs {
		row, err := tr.Sequence(make([]float64, 0, windows*bins), s)
		if err != nil {
			return nil, nil, err
		}
		out.Data[i] = row
	}

	return out, Frequencies(windowSize, sampleRate), nil
}

func validateParams(windowSize, overlap int) error {
	if windowSize < 2 {
		return fault.Configuration("spectral: window size must be >= 2: %d", windowSize)
	}
	if overlap < 0 || overlap >= windowSize {
		return fault.Configuration("spectral: overlap must be in [0, %d): %d", windowSize, overlap)
	}
	return nil
}
