package pipeline

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/cwbudde/algo-anomaly/dataset"
	"github.com/cwbudde/algo-anomaly/dsp/spectral"
	"github.com/cwbudde/algo-anomaly/internal/config"
	"github.com/cwbudde/algo-anomaly/internal/rng"
	"github.com/cwbudde/algo-anomaly/report"
	"github.com/cwbudde/algo-anomaly/stats/describe"
	frequencystats "github.com/cwbudde/algo-anomaly/stats/frequency"
	signalstats "github.com/cwbudde/algo-anomaly/stats/signal"
)

// Exploration is the descriptive view of a dataset.
type Exploration struct {
	Summary  describe.Summary
	Signal   []signalstats.Stats
	Spectral []frequencystats.Stats

	// ACF holds the autocorrelation of the sequences of ds at ACFIndices,
	// drawn at random from the seed.
	ACF        [][]float64
	ACFIndices []int

	// Files lists everything written to the output directory.
	Files []string
}

// Explore describes ds and writes the statistics as CSV reports. With
// plots set it also renders the feature histogram and the autocorrelation
// plot.
func Explore(ds *dataset.Dataset, cfg config.Config, plots bool, log zerolog.Logger) (*Exploration, error) {
	if err := os.MkdirAll(cfg.Output.Dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "pipeline: create %s", cfg.Output.Dir)
	}

	summary, err := describe.Summarize(ds)
	if err != nil {
		return nil, err
	}
	ex := &Exploration{Summary: summary}
	log.Info().
		Int("sequences", summary.Sequences).
		Int("length", summary.Length).
		Interface("counts", summary.Counts).
		Int("non_finite", summary.NonFinite).
		Msg("described dataset")

	if ex.Signal, err = signalstats.ByClass(ds.Features(), ds.Labels()); err != nil {
		return nil, err
	}

	sp := SpectralFrom(cfg.Spectral)
	var opts []spectral.Option
	if sp.PeriodicTaper {
		opts = append(opts, spectral.WithPeriodicTaper())
	}
	spectra, freqs, err := spectral.Transform(ds.Features(), sp.WindowSize, sp.Overlap, sp.SampleRate, opts...)
	if err != nil {
		return nil, err
	}
	if ex.Spectral, err = frequencystats.ByClass(spectra, ds.Labels(), freqs); err != nil {
		return nil, err
	}
	for _, s := range ex.Spectral {
		log.Info().
			Int("class", s.Class).
			Float64("centroid", s.Centroid).
			Float64("rolloff", s.Rolloff).
			Float64("flatness", s.Flatness).
			Float64("peak_freq", s.PeakFreq).
			Msg("class-mean spectrum")
	}

	lags := min(cfg.Report.ACFLags, ds.SeqLen()-1)
	pick := rng.New(cfg.Seed, rng.Explore).Perm(ds.Len())
	for _, i := range pick[:min(cfg.Report.ACFSequences, ds.Len())] {
		acf, err := describe.Autocorrelation(ds.Record(i).Samples(), lags)
		if err != nil {
			return nil, errors.Wrapf(err, "pipeline: autocorrelation of sequence %d", i)
		}
		ex.ACF = append(ex.ACF, acf)
		ex.ACFIndices = append(ex.ACFIndices, i)
	}

	path := cfg.OutputPath(DescribeFile)
	if err := summary.WriteCSV(path); err != nil {
		return nil, err
	}
	ex.Files = append(ex.Files, path)

	path = cfg.OutputPath(SignalStatsFile)
	if err := writeCSV(path, ex.Signal); err != nil {
		return nil, err
	}
	ex.Files = append(ex.Files, path)

	path = cfg.OutputPath(SpectralStatsFile)
	if err := writeCSV(path, ex.Spectral); err != nil {
		return nil, err
	}
	ex.Files = append(ex.Files, path)

	if !plots {
		return ex, nil
	}

	feature := cfg.Report.FeatureIndex
	if feature >= ds.SeqLen() {
		log.Warn().Int("feature_index", feature).Int("length", ds.SeqLen()).Msg("feature index out of range, using the last feature")
		feature = ds.SeqLen() - 1
	}
	path = cfg.OutputPath(report.HistogramFile)
	if err := report.Histogram(path, fmt.Sprintf("Distribution of feature %d", feature), ds.Column(feature), report.DefaultBins); err != nil {
		return nil, err
	}
	ex.Files = append(ex.Files, path)

	if len(ex.ACF) > 0 {
		path = cfg.OutputPath(report.ACFFile)
		if err := report.ACF(path, "Autocorrelation of sample sequences", ex.ACF); err != nil {
			return nil, err
		}
		ex.Files = append(ex.Files, path)
	}
	return ex, nil
}
