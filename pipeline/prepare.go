package pipeline

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/cwbudde/algo-anomaly/dataset"
	"github.com/cwbudde/algo-anomaly/dsp/spectral"
	"github.com/cwbudde/algo-anomaly/internal/config"
	"github.com/cwbudde/algo-anomaly/internal/rng"
	"github.com/cwbudde/algo-anomaly/metrics"
	"github.com/cwbudde/algo-anomaly/nn"
	"github.com/cwbudde/algo-anomaly/prep/scaler"
	"github.com/cwbudde/algo-anomaly/prep/smote"
)

// SpectralParams are the transform settings a prediction must repeat.
type SpectralParams struct {
	WindowSize    int     `json:"window_size"`
	Overlap       int     `json:"overlap"`
	SampleRate    float64 `json:"sample_rate"`
	PeriodicTaper bool    `json:"periodic_taper,omitempty"`
}

// SpectralFrom copies the transform settings out of cfg.
func SpectralFrom(cfg config.SpectralConfig) SpectralParams {
	return SpectralParams{
		WindowSize:    cfg.WindowSize,
		Overlap:       cfg.Overlap,
		SampleRate:    cfg.SampleRate,
		PeriodicTaper: cfg.PeriodicTaper,
	}
}

// Transform returns the spectra of x as a (sequences, windows, bins) tensor
// and the bin frequencies.
func (p SpectralParams) Transform(x [][]float64) (*nn.Tensor, []float64, error) {
	var opts []spectral.Option
	if p.PeriodicTaper {
		opts = append(opts, spectral.WithPeriodicTaper())
	}
	s, freqs, err := spectral.Transform(x, p.WindowSize, p.Overlap, p.SampleRate, opts...)
	if err != nil {
		return nil, nil, err
	}
	t, err := nn.FromSamples(s.Data, s.Windows, s.Bins)
	if err != nil {
		return nil, nil, err
	}
	return t, freqs, nil
}

// Prepared holds the model-ready partitions. It is not modified after
// Prepare returns and may be shared by every trial.
type Prepared struct {
	Train, Valid, Test    *nn.Tensor
	TrainY, ValidY, TestY []int

	// Freqs are the bin frequencies of the last tensor axis.
	Freqs []float64

	// ClassWeights are computed from the balanced training labels.
	ClassWeights map[int]float64

	Scaler   *scaler.Scaler
	Spectral SpectralParams

	// Synthesized counts the rows added by the balancer.
	Synthesized int
}

// InputShape is the per-sample (windows, bins) shape.
func (p *Prepared) InputShape() []int {
	return append([]int(nil), p.Train.SampleShape()...)
}

// Prepare splits ds, balances and scales the training partition, applies
// the frozen scaler to the other two, and transforms all three.
func Prepare(ds *dataset.Dataset, cfg config.Config, log zerolog.Logger) (*Prepared, error) {
	split, err := dataset.SplitStratified(ds, cfg.Split.Train, cfg.Split.Valid, cfg.Split.Test,
		rng.New(cfg.Seed, rng.Splitter))
	if err != nil {
		return nil, err
	}
	log.Info().
		Int("train", split.Train.Len()).
		Int("valid", split.Valid.Len()).
		Int("test", split.Test.Len()).
		Msg("split dataset")

	balanced, err := smote.Balance(split.Train.Features(), split.Train.Labels(),
		smote.WithNeighbors(cfg.Balance.Neighbors),
		smote.WithRand(rng.New(cfg.Seed, rng.Balancer)))
	if err != nil {
		return nil, errors.Wrap(err, "pipeline: balance training split")
	}
	log.Info().
		Int("synthesized", balanced.Synthesized).
		Interface("counts", balanced.Counts()).
		Msg("balanced training split")

	sc, err := scaler.Fit(balanced.X)
	if err != nil {
		return nil, err
	}
	trainX, err := sc.Transform(balanced.X)
	if err != nil {
		return nil, err
	}
	validX, err := sc.Transform(split.Valid.Features())
	if err != nil {
		return nil, err
	}
	testX, err := sc.Transform(split.Test.Features())
	if err != nil {
		return nil, err
	}

	weights, err := metrics.ClassWeights(balanced.Y)
	if err != nil {
		return nil, err
	}

	p := &Prepared{
		TrainY:       balanced.Y,
		ValidY:       split.Valid.Labels(),
		TestY:        split.Test.Labels(),
		ClassWeights: weights,
		Scaler:       sc,
		Spectral:     SpectralFrom(cfg.Spectral),
		Synthesized:  balanced.Synthesized,
	}
	if p.Train, p.Freqs, err = p.Spectral.Transform(trainX); err != nil {
		return nil, errors.Wrap(err, "pipeline: transform train")
	}
	if p.Valid, _, err = p.Spectral.Transform(validX); err != nil {
		return nil, errors.Wrap(err, "pipeline: transform valid")
	}
	if p.Test, _, err = p.Spectral.Transform(testX); err != nil {
		return nil, errors.Wrap(err, "pipeline: transform test")
	}

	log.Info().
		Ints("train_shape", p.Train.Shape).
		Ints("valid_shape", p.Valid.Shape).
		Ints("test_shape", p.Test.Shape).
		Interface("class_weights", weights).
		Msg("prepared spectra")
	return p, nil
}
