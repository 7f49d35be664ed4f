package pipeline

import (
	"github.com/pkg/errors"

	"github.com/cwbudde/algo-anomaly/internal/fault"
	"github.com/cwbudde/algo-anomaly/metrics"
	"github.com/cwbudde/algo-anomaly/nn"
	"github.com/cwbudde/algo-anomaly/prep/scaler"
)

// PreprocessKey names the artifact extra that holds Preprocess.
const PreprocessKey = "preprocess"

// Preprocess is the frozen input treatment stored with a model.
type Preprocess struct {
	Scaler    scaler.Params  `json:"scaler"`
	Spectral  SpectralParams `json:"spectral"`
	Threshold float64        `json:"threshold"`
}

// Predictor classifies raw sequences with a stored model.
type Predictor struct {
	model     *nn.Sequential
	scaler    *scaler.Scaler
	spectral  SpectralParams
	threshold float64
	meta      map[string]string
}

// LoadPredictor restores the model artifact at path together with its
// preprocessing.
func LoadPredictor(path string) (*Predictor, error) {
	m, a, err := nn.LoadArtifact(path)
	if err != nil {
		return nil, err
	}
	var pre Preprocess
	if err := a.DecodeExtra(PreprocessKey, &pre); err != nil {
		return nil, err
	}
	return NewPredictor(m, pre, a.Meta)
}

// NewPredictor pairs m with its preprocessing.
func NewPredictor(m *nn.Sequential, pre Preprocess, meta map[string]string) (*Predictor, error) {
	sc, err := scaler.FromParams(pre.Scaler)
	if err != nil {
		return nil, errors.Wrap(err, "pipeline: restore scaler")
	}
	if pre.Threshold <= 0 || pre.Threshold >= 1 {
		return nil, fault.Configuration("pipeline: threshold %g outside (0, 1)", pre.Threshold)
	}
	return &Predictor{model: m, scaler: sc, spectral: pre.Spectral, threshold: pre.Threshold, meta: meta}, nil
}

// Meta returns the metadata stored with the model.
func (p *Predictor) Meta() map[string]string { return p.meta }

// SeqLen returns the sequence length the stored scaler was fitted on.
func (p *Predictor) SeqLen() int { return p.scaler.Features() }

// Predict returns the anomaly probability and the thresholded label of
// every sequence in x.
func (p *Predictor) Predict(x [][]float64, batchSize int) ([]float64, []int, error) {
	if len(x) == 0 {
		return nil, nil, fault.Input("pipeline: no sequences to classify")
	}
	scaled, err := p.scaler.Transform(x)
	if err != nil {
		return nil, nil, err
	}
	t, _, err := p.spectral.Transform(scaled)
	if err != nil {
		return nil, nil, err
	}
	probs, err := p.model.Predict(t, batchSize)
	if err != nil {
		return nil, nil, err
	}
	return probs, metrics.Threshold(probs, p.threshold), nil
}
