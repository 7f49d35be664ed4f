package pipeline

import (
	"math/rand/v2"

	"github.com/pkg/errors"

	"github.com/cwbudde/algo-anomaly/internal/config"
	"github.com/cwbudde/algo-anomaly/internal/fault"
	"github.com/cwbudde/algo-anomaly/internal/rng"
	"github.com/cwbudde/algo-anomaly/metrics"
	"github.com/cwbudde/algo-anomaly/model"
	"github.com/cwbudde/algo-anomaly/nn"
	"github.com/cwbudde/algo-anomaly/search"
)

// Protocol is the training procedure shared by search trials and the final
// run.
type Protocol struct {
	Epochs    int
	BatchSize int
	Patience  int
	Threshold float64
	DenseL2   float64
}

// ProtocolFrom copies the training settings out of cfg.
func ProtocolFrom(cfg config.TrainConfig) Protocol {
	return Protocol{
		Epochs:    cfg.Epochs,
		BatchSize: cfg.BatchSize,
		Patience:  cfg.Patience,
		Threshold: cfg.Threshold,
		DenseL2:   cfg.DenseL2,
	}
}

// Evaluation holds the held-out metrics of a trained classifier.
type Evaluation struct {
	ValidLoss     float64           `json:"valid_loss"`
	ValidAccuracy float64           `json:"valid_accuracy"`
	ValidF1       float64           `json:"valid_f1"`
	TestF1        float64           `json:"test_f1"`
	TestAccuracy  float64           `json:"test_accuracy"`
	Confusion     metrics.Confusion `json:"confusion"`
}

// Objective returns the search objective over p: build the sampled
// configuration, train it, and score F1 on the validation partition.
// Every random stream of trial n derives from seed and n.
func Objective(p *Prepared, proto Protocol, seed uint64) search.Objective {
	return func(t *search.Trial) (float64, error) {
		c, err := model.FromParams(t.Params)
		if err != nil {
			return 0, err
		}

		m, hist, err := train(p, c, proto,
			rng.ForTrial(seed, rng.ModelInit, t.Number),
			rng.ForTrial(seed, rng.Dropout, t.Number),
			rng.ForTrial(seed, rng.Shuffle, t.Number))
		t.Epochs = len(hist.Epochs)
		if err != nil {
			return 0, err
		}

		probs, err := m.Predict(p.Valid, proto.BatchSize)
		if err != nil {
			return 0, err
		}
		conf, err := metrics.Score(p.ValidY, probs, proto.Threshold)
		if err != nil {
			return 0, err
		}
		return conf.F1(), nil
	}
}

// FinalTrain rebuilds c and retrains it under proto with the generators
// reserved for the final run.
func FinalTrain(p *Prepared, c model.Config, proto Protocol, seed uint64) (*nn.Sequential, nn.History, error) {
	return train(p, c, proto, rng.New(seed, rng.ModelInit), rng.New(seed, rng.Dropout), rng.New(seed, rng.Shuffle))
}

// train fits a fresh model. A diverging loss is reported as a configuration
// error so the search records the trial as failed and moves on.
func train(p *Prepared, c model.Config, proto Protocol, init, dropout, shuffle *rand.Rand) (*nn.Sequential, nn.History, error) {
	m, err := model.Build(c, p.InputShape(), init, model.WithDenseL2(proto.DenseL2))
	if err != nil {
		return nil, nn.History{}, err
	}

	hist, err := m.Fit(c.Optimizer(), p.Train, p.TrainY, p.Valid, p.ValidY, nn.FitConfig{
		Epochs:       proto.Epochs,
		BatchSize:    proto.BatchSize,
		Patience:     proto.Patience,
		ClassWeights: p.ClassWeights,
		Shuffle:      shuffle,
		Dropout:      dropout,
	})
	if err != nil {
		if errors.Is(err, fault.ErrNumeric) {
			return nil, hist, fault.Configuration("pipeline: training diverged with %s: %v", c, err)
		}
		return nil, hist, err
	}
	return m, hist, nil
}

// Evaluate scores m once on the validation and once on the test partition.
func Evaluate(m *nn.Sequential, p *Prepared, proto Protocol) (Evaluation, error) {
	var ev Evaluation

	loss, acc, err := m.Evaluate(p.Valid, p.ValidY, proto.BatchSize)
	if err != nil {
		return ev, errors.Wrap(err, "pipeline: evaluate validation")
	}
	ev.ValidLoss, ev.ValidAccuracy = loss, acc

	probs, err := m.Predict(p.Valid, proto.BatchSize)
	if err != nil {
		return ev, err
	}
	valid, err := metrics.Score(p.ValidY, probs, proto.Threshold)
	if err != nil {
		return ev, err
	}
	ev.ValidF1 = valid.F1()

	probs, err = m.Predict(p.Test, proto.BatchSize)
	if err != nil {
		return ev, errors.Wrap(err, "pipeline: predict test")
	}
	if ev.Confusion, err = metrics.Score(p.TestY, probs, proto.Threshold); err != nil {
		return ev, err
	}
	ev.TestF1 = ev.Confusion.F1()
	ev.TestAccuracy = ev.Confusion.Accuracy()
	return ev, nil
}
