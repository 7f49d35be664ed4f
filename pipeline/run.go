package pipeline

import (
	"os"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/cwbudde/algo-anomaly/dataset"
	"github.com/cwbudde/algo-anomaly/internal/config"
	"github.com/cwbudde/algo-anomaly/internal/rng"
	"github.com/cwbudde/algo-anomaly/model"
	"github.com/cwbudde/algo-anomaly/nn"
	"github.com/cwbudde/algo-anomaly/report"
	"github.com/cwbudde/algo-anomaly/search"
)

// Result summarizes a finished run.
type Result struct {
	RunID      string
	Best       search.Trial
	Config     model.Config
	History    nn.History
	Evaluation Evaluation
	Files      []string
}

// Option configures Run.
type Option func(*runner)

// WithLogger sets the logger receiving stage and trial events.
func WithLogger(l zerolog.Logger) Option {
	return func(r *runner) { r.log = l }
}

// WithDataset skips loading and runs on ds.
func WithDataset(ds *dataset.Dataset) Option {
	return func(r *runner) { r.ds = ds }
}

type runner struct {
	cfg config.Config
	log zerolog.Logger
	ds  *dataset.Dataset
	id  string
}

// Run executes the whole experiment described by cfg and writes its
// artifacts to cfg.Output.Dir. When every trial fails the trial history is
// still written and the error wraps search.ErrNoCompletedTrials.
func Run(cfg config.Config, opts ...Option) (*Result, error) {
	r := &runner{cfg: cfg, log: zerolog.Nop(), id: uuid.NewString()}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.With().Str("run", r.id).Logger()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.Output.Dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "pipeline: create %s", cfg.Output.Dir)
	}

	start := time.Now()
	res, err := r.run()
	if err != nil {
		return res, err
	}
	r.log.Info().
		Dur("elapsed", time.Since(start)).
		Float64("test_f1", res.Evaluation.TestF1).
		Float64("test_accuracy", res.Evaluation.TestAccuracy).
		Msg("run finished")
	return res, nil
}

func (r *runner) run() (*Result, error) {
	cfg := r.cfg
	res := &Result{RunID: r.id}

	ds := r.ds
	if ds == nil {
		var err error
		ds, err = dataset.Load(cfg.Data.Healthy, cfg.Data.Anomaly, rng.New(cfg.Seed, rng.Loader))
		if err != nil {
			return nil, err
		}
	}
	r.log.Info().Int("sequences", ds.Len()).Int("length", ds.SeqLen()).Interface("counts", ds.Counts()).Msg("loaded dataset")

	if cfg.Report.Enabled {
		ex, err := Explore(ds, cfg, true, r.log)
		if err != nil {
			return nil, err
		}
		res.Files = append(res.Files, ex.Files...)
	}

	prep, err := Prepare(ds, cfg, r.log)
	if err != nil {
		return nil, err
	}
	proto := ProtocolFrom(cfg.Train)

	windows := prep.InputShape()[0]
	study, err := search.NewStudy(model.SearchSpace(windows, cfg.Search.MaxKernelSize),
		search.WithSampler(search.NewRandomSampler(rng.New(cfg.Seed, rng.Sampler))),
		search.WithLogger(r.log))
	if err != nil {
		return nil, err
	}
	searchErr := study.Optimize(Objective(prep, proto, cfg.Seed), cfg.Search.Trials)

	trialsPath := cfg.OutputPath(cfg.Output.TrialsFile)
	if err := study.WriteTrialsCSV(trialsPath); err != nil {
		return nil, err
	}
	res.Files = append(res.Files, trialsPath)
	if searchErr != nil {
		return res, searchErr
	}

	best, err := study.Best()
	if err != nil {
		return res, errors.Wrapf(err, "pipeline: %d trials, windows=%d", cfg.Search.Trials, windows)
	}
	res.Best = best

	paramsPath := cfg.OutputPath(cfg.Output.ParamsFile)
	if err := study.Export(paramsPath); err != nil {
		return res, err
	}
	res.Files = append(res.Files, paramsPath)

	if res.Config, err = model.FromParams(best.Params); err != nil {
		return res, err
	}
	r.log.Info().Int("trial", best.Number).Float64("f1", best.Value).Str("config", res.Config.String()).Msg("best configuration")

	m, hist, err := FinalTrain(prep, res.Config, proto, cfg.Seed)
	if err != nil {
		return res, errors.Wrap(err, "pipeline: final training")
	}
	res.History = hist
	r.log.Info().Int("epochs", len(hist.Epochs)).Int("best_epoch", hist.Best().Epoch).Bool("stopped", hist.Stopped).Msg("final model trained")

	if res.Evaluation, err = Evaluate(m, prep, proto); err != nil {
		return res, err
	}
	c := res.Evaluation.Confusion
	r.log.Info().
		Float64("val_loss", res.Evaluation.ValidLoss).
		Float64("val_accuracy", res.Evaluation.ValidAccuracy).
		Float64("val_f1", res.Evaluation.ValidF1).
		Float64("test_f1", res.Evaluation.TestF1).
		Int("tn", c.TN).Int("fp", c.FP).Int("fn", c.FN).Int("tp", c.TP).
		Msg("evaluated final model")

	files, err := r.persist(m, prep, res)
	res.Files = append(res.Files, files...)
	return res, err
}

// persist writes the model artifact, the loss history, and the training
// plots.
func (r *runner) persist(m *nn.Sequential, prep *Prepared, res *Result) ([]string, error) {
	cfg := r.cfg
	var files []string

	a := m.Artifact(map[string]string{
		"run_id":     res.RunID,
		"best_trial": strconv.Itoa(res.Best.Number),
		"best_f1":    strconv.FormatFloat(res.Best.Value, 'g', -1, 64),
		"test_f1":    strconv.FormatFloat(res.Evaluation.TestF1, 'g', -1, 64),
		"config":     res.Config.String(),
	})
	if err := a.SetExtra(PreprocessKey, Preprocess{
		Scaler:    prep.Scaler.Params(),
		Spectral:  prep.Spectral,
		Threshold: cfg.Train.Threshold,
	}); err != nil {
		return files, err
	}

	modelPath := cfg.OutputPath(cfg.Output.ModelFile)
	if err := nn.SaveArtifact(modelPath, a); err != nil {
		return files, err
	}
	files = append(files, modelPath)
	r.log.Info().
		Str("path", modelPath).
		Str("size", humanize.Bytes(fileSize(modelPath))).
		Int("params", m.ParamCount()).
		Msg("saved model artifact")

	historyPath := cfg.OutputPath(cfg.Output.HistoryFile)
	if err := writeCSV(historyPath, res.History.Epochs); err != nil {
		return files, err
	}
	files = append(files, historyPath)

	if !cfg.Report.Enabled {
		return files, nil
	}
	lossPath := cfg.OutputPath(report.LossFile)
	if err := report.LossCurves(lossPath, res.History); err != nil {
		return files, err
	}
	files = append(files, lossPath)

	confPath := cfg.OutputPath(report.ConfusionFile)
	if err := report.Confusion(confPath, res.Evaluation.Confusion); err != nil {
		return files, err
	}
	return append(files, confPath), nil
}
