package search

import (
	"encoding/json"
	"math"
	"math/rand/v2"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/cwbudde/algo-anomaly/internal/fault"
)

// ErrNoCompletedTrials is returned when a study has no completed trial to
// report.
var ErrNoCompletedTrials = errors.New("search: no completed trials")

// State is the lifecycle state of a trial.
type State int

const (
	StateRunning State = iota
	StateComplete
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateComplete:
		return "complete"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Trial is one evaluated configuration.
type Trial struct {
	Number   int
	State    State
	Params   map[string]float64
	Value    float64
	Err      string
	Duration time.Duration

	// Epochs may be set by the objective to record how long it trained.
	Epochs int
}

// Objective trains and scores the configuration in t.Params.
type Objective func(t *Trial) (float64, error)

// Option configures a Study.
type Option func(*Study)

// WithSampler replaces the default random sampler.
func WithSampler(s Sampler) Option {
	return func(st *Study) { st.sampler = s }
}

// WithLogger sets the logger receiving one event per trial.
func WithLogger(l zerolog.Logger) Option {
	return func(st *Study) { st.log = l }
}

// Study holds the trial history and the running best of a search.
type Study struct {
	space   *Space
	sampler Sampler
	log     zerolog.Logger

	trials []Trial
	best   int
}

// NewStudy returns a study over space. Without WithSampler it samples
// randomly from a zero-seeded generator.
func NewStudy(space *Space, opts ...Option) (*Study, error) {
	if space == nil {
		return nil, fault.Configuration("search: nil space")
	}
	if err := space.Validate(); err != nil {
		return nil, err
	}

	s := &Study{
		space: space,
		log:   zerolog.Nop(),
		best:  -1,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.sampler == nil {
		s.sampler = NewRandomSampler(rand.New(rand.NewPCG(0, 0)))
	}
	return s, nil
}

// Optimize runs n more trials. It returns early only when the objective
// fails with an error outside fault.ErrConfiguration; trials recorded so
// far are kept.
func (s *Study) Optimize(obj Objective, n int) error {
	if n < 1 {
		return fault.Configuration("search: trial count must be >= 1: %d", n)
	}

	for range n {
		t := Trial{
			Number: len(s.trials),
			State:  StateRunning,
			Params: s.sampler.Sample(s.space, len(s.trials)),
		}

		start := time.Now()
		value, err := obj(&t)
		t.Duration = time.Since(start)

		switch {
		case err != nil && errors.Is(err, fault.ErrConfiguration):
			t.State = StateFailed
			t.Err = err.Error()
		case err != nil:
			t.State = StateFailed
			t.Err = err.Error()
			s.trials = append(s.trials, t)
			s.log.Error().Err(err).Int("trial", t.Number).Msg("trial aborted the study")
			return errors.Wrapf(err, "search: trial %d", t.Number)
		case math.IsNaN(value) || math.IsInf(value, 0):
			t.State = StateFailed
			t.Err = "objective returned a non-finite value"
		default:
			t.State = StateComplete
			t.Value = value
		}

		s.trials = append(s.trials, t)
		if t.State == StateComplete && (s.best < 0 || t.Value > s.trials[s.best].Value) {
			s.best = len(s.trials) - 1
		}
		s.logTrial(t)
	}
	return nil
}

func (s *Study) logTrial(t Trial) {
	ev := s.log.Info()
	if t.State == StateFailed {
		ev = s.log.Warn().Str("error", t.Err)
	}
	ev = ev.Int("trial", t.Number).
		Str("state", t.State.String()).
		Int("epochs", t.Epochs).
		Dur("duration", t.Duration)
	if t.State == StateComplete {
		ev = ev.Float64("f1", t.Value)
	}
	if s.best >= 0 {
		ev = ev.Int("best_trial", s.best).Float64("best_f1", s.trials[s.best].Value)
	}
	ev.Msg("trial finished")
}

// Trials returns a copy of the trial history.
func (s *Study) Trials() []Trial {
	out := make([]Trial, len(s.trials))
	copy(out, s.trials)
	return out
}

// Best returns the completed trial with the highest value.
func (s *Study) Best() (Trial, error) {
	if s.best < 0 {
		return Trial{}, ErrNoCompletedTrials
	}
	return s.trials[s.best], nil
}

// Export is the persisted result of a study.
type Export struct {
	BestParams map[string]float64 `json:"best_params"`
	BestValue  float64            `json:"best_value"`
}

// Export writes the best parameters and value as JSON to path.
func (s *Study) Export(path string) error {
	best, err := s.Best()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(Export{BestParams: best.Params, BestValue: best.Value}, "", "  ")
	if err != nil {
		return errors.Wrap(err, "search: encode export")
	}
	return errors.Wrapf(os.WriteFile(path, append(data, '\n'), 0o644), "search: write %s", path)
}

// ReadExport reads a file written by Study.Export.
func ReadExport(path string) (Export, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Export{}, errors.Wrapf(fault.ErrInput, "search: read %s: %v", path, err)
	}
	var e Export
	if err := json.Unmarshal(data, &e); err != nil {
		return Export{}, errors.Wrapf(fault.ErrInput, "search: decode %s: %v", path, err)
	}
	return e, nil
}

// TrialRow is the CSV form of a trial.
type TrialRow struct {
	Number     int     `csv:"number"`
	State      string  `csv:"state"`
	Value      float64 `csv:"value"`
	Epochs     int     `csv:"epochs"`
	DurationMS int64   `csv:"duration_ms"`
	Params     string  `csv:"params"`
	Error      string  `csv:"error"`
}

// Rows converts the trial history for reporting.
func (s *Study) Rows() []TrialRow {
	rows := make([]TrialRow, len(s.trials))
	for i, t := range s.trials {
		rows[i] = TrialRow{
			Number:     t.Number,
			State:      t.State.String(),
			Value:      t.Value,
			Epochs:     t.Epochs,
			DurationMS: t.Duration.Milliseconds(),
			Params:     formatParams(t.Params),
			Error:      t.Err,
		}
	}
	return rows
}

// WriteTrialsCSV writes the trial history to path.
func (s *Study) WriteTrialsCSV(path string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "search: create %s", path)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	rows := s.Rows()
	return errors.Wrap(gocsv.Marshal(&rows, f), "search: write trials")
}

// formatParams renders params as name=value pairs in name order.
func formatParams(p map[string]float64) string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for i, name := range names {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(strconv.FormatFloat(p[name], 'g', -1, 64))
	}
	return b.String()
}
