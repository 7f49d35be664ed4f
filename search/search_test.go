package search

import (
	"bytes"
	"encoding/json"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-anomaly/internal/fault"
	"github.com/cwbudde/algo-anomaly/internal/rng"
)

func testSpace() *Space {
	return NewSpace().
		Int("filters", 32, 128, 16).
		Int("kernel", 1, 3, 1).
		Float("dropout", 0.3, 0.5).
		LogFloat("lr", 1e-5, 1e-2)
}

func TestDistributions(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))

	ints := IntRange{Low: 32, High: 128, Step: 16}
	seen := map[float64]bool{}
	for i := 0; i < 2000; i++ {
		v := ints.Sample(r)
		require.True(t, ints.Contains(v), "%v", v)
		seen[v] = true
	}
	assert.Len(t, seen, 7)
	assert.False(t, ints.Contains(40))
	assert.False(t, ints.Contains(144))

	uni := Uniform{Low: 0.3, High: 0.5}
	logu := LogUniform{Low: 1e-6, High: 1e-2}
	below := 0
	for i := 0; i < 2000; i++ {
		require.True(t, uni.Contains(uni.Sample(r)))
		v := logu.Sample(r)
		require.True(t, logu.Contains(v))
		if v < 1e-4 {
			below++
		}
	}
	// Half the log-uniform mass lies below the geometric mean.
	assert.InDelta(t, 1000, below, 150)
}

func TestSpaceValidate(t *testing.T) {
	require.NoError(t, testSpace().Validate())

	cases := []*Space{
		NewSpace(),
		NewSpace().Int("a", 5, 1, 1),
		NewSpace().Int("a", 1, 5, 0),
		NewSpace().Float("a", 1, 0),
		NewSpace().LogFloat("a", 0, 1),
		NewSpace().Float("", 0, 1),
	}
	for i, s := range cases {
		assert.True(t, errors.Is(s.Validate(), fault.ErrConfiguration), "case %d", i)
	}

	s := NewSpace().Int("a", 1, 2, 1).Int("b", 1, 2, 1).Int("a", 3, 4, 1)
	assert.Equal(t, []string{"a", "b"}, s.Names())
	d, ok := s.Distribution("a")
	require.True(t, ok)
	assert.Equal(t, IntRange{Low: 3, High: 4, Step: 1}, d)
}

func TestRandomSamplerDeterministic(t *testing.T) {
	space := testSpace()
	a := NewRandomSampler(rng.New(42, rng.Sampler))
	b := NewRandomSampler(rng.New(42, rng.Sampler))

	for i := 0; i < 10; i++ {
		pa, pb := a.Sample(space, i), b.Sample(space, i)
		assert.Equal(t, pa, pb)
		assert.True(t, space.Contains(pa))
	}
}

// scripted returns an objective that plays back values; a NaN entry fails
// the trial with a configuration error.
func scripted(values ...float64) Objective {
	i := 0
	return func(t *Trial) (float64, error) {
		v := values[i%len(values)]
		i++
		t.Epochs = 3
		if math.IsNaN(v) {
			return 0, fault.Configuration("kernel too large")
		}
		return v, nil
	}
}

func TestOptimizeTracksMaximum(t *testing.T) {
	study, err := NewStudy(testSpace(), WithSampler(NewRandomSampler(rng.New(1, rng.Sampler))))
	require.NoError(t, err)

	require.NoError(t, study.Optimize(scripted(0.2, 0.7, math.NaN(), 0.7, 0.5, math.NaN()), 6))
	trials := study.Trials()
	require.Len(t, trials, 6)

	best, err := study.Best()
	require.NoError(t, err)
	assert.Equal(t, 1, best.Number)
	assert.Equal(t, 0.7, best.Value)

	maxF1 := math.Inf(-1)
	for i, tr := range trials {
		assert.Equal(t, i, tr.Number)
		assert.Equal(t, 3, tr.Epochs)
		switch tr.State {
		case StateComplete:
			maxF1 = math.Max(maxF1, tr.Value)
		case StateFailed:
			assert.Contains(t, tr.Err, "kernel too large")
			assert.NotEqual(t, best.Number, tr.Number)
		default:
			t.Fatalf("trial %d left in state %v", i, tr.State)
		}
	}
	assert.Equal(t, maxF1, best.Value)

	// Continuing the study keeps numbering and the running best.
	require.NoError(t, study.Optimize(scripted(0.9), 1))
	best, err = study.Best()
	require.NoError(t, err)
	assert.Equal(t, 6, best.Number)
}

func TestOptimizeFailsOnOtherErrors(t *testing.T) {
	study, err := NewStudy(testSpace())
	require.NoError(t, err)

	boom := fault.Numeric("loss exploded")
	calls := 0
	err = study.Optimize(func(*Trial) (float64, error) {
		calls++
		if calls == 2 {
			return 0, boom
		}
		return 0.4, nil
	}, 5)

	assert.True(t, errors.Is(err, fault.ErrNumeric))
	assert.Equal(t, 2, calls)
	require.Len(t, study.Trials(), 2)
	assert.Equal(t, StateFailed, study.Trials()[1].State)
}

func TestNonFiniteValueFailsTrial(t *testing.T) {
	study, err := NewStudy(testSpace())
	require.NoError(t, err)

	require.NoError(t, study.Optimize(func(*Trial) (float64, error) { return math.Inf(1), nil }, 2))
	_, err = study.Best()
	assert.ErrorIs(t, err, ErrNoCompletedTrials)
	assert.ErrorIs(t, study.Export(filepath.Join(t.TempDir(), "p.json")), ErrNoCompletedTrials)
}

func TestExportAndTrialsCSV(t *testing.T) {
	study, err := NewStudy(testSpace(), WithSampler(NewRandomSampler(rng.New(3, rng.Sampler))))
	require.NoError(t, err)
	require.NoError(t, study.Optimize(scripted(0.1, math.NaN(), 0.8, 0.3), 4))

	dir := t.TempDir()
	path := filepath.Join(dir, "best_trial_params.json")
	require.NoError(t, study.Export(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var generic map[string]any
	require.NoError(t, json.Unmarshal(raw, &generic))
	assert.Contains(t, generic, "best_params")
	assert.Contains(t, generic, "best_value")

	exp, err := ReadExport(path)
	require.NoError(t, err)
	best, _ := study.Best()
	assert.Equal(t, best.Params, exp.BestParams)
	assert.Equal(t, 0.8, exp.BestValue)

	csvPath := filepath.Join(dir, "trials.csv")
	require.NoError(t, study.WriteTrialsCSV(csvPath))
	f, err := os.Open(csvPath)
	require.NoError(t, err)
	defer f.Close()

	var rows []TrialRow
	require.NoError(t, gocsv.UnmarshalFile(f, &rows))
	require.Len(t, rows, 4)
	assert.Equal(t, "failed", rows[1].State)
	assert.Equal(t, "complete", rows[2].State)
	assert.Contains(t, rows[0].Params, "filters=")
}

func TestStudyLogsTrials(t *testing.T) {
	var buf bytes.Buffer
	study, err := NewStudy(testSpace(), WithLogger(zerolog.New(&buf)))
	require.NoError(t, err)
	require.NoError(t, study.Optimize(scripted(0.5, math.NaN()), 2))

	out := buf.String()
	assert.Contains(t, out, `"trial":0`)
	assert.Contains(t, out, `"f1":0.5`)
	assert.Contains(t, out, `"state":"failed"`)
	assert.Contains(t, out, `"level":"warn"`)
}

func TestNewStudyRejectsBadInput(t *testing.T) {
	_, err := NewStudy(nil)
	assert.True(t, errors.Is(err, fault.ErrConfiguration))

	study, err := NewStudy(testSpace())
	require.NoError(t, err)
	assert.True(t, errors.Is(study.Optimize(scripted(1), 0), fault.ErrConfiguration))
}
