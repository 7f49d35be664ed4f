package describe

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-anomaly/dataset"
	"github.com/cwbudde/algo-anomaly/internal/fault"
	"github.com/cwbudde/algo-anomaly/internal/testutil"
)

func smallDataset(t *testing.T) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.FromMatrix(
		[][]float64{{1, 10}, {2, 20}, {3, 30}, {4, 40}},
		[]int{0, 0, 1, 1},
	)
	require.NoError(t, err)
	return ds
}

func TestSummarize(t *testing.T) {
	s, err := Summarize(smallDataset(t))
	require.NoError(t, err)

	assert.Equal(t, 4, s.Sequences)
	assert.Equal(t, 2, s.Length)
	assert.Equal(t, map[int]int{0: 2, 1: 2}, s.Counts)
	assert.Equal(t, []int{0, 1}, s.Classes())
	assert.Zero(t, s.NonFinite)
	require.Len(t, s.Features, 2)

	f := s.Features[0]
	assert.Equal(t, 0, f.Feature)
	assert.Equal(t, 4, f.Count)
	assert.InDelta(t, 2.5, f.Mean, 1e-12)
	assert.InDelta(t, math.Sqrt(5.0/3), f.Std, 1e-12)
	assert.Equal(t, 1.0, f.Min)
	assert.Equal(t, 4.0, f.Max)
	assert.InDelta(t, 2.5, f.Median, 1e-12)
	assert.LessOrEqual(t, f.Min, f.Q1)
	assert.LessOrEqual(t, f.Q1, f.Median)
	assert.LessOrEqual(t, f.Median, f.Q3)
	assert.LessOrEqual(t, f.Q3, f.Max)

	assert.Equal(t, 1, s.Features[1].Feature)
	assert.InDelta(t, 25, s.Features[1].Mean, 1e-12)
}

func TestSummarizeSingleSequence(t *testing.T) {
	ds, err := dataset.FromMatrix([][]float64{{3, 4}}, []int{1})
	require.NoError(t, err)

	s, err := Summarize(ds)
	require.NoError(t, err)
	assert.Zero(t, s.Features[0].Std)
	assert.Equal(t, 3.0, s.Features[0].Q1)
	assert.Equal(t, 3.0, s.Features[0].Q3)
}

func TestSummarizeEmpty(t *testing.T) {
	_, err := Summarize(nil)
	assert.ErrorIs(t, err, fault.ErrInput)
}

func TestDescribeColumnSkipsNonFinite(t *testing.T) {
	f, bad, err := describeColumn([]float64{1, math.NaN(), 3, math.Inf(1)})
	require.NoError(t, err)
	assert.Equal(t, 2, bad)
	assert.Equal(t, 2, f.Count)
	assert.InDelta(t, 2, f.Mean, 1e-12)

	_, _, err = describeColumn([]float64{math.NaN()})
	assert.ErrorIs(t, err, fault.ErrNumeric)
}

func TestSummaryCSVRoundTrip(t *testing.T) {
	s, err := Summarize(smallDataset(t))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "describe.csv")
	require.NoError(t, s.WriteCSV(path))

	rows, err := ReadCSV(path)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, s.Features[1].Feature, rows[1].Feature)
	assert.InDelta(t, s.Features[1].Std, rows[1].Std, 1e-9)
	assert.InDelta(t, s.Features[1].Q3, rows[1].Q3, 1e-9)
}

func TestAutocorrelation(t *testing.T) {
	acf, err := Autocorrelation([]float64{1, 2, 3, 4}, 3)
	require.NoError(t, err)
	testutil.RequireSliceNearlyEqual(t, acf, []float64{1, 0.25, -0.3, -0.45}, 1e-12)

	acf, err = Autocorrelation([]float64{1, -1, 1, -1}, 1)
	require.NoError(t, err)
	testutil.RequireSliceNearlyEqual(t, acf, []float64{1, -0.75}, 1e-12)
}

func TestAutocorrelationPeriodic(t *testing.T) {
	seq := testutil.Sine(4, 64, 1, 256)
	acf, err := Autocorrelation(seq, 32)
	require.NoError(t, err)

	// Period 16: strong positive correlation at lag 16, negative at lag 8.
	assert.Greater(t, acf[16], 0.9)
	assert.Less(t, acf[8], -0.9)
	for _, v := range acf {
		assert.LessOrEqual(t, math.Abs(v), 1+1e-12)
	}
}

func TestAutocorrelationEdgeCases(t *testing.T) {
	acf, err := Autocorrelation(testutil.Constant(2, 8), 3)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0, 0}, acf)

	_, err = Autocorrelation(nil, 1)
	assert.ErrorIs(t, err, fault.ErrInput)

	_, err = Autocorrelation([]float64{1, 2}, 2)
	assert.ErrorIs(t, err, fault.ErrConfiguration)

	_, err = Autocorrelation([]float64{1, math.NaN()}, 1)
	assert.ErrorIs(t, err, fault.ErrNumeric)
}

func TestMeanAutocorrelation(t *testing.T) {
	got, err := MeanAutocorrelation([][]float64{{1, 2, 3, 4}, {1, -1, 1, -1}}, 1)
	require.NoError(t, err)
	testutil.RequireSliceNearlyEqual(t, got, []float64{1, (0.25 - 0.75) / 2}, 1e-12)

	_, err = MeanAutocorrelation(nil, 1)
	assert.ErrorIs(t, err, fault.ErrInput)
}
