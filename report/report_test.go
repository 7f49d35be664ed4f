package report

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-anomaly/internal/fault"
	"github.com/cwbudde/algo-anomaly/internal/testutil"
	"github.com/cwbudde/algo-anomaly/metrics"
	"github.com/cwbudde/algo-anomaly/nn"
)

var pngMagic = []byte("\x89PNG\r\n\x1a\n")

func requirePNG(t *testing.T, path string) {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(b, pngMagic), "%s is not a PNG", path)
}

func TestHistogram(t *testing.T) {
	path := filepath.Join(t.TempDir(), HistogramFile)
	require.NoError(t, Histogram(path, "feature 3", testutil.Noise(1, 1, 500), DefaultBins))
	requirePNG(t, path)
}

func TestACF(t *testing.T) {
	path := filepath.Join(t.TempDir(), ACFFile)
	series := [][]float64{{1, 0.5, 0.1}, {1, -0.4, 0.2}}
	require.NoError(t, ACF(path, "autocorrelation", series))
	requirePNG(t, path)
}

func TestLossCurves(t *testing.T) {
	h := nn.History{
		Epochs: []nn.Epoch{
			{Epoch: 1, Loss: 0.9, ValLoss: 0.8},
			{Epoch: 2, Loss: 0.6, ValLoss: 0.5},
			{Epoch: 3, Loss: 0.4, ValLoss: 0.55},
		},
		BestEpoch: 1,
	}
	path := filepath.Join(t.TempDir(), LossFile)
	require.NoError(t, LossCurves(path, h))
	requirePNG(t, path)
}

func TestConfusion(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfusionFile)
	require.NoError(t, Confusion(path, metrics.Confusion{TN: 18, FP: 2, FN: 1, TP: 3}))
	requirePNG(t, path)
}

func TestConfusionGridOrientation(t *testing.T) {
	g := confusionGrid(metrics.Confusion{TN: 1, FP: 2, FN: 3, TP: 4}.Matrix())
	c, r := g.Dims()
	assert.Equal(t, 2, c)
	assert.Equal(t, 2, r)
	assert.Equal(t, 2.0, g.Z(1, 0), "predicted anomaly, actual healthy")
	assert.Equal(t, 3.0, g.Z(0, 1), "predicted healthy, actual anomaly")
}

func TestRejectsBadInput(t *testing.T) {
	dir := t.TempDir()
	assert.ErrorIs(t, Histogram(filepath.Join(dir, "a.png"), "", nil, 10), fault.ErrInput)
	assert.ErrorIs(t, Histogram(filepath.Join(dir, "a.png"), "", []float64{1}, 0), fault.ErrConfiguration)
	assert.ErrorIs(t, Histogram(filepath.Join(dir, "a.png"), "", []float64{math.NaN()}, 1), fault.ErrNumeric)
	assert.ErrorIs(t, ACF(filepath.Join(dir, "b.png"), "", nil), fault.ErrInput)
	assert.ErrorIs(t, LossCurves(filepath.Join(dir, "c.png"), nn.History{}), fault.ErrInput)
	assert.ErrorIs(t, Confusion(filepath.Join(dir, "d.png"), metrics.Confusion{}), fault.ErrInput)

	_, err := os.Stat(filepath.Join(dir, "a.png"))
	assert.True(t, os.IsNotExist(err))
}
