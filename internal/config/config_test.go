package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-anomaly/internal/fault"
)

func TestDefaultsMatchExperimentConstants(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.EqualValues(t, 42, cfg.Seed)
	assert.Equal(t, 0.6, cfg.Split.Train)
	assert.Equal(t, 0.2, cfg.Split.Valid)
	assert.Equal(t, 0.2, cfg.Split.Test)
	assert.Equal(t, 5, cfg.Balance.Neighbors)
	assert.Equal(t, 1024, cfg.Spectral.WindowSize)
	assert.Equal(t, 512, cfg.Spectral.Overlap)
	assert.Equal(t, 1024.0, cfg.Spectral.SampleRate)
	assert.Equal(t, 30, cfg.Search.Trials)
	assert.Equal(t, 100, cfg.Train.Epochs)
	assert.Equal(t, 64, cfg.Train.BatchSize)
	assert.Equal(t, 10, cfg.Train.Patience)
	assert.Equal(t, "best_trial_params.json", cfg.Output.ParamsFile)
	assert.Equal(t, filepath.Join("out", "trials.csv"), cfg.OutputPath(cfg.Output.TrialsFile))
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "anomaly.yaml")
	yml := "seed: 7\nsearch:\n  trials: 4\nspectral:\n  window_size: 64\n  overlap: 32\n"
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))

	t.Setenv("ANOMALY_TRAIN__EPOCHS", "3")
	t.Setenv("ANOMALY_LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.EqualValues(t, 7, cfg.Seed)
	assert.Equal(t, 4, cfg.Search.Trials)
	assert.Equal(t, 64, cfg.Spectral.WindowSize)
	assert.Equal(t, 32, cfg.Spectral.Overlap)
	assert.Equal(t, 3, cfg.Train.Epochs)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 64, cfg.Train.BatchSize)
}

func TestValidateRejectsBadRatios(t *testing.T) {
	cfg := Default()
	cfg.Split.Train = 0.7

	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, fault.ErrConfiguration))
}

func TestValidateRejectsOverlapNotBelowWindow(t *testing.T) {
	cfg := Default()
	cfg.Spectral.Overlap = cfg.Spectral.WindowSize

	err := cfg.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, fault.ErrConfiguration))
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, fault.ErrConfiguration))
}

func TestSearchUpwardsForFileMissing(t *testing.T) {
	_, err := SearchUpwardsForFile("definitely-not-here-7f3a.env")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrFileNotFound))
}
