// Package config loads pipeline settings.
//
// Defaults reproduce the fixed experiment constants. A YAML file and
// ANOMALY_-prefixed environment variables may override them, in that order.
// Nested keys use "__" in environment names: ANOMALY_SEARCH__TRIALS=5.
package config

import (
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/cwbudde/algo-anomaly/internal/fault"
	"github.com/cwbudde/algo-anomaly/internal/validation"
)

// EnvPrefix is the prefix of environment overrides.
const EnvPrefix = "ANOMALY_"

var ErrFileNotFound = errors.New("file not found")

// Config contains all pipeline settings.
type Config struct {
	Seed     uint64         `koanf:"seed" json:"seed"`
	LogLevel string         `koanf:"log_level" json:"log_level" validate:"oneof=trace debug info warn error"`
	Data     DataConfig     `koanf:"data" json:"data"`
	Split    SplitConfig    `koanf:"split" json:"split"`
	Balance  BalanceConfig  `koanf:"balance" json:"balance"`
	Spectral SpectralConfig `koanf:"spectral" json:"spectral"`
	Search   SearchConfig   `koanf:"search" json:"search"`
	Train    TrainConfig    `koanf:"train" json:"train"`
	Output   OutputConfig   `koanf:"output" json:"output"`
	Report   ReportConfig   `koanf:"report" json:"report"`
}

// DataConfig names the two labeled sources.
type DataConfig struct {
	Healthy string `koanf:"healthy" json:"healthy"`
	Anomaly string `koanf:"anomaly" json:"anomaly"`
}

// SplitConfig holds the stratified partition ratios.
type SplitConfig struct {
	Train float64 `koanf:"train" json:"train" validate:"gt=0,lt=1"`
	Valid float64 `koanf:"valid" json:"valid" validate:"gt=0,lt=1"`
	Test  float64 `koanf:"test" json:"test" validate:"gt=0,lt=1"`
}

// BalanceConfig configures synthetic minority oversampling.
type BalanceConfig struct {
	Neighbors int `koanf:"neighbors" json:"neighbors" validate:"gte=1"`
}

// SpectralConfig configures the sliding-window transform.
type SpectralConfig struct {
	WindowSize    int     `koanf:"window_size" json:"window_size" validate:"gte=2"`
	Overlap       int     `koanf:"overlap" json:"overlap" validate:"gte=0,ltfield=WindowSize"`
	SampleRate    float64 `koanf:"sample_rate" json:"sample_rate" validate:"gt=0"`
	PeriodicTaper bool    `koanf:"periodic_taper" json:"periodic_taper"`
}

// SearchConfig configures the hyperparameter search.
type SearchConfig struct {
	Trials        int `koanf:"trials" json:"trials" validate:"gte=1"`
	MaxKernelSize int `koanf:"max_kernel_size" json:"max_kernel_size" validate:"gte=1"`
}

// TrainConfig is the training protocol shared by search trials and the
// final run.
type TrainConfig struct {
	Epochs    int     `koanf:"epochs" json:"epochs" validate:"gte=1"`
	BatchSize int     `koanf:"batch_size" json:"batch_size" validate:"gte=1"`
	Patience  int     `koanf:"patience" json:"patience" validate:"gte=1"`
	Threshold float64 `koanf:"threshold" json:"threshold" validate:"gt=0,lt=1"`
	DenseL2   float64 `koanf:"dense_l2" json:"dense_l2" validate:"gte=0"`
}

// OutputConfig names the artifacts written by a run.
type OutputConfig struct {
	Dir         string `koanf:"dir" json:"dir" validate:"required"`
	ParamsFile  string `koanf:"params_file" json:"params_file" validate:"required"`
	ModelFile   string `koanf:"model_file" json:"model_file" validate:"required"`
	TrialsFile  string `koanf:"trials_file" json:"trials_file" validate:"required"`
	HistoryFile string `koanf:"history_file" json:"history_file" validate:"required"`
}

// ReportConfig configures observational output.
type ReportConfig struct {
	Enabled      bool `koanf:"enabled" json:"enabled"`
	FeatureIndex int  `koanf:"feature_index" json:"feature_index" validate:"gte=0"`
	ACFLags      int  `koanf:"acf_lags" json:"acf_lags" validate:"gte=1"`
	ACFSequences int  `koanf:"acf_sequences" json:"acf_sequences" validate:"gte=1"`
}

// Defaults returns the flattened default settings.
func Defaults() map[string]any {
	return map[string]any{
		"seed":                    42,
		"log_level":               "info",
		"data.healthy":            "healthy_data.csv",
		"data.anomaly":            "anomalies.csv",
		"split.train":             0.6,
		"split.valid":             0.2,
		"split.test":              0.2,
		"balance.neighbors":       5,
		"spectral.window_size":    1024,
		"spectral.overlap":        512,
		"spectral.sample_rate":    1024.0,
		"spectral.periodic_taper": false,
		"search.trials":           30,
		"search.max_kernel_size":  5,
		"train.epochs":            100,
		"train.batch_size":        64,
		"train.patience":          10,
		"train.threshold":         0.5,
		"train.dense_l2":          0.01,
		"output.dir":              "out",
		"output.params_file":      "best_trial_params.json",
		"output.model_file":       "cnn_lstm_model.json.sz",
		"output.trials_file":      "trials.csv",
		"output.history_file":     "history.csv",
		"report.enabled":          true,
		"report.feature_index":    200,
		"report.acf_lags":         50,
		"report.acf_sequences":    5,
	}
}

// Default returns the default configuration, ignoring files and the
// environment.
func Default() Config {
	k := koanf.New(".")
	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		panic(err)
	}
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		panic(err)
	}
	return cfg
}

// Load builds the configuration from defaults, the optional YAML file at
// path, and the environment.
func Load(path string) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return Config{}, errors.Wrap(err, "koanf: loading defaults")
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, errors.Wrapf(fault.ErrConfiguration, "koanf: loading %s: %v", path, err)
		}
		log.Debug().Str("file", path).Msg("loaded configuration from file")
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return Config{}, errors.Wrap(err, "koanf: loading env")
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, errors.Wrapf(fault.ErrConfiguration, "koanf: unmarshalling config: %v", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field ranges and cross-field constraints.
func (c Config) Validate() error {
	if err := validation.Validate.Struct(c); err != nil {
		return errors.Wrapf(fault.ErrConfiguration, "invalid config: %v", err)
	}
	sum := c.Split.Train + c.Split.Valid + c.Split.Test
	if math.Abs(sum-1) > 1e-9 {
		return fault.Configuration("split ratios must sum to 1, got %g", sum)
	}
	return nil
}

// OutputPath joins name onto the output directory.
func (c Config) OutputPath(name string) string {
	return filepath.Join(c.Output.Dir, name)
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// SearchUpwardsForFile walks from the working directory to the root looking
// for filename.
func SearchUpwardsForFile(filename string) (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		candidate := filepath.Join(wd, filename)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}

		parent := filepath.Dir(wd)
		if parent == wd {
			return "", errors.Wrap(ErrFileNotFound, filename)
		}
		wd = parent
	}
}

// LoadDotEnv loads fileName into the process environment when it can be
// found. A missing file is not an error.
func LoadDotEnv(fileName string) error {
	path, err := SearchUpwardsForFile(fileName)
	if err != nil {
		log.Debug().Err(err).Msgf("no %s file", fileName)
		return nil
	}

	if err := godotenv.Load(path); err != nil {
		return errors.Wrapf(err, "invalid env file %s", path)
	}

	log.Info().Msgf("loaded environment variables from %s", path)
	return nil
}
