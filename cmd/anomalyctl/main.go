// Command anomalyctl runs the anomaly classification experiment.
//
// Usage:
//
//	anomalyctl [--config FILE] [--env-file FILE] [--log-level LEVEL] <command>
//
// Commands:
//
//	run       load, search, retrain, evaluate, and write all artifacts
//	describe  write descriptive statistics and exploration plots
//	predict   classify sequences with a saved model artifact
//	synth     write synthetic healthy and anomaly CSV files
//
// Settings come from built-in defaults, the optional YAML file, and
// ANOMALY_-prefixed environment variables, in that order.
package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-anomaly/internal/config"
	"github.com/cwbudde/algo-anomaly/internal/fault"
)

var (
	configFile string
	envFile    string
	logLevel   string

	cfg config.Config
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	rootCmd := &cobra.Command{
		Use:           "anomalyctl",
		Short:         "train and apply a spectral CNN-LSTM anomaly classifier",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup()
		},
	}
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file searched upwards from the working directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override the configured log level")

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(describeCmd())
	rootCmd.AddCommand(predictCmd())
	rootCmd.AddCommand(synthCmd())

	fail(rootCmd.Execute())
}

func setup() error {
	if err := config.LoadDotEnv(envFile); err != nil {
		return err
	}

	var err error
	if cfg, err = config.Load(configFile); err != nil {
		return err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fault.Configuration("log level %q: %v", cfg.LogLevel, err)
	}
	zerolog.SetGlobalLevel(level)
	return nil
}

// fail logs err with its taxonomy class and exits non-zero.
func fail(err error) {
	if err == nil {
		return
	}
	ev := log.Error().Err(err)
	if kind := fault.Kind(err); kind != "" {
		ev = ev.Str("kind", kind)
	}
	ev.Msg("anomalyctl failed")
	os.Exit(1)
}
