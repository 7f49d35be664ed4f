package main

import (
	"os"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-anomaly/dataset"
	"github.com/cwbudde/algo-anomaly/dsp/signal"
	"github.com/cwbudde/algo-anomaly/internal/rng"
)

func synthCmd() *cobra.Command {
	var (
		healthy   int
		anomalies int
		length    int
		tone      float64
		noise     float64
	)

	cmd := &cobra.Command{
		Use:   "synth",
		Short: "write synthetic healthy and anomaly sources to the configured data paths",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := signal.NewGenerator(
				signal.WithSampleRate(cfg.Spectral.SampleRate),
				signal.WithLength(length),
				signal.WithTone(tone, signal.DefaultAmplitude),
				signal.WithNoise(noise),
				signal.WithRand(rng.New(cfg.Seed, rng.Synth)),
			)
			if err != nil {
				return err
			}

			h, a, err := g.Corpus(healthy, anomalies)
			if err != nil {
				return err
			}
			sources := []struct {
				path string
				rows [][]float64
			}{{cfg.Data.Healthy, h}, {cfg.Data.Anomaly, a}}
			for _, src := range sources {
				if _, err := os.Stat(src.path); err == nil {
					return errors.Errorf("%s exists, refusing to overwrite", src.path)
				}
			}
			for _, src := range sources {
				path, rows := src.path, src.rows
				if err := dataset.WriteMatrix(path, rows); err != nil {
					return err
				}
				log.Info().Str("file", path).Int("sequences", len(rows)).Int("length", length).Msg("wrote")
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&healthy, "healthy", 100, "number of healthy sequences")
	cmd.Flags().IntVar(&anomalies, "anomalies", 20, "number of anomalous sequences")
	cmd.Flags().IntVar(&length, "length", signal.DefaultLength, "samples per sequence")
	cmd.Flags().Float64Var(&tone, "tone", signal.DefaultTone, "base tone in Hz")
	cmd.Flags().Float64Var(&noise, "noise", signal.DefaultNoise, "white noise amplitude")

	return cmd
}
