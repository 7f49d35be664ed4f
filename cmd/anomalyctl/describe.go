package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-anomaly/dataset"
	"github.com/cwbudde/algo-anomaly/internal/rng"
	"github.com/cwbudde/algo-anomaly/pipeline"
)

func describeCmd() *cobra.Command {
	var plots bool

	cmd := &cobra.Command{
		Use:   "describe",
		Short: "write descriptive statistics of the configured dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, err := dataset.Load(cfg.Data.Healthy, cfg.Data.Anomaly, rng.New(cfg.Seed, rng.Loader))
			if err != nil {
				return err
			}

			ex, err := pipeline.Explore(ds, cfg, plots, log.Logger)
			if err != nil {
				return err
			}
			for _, f := range ex.Files {
				log.Info().Str("file", f).Msg("wrote")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&plots, "plots", true, "render the histogram and autocorrelation plots")

	return cmd
}
