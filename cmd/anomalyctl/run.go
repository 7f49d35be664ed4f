package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-anomaly/pipeline"
)

func runCmd() *cobra.Command {
	var (
		trials   int
		output   string
		noReport bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "run the search, retrain the best configuration, and write the artifacts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if trials > 0 {
				cfg.Search.Trials = trials
			}
			if output != "" {
				cfg.Output.Dir = output
			}
			if noReport {
				cfg.Report.Enabled = false
			}

			res, err := pipeline.Run(cfg, pipeline.WithLogger(log.Logger))
			if err != nil {
				return err
			}
			for _, f := range res.Files {
				log.Debug().Str("file", f).Msg("wrote")
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&trials, "trials", 0, "override the number of search trials")
	cmd.Flags().StringVar(&output, "output", "", "override the output directory")
	cmd.Flags().BoolVar(&noReport, "no-report", false, "skip exploration reports and plots")

	return cmd
}
