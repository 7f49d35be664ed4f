package main

import (
	"os"

	"github.com/gocarina/gocsv"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-anomaly/dataset"
	"github.com/cwbudde/algo-anomaly/pipeline"
)

type prediction struct {
	Index       int     `csv:"index"`
	Probability float64 `csv:"probability"`
	Label       int     `csv:"label"`
}

func predictCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "predict MODEL INPUT",
		Short: "classify the sequences of a CSV file with a saved model",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pred, err := pipeline.LoadPredictor(args[0])
			if err != nil {
				return err
			}
			x, err := dataset.ReadMatrix(args[1])
			if err != nil {
				return err
			}

			probs, labels, err := pred.Predict(x, cfg.Train.BatchSize)
			if err != nil {
				return err
			}

			rows := make([]prediction, len(probs))
			anomalies := 0
			for i := range rows {
				rows[i] = prediction{Index: i, Probability: probs[i], Label: labels[i]}
				anomalies += labels[i]
			}
			log.Info().
				Str("run", pred.Meta()["run_id"]).
				Int("sequences", len(rows)).
				Int("anomalies", anomalies).
				Msg("classified")

			out := os.Stdout
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return errors.Wrapf(err, "create %s", output)
				}
				defer f.Close()
				out = f
			}
			return errors.Wrap(gocsv.Marshal(&rows, out), "write predictions")
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write predictions to this file instead of stdout")

	return cmd
}
