package main

import (
	"fmt"
	"log/slog"
	"text/tabwriter"

	"github.com/phrazzld/adaptiq/internal/dataset"
	"github.com/phrazzld/adaptiq/internal/domain"
	"github.com/phrazzld/adaptiq/internal/domain/model"
	"github.com/spf13/cobra"
)

func newEvaluateCmd(root *rootOptions) *cobra.Command {
	var (
		path    string
		holdout float64
		params  = model.DefaultParams()
	)

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Report holdout error of each regressor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log := root.newLogger(cmd.ErrOrStderr())

			X, y, err := loadEncoded(path, log)
			if err != nil {
				return err
			}

			eval, err := model.Evaluate(cmd.Context(), dataset.Schema, X, y, holdout, root.rng(), params)
			if err != nil {
				return fmt.Errorf("evaluate %s: %w", path, err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "train rows: %d, holdout rows: %d\n", eval.TrainRows, eval.HoldoutRows)
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "MODEL\tMAE")
			for _, mt := range domain.ModelTypes {
				fmt.Fprintf(tw, "%s\t%.2f\n", mt, eval.MAE[mt])
			}
			fmt.Fprintf(tw, "ensemble\t%.2f\n", eval.EnsembleMAE)
			return tw.Flush()
		},
	}

	cmd.Flags().StringVarP(&path, "dataset", "d", "", "input CSV file")
	cmd.Flags().Float64Var(&holdout, "holdout", 0.2, "share of rows held out for scoring")
	bindParamFlags(cmd, &params)
	_ = cmd.MarkFlagRequired("dataset")
	return cmd
}

// loadEncoded reads the dataset at path and encodes it into features and
// targets.
func loadEncoded(path string, log *slog.Logger) ([][]float64, []float64, error) {
	res, err := dataset.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}
	if res.Skipped > 0 {
		log.Warn("skipped malformed dataset lines", "path", path, "skipped", res.Skipped)
	}
	if len(res.Rows) == 0 {
		return nil, nil, fmt.Errorf("read %s: %w", path, model.ErrNoSamples)
	}

	X, y := dataset.FitEncoder(res.Rows).Encode(res.Rows)
	return X, y, nil
}

func bindParamFlags(cmd *cobra.Command, p *model.Params) {
	cmd.Flags().Float64Var(&p.RidgeLambda, "ridge-lambda", p.RidgeLambda, "ridge regularisation strength")
	cmd.Flags().IntVar(&p.Neighbors, "neighbors", p.Neighbors, "neighbours averaged per prediction")
	cmd.Flags().IntVar(&p.BoostingRounds, "boosting-rounds", p.BoostingRounds, "boosting rounds")
	cmd.Flags().Float64Var(&p.LearningRate, "learning-rate", p.LearningRate, "boosting learning rate")
}
