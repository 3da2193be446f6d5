package main

import (
	"fmt"
	"math"
	"strings"

	"github.com/phrazzld/adaptiq/internal/dataset"
	"github.com/phrazzld/adaptiq/internal/domain"
	"github.com/phrazzld/adaptiq/internal/domain/model"
	"github.com/spf13/cobra"
)

func newTrainCmd(root *rootOptions) *cobra.Command {
	var (
		path   string
		params = model.DefaultParams()
	)

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Fit every regressor on a dataset and report training error",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log := root.newLogger(cmd.ErrOrStderr())

			X, y, err := loadEncoded(path, log)
			if err != nil {
				return err
			}

			set, err := model.Train(cmd.Context(), dataset.Schema, X, y, params)
			if err != nil {
				return fmt.Errorf("train on %s: %w", path, err)
			}

			mae, err := trainingError(set, X, y)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "trained on %d rows\n", set.Samples())
			fmt.Fprintf(out, "features: %s\n", strings.Join(set.Schema(), ", "))
			for _, mt := range domain.ModelTypes {
				fmt.Fprintf(out, "%s training MAE: %.2f\n", mt, mae[mt])
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&path, "dataset", "d", "", "input CSV file")
	bindParamFlags(cmd, &params)
	_ = cmd.MarkFlagRequired("dataset")
	return cmd
}

func trainingError(set *model.Set, X [][]float64, y []float64) (map[domain.ModelType]float64, error) {
	mae := make(map[domain.ModelType]float64, len(domain.ModelTypes))
	for i, row := range X {
		preds, err := set.Predict(row)
		if err != nil {
			return nil, fmt.Errorf("predict row %d: %w", i, err)
		}
		for mt, p := range preds {
			mae[mt] += math.Abs(p - y[i])
		}
	}
	for mt := range mae {
		mae[mt] /= float64(len(X))
	}
	return mae, nil
}
