package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/phrazzld/adaptiq/internal/dataset"
	"github.com/spf13/cobra"
)

func newGenerateCmd(root *rootOptions) *cobra.Command {
	var (
		learners int
		out      string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a synthetic dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if learners < 1 {
				return fmt.Errorf("--learners must be at least 1, got %d", learners)
			}

			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create %s: %w", out, err)
			}
			w := bufio.NewWriter(f)

			n, err := dataset.Generate(w, learners, root.rng())
			if err == nil {
				err = w.Flush()
			}
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}

			root.newLogger(cmd.ErrOrStderr()).Info("dataset written", "path", out, "rows", n)
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d rows for %d learners to %s\n", n, learners, out)
			return nil
		},
	}

	cmd.Flags().IntVar(&learners, "learners", 1000, "number of synthetic learners")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output CSV file")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}
