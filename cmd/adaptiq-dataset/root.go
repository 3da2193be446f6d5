package main

import (
	"io"
	"log/slog"
	"math/rand"
	"time"

	"github.com/phrazzld/adaptiq/internal/platform/logger"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	logLevel string
	seed     int64
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "adaptiq-dataset",
		Short: "Work with adaptiq quiz datasets",
		Long: "adaptiq-dataset writes synthetic quiz outcome datasets and trains or\n" +
			"evaluates the score regressors on them offline.",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	cmd.PersistentFlags().Int64Var(&opts.seed, "seed", 0, "random seed, 0 picks one from the clock")

	cmd.AddCommand(
		newGenerateCmd(opts),
		newEvaluateCmd(opts),
		newTrainCmd(opts),
	)
	return cmd
}

// newLogger writes text logs to the command's error stream.
func (o *rootOptions) newLogger(w io.Writer) *slog.Logger {
	level, _ := logger.ParseLevel(o.logLevel)
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func (o *rootOptions) rng() *rand.Rand {
	seed := o.seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}
