package main

import (
	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/clusview/pkg/log"
)

// app holds what every subcommand shares.
type app struct {
	logLevel string
	logger   log.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "clusview",
		Short: "Clustering hyperparameter sweeps and metric maps",
		Long: `clusview runs clustering algorithms over a grid of hyperparameters,
scores every partition and interpolates the scores into metric maps that
can be normalised, smoothed, compared and combined.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setupLogging(cmd)
		},
	}
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "info", "log level: debug, info, warn or error")

	root.AddCommand(
		newSweepCmd(a),
		newMapCmd(a),
		newCompareCmd(a),
		newCombineCmd(a),
	)
	return root
}

// setupLogging installs the JSON slog logger and routes library warnings to
// a console logger on stderr.
func (a *app) setupLogging(cmd *cobra.Command) error {
	level, err := log.ToLogLevel(a.logLevel)
	if err != nil {
		return err
	}
	if err := log.SetupLoggerTo(cmd.ErrOrStderr(), a.logLevel); err != nil {
		return err
	}
	console := log.NewConsoleLogger(cmd.ErrOrStderr(), log.Level(level))
	console.RouteWarnings()
	a.logger = console
	return nil
}
