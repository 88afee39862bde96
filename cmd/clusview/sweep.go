package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/clusview/cluster"
	"github.com/YuminosukeSato/clusview/document"
	"github.com/YuminosukeSato/clusview/pkg/errors"
	"github.com/YuminosukeSato/clusview/pkg/log"
	"github.com/YuminosukeSato/clusview/sampler"
	"github.com/YuminosukeSato/clusview/sweep"
)

type sweepFlags struct {
	config     string
	noProgress bool
}

func newSweepCmd(a *app) *cobra.Command {
	var f sweepFlags
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run a clustering benchmark described by a YAML config",
		Long: `Embed the dataset, reduce it, cluster it once per sampled configuration
and run, and write one tidy CSV per metric (plus a grid CSV for two-parameter
sweeps), a YAML manifest and optionally plots and Prometheus metrics.

Every config key can be overridden from the environment with the CLUSVIEW_
prefix, e.g. CLUSVIEW_RUNS=5 or CLUSVIEW_OUTPUT_DIR=out.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runSweep(cmd, f)
		},
	}
	cmd.Flags().StringVarP(&f.config, "config", "c", "", "benchmark config file (YAML)")
	cmd.Flags().BoolVar(&f.noProgress, "no-progress", false, "do not draw a progress bar")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}

func (a *app) runSweep(cmd *cobra.Command, f sweepFlags) error {
	cfg, err := sweep.LoadConfig(f.config)
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("log-level") && cfg.LogLevel != "" {
		a.logLevel = cfg.LogLevel
		if err := a.setupLogging(cmd); err != nil {
			return err
		}
	}
	logger := a.logger.With(log.ConfigPathKey, f.config, log.OutputDirKey, cfg.Output.Dir)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	X, err := loadEmbeddings(ctx, cfg)
	if err != nil {
		return err
	}
	var labels []int
	if cfg.Dataset.LabelColumn != "" {
		labels, err = document.ReadLabelsCSV(cfg.Dataset.Path, cfg.Dataset.LabelColumn, cfg.Dataset.Positive)
		if err != nil {
			return err
		}
	}
	samplers, err := cfg.BuildSamplers()
	if err != nil {
		return err
	}
	opts, err := cfg.RunnerOptions()
	if err != nil {
		return err
	}
	opts = append(opts, sweep.WithLogger(logger))
	if !f.noProgress {
		opts = append(opts, sweep.WithProgress(cmd.ErrOrStderr()))
	}

	var out *sweepOutput
	switch cfg.Clusterer.Algorithm {
	case "kmeans":
		out, err = runWith[cluster.MiniBatchKMeans](ctx, cluster.NewKMeansBuilder(cfg.KMeans()), samplers, opts, X, labels)
	default:
		out, err = runWith[cluster.HDBSCAN](ctx, cluster.NewHDBSCANBuilder(cfg.HDBSCAN()), samplers, opts, X, labels)
	}
	if out == nil {
		return err
	}
	if err != nil {
		// 中断されても集まった分は書き出す
		logger.Warn("sweep interrupted, writing partial results", log.ErrAttrKey, err)
	}

	files, writeErr := writeOutputs(cfg, out, logger)
	if writeErr != nil {
		return writeErr
	}
	for _, path := range files {
		fmt.Fprintln(cmd.OutOrStdout(), path)
	}
	return err
}

type sweepOutput struct {
	results  *sweep.Results
	gatherer prometheus.Gatherer
}

func runWith[C cluster.Clusterer](
	ctx context.Context,
	builder sweep.Builder[C],
	samplers []sampler.Sampler,
	opts []sweep.Option,
	X mat.Matrix,
	labels []int,
) (*sweepOutput, error) {
	it, err := sweep.NewConfigurationIterator(builder, samplers...)
	if err != nil {
		return nil, err
	}
	runner, err := sweep.NewRunner(it, opts...)
	if err != nil {
		return nil, err
	}
	res, err := runner.Run(ctx, X, labels)
	if res == nil {
		return nil, err
	}
	return &sweepOutput{results: res, gatherer: runner.Registry()}, err
}

// loadEmbeddings reads precomputed embeddings or hashes the dataset's text columns.
func loadEmbeddings(ctx context.Context, cfg *sweep.Config) (*mat.Dense, error) {
	if cfg.Dataset.Embeddings != "" {
		return document.ReadMatrixCSV(cfg.Dataset.Embeddings)
	}
	docs, err := document.NewCSVConcatenator(cfg.Dataset.Path, cfg.Dataset.Columns...).Load()
	if err != nil {
		return nil, err
	}
	embedder := document.NewHashingEmbedder(
		document.WithDimensions(cfg.Embedder.Dimensions),
		document.WithSeed(cfg.Embedder.Seed),
		document.WithBigrams(cfg.Embedder.Bigrams),
	)
	return embedder.Embed(ctx, docs)
}

// writeOutputs writes the tidy tables, grids, plots, metrics file and
// manifest, and returns every written path.
func writeOutputs(cfg *sweep.Config, out *sweepOutput, logger log.Logger) ([]string, error) {
	res := out.results
	dir := cfg.Output.Dir
	files, err := res.WriteTidy(dir)
	if err != nil {
		return files, err
	}
	if len(res.Hyperparameters) == 2 {
		grids, err := res.WriteGrid(dir)
		files = append(files, grids...)
		if err != nil {
			return files, err
		}
	}
	if cfg.Output.Plot {
		plots, err := writePlots(res, dir, logger)
		files = append(files, plots...)
		if err != nil {
			return files, err
		}
	}
	if cfg.Output.MetricsFile != "" {
		if err := sweep.WriteMetricsFile(cfg.Output.MetricsFile, out.gatherer); err != nil {
			return files, err
		}
		files = append(files, cfg.Output.MetricsFile)
	}

	manifestPath := filepath.Join(dir, "manifest.yaml")
	if err := sweep.WriteManifest(manifestPath, res.Manifest(cfg, files...)); err != nil {
		return files, err
	}
	return append(files, manifestPath), nil
}

// writePlots plots every map of at most two dimensions. Maps that cannot be
// plotted (no scores, every cell NaN) are skipped with a warning.
func writePlots(res *sweep.Results, dir string, logger log.Logger) ([]string, error) {
	if len(res.Hyperparameters) > 2 {
		logger.Info("skipping plots for sweeps over more than two hyperparameters")
		return nil, nil
	}
	maps, err := res.Maps()
	if err != nil {
		return nil, err
	}
	var files []string
	for i, m := range maps {
		path := filepath.Join(dir, res.Metrics[i]+".png")
		if err := m.Plot(path); err != nil {
			if errors.Is(err, errors.ErrEmptyData) || isValueError(err) {
				logger.Warn("metric map not plotted", log.MetricKey, res.Metrics[i], log.ErrAttrKey, err)
				continue
			}
			return files, err
		}
		files = append(files, path)
	}
	return files, nil
}

func isValueError(err error) bool {
	var ve *errors.ValueError
	return errors.As(err, &ve)
}
