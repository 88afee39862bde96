package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/clusview/manifold"
	"github.com/YuminosukeSato/clusview/metricmap"
	"github.com/YuminosukeSato/clusview/pkg/errors"
	"github.com/YuminosukeSato/clusview/pkg/log"
)

type mapFlags struct {
	sampling     string
	normalize    bool
	smoothPasses int
	sigma        float64
	reduce       int
	reducer      string
	neighbors    int
	seed         int64
	plot         string
	out          string
	gridOut      string
}

func newMapCmd(a *app) *cobra.Command {
	var f mapFlags
	cmd := &cobra.Command{
		Use:   "map",
		Short: "Interpolate a sampling CSV into a metric map",
		Long: `Read a sampling table (h_1,...,h_k,metric), interpolate it over the
integer lattice its hyperparameters span, optionally normalise, smooth or
reduce it, and write the result as a table, a grid CSV or a plot.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runMap(cmd, f)
		},
	}
	cmd.Flags().StringVarP(&f.sampling, "sampling", "s", "", "sampling CSV")
	cmd.Flags().BoolVar(&f.normalize, "normalize", false, "rescale the map to [0, 1]")
	cmd.Flags().IntVar(&f.smoothPasses, "smooth-passes", 0, "number of Gaussian smoothing passes")
	cmd.Flags().Float64Var(&f.sigma, "sigma", 1, "Gaussian smoothing standard deviation")
	cmd.Flags().IntVar(&f.reduce, "reduce", 0, "project the map onto this many components")
	cmd.Flags().StringVar(&f.reducer, "reducer", "umap", "reducer used by --reduce: umap, isomap or pca")
	cmd.Flags().IntVar(&f.neighbors, "neighbors", manifold.DefaultUMAPNeighbors, "UMAP or Isomap neighbours used by --reduce")
	cmd.Flags().Int64Var(&f.seed, "seed", 0, "UMAP seed used by --reduce")
	cmd.Flags().StringVar(&f.plot, "plot", "", "write a plot; the format follows the extension (png, svg, pdf)")
	cmd.Flags().StringVarP(&f.out, "out", "o", "", "write every cell as a sampling CSV")
	cmd.Flags().StringVar(&f.gridOut, "grid-out", "", "write a 2-D map as a grid CSV")
	_ = cmd.MarkFlagRequired("sampling")
	return cmd
}

func (a *app) runMap(cmd *cobra.Command, f mapFlags) error {
	m, err := loadMap(f.sampling)
	if err != nil {
		return err
	}
	logger := a.logger.With(log.MetricKey, m.MetricName)
	w := cmd.OutOrStdout()

	if f.normalize {
		lo, hi := m.Normalize()
		fmt.Fprintf(w, "normalized from [%g, %g]\n", lo, hi)
	}
	if f.smoothPasses > 0 {
		if _, err := m.Smooth(f.smoothPasses, f.sigma); err != nil {
			return err
		}
	}
	if f.reduce > 0 {
		opts, err := reduceOptions(cmd, f)
		if err != nil {
			return err
		}
		if _, err := m.ReduceDimensions(f.reduce, opts...); err != nil {
			return err
		}
	}
	fmt.Fprintln(w, m)
	logger.Debug("metric map ready", log.ShapeKey, m.Shape(), log.CellsKey, m.Mapping().Len())

	if f.out != "" {
		if err := metricmap.WriteSamplingCSV(f.out, m.Sampling()); err != nil {
			return err
		}
		fmt.Fprintln(w, f.out)
	}
	if f.gridOut != "" {
		if err := m.SaveGridCSV(f.gridOut); err != nil {
			return err
		}
		fmt.Fprintln(w, f.gridOut)
	}
	if f.plot != "" {
		if err := m.Plot(f.plot); err != nil {
			return err
		}
		fmt.Fprintln(w, f.plot)
	}
	return nil
}

func loadMap(path string) (*metricmap.MetricMap, error) {
	s, err := metricmap.ReadSamplingCSV(path)
	if err != nil {
		return nil, err
	}
	return metricmap.New(s)
}

func reduceOptions(cmd *cobra.Command, f mapFlags) ([]metricmap.ReduceOption, error) {
	switch f.reducer {
	case "umap":
		opts := []metricmap.ReduceOption{metricmap.WithNeighbors(f.neighbors)}
		if cmd.Flags().Changed("seed") {
			opts = append(opts, metricmap.WithSeed(f.seed))
		}
		return opts, nil
	case "isomap":
		return []metricmap.ReduceOption{
			metricmap.WithReducer(manifold.NewIsomap(manifold.WithNeighbors(f.neighbors))),
		}, nil
	case "pca":
		return []metricmap.ReduceOption{metricmap.WithReducer(manifold.PCA{})}, nil
	}
	return nil, errors.NewValidationError("reducer", "expected umap, isomap or pca", f.reducer)
}
