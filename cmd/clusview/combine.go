package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/clusview/metricmap"
	"github.com/YuminosukeSato/clusview/pkg/errors"
)

type combineFlags struct {
	weights []float64
	out     string
	gridOut string
}

func newCombineCmd(a *app) *cobra.Command {
	var f combineFlags
	cmd := &cobra.Command{
		Use:   "combine <map.csv>...",
		Short: "Write the weighted sum of metric maps",
		Long: `Interpolate every sampling CSV and write Σ weight_i · map_i. Pass one
--weight per map, in the same order; weights are not normalised.`,
		Example: "  clusview combine --weight 1 --weight 2 a.csv b.csv --out c.csv",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runCombine(cmd, args, f)
		},
	}
	cmd.Flags().Float64SliceVarP(&f.weights, "weight", "w", nil, "weight of each map, repeated in argument order")
	cmd.Flags().StringVarP(&f.out, "out", "o", "", "output sampling CSV")
	cmd.Flags().StringVar(&f.gridOut, "grid-out", "", "also write a 2-D result as a grid CSV")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func (a *app) runCombine(cmd *cobra.Command, paths []string, f combineFlags) error {
	if len(f.weights) != len(paths) {
		return errors.NewValidationError("weight", fmt.Sprintf("expected %d weights, one per map", len(paths)), len(f.weights))
	}
	maps := make([]*metricmap.MetricMap, len(paths))
	for i, path := range paths {
		m, err := loadMap(path)
		if err != nil {
			return err
		}
		maps[i] = m
	}
	combined, err := metricmap.LinearCombination(maps, f.weights)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, combined)
	if err := metricmap.WriteSamplingCSV(f.out, combined.Sampling()); err != nil {
		return err
	}
	fmt.Fprintln(w, f.out)
	if f.gridOut != "" {
		if err := combined.SaveGridCSV(f.gridOut); err != nil {
			return err
		}
		fmt.Fprintln(w, f.gridOut)
	}
	return nil
}
