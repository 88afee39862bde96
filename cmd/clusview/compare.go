package main

import (
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/clusview/metricmap"
)

func newCompareCmd(a *app) *cobra.Command {
	var normalize bool
	cmd := &cobra.Command{
		Use:   "compare <a.csv> <b.csv>",
		Short: "Print the distances between two metric maps",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runCompare(cmd, args[0], args[1], normalize)
		},
	}
	cmd.Flags().BoolVar(&normalize, "normalize", false, "normalise both maps before comparing")
	return cmd
}

func (a *app) runCompare(cmd *cobra.Command, pathA, pathB string, normalize bool) error {
	ma, err := loadMap(pathA)
	if err != nil {
		return err
	}
	mb, err := loadMap(pathB)
	if err != nil {
		return err
	}
	if normalize {
		ma.Normalize()
		mb.Normalize()
	}

	distances := []struct {
		name string
		fn   func(a, b *metricmap.MetricMap) (float64, error)
	}{
		{"total_distance", metricmap.TotalDistance},
		{"average_distance", metricmap.AverageDistance},
		{"max_distance", metricmap.MaxDistance},
		{"mean_squared_error", metricmap.MeanSquaredError},
	}
	table := pterm.TableData{{"distance", "value"}}
	for _, d := range distances {
		v, err := d.fn(ma, mb)
		if err != nil {
			return err
		}
		table = append(table, []string{d.name, strconv.FormatFloat(v, 'g', 6, 64)})
	}
	return pterm.DefaultTable.
		WithHasHeader().
		WithData(table).
		WithWriter(cmd.OutOrStdout()).
		Render()
}
