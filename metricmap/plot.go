package metricmap

import (
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/clusview/pkg/errors"
)

// PlotOption configures Plot.
type PlotOption func(*plotConfig)

type plotConfig struct {
	width, height vg.Length
	colors        int
	title         string
}

// WithPlotSize sets the canvas size.
func WithPlotSize(width, height vg.Length) PlotOption {
	return func(c *plotConfig) { c.width, c.height = width, height }
}

// WithColors sets the number of palette steps of a heat map.
func WithColors(n int) PlotOption {
	return func(c *plotConfig) { c.colors = n }
}

// WithTitle overrides the default title, the metric name.
func WithTitle(title string) PlotOption {
	return func(c *plotConfig) { c.title = title }
}

// Plot renders the map to path; the format follows the file extension
// (png, svg, pdf, eps, jpg, tif). Two-dimensional maps become heat maps
// with the first hyperparameter on the x axis, one-dimensional maps a line.
// NaN cells are left blank.
func (m *MetricMap) Plot(path string, opts ...PlotOption) error {
	cfg := plotConfig{width: 6 * vg.Inch, height: 5 * vg.Inch, colors: 64, title: m.MetricName}
	for _, opt := range opts {
		opt(&cfg)
	}
	if m.IsEmpty() {
		return errors.Wrap(errors.ErrEmptyData, "MetricMap.Plot")
	}
	lo, hi, ok := m.mapping.MinMax()
	if !ok {
		return errors.NewValueError("MetricMap.Plot", "every cell is NaN")
	}

	p := plot.New()
	p.Title.Text = cfg.title
	labels := m.axisLabels()
	p.X.Label.Text = labels[0]

	switch m.NDim() {
	case 1:
		p.Y.Label.Text = m.MetricName
		line, points, err := plotter.NewLinePoints(m.definedXYs())
		if err != nil {
			return errors.Wrap(err, "MetricMap.Plot")
		}
		p.Add(line, points, plotter.NewGrid())
	case 2:
		p.Y.Label.Text = labels[1]
		heat := plotter.NewHeatMap(gridXYZ{m: m}, palette.Heat(cfg.colors, 1))
		heat.Min, heat.Max = lo, hi
		if hi == lo {
			heat.Max = lo + 1
		}
		p.Add(heat)
	default:
		return errors.NewDimensionError("MetricMap.Plot", 2, m.NDim(), 1)
	}

	if err := p.Save(cfg.width, cfg.height, path); err != nil {
		return errors.Wrapf(err, "saving %s", path)
	}
	return nil
}

func (m *MetricMap) axisLabels() []string {
	labels := make([]string, m.NDim())
	for a := range labels {
		if a < len(m.Hyperparameters) {
			labels[a] = m.Hyperparameters[a]
		}
	}
	return labels
}

func (m *MetricMap) origin(axis int) float64 {
	if axis < len(m.Origin) {
		return float64(m.Origin[axis])
	}
	return 0
}

// definedXYs returns the non-NaN cells of a 1-D map.
func (m *MetricMap) definedXYs() plotter.XYs {
	var xys plotter.XYs
	for i, v := range m.mapping.Data() {
		if math.IsNaN(v) {
			continue
		}
		xys = append(xys, plotter.XY{X: m.origin(0) + float64(i), Y: v})
	}
	return xys
}

// gridXYZ adapts a 2-D map to plotter.GridXYZ: columns run along the first
// axis, rows along the second.
type gridXYZ struct {
	m *MetricMap
}

func (g gridXYZ) Dims() (c, r int) {
	shape := g.m.mapping.shape
	return shape[0], shape[1]
}

func (g gridXYZ) Z(c, r int) float64 { return g.m.mapping.At(c, r) }

func (g gridXYZ) X(c int) float64 { return g.m.origin(0) + float64(c) }

func (g gridXYZ) Y(r int) float64 { return g.m.origin(1) + float64(r) }
