package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/clusview/metricmap"
	"github.com/YuminosukeSato/clusview/sweep"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), err
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const cornersCSV = "a,b,score\n0,0,0.25\n0,2,0.5\n2,0,0.75\n2,2,1\n"

func TestRootCommands(t *testing.T) {
	root := newRootCmd()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"sweep", "map", "compare", "combine"})
	flag := root.PersistentFlags().Lookup("log-level")
	require.NotNil(t, flag)
	assert.Equal(t, "info", flag.DefValue)
}

func TestInvalidLogLevel(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "s.csv", cornersCSV)
	_, err := execute(t, "--log-level", "loud", "map", "--sampling", path)
	assert.Error(t, err)
}

func TestMapCommand(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "s.csv", cornersCSV)
	out := filepath.Join(dir, "cells.csv")
	grid := filepath.Join(dir, "grid.csv")

	stdout, err := execute(t, "map", "--sampling", in, "--normalize", "--out", out, "--grid-out", grid)
	require.NoError(t, err)
	assert.Contains(t, stdout, "normalized from [0.25, 1]")
	assert.Contains(t, stdout, "MetricMap(score")

	s, err := metricmap.ReadSamplingCSV(out)
	require.NoError(t, err)
	assert.Equal(t, 9, s.Len())
	assert.Equal(t, []int{0, 0}, s.Points[0])
	assert.InDelta(t, 0.0, s.Values[0], 1e-12)
	assert.InDelta(t, 1.0, s.Values[8], 1e-12)

	data, err := os.ReadFile(grid)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "a\\b,0,1,2\n"))
}

func TestMapCommandSmoothAndPlot(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "s.csv", cornersCSV)
	plot := filepath.Join(dir, "score.png")

	_, err := execute(t, "map", "--sampling", in, "--smooth-passes", "2", "--sigma", "0.5", "--plot", plot)
	require.NoError(t, err)
	info, err := os.Stat(plot)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestMapCommandReduce(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "line.csv", "min_cluster_size,score\n2,0\n7,5\n")

	stdout, err := execute(t, "map", "--sampling", in, "--reduce", "2", "--reducer", "isomap", "--neighbors", "2")
	require.NoError(t, err)
	assert.Contains(t, stdout, "hyperparameters=[min_cluster_size component], shape=[6 2]")

	stdout, err = execute(t, "map", "--sampling", in, "--reduce", "2", "--reducer", "pca")
	require.Error(t, err, "PCA cannot produce more components than columns")
	assert.NotContains(t, stdout, "shape=[6 2]")

	_, err = execute(t, "map", "--sampling", in, "--reduce", "2", "--reducer", "tsne")
	assert.Error(t, err)
}

func TestCompareCommand(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.csv", cornersCSV)
	b := writeFile(t, dir, "b.csv", "a,b,score\n0,0,0.25\n0,2,0.5\n2,0,0.75\n2,2,2\n")

	stdout, err := execute(t, "compare", a, a)
	require.NoError(t, err)
	for _, name := range []string{"total_distance", "average_distance", "max_distance", "mean_squared_error"} {
		assert.Contains(t, stdout, name)
	}

	stdout, err = execute(t, "compare", a, b)
	require.NoError(t, err)
	assert.Contains(t, stdout, "max_distance")

	c := writeFile(t, dir, "c.csv", "a,score\n0,1\n3,2\n")
	_, err = execute(t, "compare", a, c)
	assert.Error(t, err)
}

func TestCombineCommand(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.csv", "k,m\n1,1\n3,3\n")
	b := writeFile(t, dir, "b.csv", "k,n\n1,10\n3,30\n")
	out := filepath.Join(dir, "c.csv")

	stdout, err := execute(t, "combine", "--weight", "1", "--weight", "2", a, b, "--out", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Linear Combination of m, n")

	s, err := metricmap.ReadSamplingCSV(out)
	require.NoError(t, err)
	assert.Equal(t, [][]int{{1}, {2}, {3}}, s.Points)
	assert.InDeltaSlice(t, []float64{21, 42, 63}, s.Values, 1e-9)

	_, err = execute(t, "combine", "--weight", "1", a, b, "--out", out)
	assert.Error(t, err)
}

func TestSweepCommand(t *testing.T) {
	dir := t.TempDir()
	var docs strings.Builder
	docs.WriteString("title,body,status\n")
	for i := range 8 {
		fmt.Fprintf(&docs, "login failure,cannot sign in to account %d,Accepted\n", i)
		fmt.Fprintf(&docs, "billing invoice,refund for invoice %d please,Rejected\n", i)
	}
	dataset := writeFile(t, dir, "tickets.csv", docs.String())
	outDir := filepath.Join(dir, "out")
	promFile := filepath.Join(dir, "sweep.prom")

	config := fmt.Sprintf(`
dataset:
  path: %s
  columns: [title, body]
  label_column: status
  positive: Accepted
embedder:
  dimensions: 32
reducer:
  method: pca
  components: 2
samplers:
  - parameter: min_cluster_size
    kind: linear
    lower: 2
    upper: 4
metrics: [cluster_count, outlier_ratio, v_measure]
workers: 2
output:
  dir: %s
  metrics_file: %s
log_level: warn
`, dataset, outDir, promFile)
	cfgPath := writeFile(t, dir, "bench.yaml", config)

	stdout, err := execute(t, "sweep", "--config", cfgPath, "--no-progress")
	require.NoError(t, err)
	assert.Contains(t, stdout, filepath.Join(outDir, "cluster_count_map.csv"))

	s, err := metricmap.ReadSamplingCSV(filepath.Join(outDir, "cluster_count_map.csv"))
	require.NoError(t, err)
	assert.Equal(t, []string{"min_cluster_size"}, s.Hyperparameters)
	assert.Equal(t, [][]int{{2}, {3}, {4}}, s.Points)

	m, err := sweep.ReadManifest(filepath.Join(outDir, "manifest.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 3, m.Tasks)
	assert.Equal(t, []string{"cluster_count", "outlier_ratio", "v_measure"}, m.Metrics)

	prom, err := os.ReadFile(promFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "clusview_sweep_tasks_total")
}

func TestSweepCommandRequiresConfig(t *testing.T) {
	_, err := execute(t, "sweep")
	assert.Error(t, err)

	_, err = execute(t, "sweep", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
