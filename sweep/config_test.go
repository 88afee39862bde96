package sweep

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/clusview/cluster"
	"github.com/YuminosukeSato/clusview/manifold"
	"github.com/YuminosukeSato/clusview/pkg/errors"
	"github.com/YuminosukeSato/clusview/sampler"
)

const benchYAML = `
dataset:
  path: tickets.csv
  columns: [title, body]
  label_column: status
  positive: Accepted
reducer:
  method: isomap
  components: 3
  neighbors: 7
clusterer:
  algorithm: hdbscan
  min_samples: 2
samplers:
  - parameter: min_cluster_size
    kind: geometric
    lower: 2
    upper: 64
    samples: 6
  - parameter: cluster_selection_epsilon_milli
    kind: linear
    lower: 0
    upper: 100
    step: 25
metrics: [silhouette, outlier_penalty]
runs: 2
seed: 42
output:
  dir: results
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bench.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, benchYAML))
	require.NoError(t, err)

	assert.Equal(t, "tickets.csv", cfg.Dataset.Path)
	assert.Equal(t, []string{"title", "body"}, cfg.Dataset.Columns)
	assert.Equal(t, "Accepted", cfg.Dataset.Positive)
	assert.Equal(t, 2, cfg.Runs)
	assert.Equal(t, int64(42), cfg.Seed)
	assert.Equal(t, "results", cfg.Output.Dir)
	require.Len(t, cfg.Samplers, 2)
	assert.Equal(t, SamplerConfig{Parameter: "cluster_selection_epsilon_milli", Kind: "linear", Upper: 100, Step: 25}, cfg.Samplers[1])

	// 既定値
	assert.Equal(t, 256, cfg.Embedder.Dimensions)
	assert.Equal(t, 5, cfg.Clusterer.MinClusterSize)
	assert.Equal(t, "info", cfg.LogLevel)

	samplers, err := cfg.BuildSamplers()
	require.NoError(t, err)
	require.Len(t, samplers, 2)
	assert.IsType(t, &sampler.Geometric{}, samplers[0])
	values, err := samplers[1].SampleRange()
	require.NoError(t, err)
	assert.Equal(t, []int{0, 25, 50, 75, 100}, values)

	ms, err := cfg.BuildMetrics()
	require.NoError(t, err)
	assert.Equal(t, "neg_outlier_ratio", ms[1].Name())

	reducer := cfg.BuildReducer()
	require.IsType(t, &manifold.Isomap{}, reducer)
	assert.Equal(t, 7, reducer.(*manifold.Isomap).Neighbors)

	base := cfg.HDBSCAN()
	assert.Equal(t, 5, base.MinClusterSize)
	assert.Equal(t, 2, base.MinSamples)
	assert.Equal(t, int64(42), cfg.KMeans().Seed)

	opts, err := cfg.RunnerOptions()
	require.NoError(t, err)
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	assert.Equal(t, 2, o.Runs)
	assert.Equal(t, 3, o.Components)
	assert.Len(t, o.Metrics, 2)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("CLUSVIEW_RUNS", "4")
	t.Setenv("CLUSVIEW_OUTPUT_DIR", "elsewhere")
	cfg, err := LoadConfig(writeConfig(t, benchYAML))
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Runs)
	assert.Equal(t, "elsewhere", cfg.Output.Dir)
}

func TestConfigBuildsIterator(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, benchYAML))
	require.NoError(t, err)
	samplers, err := cfg.BuildSamplers()
	require.NoError(t, err)

	it, err := NewConfigurationIterator[cluster.HDBSCAN](cluster.NewHDBSCANBuilder(cfg.HDBSCAN()), samplers...)
	require.NoError(t, err)
	n, err := it.Count()
	require.NoError(t, err)
	assert.Equal(t, 6*5, n)
}

func TestConfigValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Dataset:   DatasetConfig{Path: "d.csv", Columns: []string{"text"}},
			Embedder:  EmbedderConfig{Dimensions: 16},
			Reducer:   ReducerConfig{Method: "pca", Components: 2},
			Clusterer: ClustererConfig{Algorithm: "hdbscan"},
			Samplers:  []SamplerConfig{{Parameter: "min_cluster_size", Kind: "linear", Lower: 2, Upper: 4}},
			Metrics:   []string{"silhouette"},
			Runs:      1,
		}
	}
	base := valid()
	require.NoError(t, base.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no dataset", func(c *Config) { c.Dataset = DatasetConfig{} }},
		{"no columns", func(c *Config) { c.Dataset.Columns = nil }},
		{"labels without path", func(c *Config) {
			c.Dataset = DatasetConfig{Embeddings: "x.csv", LabelColumn: "status"}
		}},
		{"zero dimensions", func(c *Config) { c.Embedder.Dimensions = 0 }},
		{"zero runs", func(c *Config) { c.Runs = 0 }},
		{"negative workers", func(c *Config) { c.Workers = -1 }},
		{"no samplers", func(c *Config) { c.Samplers = nil }},
		{"no metrics", func(c *Config) { c.Metrics = nil }},
		{"unknown metric", func(c *Config) { c.Metrics = []string{"accuracy"} }},
		{"unknown reducer", func(c *Config) { c.Reducer.Method = "tsne" }},
		{"negative min_dist", func(c *Config) { c.Reducer.MinDist = -0.5 }},
		{"unknown algorithm", func(c *Config) { c.Clusterer.Algorithm = "dbscan" }},
		{"unknown sampler kind", func(c *Config) { c.Samplers[0].Kind = "random" }},
		{"unnamed sampler", func(c *Config) { c.Samplers[0].Parameter = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			var ve *errors.ValidationError
			assert.True(t, errors.As(c.Validate(), &ve))
		})
	}
}

func TestBuildReducerNone(t *testing.T) {
	for _, method := range []string{"", "none"} {
		c := Config{Reducer: ReducerConfig{Method: method}}
		assert.Nil(t, c.BuildReducer())
	}
	c := Config{Reducer: ReducerConfig{Method: "pca"}}
	assert.Equal(t, manifold.PCA{}, c.BuildReducer())
}

func TestReducerDefaultsToUMAP(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, `
dataset:
  path: tickets.csv
  columns: [body]
samplers:
  - parameter: min_cluster_size
    kind: linear
    lower: 2
    upper: 6
seed: 3
`))
	require.NoError(t, err)
	assert.Equal(t, "umap", cfg.Reducer.Method)
	assert.Equal(t, 5, cfg.Reducer.Components)
	assert.Equal(t, manifold.DefaultUMAPNeighbors, cfg.Reducer.Neighbors)
	assert.Equal(t, "cosine", cfg.Reducer.Metric)

	u, ok := cfg.BuildReducer().(*manifold.UMAP)
	require.True(t, ok)
	assert.Equal(t, manifold.DefaultUMAPNeighbors, u.Neighbors)
	assert.Equal(t, 0.0, u.MinDist)
	assert.Equal(t, "cosine", u.Metric)
	assert.Equal(t, int64(3), u.Seed)
}
