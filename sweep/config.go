package sweep

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/viper"

	"github.com/YuminosukeSato/clusview/cluster"
	"github.com/YuminosukeSato/clusview/manifold"
	"github.com/YuminosukeSato/clusview/metrics"
	"github.com/YuminosukeSato/clusview/pkg/errors"
	"github.com/YuminosukeSato/clusview/sampler"
)

// EnvPrefix prefixes environment overrides, e.g. CLUSVIEW_RUNS=5 or
// CLUSVIEW_OUTPUT_DIR=out.
const EnvPrefix = "CLUSVIEW"

// Config is a benchmark definition, usually read from YAML with LoadConfig.
type Config struct {
	Dataset   DatasetConfig   `mapstructure:"dataset" yaml:"dataset"`
	Embedder  EmbedderConfig  `mapstructure:"embedder" yaml:"embedder"`
	Reducer   ReducerConfig   `mapstructure:"reducer" yaml:"reducer"`
	Clusterer ClustererConfig `mapstructure:"clusterer" yaml:"clusterer"`
	Samplers  []SamplerConfig `mapstructure:"samplers" yaml:"samplers"`
	Metrics   []string        `mapstructure:"metrics" yaml:"metrics"`
	Runs      int             `mapstructure:"runs" yaml:"runs"`
	Workers   int             `mapstructure:"workers" yaml:"workers"`
	Seed      int64           `mapstructure:"seed" yaml:"seed"`
	Output    OutputConfig    `mapstructure:"output" yaml:"output"`
	LogLevel  string          `mapstructure:"log_level" yaml:"log_level"`
}

// DatasetConfig points at the documents (or precomputed embeddings) to cluster.
type DatasetConfig struct {
	// Path is a CSV of documents; Columns are concatenated into one text per row.
	Path    string   `mapstructure:"path" yaml:"path"`
	Columns []string `mapstructure:"columns" yaml:"columns"`
	// Embeddings is a numeric CSV used instead of embedding Path.
	Embeddings string `mapstructure:"embeddings" yaml:"embeddings,omitempty"`
	// LabelColumn of Path holds the ground truth; rows equal to Positive are 1.
	LabelColumn string `mapstructure:"label_column" yaml:"label_column,omitempty"`
	Positive    string `mapstructure:"positive" yaml:"positive,omitempty"`
}

// EmbedderConfig configures the hashing embedder.
type EmbedderConfig struct {
	Dimensions int    `mapstructure:"dimensions" yaml:"dimensions"`
	Seed       uint64 `mapstructure:"seed" yaml:"seed"`
	Bigrams    bool   `mapstructure:"bigrams" yaml:"bigrams"`
}

// ReducerConfig selects the manifold reduction applied before clustering.
type ReducerConfig struct {
	Method     string `mapstructure:"method" yaml:"method"` // none, pca, isomap, umap
	Components int    `mapstructure:"components" yaml:"components"`
	Neighbors  int    `mapstructure:"neighbors" yaml:"neighbors"`

	// UMAP only.
	MinDist float64 `mapstructure:"min_dist" yaml:"min_dist"`
	Metric  string  `mapstructure:"metric" yaml:"metric"`

	// Standardize scales embedding columns before reduction.
	Standardize bool `mapstructure:"standardize" yaml:"standardize"`
}

// ClustererConfig holds the algorithm and the values of every parameter
// that is not sampled.
type ClustererConfig struct {
	Algorithm string `mapstructure:"algorithm" yaml:"algorithm"` // hdbscan, kmeans

	MinClusterSize          int     `mapstructure:"min_cluster_size" yaml:"min_cluster_size"`
	MinSamples              int     `mapstructure:"min_samples" yaml:"min_samples"`
	ClusterSelectionEpsilon float64 `mapstructure:"cluster_selection_epsilon" yaml:"cluster_selection_epsilon"`
	AllowSingleCluster      bool    `mapstructure:"allow_single_cluster" yaml:"allow_single_cluster"`

	NClusters int `mapstructure:"n_clusters" yaml:"n_clusters"`
	BatchSize int `mapstructure:"batch_size" yaml:"batch_size"`
	MaxIter   int `mapstructure:"max_iter" yaml:"max_iter"`
}

// SamplerConfig describes one sampled parameter.
type SamplerConfig struct {
	Parameter string `mapstructure:"parameter" yaml:"parameter"`
	Kind      string `mapstructure:"kind" yaml:"kind"` // linear, polynomial, geometric
	Lower     int    `mapstructure:"lower" yaml:"lower"`
	Upper     int    `mapstructure:"upper" yaml:"upper"`
	Step      int    `mapstructure:"step" yaml:"step,omitempty"`
	Samples   int    `mapstructure:"samples" yaml:"samples,omitempty"`
	Degree    int    `mapstructure:"degree" yaml:"degree,omitempty"`
}

// OutputConfig says where and what to write.
type OutputConfig struct {
	Dir         string `mapstructure:"dir" yaml:"dir"`
	Plot        bool   `mapstructure:"plot" yaml:"plot"`
	MetricsFile string `mapstructure:"metrics_file" yaml:"metrics_file,omitempty"`
}

// SetDefaults registers the default of every scalar key. Keys need a default
// for environment overrides to reach Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("dataset.path", "")
	v.SetDefault("dataset.embeddings", "")
	v.SetDefault("dataset.label_column", "")
	v.SetDefault("dataset.positive", "")
	v.SetDefault("embedder.dimensions", 256)
	v.SetDefault("embedder.seed", 0)
	v.SetDefault("embedder.bigrams", true)
	v.SetDefault("reducer.method", "umap")
	v.SetDefault("reducer.components", 5)
	v.SetDefault("reducer.neighbors", manifold.DefaultUMAPNeighbors)
	v.SetDefault("reducer.min_dist", 0.0)
	v.SetDefault("reducer.metric", "cosine")
	v.SetDefault("reducer.standardize", false)
	v.SetDefault("clusterer.algorithm", "hdbscan")
	v.SetDefault("clusterer.min_cluster_size", 5)
	v.SetDefault("clusterer.min_samples", 0)
	v.SetDefault("clusterer.cluster_selection_epsilon", 0.0)
	v.SetDefault("clusterer.allow_single_cluster", false)
	v.SetDefault("clusterer.n_clusters", 8)
	v.SetDefault("clusterer.batch_size", 100)
	v.SetDefault("clusterer.max_iter", 100)
	v.SetDefault("metrics", []string{"silhouette", "outlier_ratio"})
	v.SetDefault("runs", 1)
	v.SetDefault("workers", 0)
	v.SetDefault("seed", 0)
	v.SetDefault("output.dir", "clusview-out")
	v.SetDefault("output.plot", false)
	v.SetDefault("output.metrics_file", "")
	v.SetDefault("log_level", "info")
}

// NewViper returns a viper instance with defaults and CLUSVIEW_* overrides.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

// LoadConfig reads path (YAML unless the extension says otherwise), applies
// environment overrides and validates the result.
func LoadConfig(path string) (*Config, error) {
	v := NewViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "reading config file %s", path)
	}
	return LoadWithViper(v)
}

// LoadWithViper unmarshals and validates the configuration held by v.
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshalling config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks everything that can be checked without touching the data.
func (c *Config) Validate() error {
	switch {
	case c.Dataset.Path == "" && c.Dataset.Embeddings == "":
		return errors.NewValidationError("dataset", "either path or embeddings is required", nil)
	case c.Dataset.Embeddings == "" && len(c.Dataset.Columns) == 0:
		return errors.NewValidationError("dataset.columns", "at least one text column is required", nil)
	case c.Dataset.LabelColumn != "" && c.Dataset.Path == "":
		return errors.NewValidationError("dataset.label_column", "labels are read from dataset.path", c.Dataset.LabelColumn)
	case c.Embedder.Dimensions < 1:
		return errors.NewValidationError("embedder.dimensions", "must be at least 1", c.Embedder.Dimensions)
	case c.Reducer.Components < 0:
		return errors.NewValidationError("reducer.components", "must not be negative", c.Reducer.Components)
	case c.Reducer.MinDist < 0:
		return errors.NewValidationError("reducer.min_dist", "must not be negative", c.Reducer.MinDist)
	case c.Runs < 1:
		return errors.NewValidationError("runs", "must be at least 1", c.Runs)
	case c.Workers < 0:
		return errors.NewValidationError("workers", "must not be negative", c.Workers)
	case len(c.Samplers) == 0:
		return errors.NewValidationError("samplers", "at least one sampler is required", 0)
	case len(c.Metrics) == 0:
		return errors.NewValidationError("metrics", "at least one metric is required", 0)
	}
	if !slices.Contains([]string{"", "none", "pca", "isomap", "umap"}, c.Reducer.Method) {
		return errors.NewValidationError("reducer.method", "expected none, pca, isomap or umap", c.Reducer.Method)
	}
	if !slices.Contains([]string{"hdbscan", "kmeans"}, c.Clusterer.Algorithm) {
		return errors.NewValidationError("clusterer.algorithm", "expected hdbscan or kmeans", c.Clusterer.Algorithm)
	}
	if _, err := c.BuildSamplers(); err != nil {
		return err
	}
	if _, err := c.BuildMetrics(); err != nil {
		return err
	}
	return nil
}

// BuildSamplers turns the sampler definitions into samplers, in order.
// Ranges are not sampled here; invalid bounds surface at SampleRange.
func (c *Config) BuildSamplers() ([]sampler.Sampler, error) {
	out := make([]sampler.Sampler, len(c.Samplers))
	for i, s := range c.Samplers {
		if s.Parameter == "" {
			return nil, errors.NewValidationError(fmt.Sprintf("samplers[%d].parameter", i), "must not be empty", s.Parameter)
		}
		switch s.Kind {
		case "linear":
			step := s.Step
			if step == 0 {
				step = 1
			}
			out[i] = sampler.NewLinear(s.Parameter, s.Lower, s.Upper, step)
		case "polynomial":
			out[i] = sampler.NewPolynomial(s.Parameter, s.Lower, s.Upper, s.Samples, s.Degree)
		case "geometric":
			out[i] = sampler.NewGeometric(s.Parameter, s.Lower, s.Upper, s.Samples)
		default:
			return nil, errors.NewValidationError(fmt.Sprintf("samplers[%d].kind", i), "expected linear, polynomial or geometric", s.Kind)
		}
	}
	return out, nil
}

// BuildMetrics resolves the metric names.
func (c *Config) BuildMetrics() ([]metrics.Metric, error) {
	out := make([]metrics.Metric, len(c.Metrics))
	for i, name := range c.Metrics {
		m, err := metrics.ByName(name)
		if err != nil {
			return nil, err
		}
		out[i] = m
	}
	return out, nil
}

// BuildReducer returns nil when no reduction is configured.
func (c *Config) BuildReducer() manifold.Reducer {
	switch c.Reducer.Method {
	case "pca":
		return manifold.PCA{}
	case "isomap":
		return manifold.NewIsomap(manifold.WithNeighbors(c.Reducer.Neighbors))
	case "umap":
		// 実行ごとにRunnerがseed+runで再シードする
		opts := []manifold.UMAPOption{
			manifold.WithUMAPNeighbors(c.Reducer.Neighbors),
			manifold.WithMinDist(c.Reducer.MinDist),
			manifold.WithUMAPSeed(c.Seed),
		}
		if c.Reducer.Metric != "" {
			opts = append(opts, manifold.WithMetric(c.Reducer.Metric))
		}
		return manifold.NewUMAP(opts...)
	}
	return nil
}

// HDBSCAN is the base configuration sampled values are applied to.
func (c *Config) HDBSCAN() cluster.HDBSCAN {
	return *cluster.NewHDBSCAN(
		cluster.WithMinClusterSize(c.Clusterer.MinClusterSize),
		cluster.WithMinSamples(c.Clusterer.MinSamples),
		cluster.WithClusterSelectionEpsilon(c.Clusterer.ClusterSelectionEpsilon),
		cluster.WithAllowSingleCluster(c.Clusterer.AllowSingleCluster),
	)
}

// KMeans is the base configuration sampled values are applied to.
func (c *Config) KMeans() cluster.MiniBatchKMeans {
	return *cluster.NewMiniBatchKMeans(
		cluster.WithKMeansNClusters(c.Clusterer.NClusters),
		cluster.WithKMeansBatchSize(c.Clusterer.BatchSize),
		cluster.WithKMeansMaxIter(c.Clusterer.MaxIter),
		cluster.WithKMeansSeed(c.Seed),
	)
}

// RunnerOptions maps the scalar settings onto runner options.
func (c *Config) RunnerOptions() ([]Option, error) {
	ms, err := c.BuildMetrics()
	if err != nil {
		return nil, err
	}
	opts := []Option{
		WithRuns(c.Runs),
		WithSeed(c.Seed),
		WithMetrics(ms...),
		WithStandardize(c.Reducer.Standardize),
	}
	if c.Workers > 0 {
		opts = append(opts, WithWorkers(c.Workers))
	}
	if r := c.BuildReducer(); r != nil {
		opts = append(opts, WithReducer(r, c.Reducer.Components))
	}
	return opts, nil
}
