// Package clusview benchmarks clustering algorithms over grids of integer
// hyperparameters and turns the results into metric maps.
//
// A sweep samples every hyperparameter with a sampler (linear, polynomial or
// geometric), builds one clusterer per configuration, clusters the document
// embeddings once per configuration and run, and scores each labelling with
// one or more clustering metrics. The scores become a metric map: an n-D
// field over the unit lattice spanned by the sampled values, filled by
// piecewise-linear interpolation.
//
// # Packages
//
//   - sampler: parameter samplers and their Cartesian product
//   - sweep: configuration iterator, parallel runner, YAML config and outputs
//   - cluster: HDBSCAN and mini-batch k-means behind one Clusterer interface
//   - metrics: clustering scores and metric combinators
//   - metricmap: interpolation, normalisation, smoothing, reduction, plotting
//     and map algebra
//   - document: CSV loading, column concatenation and hashing embeddings
//   - manifold: UMAP (default), PCA and Isomap reducers
//   - preprocessing: standard scaling ahead of reduction
//
// # Command line
//
// The clusview binary wraps the packages:
//
//	clusview sweep --config bench.yaml
//	clusview map --sampling silhouette_map.csv --normalize --plot silhouette.png
//	clusview compare a_map.csv b_map.csv
//	clusview combine -w 0.5 -w 0.5 a_map.csv b_map.csv -o combined.csv
//
// Every key of the YAML config can be overridden from the environment with
// the CLUSVIEW_ prefix.
//
// # Library use
//
//	it, err := sweep.NewConfigurationIterator(
//	    cluster.NewHDBSCANBuilder(cluster.HDBSCAN{}),
//	    sampler.NewLinear("min_cluster_size", 2, 20, 2),
//	    sampler.NewGeometric("min_samples", 1, 32, 6),
//	)
//	if err != nil {
//	    return err
//	}
//	runner, err := sweep.NewRunner(it, sweep.WithMetrics(metrics.SilhouetteScore{}))
//	if err != nil {
//	    return err
//	}
//	res, err := runner.Run(ctx, embeddings, nil)
//	if err != nil {
//	    return err
//	}
//	maps, err := res.Maps()
//
// Errors carry stack traces through pkg/errors, and logging goes through
// pkg/log (slog with a zerolog console handler for the CLI).
package clusview
