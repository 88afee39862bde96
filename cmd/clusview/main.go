// Command clusview sweeps clustering hyperparameters over a document set and
// turns the sampled scores into metric maps.
//
//	clusview sweep --config bench.yaml
//	clusview map --sampling silhouette_map.csv --normalize --plot silhouette.png
//	clusview compare a.csv b.csv
//	clusview combine --weight 1 --weight 2 a.csv b.csv --out c.csv
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
