package manifold

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/clusview/pkg/errors"
)

// PCA is a linear reducer over gonum's stat.PC.
type PCA struct{}

// Reduce implements Reducer. components must not exceed min(rows, cols).
func (PCA) Reduce(X mat.Matrix, components int) (*mat.Dense, error) {
	r, c, err := checkInput("PCA.Reduce", X, components)
	if err != nil {
		return nil, err
	}
	if limit := min(r, c); components > limit {
		return nil, errors.NewDimensionError("PCA.Reduce", limit, components, 1)
	}

	var pc stat.PC
	if ok := pc.PrincipalComponents(X, nil); !ok {
		return nil, errors.NewModelError("PCA.Reduce", "svd", errors.New("factorization failed"))
	}
	var vecs mat.Dense
	pc.VectorsTo(&vecs)

	var out mat.Dense
	out.Mul(centered(X), vecs.Slice(0, c, 0, components))
	fixSigns(&out)
	return &out, nil
}
