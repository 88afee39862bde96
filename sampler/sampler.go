// Package sampler produces the candidate values of one clustering
// hyperparameter.
//
// A Sampler is an immutable description of a range and a spacing strategy.
// SampleRange recomputes the sequence on every call; nothing is cached.
// Invalid bounds are reported by SampleRange, not by the constructors, so a
// sweep definition can be assembled first and validated when it is expanded.
package sampler

import (
	"fmt"
	"math"

	"github.com/YuminosukeSato/clusview/pkg/errors"
)

// Sampler is an ordered source of integer candidate values for the
// hyperparameter returned by Name.
type Sampler interface {
	Name() string
	SampleRange() ([]int, error)
}

// Linear yields the arithmetic progression Lower, Lower+Step, ... <= Upper.
type Linear struct {
	Parameter string
	Lower     int
	Upper     int
	Step      int
}

// NewLinear returns a Linear sampler.
func NewLinear(parameter string, lower, upper, step int) *Linear {
	return &Linear{Parameter: parameter, Lower: lower, Upper: upper, Step: step}
}

// Name implements Sampler.
func (l *Linear) Name() string { return l.Parameter }

// SampleRange implements Sampler.
func (l *Linear) SampleRange() ([]int, error) {
	if l.Step <= 0 {
		return nil, errors.NewValidationError("step", "must be positive", l.Step)
	}
	if err := checkBounds(l.Lower, l.Upper); err != nil {
		return nil, err
	}
	// Upper付近でv += Stepがオーバーフローしないよう個数で回す
	values := make([]int, (l.Upper-l.Lower)/l.Step+1)
	for i := range values {
		values[i] = l.Lower + i*l.Step
	}
	return values, nil
}

func (l *Linear) String() string {
	return fmt.Sprintf("Linear(%s: %d..%d step %d)", l.Parameter, l.Lower, l.Upper, l.Step)
}

// Polynomial spaces Samples points evenly between the Degree-th roots of the
// bounds and raises them back to the Degree-th power, so candidates are
// denser near the lower bound. Rounded duplicates are collapsed, so fewer
// than Samples values may be returned.
type Polynomial struct {
	Parameter string
	Lower     int
	Upper     int
	Samples   int
	Degree    int
}

// NewPolynomial returns a Polynomial sampler.
func NewPolynomial(parameter string, lower, upper, samples, degree int) *Polynomial {
	return &Polynomial{Parameter: parameter, Lower: lower, Upper: upper, Samples: samples, Degree: degree}
}

// Name implements Sampler.
func (p *Polynomial) Name() string { return p.Parameter }

// SampleRange implements Sampler.
func (p *Polynomial) SampleRange() ([]int, error) {
	if p.Degree < 1 {
		return nil, errors.NewValidationError("degree", "must be at least 1", p.Degree)
	}
	if p.Samples < 1 {
		return nil, errors.NewValidationError("number_of_samples", "must be at least 1", p.Samples)
	}
	if err := checkBounds(p.Lower, p.Upper); err != nil {
		return nil, err
	}
	if p.Lower < 0 && p.Degree%2 == 0 {
		return nil, errors.NewValueError("Polynomial.SampleRange",
			fmt.Sprintf("even root (degree %d) of negative lower bound %d is undefined", p.Degree, p.Lower))
	}

	start := root(float64(p.Lower), p.Degree)
	end := root(float64(p.Upper), p.Degree)
	raw := Linspace(start, end, p.Samples)
	values := make([]int, len(raw))
	for i, r := range raw {
		v := int(math.RoundToEven(math.Pow(r, float64(p.Degree))))
		values[i] = clamp(v, p.Lower, p.Upper)
	}
	return sortedUnique(values), nil
}

func (p *Polynomial) String() string {
	return fmt.Sprintf("Polynomial(%s: %d..%d, %d samples, degree %d)", p.Parameter, p.Lower, p.Upper, p.Samples, p.Degree)
}

// root is the real d-th root of x. For odd d a negative x keeps its sign.
func root(x float64, d int) float64 {
	if d == 1 {
		return x
	}
	if x < 0 {
		return -math.Pow(-x, 1/float64(d))
	}
	return math.Pow(x, 1/float64(d))
}

// Geometric spaces Samples points evenly in log space between the bounds.
// Values are truncated to integers, then duplicates are collapsed; with
// Samples close to the range size many candidates coincide.
type Geometric struct {
	Parameter string
	Lower     int
	Upper     int
	Samples   int
}

// NewGeometric returns a Geometric sampler.
func NewGeometric(parameter string, lower, upper, samples int) *Geometric {
	return &Geometric{Parameter: parameter, Lower: lower, Upper: upper, Samples: samples}
}

// Name implements Sampler.
func (g *Geometric) Name() string { return g.Parameter }

// SampleRange implements Sampler.
func (g *Geometric) SampleRange() ([]int, error) {
	if g.Samples < 1 {
		return nil, errors.NewValidationError("number_of_samples", "must be at least 1", g.Samples)
	}
	if g.Lower <= 0 {
		return nil, errors.NewValueError("Geometric.SampleRange",
			fmt.Sprintf("lower bound must be positive for log spacing, got %d", g.Lower))
	}
	if err := checkBounds(g.Lower, g.Upper); err != nil {
		return nil, err
	}

	raw, err := Geomspace(float64(g.Lower), float64(g.Upper), g.Samples)
	if err != nil {
		return nil, err
	}
	values := make([]int, len(raw))
	for i, r := range raw {
		// 浮動小数点誤差で整数値の直下に落ちるのを防ぐ
		values[i] = clamp(int(r+1e-9), g.Lower, g.Upper)
	}
	return sortedUnique(values), nil
}

func (g *Geometric) String() string {
	return fmt.Sprintf("Geometric(%s: %d..%d, %d samples)", g.Parameter, g.Lower, g.Upper, g.Samples)
}

func checkBounds(lower, upper int) error {
	if lower > upper {
		return errors.NewValidationError("lower_bound",
			fmt.Sprintf("must not exceed upper bound %d", upper), lower)
	}
	return nil
}

func clamp(v, lower, upper int) int {
	return max(lower, min(v, upper))
}
