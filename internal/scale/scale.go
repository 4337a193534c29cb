// Package scale provides linear domain to range mapping.
package scale

import (
	"errors"

	"github.com/verte-zerg/casebars/internal/model"
)

// ErrEmptyDomain is returned when a scale is requested for an empty result.
var ErrEmptyDomain = errors.New("cannot build scale domain from empty result")

// Linear maps a numeric domain onto a numeric range without clamping.
type Linear struct {
	d0, d1 float64
	r0, r1 float64
}

// NewLinear builds a linear scale.
func NewLinear(domain, rng [2]float64) Linear {
	return Linear{d0: domain[0], d1: domain[1], r0: rng[0], r1: rng[1]}
}

// Domain returns the input interval.
func (l Linear) Domain() [2]float64 {
	return [2]float64{l.d0, l.d1}
}

// Range returns the output interval.
func (l Linear) Range() [2]float64 {
	return [2]float64{l.r0, l.r1}
}

// Map interpolates x. Values outside the domain extrapolate.
// A zero-width domain maps everything to the range start.
func (l Linear) Map(x float64) float64 {
	span := l.d1 - l.d0
	if span == 0 {
		return l.r0
	}
	return l.r0 + (x-l.d0)*(l.r1-l.r0)/span
}

// Invert maps a range value back into the domain.
func (l Linear) Invert(y float64) float64 {
	span := l.r1 - l.r0
	if span == 0 {
		return l.d0
	}
	return l.d0 + (y-l.r0)*(l.d1-l.d0)/span
}

// BuildCasesScale returns a scale from [1, max total cases] to [0, 1].
func BuildCasesScale(result model.AggregationResult) (Linear, error) {
	maxCases, ok := result.MaxCases()
	if !ok {
		return Linear{}, ErrEmptyDomain
	}
	return NewLinear([2]float64{1, maxCases}, [2]float64{0, 1}), nil
}
