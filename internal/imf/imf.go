// Public domain.

// Package imf implements initial mass functions, the probability density of
// progenitor mass at formation.
//
// All variants are normalized over their mass range and are sampled by
// inverse-CDF sampling, so a draw consumes exactly one uniform deviate and
// keeps no state between calls.
package imf

import (
	"math"

	"github.com/cockroachdb/errors"
)

// ErrDomain is returned for masses outside the range of the function and
// for invalid parameters.
var ErrDomain = errors.New("mass outside IMF domain")

// IMF is a normalized initial mass function over [lo, hi] solar masses.
type IMF interface {
	// Density returns the probability density at mass m.
	Density(m float64) (float64, error)
	// Integral returns the integral of Density over [lo, m], clamped to [0, 1].
	Integral(m float64) float64
	// Quantile returns the mass m with Integral(m) = p.
	Quantile(p float64) float64
	// Range returns the mass limits.
	Range() (lo, hi float64)
}

// Rand is the uniform deviate source used for drawing.
type Rand interface {
	Float64() float64
}

// Draw samples a progenitor mass.
func Draw(f IMF, r Rand) float64 {
	return f.Quantile(r.Float64())
}

// DrawAbove samples a progenitor mass from f truncated below at m.
// Also returned is the fraction of the full function above m, the factor
// that restores normalization to the untruncated function.
func DrawAbove(f IMF, r Rand, m float64) (mass, frac float64) {
	p0 := f.Integral(m)
	return f.Quantile(p0 + (1-p0)*r.Float64()), 1 - p0
}

func checkRange(lo, hi float64) error {
	if !(lo > 0 && hi > lo) || math.IsInf(hi, 1) {
		return errors.Wrapf(ErrDomain, "invalid mass range [%g, %g]", lo, hi)
	}
	return nil
}

// clamp keeps a computed quantile inside [lo, hi] against rounding.
func clamp(m, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, m))
}

func domainErr(m, lo, hi float64) error {
	return errors.Wrapf(ErrDomain, "mass %g outside [%g, %g]", m, lo, hi)
}

// PowerLaw is a single power law, density proportional to m**Exponent.
type PowerLaw struct {
	Exponent float64
	Lo, Hi   float64

	norm float64 // integral of m**Exponent over [Lo, Hi]
}

// NewPowerLaw constructs a normalized power law.  The Salpeter function
// has exponent -2.35.
func NewPowerLaw(exponent, lo, hi float64) (*PowerLaw, error) {
	if err := checkRange(lo, hi); err != nil {
		return nil, err
	}
	return &PowerLaw{
		Exponent: exponent,
		Lo:       lo,
		Hi:       hi,
		norm:     powInt(exponent, lo, hi),
	}, nil
}

// powInt integrates m**a over [m0, m1].
func powInt(a, m0, m1 float64) float64 {
	if a == -1 {
		return math.Log(m1 / m0)
	}
	return (math.Pow(m1, a+1) - math.Pow(m0, a+1)) / (a + 1)
}

func (f *PowerLaw) Range() (lo, hi float64) { return f.Lo, f.Hi }

func (f *PowerLaw) Density(m float64) (float64, error) {
	if m < f.Lo || m > f.Hi {
		return 0, domainErr(m, f.Lo, f.Hi)
	}
	return math.Pow(m, f.Exponent) / f.norm, nil
}

func (f *PowerLaw) Integral(m float64) float64 {
	switch {
	case m <= f.Lo:
		return 0
	case m >= f.Hi:
		return 1
	}
	return powInt(f.Exponent, f.Lo, m) / f.norm
}

func (f *PowerLaw) Quantile(p float64) float64 {
	switch {
	case p <= 0:
		return f.Lo
	case p >= 1:
		return f.Hi
	}
	a := f.Exponent
	if a == -1 {
		return clamp(f.Lo*math.Pow(f.Hi/f.Lo, p), f.Lo, f.Hi)
	}
	l := math.Pow(f.Lo, a+1)
	return clamp(math.Pow(l+p*f.norm*(a+1), 1/(a+1)), f.Lo, f.Hi)
}
