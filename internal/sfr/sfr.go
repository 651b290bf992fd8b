// Public domain.

// Package sfr implements star formation histories, the rate of star
// formation as a function of lookback time.
//
// Rates are in stars (or solar masses, consistently) per year, times in
// years before the present.
package sfr

import (
	"math"
	"sort"

	"github.com/cockroachdb/errors"
)

// ErrSFR is the error class of invalid star formation histories.
var ErrSFR = errors.New("invalid star formation history")

// SFR is a star formation history over the lookback times [tmin, tmax].
type SFR interface {
	// Rate returns the rate at lookback time t, zero outside the range.
	Rate(t float64) float64
	// Integral returns the total star formation and its uncertainty.
	Integral() (total, sigma float64)
	// Draw samples a formation time with probability proportional to Rate.
	Draw(r Rand) float64
	// Range returns the lookback time limits.
	Range() (tmin, tmax float64)
}

// Rand is the uniform deviate source used for drawing.
type Rand interface {
	Float64() float64
}

// Constant is a constant rate between TMin and TMax.
type Constant struct {
	TMin, TMax float64
	R          float64
}

// NewConstant validates and returns a constant rate history.
func NewConstant(rate, tmin, tmax float64) (*Constant, error) {
	if !(tmin >= 0 && tmax > tmin && rate > 0) {
		return nil, errors.Wrapf(ErrSFR, "constant rate %g over [%g, %g]", rate, tmin, tmax)
	}
	return &Constant{tmin, tmax, rate}, nil
}

func (c *Constant) Range() (tmin, tmax float64) { return c.TMin, c.TMax }

func (c *Constant) Rate(t float64) float64 {
	if t < c.TMin || t > c.TMax {
		return 0
	}
	return c.R
}

func (c *Constant) Integral() (total, sigma float64) {
	return c.R * (c.TMax - c.TMin), 0
}

func (c *Constant) Draw(r Rand) float64 {
	return c.TMin + r.Float64()*(c.TMax-c.TMin)
}

// Exponential is R0 * exp(t / Tau) for t in [TMin, TMax].  Positive Tau
// means star formation declining toward the present.
type Exponential struct {
	TMin, TMax float64
	R0, Tau    float64

	e0, e1 float64 // exp(TMin/Tau), exp(TMax/Tau)
}

// NewExponential validates and returns an exponential history.
func NewExponential(r0, tau, tmin, tmax float64) (*Exponential, error) {
	if !(tmin >= 0 && tmax > tmin && r0 > 0 && tau != 0) {
		return nil, errors.Wrapf(ErrSFR, "exponential rate %g, tau %g over [%g, %g]",
			r0, tau, tmin, tmax)
	}
	return &Exponential{
		TMin: tmin, TMax: tmax, R0: r0, Tau: tau,
		e0: math.Exp(tmin / tau),
		e1: math.Exp(tmax / tau),
	}, nil
}

func (e *Exponential) Range() (tmin, tmax float64) { return e.TMin, e.TMax }

func (e *Exponential) Rate(t float64) float64 {
	if t < e.TMin || t > e.TMax {
		return 0
	}
	return e.R0 * math.Exp(t/e.Tau)
}

func (e *Exponential) Integral() (total, sigma float64) {
	return e.R0 * e.Tau * (e.e1 - e.e0), 0
}

func (e *Exponential) Draw(r Rand) float64 {
	return e.Tau * math.Log(e.e0+r.Float64()*(e.e1-e.e0))
}

// Bin is one interval of a tabulated history.
type Bin struct {
	TMin, TMax    float64
	Rate, Sigma   float64
	Unconstrained bool // no constraint; Rate and Sigma are meaningless
}

// Tabulated is a piecewise constant history over ordered, non-overlapping
// bins, possibly of irregular width and possibly with gaps.  Unconstrained
// bins form no stars.
type Tabulated struct {
	Bins []Bin

	cum []float64 // cumulative star formation at the end of each bin
}

// NewTabulated validates bins and returns a tabulated history.  Bins must
// be sorted by time and must not overlap.  A history with no star formation
// is valid, as an inversion may produce one, but it cannot be drawn from.
func NewTabulated(bins []Bin) (*Tabulated, error) {
	if len(bins) == 0 {
		return nil, errors.Wrap(ErrSFR, "no bins")
	}
	s := &Tabulated{
		Bins: append([]Bin{}, bins...),
		cum:  make([]float64, len(bins)),
	}
	var c float64
	for i, b := range s.Bins {
		if !(b.TMax > b.TMin && b.TMin >= 0) {
			return nil, errors.Wrapf(ErrSFR, "bin %d [%g, %g]", i, b.TMin, b.TMax)
		}
		if i > 0 && b.TMin < s.Bins[i-1].TMax {
			return nil, errors.Wrapf(ErrSFR, "bin %d overlaps bin %d", i, i-1)
		}
		if !b.Unconstrained {
			if b.Rate < 0 {
				return nil, errors.Wrapf(ErrSFR, "bin %d negative rate %g", i, b.Rate)
			}
			c += b.Rate * (b.TMax - b.TMin)
		}
		s.cum[i] = c
	}
	return s, nil
}

func (s *Tabulated) Range() (tmin, tmax float64) {
	return s.Bins[0].TMin, s.Bins[len(s.Bins)-1].TMax
}

// find returns the bin containing t, or -1.
func (s *Tabulated) find(t float64) int {
	i := sort.Search(len(s.Bins), func(i int) bool { return s.Bins[i].TMax >= t })
	if i == len(s.Bins) || t < s.Bins[i].TMin {
		return -1
	}
	return i
}

func (s *Tabulated) Rate(t float64) float64 {
	i := s.find(t)
	if i < 0 || s.Bins[i].Unconstrained {
		return 0
	}
	return s.Bins[i].Rate
}

// Integral sums rate times width over constrained bins, with uncertainties
// added in quadrature.
func (s *Tabulated) Integral() (total, sigma float64) {
	var v float64
	for _, b := range s.Bins {
		if b.Unconstrained {
			continue
		}
		w := b.TMax - b.TMin
		v += b.Sigma * b.Sigma * w * w
	}
	return s.cum[len(s.cum)-1], math.Sqrt(v)
}

// Draw selects a bin by its share of total star formation, then a time
// uniformly within the bin.  The integral must be positive.
func (s *Tabulated) Draw(r Rand) float64 {
	total := s.cum[len(s.cum)-1]
	u := r.Float64() * total
	i := sort.Search(len(s.cum), func(i int) bool { return s.cum[i] > u })
	if i == len(s.cum) { // rounding put u at total
		i--
		for s.Bins[i].Unconstrained || s.Bins[i].Rate == 0 {
			i--
		}
	}
	b := s.Bins[i]
	var c0 float64
	if i > 0 {
		c0 = s.cum[i-1]
	}
	f := (u - c0) / (b.Rate * (b.TMax - b.TMin))
	return b.TMin + f*(b.TMax-b.TMin)
}
