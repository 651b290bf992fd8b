// Public domain.

// Package wdbin defines the magnitude binned white dwarf luminosity
// function and the accumulator that builds it from sampled stars.
package wdbin

import (
	"math"
	"sort"

	"github.com/cockroachdb/errors"
)

// ErrBins is returned for bin layouts that are empty, unordered or
// overlapping.
var ErrBins = errors.New("invalid magnitude bins")

// EmptySigma is the uncertainty reported for bins with no stars.  Such bins
// are kept, with zero density, so fits see them.
const EmptySigma = math.MaxFloat64

// Interval is the magnitude range [Lo, Hi) of one bin.
type Interval struct {
	Lo, Hi float64
}

// Centre returns the bin centre.
func (iv Interval) Centre() float64 { return (iv.Lo + iv.Hi) / 2 }

// Width returns the bin width.
func (iv Interval) Width() float64 { return iv.Hi - iv.Lo }

// Layout is an ordered list of non-overlapping magnitude bins, brightest
// first.  Gaps are allowed in observed layouts; Uniform layouts have none.
type Layout []Interval

// Uniform returns contiguous bins of width w covering [lo, hi].  The number
// of bins is the nearest whole number of widths, so if the range is not a
// whole number the last bin is stretched or shortened, by up to half a
// width, to end at hi.
func Uniform(lo, hi, w float64) (Layout, error) {
	if !(hi > lo && w > 0) {
		return nil, errors.Wrapf(ErrBins, "range [%g, %g] width %g", lo, hi, w)
	}
	n := int(math.Round((hi - lo) / w))
	if n < 1 {
		n = 1
	}
	l := make(Layout, n)
	for i := range l {
		l[i] = Interval{lo + float64(i)*w, lo + float64(i+1)*w}
	}
	l[n-1].Hi = hi
	return l, nil
}

// NewLayout builds a layout from bin centres and widths, validating order
// and overlap.  Neighbouring edges that agree to within a part in 1e9 of
// the width are joined exactly.
func NewLayout(centre, width []float64) (Layout, error) {
	if len(centre) == 0 || len(centre) != len(width) {
		return nil, errors.Wrapf(ErrBins, "%d centres, %d widths", len(centre), len(width))
	}
	l := make(Layout, len(centre))
	for i, c := range centre {
		w := width[i]
		if !(w > 0) {
			return nil, errors.Wrapf(ErrBins, "bin %d width %g", i, w)
		}
		l[i] = Interval{c - w/2, c + w/2}
		if i == 0 {
			continue
		}
		p := &l[i-1]
		switch d := l[i].Lo - p.Hi; {
		case c <= centre[i-1]:
			return nil, errors.Wrapf(ErrBins, "bin %d centre %g not after %g", i, c, centre[i-1])
		case math.Abs(d) <= 1e-9*w:
			l[i].Lo = p.Hi
		case d < 0:
			return nil, errors.Wrapf(ErrBins, "bin %d [%g, %g] overlaps [%g, %g]",
				i, l[i].Lo, l[i].Hi, p.Lo, p.Hi)
		}
	}
	return l, nil
}

// Index returns the bin containing mag.  InRange is false if mag is
// outside all bins, including in a gap.
func (l Layout) Index(mag float64) (i int, inRange bool) {
	i = sort.Search(len(l), func(i int) bool { return mag < l[i].Hi })
	if i == len(l) || mag < l[i].Lo {
		return i, false
	}
	return i, true
}

// Contiguous reports whether each bin starts where the previous ends.
func (l Layout) Contiguous() bool {
	for i := 1; i < len(l); i++ {
		if l[i].Lo != l[i-1].Hi {
			return false
		}
	}
	return true
}

// Range returns the brightest and faintest edges.
func (l Layout) Range() (lo, hi float64) {
	return l[0].Lo, l[len(l)-1].Hi
}
