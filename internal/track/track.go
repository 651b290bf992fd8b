// Public domain.

// Package track implements monotone one dimensional tables and sorted sets
// of them.  These are the building blocks of the lifetime, IFMR and cooling
// grids.
//
// Interpolation is always linear between the two nearest points.  Outside a
// table the two end points are extrapolated along the same line and the
// result is flagged, never rejected.
package track

import (
	"sort"

	"github.com/cockroachdb/errors"
)

// ErrTrack is the error class of malformed tables.
var ErrTrack = errors.New("invalid track")

// Track is a table of points (X, Y) with X strictly increasing and Y
// strictly monotonic, so it can be evaluated in either direction.
type Track struct {
	X, Y []float64
	sy   float64 // +1 if Y increases with X, -1 if it decreases
}

// New validates and copies a table.
func New(x, y []float64) (*Track, error) {
	if len(x) != len(y) {
		return nil, errors.Wrapf(ErrTrack, "%d x values, %d y values", len(x), len(y))
	}
	if len(x) < 2 {
		return nil, errors.Wrapf(ErrTrack, "%d points, need at least 2", len(x))
	}
	t := &Track{
		X:  append([]float64{}, x...),
		Y:  append([]float64{}, y...),
		sy: 1,
	}
	if y[1] < y[0] {
		t.sy = -1
	}
	for i := 1; i < len(x); i++ {
		if !(x[i] > x[i-1]) {
			return nil, errors.Wrapf(ErrTrack, "x not increasing at point %d (%g, %g)", i, x[i-1], x[i])
		}
		if !(t.sy*(y[i]-y[i-1]) > 0) {
			return nil, errors.Wrapf(ErrTrack, "y not monotonic at point %d (%g, %g)", i, y[i-1], y[i])
		}
	}
	return t, nil
}

// Line evaluates at x the line through (x0, y0) and (x1, y1).
func Line(x0, y0, x1, y1, x float64) float64 {
	if x1 == x0 {
		return y0
	}
	return y0 + (y1-y0)*(x-x0)/(x1-x0)
}

// At returns Y at x.  Extrap is true if x is outside the tabulated domain.
func (t *Track) At(x float64) (y float64, extrap bool) {
	i, extrap := segment(t.X, 1, x)
	return Line(t.X[i], t.Y[i], t.X[i+1], t.Y[i+1], x), extrap
}

// Inverse returns X at y.  Extrap is true if y is outside the tabulated range.
func (t *Track) Inverse(y float64) (x float64, extrap bool) {
	i, extrap := segment(t.Y, t.sy, y)
	return Line(t.Y[i], t.X[i], t.Y[i+1], t.X[i+1], y), extrap
}

// Domain returns the first and last X.
func (t *Track) Domain() (lo, hi float64) {
	return t.X[0], t.X[len(t.X)-1]
}

// Range returns the smallest and largest Y.
func (t *Track) Range() (lo, hi float64) {
	lo, hi = t.Y[0], t.Y[len(t.Y)-1]
	if lo > hi {
		lo, hi = hi, lo
	}
	return
}

// Increasing reports whether Y increases with X.
func (t *Track) Increasing() bool {
	return t.sy > 0
}

// segment finds i such that v lies between vs[i] and vs[i+1], where s*vs is
// increasing.  Outside the table the end segment is returned with extrap set.
func segment(vs []float64, s, v float64) (i int, extrap bool) {
	n := len(vs)
	sv := s * v
	switch {
	case sv < s*vs[0]:
		return 0, true
	case sv > s*vs[n-1]:
		return n - 2, true
	}
	i = sort.Search(n, func(j int) bool { return s*vs[j] >= sv })
	if i > 0 {
		i--
	}
	if i > n-2 {
		i = n - 2
	}
	return i, false
}
