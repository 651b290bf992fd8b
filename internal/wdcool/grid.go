// Public domain.

// Package wdcool implements white dwarf cooling models, absolute magnitude
// as a function of cooling time and white dwarf mass.
//
// A Grid holds one cooling track per tabulated mass for a single filter
// and atmosphere type.  A Set holds grids for several filters and
// atmosphere types.
package wdcool

import (
	"github.com/cockroachdb/errors"

	"github.com/soniakeys/wdlf/internal/track"
)

// Grid is a set of cooling tracks, magnitude against cooling time, keyed
// by white dwarf mass.  It is read only once built.
type Grid struct {
	m track.Set[*track.Track]
}

// Add adds the track for white dwarf mass, cooling times in years.
// Magnitude must increase with cooling time.
func (g *Grid) Add(mass float64, t, mag []float64) error {
	tr, err := track.New(t, mag)
	if err != nil {
		return errors.Wrapf(err, "cooling track M=%g", mass)
	}
	if !tr.Increasing() {
		return errors.Wrapf(track.ErrTrack, "cooling track M=%g brightens with time", mass)
	}
	return g.m.Add(mass, tr)
}

// Masses returns the tabulated masses, increasing.
func (g *Grid) Masses() []float64 {
	return g.m.Keys
}

// Len returns the number of tracks.
func (g *Grid) Len() int {
	return g.m.Len()
}

// Magnitude returns the magnitude at cooling time t for a white dwarf of
// the given mass.  Extrap is as for IsExtrapolated.
func (g *Grid) Magnitude(t, mass float64) (mag float64, extrap bool) {
	return g.m.Across(mass, func(tr *track.Track) (float64, bool) {
		return tr.At(t)
	})
}

// CoolingTime returns the cooling time at which a white dwarf of the given
// mass reaches magnitude mag.  Extrap is true if the mass is outside the
// grid or mag is outside either bounding track.
func (g *Grid) CoolingTime(mag, mass float64) (t float64, extrap bool) {
	return g.m.Across(mass, func(tr *track.Track) (float64, bool) {
		return tr.Inverse(mag)
	})
}

// IsExtrapolated reports whether mass is outside the tabulated masses or
// t is outside the time domain of either bounding track.
func (g *Grid) IsExtrapolated(t, mass float64) bool {
	lo, hi, ex := g.m.Bracket(mass)
	if ex {
		return true
	}
	for _, i := range [2]int{lo, hi} {
		t0, t1 := g.m.Vals[i].Domain()
		if t < t0 || t > t1 {
			return true
		}
	}
	return false
}

// TimeDomain returns the cooling time range common to all tracks.
func (g *Grid) TimeDomain() (t0, t1 float64) {
	for i, tr := range g.m.Vals {
		a, b := tr.Domain()
		if i == 0 || a > t0 {
			t0 = a
		}
		if i == 0 || b < t1 {
			t1 = b
		}
	}
	return
}
