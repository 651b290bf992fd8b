// Public domain.

// Package mslife implements pre-white dwarf lifetime models, the time from
// formation to white dwarf birth as a function of metallicity Z, helium
// content Y and progenitor mass.
package mslife

import (
	"github.com/cockroachdb/errors"

	"github.com/soniakeys/wdlf/internal/track"
)

// Model is a pre-WD lifetime relation.  Extrap is true when any part of the
// evaluation went outside the tabulated grid.
type Model interface {
	Lifetime(z, y, mass float64) (t float64, extrap bool)
	MassFromLifetime(z, y, t float64) (mass float64, extrap bool)
}

// Grid is a tabulated model: for each (Z, Y) a track of lifetime against
// mass.  Between tracks it interpolates linearly in Y, then in Z.
type Grid struct {
	z track.Set[*track.Set[*track.Track]]
}

// Add adds the lifetime track for metallicity z and helium content y.
// Lifetime must decrease with mass.
func (g *Grid) Add(z, y float64, mass, life []float64) error {
	t, err := track.New(mass, life)
	if err != nil {
		return errors.Wrapf(err, "Z=%g Y=%g", z, y)
	}
	if t.Increasing() {
		return errors.Wrapf(track.ErrTrack, "Z=%g Y=%g: lifetime increases with mass", z, y)
	}
	ys, ok := g.z.Get(z)
	if !ok {
		ys = &track.Set[*track.Track]{}
		g.z.Add(z, ys)
	}
	return errors.Wrapf(ys.Add(y, t), "Z=%g", z)
}

// Empty reports whether no tracks have been added.
func (g *Grid) Empty() bool {
	return g.z.Len() == 0
}

func (g *Grid) Lifetime(z, y, mass float64) (float64, bool) {
	return g.z.Across(z, func(ys *track.Set[*track.Track]) (float64, bool) {
		return ys.Across(y, func(t *track.Track) (float64, bool) {
			return t.At(mass)
		})
	})
}

func (g *Grid) MassFromLifetime(z, y, life float64) (float64, bool) {
	return g.z.Across(z, func(ys *track.Set[*track.Track]) (float64, bool) {
		return ys.Across(y, func(t *track.Track) (float64, bool) {
			return t.Inverse(life)
		})
	})
}
