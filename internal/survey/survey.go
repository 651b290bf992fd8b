// Public domain.

// Package survey computes the selection function of a proper motion
// survey: the effective volume in which a white dwarf of given absolute
// magnitude would be detected, folding together apparent magnitude, proper
// motion and tangential velocity limits, a velocity ellipsoid and an
// exponential disk.
//
// The sky is divided into equal area cells.  Each cell is independent and
// cells are computed concurrently, each with its own random stream, then
// summed in cell order, so results do not depend on scheduling.
package survey

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"sort"

	"github.com/cockroachdb/errors"
	"github.com/go-logr/logr"
	"github.com/soniakeys/coord"
	mcoord "github.com/soniakeys/meeus/v3/coord"
	sexa "github.com/soniakeys/sexagesimal"
	"github.com/soniakeys/unit"
	xrand "golang.org/x/exp/rand"
	"golang.org/x/sync/errgroup"
)

// K converts proper motion in arcsec/yr times distance in pc to tangential
// velocity in km/s.
const K = 4.74047

// Config describes a survey.  Distances are parsecs, velocities km/s,
// proper motions arcsec/yr.
type Config struct {
	MagBright, MagFaint float64 // apparent magnitude limits
	PMMin, PMMax        float64 // proper motion limits
	VtMin, VtMax        float64 // tangential velocity limits
	DecMin, DecMax      unit.Angle
	MinAbsB             unit.Angle // galactic latitude cut, |b| >= MinAbsB
	DMax                float64    // distance limit

	MeanUVW  [3]float64 // mean stellar velocity relative to the Sun
	SigmaUVW [3]float64 // velocity dispersions
	Scale    float64    // disk scale height

	RACells, DecCells int       // sky grid
	Samples           int       // velocity draws per cell
	Steps             int       // line of sight quadrature points
	Mags              []float64 // absolute magnitude grid, increasing

	Seed    uint64
	Workers int         // concurrent cells, 0 means GOMAXPROCS
	Log     logr.Logger // zero value discards
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	switch {
	case !(c.MagFaint > c.MagBright):
		return errors.Newf("survey magnitude limits %g, %g", c.MagBright, c.MagFaint)
	case !(c.PMMin >= 0 && c.PMMax > c.PMMin):
		return errors.Newf("survey proper motion limits %g, %g", c.PMMin, c.PMMax)
	case !(c.VtMin >= 0 && c.VtMax > c.VtMin):
		return errors.Newf("survey tangential velocity limits %g, %g", c.VtMin, c.VtMax)
	case !(c.DecMax > c.DecMin) || c.DecMin < -math.Pi/2-1e-9 || c.DecMax > math.Pi/2+1e-9:
		return errors.Newf("survey declination limits %.2f, %.2f deg", c.DecMin.Deg(), c.DecMax.Deg())
	case !(c.DMax > 0 && c.Scale > 0):
		return errors.Newf("survey distance limit %g, scale height %g", c.DMax, c.Scale)
	case c.RACells < 1 || c.DecCells < 1 || c.Samples < 2 || c.Steps < 2:
		return errors.New("survey grid sizes must be positive")
	case len(c.Mags) < 2 || !sort.Float64sAreSorted(c.Mags):
		return errors.New("survey magnitude grid must be increasing, at least 2 points")
	}
	return nil
}

// Volume is the effective survey volume, pc**3, tabulated against absolute
// magnitude.
type Volume struct {
	Mags, V []float64
	Cells   int // cells contributing
	Skipped int // cells with a degenerate velocity projection
}

// Weight returns the effective volume at absolute magnitude m, linearly
// interpolated and held constant beyond the grid.
func (v *Volume) Weight(m float64) float64 {
	n := len(v.Mags)
	switch {
	case m <= v.Mags[0]:
		return v.V[0]
	case m >= v.Mags[n-1]:
		return v.V[n-1]
	}
	i := sort.SearchFloat64s(v.Mags, m)
	x0, x1 := v.Mags[i-1], v.Mags[i]
	return v.V[i-1] + (v.V[i]-v.V[i-1])*(m-x0)/(x1-x0)
}

type cell struct {
	ra    unit.RA
	dec   unit.Angle
	omega float64 // solid angle, sr
}

func (c cell) String() string {
	return fmt.Sprintf("%.0d %+.0d", sexa.FmtRA(c.ra), sexa.FmtAngle(c.dec))
}

// cells divides the footprint into cells equal in RA and sin(dec).
func (c *Config) cells() []cell {
	s0, s1 := math.Sin(c.DecMin.Rad()), math.Sin(c.DecMax.Rad())
	dra := 2 * math.Pi / float64(c.RACells)
	ds := (s1 - s0) / float64(c.DecCells)
	cs := make([]cell, 0, c.RACells*c.DecCells)
	for j := 0; j < c.DecCells; j++ {
		dec := unit.Angle(math.Asin(s0 + (float64(j)+.5)*ds))
		for i := 0; i < c.RACells; i++ {
			cs = append(cs, cell{
				ra:    unit.RA((float64(i) + .5) * dra),
				dec:   dec,
				omega: dra * ds,
			})
		}
	}
	return cs
}

// Compute computes the effective volume.  It returns early with the
// context error if ctx is cancelled.
func Compute(ctx context.Context, c Config) (*Volume, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	workers := c.Workers
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	cs := c.cells()
	res := make([][]float64, len(cs))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range cs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res[i] = c.cellVolume(cs[i], c.Seed+uint64(i))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	v := &Volume{
		Mags: append([]float64{}, c.Mags...),
		V:    make([]float64, len(c.Mags)),
	}
	for i, r := range res {
		if r == nil {
			if c.cut(cs[i]) {
				continue
			}
			v.Skipped++
			c.Log.V(1).Info("degenerate velocity projection, cell skipped", "cell", cs[i].String())
			continue
		}
		v.Cells++
		for k, x := range r {
			v.V[k] += x
		}
	}
	c.Log.Info("survey volume", "cells", v.Cells, "skipped", v.Skipped,
		"Vmax", v.V[0], "Vmin", v.V[len(v.V)-1])
	return v, nil
}

// cut reports whether a cell is excluded by the galactic latitude limit.
func (c *Config) cut(ce cell) bool {
	_, b := mcoord.EqToGal(ce.ra, ce.dec)
	return math.Abs(b.Rad()) < c.MinAbsB.Rad()
}

// cellVolume returns the contribution of one cell to the effective volume
// at each grid magnitude, or nil if the cell is cut or degenerate.
func (c *Config) cellVolume(ce cell, seed uint64) []float64 {
	l, b := mcoord.EqToGal(ce.ra, ce.dec)
	if math.Abs(b.Rad()) < c.MinAbsB.Rad() {
		return nil
	}
	src := &xrand.PCGSource{}
	src.Seed(seed)
	vt := c.speeds(l, b, src)
	if vt == nil {
		return nil
	}
	sinB := math.Abs(math.Sin(b.Rad()))
	out := make([]float64, len(c.Mags))
	for k, m := range c.Mags {
		out[k] = ce.omega * c.lineOfSight(m, sinB, vt)
	}
	return out
}

// direction returns the unit vector toward galactic (l, b) and the unit
// vectors of increasing l and b on the tangent plane.
func direction(l, b unit.Angle) (r, el, eb coord.Cart) {
	sl, cl := math.Sincos(l.Rad())
	sb, cb := math.Sincos(b.Rad())
	r = coord.Cart{X: cb * cl, Y: cb * sl, Z: sb}
	pole := coord.Cart{Z: 1}
	el.Cross(&pole, &r)
	el.MulScalar(&el, 1/math.Sqrt(el.Square()))
	eb.Cross(&r, &el)
	return
}
