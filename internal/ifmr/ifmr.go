// Public domain.

// Package ifmr implements initial-final mass relations, the white dwarf
// mass left by a progenitor of given initial mass.
//
// Inputs outside the calibrated range are not errors.  Piecewise relations
// extend their end segments, tabulated relations extrapolate their end
// points.
package ifmr

import (
	"math"
	"sort"

	"github.com/cockroachdb/errors"

	"github.com/soniakeys/wdlf/internal/track"
)

// IFMR is an initial-final mass relation, monotonic increasing.
type IFMR interface {
	FinalMass(mi float64) float64
	InitialMass(mf float64) float64
	// BreakdownMass returns the initial mass at which FinalMass(m) == m.
	BreakdownMass() float64
}

// Segment is one linear piece, Mf = A Mi + B, applying below initial
// mass MiMax.
type Segment struct {
	MiMax float64
	A, B  float64
}

// Piecewise is a piecewise linear relation.  The last segment applies to
// all larger initial masses, the first to all smaller.  If MfMax is
// nonzero final masses are clamped to it.
type Piecewise struct {
	Seg   []Segment
	MfMax float64

	mfBreak []float64 // final mass at the upper end of each segment
}

// NewLinear returns the single segment relation Mf = a Mi + b.
func NewLinear(a, b float64) (*Piecewise, error) {
	return NewPiecewise([]Segment{{math.Inf(1), a, b}}, 0)
}

// NewPiecewise validates segments and returns a piecewise relation.
// Segments must be in order of increasing MiMax and have positive slope.
func NewPiecewise(seg []Segment, mfMax float64) (*Piecewise, error) {
	if len(seg) == 0 {
		return nil, errors.New("IFMR with no segments")
	}
	p := &Piecewise{
		Seg:     append([]Segment{}, seg...),
		MfMax:   mfMax,
		mfBreak: make([]float64, len(seg)),
	}
	for i, s := range p.Seg {
		if !(s.A > 0) {
			return nil, errors.Newf("IFMR segment %d slope %g not positive", i, s.A)
		}
		if i > 0 && !(s.MiMax > p.Seg[i-1].MiMax) {
			return nil, errors.Newf("IFMR segment %d out of order", i)
		}
		p.mfBreak[i] = s.A*s.MiMax + s.B
	}
	p.mfBreak[len(seg)-1] = math.Inf(1)
	return p, nil
}

func (p *Piecewise) FinalMass(mi float64) float64 {
	i := sort.Search(len(p.Seg)-1, func(i int) bool { return mi < p.Seg[i].MiMax })
	mf := p.Seg[i].A*mi + p.Seg[i].B
	if p.MfMax > 0 && mf > p.MfMax {
		return p.MfMax
	}
	return mf
}

// InitialMass inverts FinalMass.  In the clamped region it returns the
// initial mass at which the clamp begins.
func (p *Piecewise) InitialMass(mf float64) float64 {
	if p.MfMax > 0 && mf > p.MfMax {
		mf = p.MfMax
	}
	i := sort.Search(len(p.Seg)-1, func(i int) bool { return mf < p.mfBreak[i] })
	return (mf - p.Seg[i].B) / p.Seg[i].A
}

// BreakdownMass returns the fixed point of the segment whose domain holds
// it, extending the end segments as FinalMass does.
func (p *Piecewise) BreakdownMass() float64 {
	first := math.NaN()
	lo := math.Inf(-1)
	for i, s := range p.Seg {
		hi := s.MiMax
		if i == len(p.Seg)-1 {
			hi = math.Inf(1)
		}
		if s.A != 1 {
			x := s.B / (1 - s.A)
			if i == 0 {
				first = x
			}
			if x >= lo && x < hi {
				return x
			}
		}
		lo = hi
	}
	return first
}

// Tabulated is a relation interpolated from a monotonic table.
type Tabulated struct {
	t *track.Track
}

// NewTabulated validates a table of initial and final masses.  Final mass
// must increase with initial mass.
func NewTabulated(mi, mf []float64) (*Tabulated, error) {
	t, err := track.New(mi, mf)
	if err != nil {
		return nil, errors.Wrap(err, "IFMR table")
	}
	if !t.Increasing() {
		return nil, errors.Wrap(track.ErrTrack, "IFMR table: final mass decreases")
	}
	return &Tabulated{t}, nil
}

func (r *Tabulated) FinalMass(mi float64) float64 {
	mf, _ := r.t.At(mi)
	return mf
}

func (r *Tabulated) InitialMass(mf float64) float64 {
	mi, _ := r.t.Inverse(mf)
	return mi
}

// BreakdownMass finds where the interpolated table crosses the identity,
// extrapolating the end segments if it does not.
func (r *Tabulated) BreakdownMass() float64 {
	x, y := r.t.X, r.t.Y
	cross := func(i int) float64 {
		// root of (y - x) on the line through points i and i+1
		d0, d1 := y[i]-x[i], y[i+1]-x[i+1]
		if d0 == d1 {
			return math.NaN()
		}
		return track.Line(d0, x[i], d1, x[i+1], 0)
	}
	for i := 0; i < len(x)-1; i++ {
		if (y[i]-x[i])*(y[i+1]-x[i+1]) <= 0 {
			return cross(i)
		}
	}
	if y[0] < x[0] {
		return cross(0)
	}
	return cross(len(x) - 2)
}
