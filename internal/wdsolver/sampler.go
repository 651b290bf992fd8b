// Public domain.

// Package wdsolver implements the white dwarf luminosity function
// algorithms: drawing single synthetic stars, forward Monte Carlo synthesis
// of a binned luminosity function, and inversion of an observed luminosity
// function to a star formation history.
package wdsolver

import (
	"math"

	"github.com/cockroachdb/errors"

	"github.com/soniakeys/wdlf/internal/ifmr"
	"github.com/soniakeys/wdlf/internal/imf"
	"github.com/soniakeys/wdlf/internal/mslife"
	"github.com/soniakeys/wdlf/internal/sfr"
	"github.com/soniakeys/wdlf/internal/wdcool"
)

// Rand is the random number source used by the sampler.  Each worker owns
// one; golang.org/x/exp/rand.Rand satisfies it.
type Rand interface {
	Float64() float64
	NormFloat64() float64
}

// Models holds the physical model components.  They are read only and
// shared by all workers.
type Models struct {
	IMF      imf.IMF
	SFR      sfr.SFR // unused by inversion
	IFMR     ifmr.IFMR
	Lifetime mslife.Model
	Cooling  *wdcool.Set
}

// Params holds the parameters of the star drawing.
type Params struct {
	Filter    string
	HFraction float64 // probability of a hydrogen atmosphere

	Z, ZSigma float64 // metallicity mean and dispersion
	Y, YSigma float64 // helium content mean and dispersion

	MagSigma float64 // Gaussian magnitude error

	// MinSampledMass, if above the IMF lower limit, truncates the mass
	// draw.  Normalization is corrected by the IMF fraction above it.
	MinSampledMass float64

	// Weight, if not nil, is the selection weight of a star of absolute
	// magnitude mag, such as an effective survey volume.
	Weight func(mag float64) float64
}

// Fate is the outcome of drawing one star.
type Fate int

const (
	WhiteDwarf     Fate = iota // a white dwarf today
	MainSequence               // discarded, not yet a white dwarf
	BelowBreakdown             // discarded, below the IFMR breakdown mass
)

var fateName = [...]string{"white dwarf", "main sequence", "below breakdown"}

func (f Fate) String() string { return fateName[f] }

// Star is one synthetic star.  Fields after Lifetime are set only for
// white dwarfs.
type Star struct {
	FormationTime float64 // lookback time, yr
	Mass          float64 // progenitor mass
	Z, Y          float64
	Lifetime      float64 // pre-WD lifetime

	WDMass       float64
	CoolingTime  float64
	Atm          wdcool.Atm
	Mag          float64
	Weight       float64
	Extrapolated bool // a model was evaluated outside its table
}

// Age returns the total age, the formation lookback time.
func (s *Star) Age() float64 { return s.FormationTime }

// Sampler draws synthetic stars.  It is safe for concurrent use if each
// goroutine passes its own Rand and Star.
type Sampler struct {
	m Models
	p Params

	breakdown float64
	massLo    float64 // lower limit of the mass draw
	imfFrac   float64 // IMF fraction above massLo
	gH, gHe   *wdcool.Grid
}

// NewSampler validates models and parameters.  The filter must have a
// grid for each atmosphere type that can be drawn.
func NewSampler(m Models, p Params) (*Sampler, error) {
	if m.IMF == nil || m.SFR == nil || m.IFMR == nil || m.Lifetime == nil || m.Cooling == nil {
		return nil, errors.New("incomplete model set")
	}
	if tot, _ := m.SFR.Integral(); !(tot > 0) {
		return nil, errors.Wrap(sfr.ErrSFR, "no star formation")
	}
	s, err := newSampler(m, p)
	if err != nil {
		return nil, err
	}
	lo, hi := m.IMF.Range()
	s.massLo = lo
	s.imfFrac = 1
	if p.MinSampledMass > lo {
		if p.MinSampledMass >= hi {
			return nil, errors.Wrapf(imf.ErrDomain, "minimum sampled mass %g above IMF limit %g",
				p.MinSampledMass, hi)
		}
		s.massLo = p.MinSampledMass
		s.imfFrac = 1 - m.IMF.Integral(p.MinSampledMass)
	}
	return s, nil
}

// newSampler checks what the inversion shares with drawing: the hydrogen
// fraction, dispersions and the cooling grids for the filter.
func newSampler(m Models, p Params) (*Sampler, error) {
	if !(p.HFraction >= 0 && p.HFraction <= 1) {
		return nil, errors.Newf("hydrogen fraction %g outside [0, 1]", p.HFraction)
	}
	if p.ZSigma < 0 || p.YSigma < 0 || p.MagSigma < 0 {
		return nil, errors.New("negative dispersion")
	}
	s := &Sampler{m: m, p: p, breakdown: m.IFMR.BreakdownMass()}
	var err error
	if p.HFraction > 0 {
		if s.gH, err = m.Cooling.Grid(p.Filter, wdcool.H); err != nil {
			return nil, err
		}
	}
	if p.HFraction < 1 {
		if s.gHe, err = m.Cooling.Grid(p.Filter, wdcool.He); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// IMFFraction returns the fraction of the IMF covered by mass draws.
func (s *Sampler) IMFFraction() float64 { return s.imfFrac }

// Draw draws one star into st and returns its fate.  Discards are the
// common case, not errors.
func (s *Sampler) Draw(r Rand, st *Star) Fate {
	*st = Star{}
	st.FormationTime = s.m.SFR.Draw(r)
	if s.imfFrac < 1 {
		st.Mass, _ = imf.DrawAbove(s.m.IMF, r, s.massLo)
	} else {
		st.Mass = imf.Draw(s.m.IMF, r)
	}
	st.Z, st.Y = s.p.Z, s.p.Y
	if s.p.ZSigma > 0 {
		st.Z = math.Max(st.Z+s.p.ZSigma*r.NormFloat64(), 0)
	}
	if s.p.YSigma > 0 {
		st.Y = math.Max(st.Y+s.p.YSigma*r.NormFloat64(), 0)
	}
	var ex bool
	st.Lifetime, ex = s.m.Lifetime.Lifetime(st.Z, st.Y, st.Mass)
	if st.FormationTime <= st.Lifetime {
		return MainSequence
	}
	if st.Mass < s.breakdown {
		return BelowBreakdown
	}
	st.WDMass = s.m.IFMR.FinalMass(st.Mass)
	st.CoolingTime = st.FormationTime - st.Lifetime
	g := s.gHe
	st.Atm = wdcool.He
	if s.gHe == nil || s.gH != nil && r.Float64() < s.p.HFraction {
		g = s.gH
		st.Atm = wdcool.H
	}
	var cex bool
	st.Mag, cex = g.Magnitude(st.CoolingTime, st.WDMass)
	st.Extrapolated = ex || cex
	if s.p.MagSigma > 0 {
		st.Mag += s.p.MagSigma * r.NormFloat64()
	}
	st.Weight = 1
	if s.p.Weight != nil {
		st.Weight = s.p.Weight(st.Mag)
	}
	return WhiteDwarf
}
