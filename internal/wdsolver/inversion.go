// Public domain.

package wdsolver

import (
	"math"

	"github.com/cockroachdb/errors"
	"github.com/go-logr/logr"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/soniakeys/wdlf/internal/sfr"
	"github.com/soniakeys/wdlf/internal/wdbin"
	"github.com/soniakeys/wdlf/internal/wdcool"
)

// Quadrature defaults for the inversion kernel.
const (
	DefaultTimeSteps = 100
	DefaultMassSteps = 200
)

// InvertConfig configures an inversion.  Models.SFR is not used.  Z and Y
// are fixed at their means; HFraction, MagSigma and Weight are applied as
// in synthesis so the kernel is the forward model.
type InvertConfig struct {
	Models
	Params

	MaxLookback float64 // oldest star formation considered, yr
	TimeSteps   int     // quadrature points per time bin
	MassSteps   int     // IMF cells
	Log         logr.Logger
}

type massCell struct {
	w    float64 // IMF probability
	life float64 // pre-WD lifetime
	mf   float64 // white dwarf mass
}

type atmGrid struct {
	g *wdcool.Grid
	w float64 // probability
}

// kernel is the forward model in integral form: the number of white
// dwarfs per unit magnitude in each magnitude bin per unit star formation
// rate in each lookback time bin.
type kernel struct {
	c     *InvertConfig
	cells []massCell
	atms  []atmGrid
	noise distuv.Normal
}

func newKernel(s *Sampler, c *InvertConfig) *kernel {
	k := &kernel{c: c, noise: distuv.Normal{Sigma: c.MagSigma}}
	if s.gH != nil {
		k.atms = append(k.atms, atmGrid{s.gH, c.HFraction})
	}
	if s.gHe != nil {
		k.atms = append(k.atms, atmGrid{s.gHe, 1 - c.HFraction})
	}
	lo, hi := c.IMF.Range()
	if s.breakdown > lo {
		lo = s.breakdown
	}
	if lo >= hi {
		return k // no white dwarfs form
	}
	e := make([]float64, c.MassSteps+1)
	floats.LogSpan(e, lo, hi)
	for i := 0; i < c.MassSteps; i++ {
		p0, p1 := c.IMF.Integral(e[i]), c.IMF.Integral(e[i+1])
		if p1 <= p0 {
			continue
		}
		m := c.IMF.Quantile((p0 + p1) / 2)
		life, _ := c.Lifetime.Lifetime(c.Z, c.Y, m)
		k.cells = append(k.cells, massCell{p1 - p0, life, c.IFMR.FinalMass(m)})
	}
	return k
}

// earliest returns the smallest lookback time at which any star can be a
// white dwarf of magnitude mag.
func (k *kernel) earliest(mag float64) float64 {
	t := math.Inf(1)
	for _, cl := range k.cells {
		for _, a := range k.atms {
			tc, _ := a.g.CoolingTime(mag, cl.mf)
			t = math.Min(t, cl.life+math.Max(tc, 0))
		}
	}
	return t
}

// matrix returns K[j][i], magnitude bin j, time bin i = [te[i], te[i+1]).
func (k *kernel) matrix(l wdbin.Layout, te []float64) [][]float64 {
	n := len(l)
	km := make([][]float64, n)
	for j := range km {
		km[j] = make([]float64, len(te)-1)
	}
	for i := 0; i < len(te)-1; i++ {
		t0, t1 := te[i], te[i+1]
		if !(t1 > t0) {
			continue
		}
		dt := (t1 - t0) / float64(k.c.TimeSteps)
		for s := 0; s < k.c.TimeSteps; s++ {
			t := t0 + (float64(s)+.5)*dt
			for _, cl := range k.cells {
				if t <= cl.life {
					continue
				}
				for _, a := range k.atms {
					mag, _ := a.g.Magnitude(t-cl.life, cl.mf)
					w := dt * cl.w * a.w
					if k.c.Weight != nil {
						w *= k.c.Weight(mag)
					}
					k.spread(km, l, i, mag, w)
				}
			}
		}
	}
	for j, iv := range l {
		floats.Scale(1/iv.Width(), km[j])
	}
	return km
}

// spread adds weight w at magnitude mag to column i, convolved with the
// magnitude error.
func (k *kernel) spread(km [][]float64, l wdbin.Layout, i int, mag, w float64) {
	if k.c.MagSigma == 0 {
		if j, ok := l.Index(mag); ok {
			km[j][i] += w
		}
		return
	}
	for j, iv := range l {
		p := k.noise.CDF(iv.Hi-mag) - k.noise.CDF(iv.Lo-mag)
		km[j][i] += w * p
	}
}

// solve returns the weighted least squares rates of the time bins cols
// from the non-empty observed bins, and their standard errors from the
// covariance inverse(A^T A) of the weighted kernel A.
func solve(km [][]float64, obs []wdbin.Bin, cols []int, log logr.Logger) (psi, sig []float64, err error) {
	var rows []int
	for j := range obs {
		if !obs[j].Empty() && obs[j].Sigma > 0 {
			rows = append(rows, j)
		}
	}
	a := mat.NewDense(len(rows), len(cols), nil)
	b := mat.NewVecDense(len(rows), nil)
	for r, j := range rows {
		s := obs[j].Sigma
		b.SetVec(r, obs[j].Density/s)
		for c, i := range cols {
			a.Set(r, c, km[j][i]/s)
		}
	}
	var qr mat.QR
	qr.Factorize(a)
	var x mat.VecDense
	if err = qr.SolveVecTo(&x, false, b); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, nil, err
		}
		log.Info("kernel ill-conditioned", "condition", float64(cond))
	}
	var ata mat.SymDense
	ata.SymOuterK(1, a.T())
	var ch mat.Cholesky
	if !ch.Factorize(&ata) {
		return nil, nil, errors.New("singular inversion kernel")
	}
	var cov mat.SymDense
	if err = ch.InverseTo(&cov); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, nil, err
		}
	}
	psi = make([]float64, len(cols))
	sig = make([]float64, len(cols))
	for c := range cols {
		psi[c] = x.AtVec(c)
		sig[c] = math.Sqrt(math.Max(cov.At(c, c), 0))
	}
	return psi, sig, nil
}

// Invert recovers a star formation history from an observed luminosity
// function.
//
// Each magnitude bin defines a lookback time bin starting at the earliest
// time a white dwarf can reach the bright edge of the magnitude bin, so
// without magnitude error star formation in time bin i reaches magnitude
// bin i at the faintest.  The rates of all time bins are then fitted
// together to the observed densities by weighted least squares, which
// accounts for stars scattered into any magnitude bin by the magnitude
// error.
//
// Time bins with no constraint are returned flagged Unconstrained and are
// left out of the fit: the youngest interval, too young to reach the
// brightest bin; bins whose population lands in no part of their own
// magnitude bin; and bins whose own observed density is empty.  Negative
// estimates are clipped to zero.
func Invert(obs *wdbin.ModelWdlf, c InvertConfig) (*sfr.Tabulated, error) {
	if c.IMF == nil || c.IFMR == nil || c.Lifetime == nil || c.Cooling == nil {
		return nil, errors.New("incomplete model set")
	}
	if obs == nil || len(obs.Bins) == 0 {
		return nil, errors.Wrap(wdbin.ErrBins, "empty observed luminosity function")
	}
	if !(c.MaxLookback > 0) {
		return nil, errors.Newf("maximum lookback time %g", c.MaxLookback)
	}
	if c.TimeSteps < 1 {
		c.TimeSteps = DefaultTimeSteps
	}
	if c.MassSteps < 1 {
		c.MassSteps = DefaultMassSteps
	}
	s, err := newSampler(c.Models, c.Params)
	if err != nil {
		return nil, err
	}
	l := obs.Layout()
	c2 := make([]float64, len(l))
	w := make([]float64, len(l))
	for i, iv := range l {
		c2[i], w[i] = iv.Centre(), iv.Width()
	}
	if l, err = wdbin.NewLayout(c2, w); err != nil {
		return nil, err
	}
	k := newKernel(s, &c)

	n := len(l)
	te := make([]float64, n+1)
	for j, iv := range l {
		te[j] = math.Min(k.earliest(iv.Lo), c.MaxLookback)
		if j > 0 && te[j] < te[j-1] {
			te[j] = te[j-1]
		}
	}
	te[n] = c.MaxLookback
	km := k.matrix(l, te)

	var cols []int
	for i := 0; i < n; i++ {
		switch {
		case !(te[i+1] > te[i]):
		case !(km[i][i] > 0) || obs.Bins[i].Empty():
			c.Log.V(1).Info("unconstrained", "tmin", te[i], "tmax", te[i+1],
				"mag", obs.Bins[i].Centre)
		default:
			cols = append(cols, i)
		}
	}
	psi := make([]float64, n)
	sig := make([]float64, n)
	solved := make([]bool, n)
	if len(cols) > 0 {
		x, xs, err := solve(km, obs.Bins, cols, c.Log)
		if err != nil {
			return nil, err
		}
		for ci, i := range cols {
			psi[i], sig[i], solved[i] = x[ci], xs[ci], true
			if psi[i] < 0 {
				c.Log.V(1).Info("negative rate clipped", "tmin", te[i], "tmax", te[i+1],
					"rate", psi[i], "sigma", sig[i])
				psi[i] = 0
			}
			c.Log.V(1).Info("solved", "tmin", te[i], "tmax", te[i+1], "rate", psi[i],
				"sigma", sig[i], "kernel", km[i][i])
		}
	}

	var bins []sfr.Bin
	if te[0] > 0 {
		bins = append(bins, sfr.Bin{TMin: 0, TMax: te[0], Unconstrained: true})
	}
	var nu int
	for i := 0; i < n; i++ {
		if !(te[i+1] > te[i]) {
			continue
		}
		b := sfr.Bin{TMin: te[i], TMax: te[i+1], Rate: psi[i], Sigma: sig[i]}
		if !solved[i] {
			b.Unconstrained = true
			nu++
		}
		bins = append(bins, b)
	}
	c.Log.Info("inversion complete", "bins", len(bins), "unconstrained", nu)
	return sfr.NewTabulated(bins)
}
