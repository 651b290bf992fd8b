// Public domain.

package survey

import (
	"math"
	"sort"

	"github.com/soniakeys/unit"
	xrand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/integrate/quad"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
)

// speeds projects the velocity ellipsoid onto the tangent plane at (l, b)
// and returns sorted tangential speeds drawn from it, an empirical
// distribution.  It returns nil if the projected covariance is singular.
func (c *Config) speeds(l, b unit.Angle, src xrand.Source) []float64 {
	_, el, eb := direction(l, b)
	p := mat.NewDense(2, 3, []float64{
		el.X, el.Y, el.Z,
		eb.X, eb.Y, eb.Z,
	})
	s := mat.NewDiagDense(3, []float64{
		c.SigmaUVW[0] * c.SigmaUVW[0],
		c.SigmaUVW[1] * c.SigmaUVW[1],
		c.SigmaUVW[2] * c.SigmaUVW[2],
	})
	var cov mat.Dense
	cov.Product(p, s, p.T())
	off := (cov.At(0, 1) + cov.At(1, 0)) / 2
	sym := mat.NewSymDense(2, []float64{cov.At(0, 0), off, off, cov.At(1, 1)})

	var mu mat.VecDense
	mu.MulVec(p, mat.NewVecDense(3, c.MeanUVW[:]))
	n, ok := distmv.NewNormal([]float64{mu.AtVec(0), mu.AtVec(1)}, sym, src)
	if !ok {
		return nil
	}
	vt := make([]float64, c.Samples)
	x := make([]float64, 2)
	for i := range vt {
		n.Rand(x)
		vt[i] = math.Hypot(x[0], x[1])
	}
	sort.Float64s(vt)
	return vt
}

// frac returns the fraction of sorted speeds vt in [lo, hi].
func frac(vt []float64, lo, hi float64) float64 {
	if hi <= lo {
		return 0
	}
	i := sort.SearchFloat64s(vt, lo)
	j := sort.Search(len(vt), func(j int) bool { return vt[j] > hi })
	return float64(j-i) / float64(len(vt))
}

// distance returns the distance, pc, at which absolute magnitude abs has
// apparent magnitude app.
func distance(app, abs float64) float64 {
	return math.Pow(10, (app-abs+5)/5)
}

// lineOfSight integrates density times discovery fraction times d**2 along
// one line of sight for absolute magnitude m.  sinB is |sin b|.
func (c *Config) lineOfSight(m, sinB float64, vt []float64) float64 {
	d0 := distance(c.MagBright, m)
	d1 := math.Min(distance(c.MagFaint, m), c.DMax)
	if d1 <= d0 {
		return 0
	}
	f := func(d float64) float64 {
		lo := math.Max(c.VtMin, K*c.PMMin*d)
		hi := math.Min(c.VtMax, K*c.PMMax*d)
		return math.Exp(-d*sinB/c.Scale) * frac(vt, lo, hi) * d * d
	}
	return quad.Fixed(f, d0, d1, c.Steps, nil, 0)
}
