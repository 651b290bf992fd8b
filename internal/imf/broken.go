// Public domain.

package imf

import (
	"math"
	"sort"

	"github.com/cockroachdb/errors"
)

// BrokenPowerLaw is a continuous power law with different exponents on
// consecutive mass segments.
type BrokenPowerLaw struct {
	seg []*PowerLaw // each normalized on its own segment
	w   []float64   // probability of each segment
	cum []float64   // probability below each segment
}

// NewBrokenPowerLaw constructs a broken power law over [lo, hi].  Breaks are
// the interior break masses, increasing; exps has one more element than
// breaks, the exponent below the first break through the exponent above the
// last.  Breaks outside (lo, hi) are ignored.
func NewBrokenPowerLaw(breaks, exps []float64, lo, hi float64) (*BrokenPowerLaw, error) {
	if err := checkRange(lo, hi); err != nil {
		return nil, err
	}
	if len(exps) != len(breaks)+1 {
		return nil, errors.Wrapf(ErrDomain, "%d exponents for %d breaks", len(exps), len(breaks))
	}
	if !sort.Float64sAreSorted(breaks) {
		return nil, errors.Wrap(ErrDomain, "breaks not increasing")
	}
	// clip segments to the range
	edges := []float64{lo}
	var ex []float64
	j := 0
	for j < len(breaks) && breaks[j] <= lo {
		j++
	}
	cur := exps[j]
	for ; j < len(breaks) && breaks[j] < hi; j++ {
		edges = append(edges, breaks[j])
		ex = append(ex, cur)
		cur = exps[j+1]
	}
	edges = append(edges, hi)
	ex = append(ex, cur)

	f := &BrokenPowerLaw{
		seg: make([]*PowerLaw, len(ex)),
		w:   make([]float64, len(ex)),
		cum: make([]float64, len(ex)),
	}
	// unnormalized segment coefficients, continuous at the breaks
	c := 1.
	var total float64
	for i, a := range ex {
		if i > 0 {
			b := edges[i]
			c *= math.Pow(b, ex[i-1]) / math.Pow(b, a)
		}
		s, err := NewPowerLaw(a, edges[i], edges[i+1])
		if err != nil {
			return nil, err
		}
		f.seg[i] = s
		f.w[i] = c * s.norm
		total += f.w[i]
	}
	var cum float64
	for i := range f.w {
		f.w[i] /= total
		f.cum[i] = cum
		cum += f.w[i]
	}
	return f, nil
}

func (f *BrokenPowerLaw) Range() (lo, hi float64) {
	return f.seg[0].Lo, f.seg[len(f.seg)-1].Hi
}

// find returns the segment containing m.
func (f *BrokenPowerLaw) find(m float64) int {
	i := sort.Search(len(f.seg), func(i int) bool { return f.seg[i].Hi >= m })
	if i == len(f.seg) {
		i--
	}
	return i
}

func (f *BrokenPowerLaw) Density(m float64) (float64, error) {
	lo, hi := f.Range()
	if m < lo || m > hi {
		return 0, domainErr(m, lo, hi)
	}
	i := f.find(m)
	d, err := f.seg[i].Density(m)
	return f.w[i] * d, err
}

func (f *BrokenPowerLaw) Integral(m float64) float64 {
	lo, hi := f.Range()
	switch {
	case m <= lo:
		return 0
	case m >= hi:
		return 1
	}
	i := f.find(m)
	return f.cum[i] + f.w[i]*f.seg[i].Integral(m)
}

func (f *BrokenPowerLaw) Quantile(p float64) float64 {
	lo, hi := f.Range()
	switch {
	case p <= 0:
		return lo
	case p >= 1:
		return hi
	}
	i := sort.Search(len(f.cum), func(i int) bool { return f.cum[i] > p }) - 1
	if i < 0 {
		i = 0
	}
	return f.seg[i].Quantile((p - f.cum[i]) / f.w[i])
}
