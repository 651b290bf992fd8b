// Public domain.

package wdbin

import "math"

// Bin is one magnitude bin of a luminosity function.  Density is number
// per unit magnitude.  Mean mass and age are of the white dwarfs in the
// bin, with uncertainties of the means.
type Bin struct {
	Centre, Width         float64
	Density, Sigma        float64
	MeanMass, MeanMassSig float64
	MeanAge, MeanAgeSig   float64
	N                     int // contributing stars
}

// ModelWdlf is a binned luminosity function, immutable once returned by
// Binner.Finalize or Read.
type ModelWdlf struct {
	Bins []Bin
}

// Layout returns the bin intervals.
func (m *ModelWdlf) Layout() Layout {
	l := make(Layout, len(m.Bins))
	for i, b := range m.Bins {
		l[i] = Interval{b.Centre - b.Width/2, b.Centre + b.Width/2}
	}
	return l
}

// Binner accumulates weighted stars into magnitude bins.  Sums are kept
// per bin so per-worker binners can be merged.
type Binner struct {
	Layout Layout

	w, w2   []float64 // weight, weight squared
	wm, wm2 []float64 // weighted mass and mass squared
	wa, wa2 []float64 // weighted age and age squared
	n       []int
	outside int
}

// NewBinner allocates an empty accumulator over layout l.
func NewBinner(l Layout) *Binner {
	n := len(l)
	return &Binner{
		Layout: l,
		w:      make([]float64, n),
		w2:     make([]float64, n),
		wm:     make([]float64, n),
		wm2:    make([]float64, n),
		wa:     make([]float64, n),
		wa2:    make([]float64, n),
		n:      make([]int, n),
	}
}

// Add bins one star: magnitude, white dwarf mass, total age and weight.
// It returns false, and counts the star as outside, if mag is not in any
// bin.
func (b *Binner) Add(mag, mass, age, weight float64) bool {
	i, ok := b.Layout.Index(mag)
	if !ok {
		b.outside++
		return false
	}
	b.w[i] += weight
	b.w2[i] += weight * weight
	b.wm[i] += weight * mass
	b.wm2[i] += weight * mass * mass
	b.wa[i] += weight * age
	b.wa2[i] += weight * age * age
	b.n[i]++
	return true
}

// Outside returns the number of stars added outside all bins.
func (b *Binner) Outside() int {
	return b.outside
}

// Count returns the number of stars added inside bins.
func (b *Binner) Count() (n int) {
	for _, c := range b.n {
		n += c
	}
	return
}

// Merge adds the sums of o, which must have the same layout.
func (b *Binner) Merge(o *Binner) {
	for i := range b.w {
		b.w[i] += o.w[i]
		b.w2[i] += o.w2[i]
		b.wm[i] += o.wm[i]
		b.wm2[i] += o.wm2[i]
		b.wa[i] += o.wa[i]
		b.wa2[i] += o.wa2[i]
		b.n[i] += o.n[i]
	}
	b.outside += o.outside
}

// Finalize computes the luminosity function.  Norm converts summed weight
// to number, for example stars formed per Monte Carlo trial.
func (b *Binner) Finalize(norm float64) *ModelWdlf {
	m := &ModelWdlf{Bins: make([]Bin, len(b.Layout))}
	for i, iv := range b.Layout {
		bin := Bin{Centre: iv.Centre(), Width: iv.Width(), N: b.n[i]}
		if b.n[i] == 0 || b.w[i] <= 0 {
			bin.Sigma = EmptySigma
			bin.MeanMassSig = EmptySigma
			bin.MeanAgeSig = EmptySigma
			m.Bins[i] = bin
			continue
		}
		bin.Density = b.w[i] * norm / bin.Width
		bin.Sigma = math.Sqrt(b.w2[i]) * norm / bin.Width
		bin.MeanMass, bin.MeanMassSig = meanSig(b.wm[i], b.wm2[i], b.w[i], b.n[i])
		bin.MeanAge, bin.MeanAgeSig = meanSig(b.wa[i], b.wa2[i], b.w[i], b.n[i])
		m.Bins[i] = bin
	}
	return m
}

// meanSig returns the weighted mean and the uncertainty of the mean, the
// variance taken as mean of the square minus square of the mean.
func meanSig(sx, sx2, sw float64, n int) (mean, sig float64) {
	mean = sx / sw
	v := sx2/sw - mean*mean
	if v < 0 {
		v = 0 // rounding
	}
	return mean, math.Sqrt(v / float64(n))
}
