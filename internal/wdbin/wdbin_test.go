// Public domain.

package wdbin_test

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	xrand "golang.org/x/exp/rand"

	"github.com/soniakeys/wdlf/internal/wdbin"
)

func ExampleBinner() {
	l, _ := wdbin.Uniform(10, 13, 1)
	b := wdbin.NewBinner(l)
	b.Add(10.5, .6, 5e9, 1)
	b.Add(10.7, .8, 7e9, 1)
	b.Add(12.2, .6, 9e9, 1)
	b.Add(14, .6, 9e9, 1)
	for _, bin := range b.Finalize(.5).Bins {
		fmt.Println(bin.Centre, bin.Density, bin.MeanMass, bin.N)
	}
	fmt.Println(b.Outside())
	// Output:
	// 10.5 1 0.7 2
	// 11.5 0 0 0
	// 12.5 0.5 0.6 1
	// 1
}

type star struct{ mag, mass, age, w float64 }

func stars(n int) []star {
	r := xrand.New(&xrand.PCGSource{})
	r.Seed(3)
	s := make([]star, n)
	for i := range s {
		s[i] = star{
			mag:  10 + 6*r.Float64(),
			mass: .5 + .5*r.Float64(),
			age:  1e10 * r.Float64(),
			w:    .5 + r.Float64(),
		}
	}
	return s
}

func TestOrderIndependence(t *testing.T) {
	l, err := wdbin.Uniform(10, 15, .5) // some stars fall outside
	require.NoError(t, err)
	s := stars(5000)

	fwd := wdbin.NewBinner(l)
	for _, x := range s {
		fwd.Add(x.mag, x.mass, x.age, x.w)
	}
	rev := wdbin.NewBinner(l)
	for i := len(s) - 1; i >= 0; i-- {
		rev.Add(s[i].mag, s[i].mass, s[i].age, s[i].w)
	}
	// split into three partial binners merged out of order
	parts := []*wdbin.Binner{wdbin.NewBinner(l), wdbin.NewBinner(l), wdbin.NewBinner(l)}
	for i, x := range s {
		parts[i%3].Add(x.mag, x.mass, x.age, x.w)
	}
	merged := wdbin.NewBinner(l)
	merged.Merge(parts[2])
	merged.Merge(parts[0])
	merged.Merge(parts[1])

	a := fwd.Finalize(1e-3)
	for _, o := range []*wdbin.Binner{rev, merged} {
		assert.Equal(t, fwd.Outside(), o.Outside())
		assert.Equal(t, fwd.Count(), o.Count())
		for i, bin := range o.Finalize(1e-3).Bins {
			want := a.Bins[i]
			assert.Equal(t, want.N, bin.N)
			assert.InEpsilon(t, want.Density, bin.Density, 1e-12)
			assert.InEpsilon(t, want.Sigma, bin.Sigma, 1e-12)
			assert.InEpsilon(t, want.MeanMass, bin.MeanMass, 1e-12)
			assert.InEpsilon(t, want.MeanAge, bin.MeanAge, 1e-12)
			assert.InDelta(t, want.MeanAgeSig, bin.MeanAgeSig, want.MeanAgeSig*1e-6)
		}
	}
}

func TestEmptyBin(t *testing.T) {
	l, err := wdbin.Uniform(10, 14, 1)
	require.NoError(t, err)
	b := wdbin.NewBinner(l)
	for _, x := range stars(1000) {
		if x.mag < 12 || x.mag >= 13 {
			b.Add(x.mag, x.mass, x.age, x.w)
		}
	}
	m := b.Finalize(1)
	var maxSig float64
	for i, bin := range m.Bins {
		if i == 2 {
			continue
		}
		require.NotZero(t, bin.N)
		assert.False(t, bin.Empty())
		if bin.Sigma > maxSig {
			maxSig = bin.Sigma
		}
	}
	e := m.Bins[2]
	assert.Equal(t, 12.5, e.Centre)
	assert.Zero(t, e.Density)
	assert.True(t, e.Empty())
	assert.Greater(t, e.Sigma, maxSig*1e6)
}

func TestStatistics(t *testing.T) {
	l, _ := wdbin.Uniform(0, 1, 1)
	b := wdbin.NewBinner(l)
	b.Add(.5, .6, 1e9, 2)
	b.Add(.5, .8, 3e9, 2)
	bin := b.Finalize(1).Bins[0]
	assert.InDelta(t, 4, bin.Density, 1e-12)
	assert.InDelta(t, 2*1.4142135623730951, bin.Sigma, 1e-12)
	assert.InDelta(t, .7, bin.MeanMass, 1e-12)
	// variance .01, two stars
	assert.InDelta(t, .1/1.4142135623730951, bin.MeanMassSig, 1e-9)
	assert.InDelta(t, 2e9, bin.MeanAge, 1e-3)
}

func TestLayout(t *testing.T) {
	l, err := wdbin.NewLayout([]float64{10.25, 10.75, 11.5}, []float64{.5, .5, 1})
	require.NoError(t, err)
	assert.True(t, l.Contiguous())
	lo, hi := l.Range()
	assert.Equal(t, 10., lo)
	assert.Equal(t, 12., hi)
	for _, c := range []struct {
		mag float64
		i   int
		in  bool
	}{
		{9.9, 0, false},
		{10, 0, true},
		{10.5, 1, true},
		{11.99, 2, true},
		{12, 3, false},
	} {
		i, in := l.Index(c.mag)
		assert.Equal(t, c.in, in, "mag %g", c.mag)
		if in {
			assert.Equal(t, c.i, i, "mag %g", c.mag)
		}
	}

	gap, err := wdbin.NewLayout([]float64{10.5, 12.5}, []float64{1, 1})
	require.NoError(t, err)
	assert.False(t, gap.Contiguous())
	_, in := gap.Index(11.5)
	assert.False(t, in)

	for name, cw := range map[string][2][]float64{
		"overlap": {{10.5, 11}, {1, 1}},
		"order":   {{11.5, 10.5}, {1, 1}},
		"width":   {{10.5}, {0}},
		"lengths": {{10.5, 11.5}, {1}},
		"no bins": {nil, nil},
	} {
		_, err := wdbin.NewLayout(cw[0], cw[1])
		assert.True(t, errors.Is(err, wdbin.ErrBins), name)
	}
	_, err = wdbin.Uniform(12, 10, 1)
	assert.True(t, errors.Is(err, wdbin.ErrBins))
}

func TestUniformRemainder(t *testing.T) {
	for _, c := range []struct {
		hi   float64
		n    int
		last float64 // width of the last bin
	}{
		{2, 4, .5},
		{2.2, 4, .7}, // stretched
		{2.3, 5, .3}, // shortened
	} {
		l, err := wdbin.Uniform(0, c.hi, .5)
		require.NoError(t, err)
		require.Len(t, l, c.n, "hi %g", c.hi)
		assert.InDelta(t, c.last, l[len(l)-1].Width(), 1e-12, "hi %g", c.hi)
		assert.Equal(t, c.hi, l[len(l)-1].Hi)
		assert.True(t, l.Contiguous())
	}
}

func TestTable(t *testing.T) {
	l, _ := wdbin.Uniform(10, 13, 1)
	b := wdbin.NewBinner(l)
	b.Add(10.5, .6, 5e9, 1)
	b.Add(12.5, .7, 6e9, 1)
	m := b.Finalize(2)
	var buf bytes.Buffer
	require.NoError(t, wdbin.Write(&buf, "imf: salpeter\nseed: 3\n", m))
	back, header, err := wdbin.Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, "imf: salpeter\nseed: 3\n", header)
	require.Len(t, back.Bins, 3)
	for i, bin := range back.Bins {
		assert.InDelta(t, m.Bins[i].Centre, bin.Centre, 1e-9)
		assert.InDelta(t, m.Bins[i].Density, bin.Density, 1e-6)
		assert.Equal(t, m.Bins[i].N, bin.N)
		assert.Equal(t, m.Bins[i].Empty(), bin.Empty())
	}

	obs, _, err := wdbin.Read(strings.NewReader("10.5 1 3e-5 1e-6\n11.5 1 5e-5 2e-6\n"))
	require.NoError(t, err)
	assert.Len(t, obs.Bins, 2)
	_, _, err = wdbin.Read(strings.NewReader("10.5 1 3e-5 1e-6\n10.8 1 5e-5 2e-6\n"))
	assert.True(t, errors.Is(err, wdbin.ErrBins), "overlap")
	_, _, err = wdbin.Read(strings.NewReader("10.5 1 3e-5\n"))
	assert.True(t, errors.Is(err, wdbin.ErrBins), "columns")
}
