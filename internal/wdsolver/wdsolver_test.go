// Public domain.

package wdsolver_test

import (
	"context"
	"math"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	xrand "golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate/quad"

	"github.com/soniakeys/wdlf/internal/ifmr"
	"github.com/soniakeys/wdlf/internal/imf"
	"github.com/soniakeys/wdlf/internal/mslife"
	"github.com/soniakeys/wdlf/internal/sfr"
	"github.com/soniakeys/wdlf/internal/wdbin"
	"github.com/soniakeys/wdlf/internal/wdcool"
	"github.com/soniakeys/wdlf/internal/wdsolver"
)

// models returns simple analytic models: a Salpeter IMF on [1, 8], the
// given lifetime law at Z=.02 Y=.27, a linear IFMR with no breakdown in
// range, and hydrogen Mbol cooling tracks linear in time,
// mag = 10 + t/1e9 + .2(M - .6).
func models(t *testing.T, life func(m float64) float64, s sfr.SFR) wdsolver.Models {
	f, err := imf.NewPowerLaw(-2.35, 1, 8)
	require.NoError(t, err)
	mass := make([]float64, 120)
	floats.LogSpan(mass, .1, 50)
	lt := make([]float64, len(mass))
	for i, m := range mass {
		lt[i] = life(m)
	}
	var lg mslife.Grid
	require.NoError(t, lg.Add(.02, .27, mass, lt))
	r, err := ifmr.NewLinear(.1, .46)
	require.NoError(t, err)
	return wdsolver.Models{
		IMF:      f,
		SFR:      s,
		IFMR:     r,
		Lifetime: &lg,
		Cooling:  cooling(t, []float64{.5, .7, .9, 1.1, 1.3}, 1.5e10),
	}
}

func cooling(t *testing.T, masses []float64, tmax float64) *wdcool.Set {
	var g wdcool.Grid
	for _, m := range masses {
		d := .2 * (m - .6)
		require.NoError(t, g.Add(m, []float64{0, tmax}, []float64{10 + d, 10 + tmax/1e9 + d}))
	}
	cs := wdcool.NewSet()
	require.NoError(t, cs.Add("Mbol", wdcool.H, &g))
	return cs
}

var params = wdsolver.Params{Filter: "Mbol", HFraction: 1, Z: .02, Y: .27}

func steepLife(m float64) float64 { return 1e10 * math.Pow(m, -2.5) }
func shortLife(m float64) float64 { return 1e8 / m }

func constant(t *testing.T, tmin, tmax float64) sfr.SFR {
	s, err := sfr.NewConstant(1, tmin, tmax)
	require.NoError(t, err)
	return s
}

func TestNormalization(t *testing.T) {
	m := models(t, steepLife, constant(t, 0, 1e10))
	var err error
	m.IMF, err = imf.NewPowerLaw(-2.35, .1, 50)
	require.NoError(t, err)
	m.Cooling = cooling(t, []float64{.5, .9, 1.3}, 1e10)
	p := params
	p.MinSampledMass = .9 // nothing lighter forms a white dwarf
	l, err := wdbin.Uniform(5, 35, 1)
	require.NoError(t, err)
	lf, st, err := wdsolver.Synthesize(context.Background(), wdsolver.Config{
		Models:    m,
		Params:    p,
		Layout:    l,
		MaxTrials: 200000,
		Seed:      1,
	})
	require.NoError(t, err)
	assert.Equal(t, 200000, st.Trials)
	assert.Zero(t, st.OutOfRange)
	assert.Zero(t, st.BelowBreakdown)
	assert.Equal(t, st.Trials, st.MainSequence+st.Contributing)
	frac := 1 - m.IMF.Integral(.9)
	assert.InEpsilon(t, 1e10*frac/200000, st.Norm, 1e-12)

	var sum float64
	for _, b := range lf.Bins {
		sum += b.Density * b.Width
		if !b.Empty() {
			assert.True(t, b.MeanAge > 0 && b.MeanAge <= 1e10)
			assert.True(t, b.MeanMass > .5 && b.MeanMass < 5.5)
		}
	}
	require.Greater(t, sum, 0.)
	assert.InEpsilon(t, float64(st.Contributing)*st.Norm, sum, 1e-9)

	// white dwarfs formed: stars older than their lifetimes
	want := quad.Fixed(func(mi float64) float64 {
		d, _ := m.IMF.Density(mi)
		life, _ := m.Lifetime.Lifetime(.02, .27, mi)
		return d * math.Max(0, 1e10-life)
	}, 1, 50, 200, nil, 0)
	assert.InEpsilon(t, want, sum, .03)
}

func TestAllMainSequence(t *testing.T) {
	// younger than the shortest lifetime, 1.25e7 yr
	m := models(t, shortLife, constant(t, 0, 1e7))
	l, err := wdbin.Uniform(10, 20, 1)
	require.NoError(t, err)
	lf, st, err := wdsolver.Synthesize(context.Background(), wdsolver.Config{
		Models:    m,
		Params:    params,
		Layout:    l,
		MaxTrials: 5000,
		Chunk:     1000,
	})
	require.NoError(t, err)
	assert.Equal(t, 5000, st.MainSequence)
	assert.Equal(t, 5, st.Chunks)
	assert.Zero(t, st.Contributing)
	for _, b := range lf.Bins {
		assert.True(t, b.Empty())
		assert.Zero(t, b.Density)
	}
}

func TestWorkersDeterministic(t *testing.T) {
	m := models(t, shortLife, constant(t, 0, 1e10))
	l, err := wdbin.Uniform(10, 21, .5)
	require.NoError(t, err)
	c := wdsolver.Config{
		Models:    m,
		Params:    params,
		Layout:    l,
		MaxTrials: 20500,
		Chunk:     1000,
		Seed:      42,
		Workers:   1,
	}
	c.MagSigma = .1
	one, st1, err := wdsolver.Synthesize(context.Background(), c)
	require.NoError(t, err)
	c.Workers = 6
	var calls int
	c.Progress = func(done, target int) {
		calls++
		assert.Equal(t, 20500, target)
	}
	six, st6, err := wdsolver.Synthesize(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, one, six)
	assert.Equal(t, st1, st6)
	assert.Equal(t, 21, st6.Chunks)
	assert.Equal(t, 21, calls)
}

func TestTarget(t *testing.T) {
	m := models(t, shortLife, constant(t, 0, 1e10))
	l, err := wdbin.Uniform(10, 21, 1)
	require.NoError(t, err)
	_, st, err := wdsolver.Synthesize(context.Background(), wdsolver.Config{
		Models:    m,
		Params:    params,
		Layout:    l,
		Target:    1500,
		MaxTrials: 1e6,
		Chunk:     1000,
		Workers:   3,
	})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, st.Contributing, 1500)
	assert.Equal(t, st.Chunks*1000, st.Trials)
	assert.Less(t, st.Trials, 10000)
}

func TestCancel(t *testing.T) {
	m := models(t, shortLife, constant(t, 0, 1e10))
	l, err := wdbin.Uniform(10, 21, 1)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = wdsolver.Synthesize(ctx, wdsolver.Config{
		Models:    m,
		Params:    params,
		Layout:    l,
		MaxTrials: 1e6,
	})
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestCancelMidRun(t *testing.T) {
	m := models(t, shortLife, constant(t, 0, 1e10))
	l, err := wdbin.Uniform(10, 21, 1)
	require.NoError(t, err)
	for i := 0; i < 50; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		progress := func(done, target int) {
			if done >= 100 {
				cancel()
			}
		}
		lf, st, err := wdsolver.Synthesize(ctx, wdsolver.Config{
			Models:    m,
			Params:    params,
			Layout:    l,
			MaxTrials: 200000,
			Chunk:     50,
			Workers:   4,
			Progress:  progress,
		})
		cancel()
		require.True(t, errors.Is(err, context.Canceled), "run %d: %d trials, err %v", i, st.Trials, err)
		assert.Nil(t, lf)
	}
}

func TestConfigErrors(t *testing.T) {
	m := models(t, shortLife, constant(t, 0, 1e10))
	l, err := wdbin.Uniform(10, 21, 1)
	require.NoError(t, err)
	c := wdsolver.Config{Models: m, Params: params, Layout: l, MaxTrials: 10}

	v := c
	v.Filter = "V"
	_, _, err = wdsolver.Synthesize(context.Background(), v)
	assert.True(t, errors.Is(err, wdcool.ErrFilter))

	he := c
	he.HFraction = .5 // no helium grid
	_, _, err = wdsolver.Synthesize(context.Background(), he)
	assert.True(t, errors.Is(err, wdcool.ErrFilter))

	nb := c
	nb.Layout = nil
	_, _, err = wdsolver.Synthesize(context.Background(), nb)
	assert.True(t, errors.Is(err, wdbin.ErrBins))

	for _, bad := range []func(*wdsolver.Config){
		func(c *wdsolver.Config) { c.MaxTrials = 0 },
		func(c *wdsolver.Config) { c.HFraction = 1.5 },
		func(c *wdsolver.Config) { c.MagSigma = -1 },
		func(c *wdsolver.Config) { c.IFMR = nil },
		func(c *wdsolver.Config) { c.MinSampledMass = 9 },
	} {
		b := c
		bad(&b)
		_, _, err = wdsolver.Synthesize(context.Background(), b)
		assert.Error(t, err)
	}
}

func TestSamplerFates(t *testing.T) {
	m := models(t, shortLife, constant(t, 0, 1e10))
	// breakdown at Mi = 2
	r, err := ifmr.NewLinear(.9, .2)
	require.NoError(t, err)
	m.IFMR = r
	s, err := wdsolver.NewSampler(m, params)
	require.NoError(t, err)
	assert.Equal(t, 1., s.IMFFraction())

	rnd := xrand.New(&xrand.PCGSource{})
	rnd.Seed(3)
	var st wdsolver.Star
	n := map[wdsolver.Fate]int{}
	for i := 0; i < 20000; i++ {
		f := s.Draw(rnd, &st)
		n[f]++
		switch f {
		case wdsolver.MainSequence:
			assert.LessOrEqual(t, st.FormationTime, st.Lifetime)
		case wdsolver.BelowBreakdown:
			assert.Greater(t, st.FormationTime, st.Lifetime)
			assert.Less(t, st.Mass, 2.)
		case wdsolver.WhiteDwarf:
			assert.GreaterOrEqual(t, st.Mass, 2.)
			assert.InDelta(t, st.FormationTime-st.Lifetime, st.CoolingTime, 1e-3)
			assert.InDelta(t, .9*st.Mass+.2, st.WDMass, 1e-12)
			assert.Equal(t, wdcool.H, st.Atm)
			assert.Equal(t, 1., st.Weight)
		}
	}
	// most of a Salpeter IMF on [1, 8] is below 2
	assert.Greater(t, n[wdsolver.BelowBreakdown], n[wdsolver.WhiteDwarf])
	assert.Greater(t, n[wdsolver.WhiteDwarf], 0)
	assert.Equal(t, "below breakdown", wdsolver.BelowBreakdown.String())
}

func TestMinSampledMass(t *testing.T) {
	m := models(t, steepLife, constant(t, 0, 1e10))
	p := params
	p.MinSampledMass = 2
	s, err := wdsolver.NewSampler(m, p)
	require.NoError(t, err)
	assert.InDelta(t, 1-m.IMF.Integral(2), s.IMFFraction(), 1e-12)
	rnd := xrand.New(&xrand.PCGSource{})
	rnd.Seed(4)
	var st wdsolver.Star
	for i := 0; i < 1000; i++ {
		s.Draw(rnd, &st)
		require.GreaterOrEqual(t, st.Mass, 2.)
	}
}

// A two step history, rate 1 for the last 5 Gyr and 2 before, is
// synthesized then recovered.
func TestInvert(t *testing.T) {
	for _, sigma := range []float64{0, .3} {
		invertSteps(t, sigma)
	}
}

// invertSteps synthesizes a two-step history, rate 1 then 2, with the
// given magnitude error and checks the recovered rates.
func invertSteps(t *testing.T, sigma float64) {
	hist, err := sfr.NewTabulated([]sfr.Bin{
		{TMin: 0, TMax: 5e9, Rate: 1},
		{TMin: 5e9, TMax: 1e10, Rate: 2},
	})
	require.NoError(t, err)
	m := models(t, shortLife, hist)
	p := params
	p.MagSigma = sigma
	l, err := wdbin.Uniform(10, 24, 1)
	require.NoError(t, err)
	obs, _, err := wdsolver.Synthesize(context.Background(), wdsolver.Config{
		Models:    m,
		Params:    p,
		Layout:    l,
		MaxTrials: 1e6,
		Seed:      7,
	})
	require.NoError(t, err)

	got, err := wdsolver.Invert(obs, wdsolver.InvertConfig{
		Models:      m,
		Params:      p,
		MaxLookback: 1e10,
	})
	require.NoError(t, err)
	b := got.Bins
	require.NotEmpty(t, b)
	// too young to reach the brightest bin
	assert.True(t, b[0].Unconstrained)
	assert.Zero(t, b[0].TMin)
	tmin, tmax := got.Range()
	assert.Zero(t, tmin)
	assert.Equal(t, 1e10, tmax)

	truth := func(i int) (float64, bool) {
		switch {
		case i < 0 || i >= len(b):
			return 0, true // no neighbour
		case b[i].TMax <= 5e9:
			return 1, true
		case b[i].TMin >= 5e9:
			return 2, true
		}
		return 0, false
	}
	var checked int
	for i := 1; i < len(b); i++ {
		assert.Equal(t, b[i-1].TMax, b[i].TMin)
		if b[i].Unconstrained {
			continue
		}
		// the bin and the neighbours fitted with it must be inside one step
		want, ok := truth(i)
		if !ok {
			continue
		}
		if w, ok := truth(i - 1); i > 1 && (!ok || w != want) {
			continue
		}
		if w, ok := truth(i + 1); i+1 < len(b) && (!ok || w != want) {
			continue
		}
		assert.InDelta(t, want, b[i].Rate, .05*want+4*b[i].Sigma,
			"sigma %g [%g, %g]", sigma, b[i].TMin, b[i].TMax)
		checked++
	}
	assert.GreaterOrEqual(t, checked, 5, "sigma %g", sigma)
}

func TestInvertErrors(t *testing.T) {
	m := models(t, shortLife, nil)
	_, err := wdsolver.Invert(nil, wdsolver.InvertConfig{Models: m, Params: params, MaxLookback: 1e10})
	assert.True(t, errors.Is(err, wdbin.ErrBins))

	obs := &wdbin.ModelWdlf{Bins: []wdbin.Bin{{Centre: 12, Width: 1, Density: 1, Sigma: .1}}}
	_, err = wdsolver.Invert(obs, wdsolver.InvertConfig{Models: m, Params: params})
	assert.Error(t, err)
	p := params
	p.Filter = "G"
	_, err = wdsolver.Invert(obs, wdsolver.InvertConfig{Models: m, Params: p, MaxLookback: 1e10})
	assert.True(t, errors.Is(err, wdcool.ErrFilter))
}
