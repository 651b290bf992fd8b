// Public domain.

package track_test

import (
	"fmt"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soniakeys/wdlf/internal/track"
)

func ExampleTrack_At() {
	t, _ := track.New([]float64{0, 1, 2}, []float64{10, 12, 16})
	for _, x := range []float64{.5, 1.5, 3} {
		y, ex := t.At(x)
		fmt.Println(x, y, ex)
	}
	// Output:
	// 0.5 11 false
	// 1.5 14 false
	// 3 20 true
}

func TestNewRejects(t *testing.T) {
	for _, c := range []struct {
		name string
		x, y []float64
	}{
		{"short", []float64{1}, []float64{1}},
		{"length", []float64{1, 2}, []float64{1}},
		{"x order", []float64{1, 1}, []float64{1, 2}},
		{"y flat", []float64{1, 2, 3}, []float64{1, 2, 2}},
		{"y turns", []float64{1, 2, 3}, []float64{1, 2, 1}},
	} {
		_, err := track.New(c.x, c.y)
		require.Error(t, err, c.name)
		assert.True(t, errors.Is(err, track.ErrTrack), c.name)
	}
}

func TestInverseDecreasing(t *testing.T) {
	// lifetime falls with mass
	tr, err := track.New([]float64{1, 2, 4}, []float64{1e10, 2e9, 2e8})
	require.NoError(t, err)
	assert.False(t, tr.Increasing())
	for _, m := range []float64{1, 1.3, 2, 3.7, 4} {
		life, ex := tr.At(m)
		require.False(t, ex)
		back, ex := tr.Inverse(life)
		require.False(t, ex)
		assert.InDelta(t, m, back, 1e-12)
	}
	_, ex := tr.Inverse(1e11)
	assert.True(t, ex)
	_, ex = tr.Inverse(1e8)
	assert.True(t, ex)
	lo, hi := tr.Range()
	assert.Equal(t, 2e8, lo)
	assert.Equal(t, 1e10, hi)
}

func TestSetBracket(t *testing.T) {
	var s track.Set[string]
	require.NoError(t, s.Add(.9, "c"))
	require.NoError(t, s.Add(.5, "a"))
	require.NoError(t, s.Add(.7, "b"))
	require.Error(t, s.Add(.7, "dup"))
	assert.Equal(t, []float64{.5, .7, .9}, s.Keys)
	assert.Equal(t, []string{"a", "b", "c"}, s.Vals)

	for _, c := range []struct {
		k      float64
		lo, hi int
		ex     bool
	}{
		{.5, 0, 0, false},
		{.6, 0, 1, false},
		{.7, 1, 1, false},
		{.85, 1, 2, false},
		{.9, 2, 2, false},
		{.3, 0, 1, true},
		{1.2, 1, 2, true},
	} {
		lo, hi, ex := s.Bracket(c.k)
		assert.Equal(t, c.lo, lo, "k=%g", c.k)
		assert.Equal(t, c.hi, hi, "k=%g", c.k)
		assert.Equal(t, c.ex, ex, "k=%g", c.k)
	}
	v, ok := s.Get(.7)
	assert.True(t, ok)
	assert.Equal(t, "b", v)
}

func TestSetAcross(t *testing.T) {
	var s track.Set[float64]
	s.Add(1, 10)
	s.Add(2, 20)
	f := func(v float64) (float64, bool) { return v, false }
	v, ex := s.Across(1.5, f)
	assert.InDelta(t, 15, v, 1e-12)
	assert.False(t, ex)
	v, ex = s.Across(3, f)
	assert.InDelta(t, 30, v, 1e-12)
	assert.True(t, ex)
	// extrapolation inside an entry propagates
	v, ex = s.Across(2, func(v float64) (float64, bool) { return v, v > 15 })
	assert.Equal(t, 20., v)
	assert.True(t, ex)
}
