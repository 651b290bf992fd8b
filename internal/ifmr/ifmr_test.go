// Public domain.

package ifmr_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soniakeys/wdlf/internal/ifmr"
)

func ExampleNewLinear() {
	r, _ := ifmr.NewLinear(.1, .46)
	fmt.Printf("%.3f %.3f\n", r.FinalMass(3), r.BreakdownMass())
	// Output:
	// 0.760 0.511
}

// masses strictly inside each segment, away from breaks and the clamp
var interior = map[string][]float64{
	"kalirai2008":  {.8, 1.5, 3, 6},
	"williams2009": {.8, 1.5, 3, 6},
	"catalan2008":  {1, 2, 3.5, 6},
	"cummings2018": {1, 2, 3, 5, 7},
}

func TestRoundTrip(t *testing.T) {
	for _, e := range ifmr.List {
		r, err := e.New()
		require.NoError(t, err, e.Name)
		ms := interior[e.Name]
		require.NotEmpty(t, ms, e.Name)
		for _, m := range ms {
			assert.InDelta(t, m, r.InitialMass(r.FinalMass(m)), 1e-12, "%s %g", e.Name, m)
		}
		b := r.BreakdownMass()
		assert.InDelta(t, b, r.FinalMass(b), 1e-12, e.Name)
	}
}

func TestClamp(t *testing.T) {
	r, err := ifmr.Lookup("cummings2018")
	require.NoError(t, err)
	assert.Equal(t, 1.33, r.FinalMass(9))
	assert.Equal(t, 1.33, r.FinalMass(50))
	// inverse of the clamp is where it starts
	assert.InDelta(t, (1.33-.471)/.107, r.InitialMass(1.33), 1e-12)
	// below the calibrated range the first segment extends
	assert.InDelta(t, .08*.6+.489, r.FinalMass(.6), 1e-15)
}

func TestPiecewiseRejects(t *testing.T) {
	_, err := ifmr.NewPiecewise(nil, 0)
	assert.Error(t, err)
	_, err = ifmr.NewPiecewise([]ifmr.Segment{{3, .1, .4}, {2, .1, .4}}, 0)
	assert.Error(t, err)
	_, err = ifmr.NewLinear(0, .5)
	assert.Error(t, err)
	_, err = ifmr.Lookup("nope")
	assert.Error(t, err)
}

func TestTabulated(t *testing.T) {
	r, err := ifmr.Read(strings.NewReader(`# mi mf
1 .55
3 .75
6 1.05
`))
	require.NoError(t, err)
	assert.InDelta(t, .65, r.FinalMass(2), 1e-12)
	assert.InDelta(t, 2, r.InitialMass(.65), 1e-12)
	// fixed point below the table: first segment extended
	b := r.BreakdownMass()
	assert.InDelta(t, .5, b, 1e-12)
	assert.InDelta(t, b, r.FinalMass(b), 1e-12)

	_, err = ifmr.NewTabulated([]float64{1, 2}, []float64{.6, .5})
	assert.Error(t, err)
}
