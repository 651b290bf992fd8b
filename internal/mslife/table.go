// Public domain.

package mslife

import (
	"bufio"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"gonum.org/v1/gonum/floats"
)

// List holds the named built-in lifetime models.
var List = []struct {
	Name, Heading string
	New           func() (Model, error)
}{
	{"analytic", "t = 10 Gyr (M/Msun)**-2.5, weak Z and Y dependence", analytic},
}

// Lookup constructs the named model.
func Lookup(name string) (Model, error) {
	for _, e := range List {
		if e.Name == name {
			return e.New()
		}
	}
	return nil, errors.Newf("unknown lifetime model %q", name)
}

// Scaling used by the analytic grid.  Metal rich stars live slightly
// longer, helium rich stars shorter.
func analyticLife(z, y, m float64) float64 {
	return 1e10 * math.Pow(m, -2.5) * math.Pow(z/.017, .05) * (1 - 1.5*(y-.27))
}

func analytic() (Model, error) {
	masses := make([]float64, 120)
	floats.LogSpan(masses, .5, 100)
	life := make([]float64, len(masses))
	var g Grid
	for _, z := range []float64{.0001, .001, .004, .008, .017, .03, .05} {
		for _, y := range []float64{.23, .27, .31} {
			for i, m := range masses {
				life[i] = analyticLife(z, y, m)
			}
			if err := g.Add(z, y, masses, life); err != nil {
				return nil, err
			}
		}
	}
	return &g, nil
}

// Read reads a lifetime grid from text, one point per line:
//
//	Z Y mass lifetime
//
// Points of a track must be consecutive and in increasing mass.
func Read(r io.Reader) (*Grid, error) {
	var g Grid
	var z0, y0 float64
	var m, t []float64
	flush := func() error {
		if len(m) == 0 {
			return nil
		}
		err := g.Add(z0, y0, m, t)
		m, t = m[:0], t[:0]
		return err
	}
	sc := bufio.NewScanner(r)
	for ln := 1; sc.Scan(); ln++ {
		l := strings.TrimSpace(sc.Text())
		if l == "" || l[0] == '#' {
			continue
		}
		f := strings.Fields(l)
		if len(f) != 4 {
			return nil, errors.Newf("line %d: %d fields, need Z Y mass lifetime", ln, len(f))
		}
		var v [4]float64
		for i := range v {
			var err error
			if v[i], err = strconv.ParseFloat(f[i], 64); err != nil {
				return nil, errors.Wrapf(err, "line %d", ln)
			}
		}
		if v[0] != z0 || v[1] != y0 {
			if err := flush(); err != nil {
				return nil, err
			}
			z0, y0 = v[0], v[1]
		}
		m = append(m, v[2])
		t = append(t, v[3])
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if err := flush(); err != nil {
		return nil, err
	}
	if g.Empty() {
		return nil, errors.New("empty lifetime grid")
	}
	return &g, nil
}
