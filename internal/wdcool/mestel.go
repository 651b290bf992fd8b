// Public domain.

package wdcool

import (
	"bufio"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"gonum.org/v1/gonum/floats"
)

// List holds the named built-in cooling model sets.
var List = []struct {
	Name, Heading string
	New           func() (*Set, error)
}{
	{"mestel", "Mestel law, constant bolometric corrections", mestel},
}

// Lookup constructs the named set.
func Lookup(name string) (*Set, error) {
	for _, e := range List {
		if e.Name == name {
			return e.New()
		}
	}
	return nil, errors.Newf("unknown cooling model %q", name)
}

// MestelMbol returns the bolometric magnitude of a white dwarf of the given
// mass after cooling time t years under Mestel's law,
// t = 8.8e6 yr M**(5/7) L**(-5/7), solar units.
func MestelMbol(t, mass float64) float64 {
	l := math.Pow(t/(8.8e6*math.Pow(mass, 5./7)), -7./5)
	return 4.75 - 2.5*math.Log10(l)
}

// bolometric corrections, filter magnitude minus Mbol.  G has no helium
// table, so it is not in the usable filter list.
var mestelBC = []struct {
	filter string
	atm    Atm
	bc     float64
}{
	{"Mbol", H, 0},
	{"Mbol", He, 0},
	{"V", H, .3},
	{"V", He, .1},
	{"G", H, .15},
}

func mestel() (*Set, error) {
	masses := []float64{.5, .6, .7, .8, .9, 1, 1.1, 1.2}
	ts := make([]float64, 100)
	floats.LogSpan(ts, 1e6, 2e10)
	mag := make([]float64, len(ts))
	s := NewSet()
	for _, b := range mestelBC {
		var g Grid
		for _, m := range masses {
			for i, t := range ts {
				mag[i] = MestelMbol(t, m) + b.bc
			}
			if err := g.Add(m, ts, mag); err != nil {
				return nil, err
			}
		}
		if err := s.Add(b.filter, b.atm, &g); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Read reads a cooling grid from text, one point per line:
//
//	mass cooling-time magnitude
//
// Points of a track must be consecutive and in increasing time.
func Read(r io.Reader) (*Grid, error) {
	var g Grid
	var m0 float64
	var t, mag []float64
	flush := func() error {
		if len(t) == 0 {
			return nil
		}
		err := g.Add(m0, t, mag)
		t, mag = t[:0], mag[:0]
		return err
	}
	sc := bufio.NewScanner(r)
	for ln := 1; sc.Scan(); ln++ {
		l := strings.TrimSpace(sc.Text())
		if l == "" || l[0] == '#' {
			continue
		}
		f := strings.Fields(l)
		if len(f) != 3 {
			return nil, errors.Newf("line %d: %d fields, need mass time magnitude", ln, len(f))
		}
		var v [3]float64
		for i := range v {
			var err error
			if v[i], err = strconv.ParseFloat(f[i], 64); err != nil {
				return nil, errors.Wrapf(err, "line %d", ln)
			}
		}
		if v[0] != m0 {
			if err := flush(); err != nil {
				return nil, err
			}
			m0 = v[0]
		}
		t = append(t, v[1])
		mag = append(mag, v[2])
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if err := flush(); err != nil {
		return nil, err
	}
	if g.Len() == 0 {
		return nil, errors.New("empty cooling grid")
	}
	return &g, nil
}
