// Public domain.

package wdcool

import (
	"sort"

	"github.com/cockroachdb/errors"
)

// ErrFilter is returned for a filter or atmosphere type with no grid.
var ErrFilter = errors.New("filter not available")

// Atm is a white dwarf atmosphere type.
type Atm int

const (
	H  Atm = iota // hydrogen, DA
	He            // helium, DB
)

var atmName = [...]string{"H", "He"}

func (a Atm) String() string {
	if a < 0 || int(a) >= len(atmName) {
		return "Atm(?)"
	}
	return atmName[a]
}

// ParseAtm parses "H" or "He".
func ParseAtm(s string) (Atm, error) {
	for a, n := range atmName {
		if s == n {
			return Atm(a), nil
		}
	}
	return 0, errors.Newf("unknown atmosphere type %q", s)
}

type key struct {
	filter string
	atm    Atm
}

// Set is a collection of grids keyed by filter and atmosphere type.
type Set struct {
	g map[key]*Grid
}

// NewSet returns an empty set.
func NewSet() *Set {
	return &Set{g: map[key]*Grid{}}
}

// Add stores g as the grid for filter and atm, replacing any present.
func (s *Set) Add(filter string, atm Atm, g *Grid) error {
	if g == nil || g.Len() == 0 {
		return errors.Newf("empty cooling grid %s %v", filter, atm)
	}
	s.g[key{filter, atm}] = g
	return nil
}

// Grid returns the grid for filter and atm.
func (s *Set) Grid(filter string, atm Atm) (*Grid, error) {
	g, ok := s.g[key{filter, atm}]
	if !ok {
		return nil, errors.Wrapf(ErrFilter, "filter %q, atmosphere %v", filter, atm)
	}
	return g, nil
}

// Atms returns the atmosphere types present.
func (s *Set) Atms() []Atm {
	seen := map[Atm]bool{}
	var as []Atm
	for k := range s.g {
		if !seen[k.atm] {
			seen[k.atm] = true
			as = append(as, k.atm)
		}
	}
	sort.Slice(as, func(i, j int) bool { return as[i] < as[j] })
	return as
}

// Filters returns the filters usable with every atmosphere type present,
// sorted.
func (s *Set) Filters() []string {
	atms := s.Atms()
	n := map[string]int{}
	for k := range s.g {
		n[k.filter]++
	}
	var fs []string
	for f, c := range n {
		if c == len(atms) {
			fs = append(fs, f)
		}
	}
	sort.Strings(fs)
	return fs
}

// Usable returns nil if filter has a grid for every atmosphere type.
func (s *Set) Usable(filter string) error {
	for _, a := range s.Atms() {
		if _, err := s.Grid(filter, a); err != nil {
			return err
		}
	}
	return nil
}

// Magnitude evaluates the grid for filter and atm.
func (s *Set) Magnitude(t, mass float64, atm Atm, filter string) (float64, bool, error) {
	g, err := s.Grid(filter, atm)
	if err != nil {
		return 0, false, err
	}
	m, ex := g.Magnitude(t, mass)
	return m, ex, nil
}

// CoolingTime evaluates the grid for filter and atm.
func (s *Set) CoolingTime(mag, mass float64, atm Atm, filter string) (float64, bool, error) {
	g, err := s.Grid(filter, atm)
	if err != nil {
		return 0, false, err
	}
	t, ex := g.CoolingTime(mag, mass)
	return t, ex, nil
}
