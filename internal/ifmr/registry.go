// Public domain.

package ifmr

import (
	"bufio"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// List holds the named published relations.
var List = []struct {
	Name, Heading string
	New           func() (IFMR, error)
}{
	{"kalirai2008", "Kalirai et al. (2008), linear", kalirai2008},
	{"williams2009", "Williams et al. (2009), linear", williams2009},
	{"catalan2008", "Catalan et al. (2008), two segments", catalan2008},
	{"cummings2018", "Cummings et al. (2018) MIST, three segments", cummings2018},
}

func kalirai2008() (IFMR, error)  { return NewLinear(.109, .394) }
func williams2009() (IFMR, error) { return NewLinear(.129, .339) }

func catalan2008() (IFMR, error) {
	return NewPiecewise([]Segment{
		{2.7, .096, .429},
		{math.Inf(1), .137, .318},
	}, 0)
}

// The last segment extends beyond 7.2 until the clamp.
func cummings2018() (IFMR, error) {
	return NewPiecewise([]Segment{
		{2.85, .08, .489},
		{3.6, .187, .184},
		{7.2, .107, .471},
	}, 1.33)
}

// Lookup constructs the named relation.
func Lookup(name string) (IFMR, error) {
	for _, e := range List {
		if e.Name == name {
			return e.New()
		}
	}
	return nil, errors.Newf("unknown IFMR %q", name)
}

// Read reads a tabulated relation from text, one point per line:
//
//	initial-mass final-mass
func Read(r io.Reader) (*Tabulated, error) {
	var mi, mf []float64
	sc := bufio.NewScanner(r)
	for ln := 1; sc.Scan(); ln++ {
		l := strings.TrimSpace(sc.Text())
		if l == "" || l[0] == '#' {
			continue
		}
		f := strings.Fields(l)
		if len(f) != 2 {
			return nil, errors.Newf("line %d: %d fields, need initial final", ln, len(f))
		}
		i, err := strconv.ParseFloat(f[0], 64)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", ln)
		}
		o, err := strconv.ParseFloat(f[1], 64)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", ln)
		}
		mi = append(mi, i)
		mf = append(mf, o)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return NewTabulated(mi, mf)
}
