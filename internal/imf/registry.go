// Public domain.

package imf

import "github.com/cockroachdb/errors"

// List holds the named initial mass functions selectable by configuration.
var List = []struct {
	Name, Heading string
	New           func() (IMF, error)
}{
	{"salpeter", "Salpeter (1955), alpha 2.35", salpeter},
	{"kroupa2001", "Kroupa (2001), broken power law", kroupa2001},
	{"chabrier2003", "Chabrier (2003), lognormal + power law", chabrier2003},
}

// Mass limits of the built-in functions.
const (
	MassLower = .1
	MassUpper = 100
)

func salpeter() (IMF, error) {
	return NewPowerLaw(-2.35, MassLower, MassUpper)
}

func kroupa2001() (IMF, error) {
	return NewBrokenPowerLaw([]float64{.08, .5}, []float64{-.3, -1.3, -2.3},
		MassLower, MassUpper)
}

// Chabrier 2003, table 1, single stars.  The power law slope 1.3 per log m
// is -2.3 per unit mass.
func chabrier2003() (IMF, error) {
	return NewLogNormalPowerLaw(.079, .69, 1, 1.3, MassLower, MassUpper)
}

// Lookup constructs the named function.
func Lookup(name string) (IMF, error) {
	for _, e := range List {
		if e.Name == name {
			return e.New()
		}
	}
	return nil, errors.Newf("unknown IMF %q", name)
}
