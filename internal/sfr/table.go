// Public domain.

package sfr

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// Flag column values of the text format.
const (
	flagOK            = "ok"
	flagUnconstrained = "unconstrained"
)

// Write writes a tabulated history as text, one bin per line:
//
//	tmin tmax rate sigma ok|unconstrained
func Write(w io.Writer, s *Tabulated) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "# tmin[yr] tmax[yr] rate[/yr] sigma[/yr] constraint")
	for _, b := range s.Bins {
		f := flagOK
		if b.Unconstrained {
			f = flagUnconstrained
		}
		fmt.Fprintf(bw, "%.6e %.6e %.6e %.6e %s\n", b.TMin, b.TMax, b.Rate, b.Sigma, f)
	}
	return bw.Flush()
}

// Read reads a tabulated history written by Write.  The flag column is
// optional.  Blank lines and lines starting with # are ignored.
func Read(r io.Reader) (*Tabulated, error) {
	var bins []Bin
	sc := bufio.NewScanner(r)
	for ln := 1; sc.Scan(); ln++ {
		l := strings.TrimSpace(sc.Text())
		if l == "" || l[0] == '#' {
			continue
		}
		f := strings.Fields(l)
		if len(f) < 4 {
			return nil, errors.Wrapf(ErrSFR, "line %d: %d fields, need 4", ln, len(f))
		}
		var v [4]float64
		for i := range v {
			var err error
			if v[i], err = strconv.ParseFloat(f[i], 64); err != nil {
				return nil, errors.Wrapf(err, "line %d", ln)
			}
		}
		b := Bin{TMin: v[0], TMax: v[1], Rate: v[2], Sigma: v[3]}
		if len(f) > 4 {
			switch f[4] {
			case flagOK:
			case flagUnconstrained:
				b.Unconstrained = true
			default:
				return nil, errors.Wrapf(ErrSFR, "line %d: unknown flag %q", ln, f[4])
			}
		}
		bins = append(bins, b)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return NewTabulated(bins)
}
