// Public domain.

package wdbin

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// Empty reports whether the bin carries the empty bin uncertainty.
func (b *Bin) Empty() bool {
	return b.Sigma > EmptySigma/2
}

const columns = "## centre width density sigma mean-mass sigma mean-age sigma n"

// Write writes m as text.  Each line of header is written first as a
// comment, then one row per bin:
//
//	centre width density sigma mean-mass sigma mean-age sigma n
func Write(w io.Writer, header string, m *ModelWdlf) error {
	bw := bufio.NewWriter(w)
	if header != "" {
		for _, l := range strings.Split(strings.TrimRight(header, "\n"), "\n") {
			fmt.Fprintln(bw, "#", l)
		}
	}
	fmt.Fprintln(bw, columns)
	for _, b := range m.Bins {
		fmt.Fprintf(bw, "%8.4f %7.4f %.6e %.6e %.5f %.5e %.6e %.6e %d\n",
			b.Centre, b.Width, b.Density, b.Sigma,
			b.MeanMass, b.MeanMassSig, b.MeanAge, b.MeanAgeSig, b.N)
	}
	return bw.Flush()
}

// Read reads a luminosity function written by Write, or an observed one
// with only the first four columns.  Comment lines starting with "# " are
// returned as the header, without the prefix.  The bin layout is
// validated as by NewLayout.
func Read(r io.Reader) (m *ModelWdlf, header string, err error) {
	var hb strings.Builder
	m = &ModelWdlf{}
	sc := bufio.NewScanner(r)
	for ln := 1; sc.Scan(); ln++ {
		l := sc.Text()
		if strings.HasPrefix(l, "##") {
			continue
		}
		if strings.HasPrefix(l, "#") {
			hb.WriteString(strings.TrimPrefix(strings.TrimPrefix(l, "#"), " "))
			hb.WriteByte('\n')
			continue
		}
		f := strings.Fields(l)
		if len(f) == 0 {
			continue
		}
		if len(f) < 4 {
			return nil, "", errors.Wrapf(ErrBins, "line %d: %d columns, need at least 4", ln, len(f))
		}
		var v [8]float64
		for i := 0; i < len(v) && i < len(f); i++ {
			if v[i], err = strconv.ParseFloat(f[i], 64); err != nil {
				return nil, "", errors.Wrapf(err, "line %d column %d", ln, i+1)
			}
		}
		b := Bin{
			Centre: v[0], Width: v[1], Density: v[2], Sigma: v[3],
			MeanMass: v[4], MeanMassSig: v[5], MeanAge: v[6], MeanAgeSig: v[7],
		}
		if len(f) > 8 {
			if b.N, err = strconv.Atoi(f[8]); err != nil {
				return nil, "", errors.Wrapf(err, "line %d column 9", ln)
			}
		}
		if !(b.Sigma > 0) {
			return nil, "", errors.Wrapf(ErrBins, "line %d: uncertainty %g", ln, b.Sigma)
		}
		m.Bins = append(m.Bins, b)
	}
	if err = sc.Err(); err != nil {
		return nil, "", err
	}
	c := make([]float64, len(m.Bins))
	w := make([]float64, len(m.Bins))
	for i, b := range m.Bins {
		c[i], w[i] = b.Centre, b.Width
	}
	if _, err = NewLayout(c, w); err != nil {
		return nil, "", err
	}
	return m, hb.String(), nil
}
