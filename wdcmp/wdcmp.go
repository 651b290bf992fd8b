// Public domain.

package main

import (
	"fmt"
	"io"
	"math"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/soniakeys/exit"
	"github.com/spf13/pflag"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/soniakeys/wdlf/internal/wdbin"
)

const versionString = "wdcmp version 0.1"
const copyrightString = "Public domain."

func main() {
	defer exit.Handler()
	fs := pflag.NewFlagSet("wdcmp", pflag.ExitOnError)
	scale := fs.BoolP("scale", "s", false, "fit a normalization factor to the model")
	vers := fs.BoolP("version", "v", false, "display version and copyright")
	fs.Usage = func() {
		os.Stderr.WriteString(
			"Usage: wdcmp [options] <model-file> <observed-file>\n")
		fs.PrintDefaults()
	}
	fs.Parse(os.Args[1:])
	if *vers {
		fmt.Println(versionString)
		fmt.Println(copyrightString)
		os.Exit(0)
	}
	if fs.NArg() != 2 {
		fs.Usage()
		os.Exit(1)
	}
	model, err := read(fs.Arg(0))
	if err != nil {
		exit.Log(err)
	}
	obs, err := read(fs.Arg(1))
	if err != nil {
		exit.Log(err)
	}
	r, err := compare(model, obs, *scale)
	if err != nil {
		exit.Log(err)
	}
	fmt.Println("\nModel file:    ", fs.Arg(0))
	fmt.Println("Observed file: ", fs.Arg(1))
	r.print(os.Stdout)
}

func read(fn string) (*wdbin.ModelWdlf, error) {
	f, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	m, _, err := wdbin.Read(f)
	return m, errors.Wrapf(err, "%s", fn)
}

type result struct {
	matched   int // bins in both files
	unmatched int // bins in one file only
	used      int // matched bins with both non-empty
	scale     float64
	fitScale  bool
	chi2      float64
	dof       int
	p         float64 // chance probability of chi2 or larger
}

// same reports whether two bins are the same to within rounding of the
// text format.
func same(a, b *wdbin.Bin) bool {
	const tol = 1e-4
	return math.Abs(a.Centre-b.Centre) < tol && math.Abs(a.Width-b.Width) < tol
}

type pair struct{ m, o *wdbin.Bin }

func compare(model, obs *wdbin.ModelWdlf, fitScale bool) (*result, error) {
	r := &result{scale: 1, fitScale: fitScale}
	var ps []pair
	j := 0
	for i := range model.Bins {
		mb := &model.Bins[i]
		for j < len(obs.Bins) && obs.Bins[j].Centre < mb.Centre && !same(&obs.Bins[j], mb) {
			j++
			r.unmatched++
		}
		if j < len(obs.Bins) && same(&obs.Bins[j], mb) {
			r.matched++
			if !mb.Empty() && !obs.Bins[j].Empty() {
				ps = append(ps, pair{mb, &obs.Bins[j]})
			}
			j++
			continue
		}
		r.unmatched++
	}
	r.unmatched += len(obs.Bins) - j
	r.used = len(ps)
	if fitScale {
		// weighted by observed uncertainties
		var num, den float64
		for _, p := range ps {
			w := 1 / (p.o.Sigma * p.o.Sigma)
			num += w * p.o.Density * p.m.Density
			den += w * p.m.Density * p.m.Density
		}
		if den > 0 {
			r.scale = num / den
		}
	}
	for _, p := range ps {
		d := p.o.Density - r.scale*p.m.Density
		v := p.o.Sigma*p.o.Sigma + r.scale*r.scale*p.m.Sigma*p.m.Sigma
		r.chi2 += d * d / v
	}
	r.dof = r.used
	if fitScale {
		r.dof--
	}
	if r.dof < 1 {
		return r, errors.Newf("%d bins in common, too few to compare", r.used)
	}
	r.p = distuv.ChiSquared{K: float64(r.dof)}.Survival(r.chi2)
	return r, nil
}

func (r *result) print(w io.Writer) {
	fmt.Fprintln(w, "Bins matched:  ", r.matched)
	if r.unmatched != 0 {
		fmt.Fprintln(w, "Bins unmatched:", r.unmatched)
	}
	fmt.Fprintln(w, "Bins used:     ", r.used)
	if r.fitScale {
		fmt.Fprintf(w, "Scale:          %.4g\n", r.scale)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Chi-square:     %.3f\n", r.chi2)
	fmt.Fprintf(w, "Reduced:        %.3f (%d degrees of freedom)\n", r.chi2/float64(r.dof), r.dof)
	fmt.Fprintf(w, "Probability:    %.3g\n", r.p)
}
