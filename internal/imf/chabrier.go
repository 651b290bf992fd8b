// Public domain.

package imf

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// LogNormalPowerLaw is a lognormal in log10 mass below a transition mass
// joined continuously to a power law above it, the form of Chabrier (2003).
//
// Per unit log10 mass the density is exp(-(log m - log Mc)**2 / 2 Sigma**2)
// below Mt and proportional to m**-Slope above.
type LogNormalPowerLaw struct {
	Mc, Sigma float64 // characteristic mass, dispersion in log10 m
	Mt, Slope float64 // transition mass, power law slope per log10 m
	Lo, Hi    float64

	ln     distuv.Normal // lognormal part as a normal in log10 m
	cLo    float64       // ln.CDF at log10 Lo
	cT     float64       // density per log10 m at the transition, unnormalized
	logInt float64       // unnormalized integral of the lognormal part
	total  float64       // unnormalized integral over [Lo, Hi]
}

// NewLogNormalPowerLaw constructs the composite function.  Numeric constants
// are precomputed here.
func NewLogNormalPowerLaw(mc, sigma, mt, slope, lo, hi float64) (*LogNormalPowerLaw, error) {
	if err := checkRange(lo, hi); err != nil {
		return nil, err
	}
	if !(mc > 0 && sigma > 0 && mt > 0 && slope > 0) {
		return nil, domainErr(mt, lo, hi)
	}
	f := &LogNormalPowerLaw{
		Mc: mc, Sigma: sigma, Mt: mt, Slope: slope, Lo: lo, Hi: hi,
		ln: distuv.Normal{Mu: math.Log10(mc), Sigma: sigma},
	}
	f.cLo = f.ln.CDF(math.Log10(lo))
	f.cT = f.gauss(math.Log10(mt))
	f.logInt = f.lognormalInt(math.Min(mt, hi))
	f.total = f.logInt + f.powerInt(hi)
	return f, nil
}

func (f *LogNormalPowerLaw) gauss(lm float64) float64 {
	z := (lm - f.ln.Mu) / f.Sigma
	return math.Exp(-z * z / 2)
}

// lognormalInt integrates the lognormal part over [Lo, m], m <= Mt.
func (f *LogNormalPowerLaw) lognormalInt(m float64) float64 {
	if m <= f.Lo {
		return 0
	}
	return f.Sigma * math.Sqrt(2*math.Pi) * (f.ln.CDF(math.Log10(m)) - f.cLo)
}

// powerInt integrates the power law part over [max(Lo, Mt), m].
func (f *LogNormalPowerLaw) powerInt(m float64) float64 {
	a := math.Max(f.Lo, f.Mt)
	if m <= a {
		return 0
	}
	k := f.cT / (f.Slope * math.Ln10)
	return k * (math.Pow(a/f.Mt, -f.Slope) - math.Pow(m/f.Mt, -f.Slope))
}

func (f *LogNormalPowerLaw) Range() (lo, hi float64) { return f.Lo, f.Hi }

func (f *LogNormalPowerLaw) Density(m float64) (float64, error) {
	if m < f.Lo || m > f.Hi {
		return 0, domainErr(m, f.Lo, f.Hi)
	}
	var perLog float64
	if m <= f.Mt {
		perLog = f.gauss(math.Log10(m))
	} else {
		perLog = f.cT * math.Pow(m/f.Mt, -f.Slope)
	}
	return perLog / (m * math.Ln10 * f.total), nil
}

func (f *LogNormalPowerLaw) Integral(m float64) float64 {
	switch {
	case m <= f.Lo:
		return 0
	case m >= f.Hi:
		return 1
	case m <= f.Mt:
		return f.lognormalInt(m) / f.total
	}
	return (f.logInt + f.powerInt(m)) / f.total
}

func (f *LogNormalPowerLaw) Quantile(p float64) float64 {
	switch {
	case p <= 0:
		return f.Lo
	case p >= 1:
		return f.Hi
	}
	v := p * f.total
	if v <= f.logInt {
		c := f.cLo + v/(f.Sigma*math.Sqrt(2*math.Pi))
		return clamp(math.Pow(10, f.ln.Quantile(c)), f.Lo, f.Hi)
	}
	v -= f.logInt
	a := math.Max(f.Lo, f.Mt)
	x := math.Pow(a/f.Mt, -f.Slope) - v*f.Slope*math.Ln10/f.cT
	return clamp(f.Mt*math.Pow(x, -1/f.Slope), f.Lo, f.Hi)
}
