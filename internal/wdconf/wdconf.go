// Public domain.

// Package wdconf holds the configuration of a luminosity function run:
// which models, their parameters, the magnitude bins and the Monte Carlo
// budget.
//
// A Config is read from YAML over the defaults of Default, validated,
// then resolved to model objects through the model registries or from
// text tables.  Relative table paths are taken relative to the directory
// of the configuration file.
package wdconf

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-logr/logr"
	"github.com/soniakeys/unit"
	"gopkg.in/yaml.v3"

	"github.com/soniakeys/wdlf/internal/ifmr"
	"github.com/soniakeys/wdlf/internal/imf"
	"github.com/soniakeys/wdlf/internal/mslife"
	"github.com/soniakeys/wdlf/internal/sfr"
	"github.com/soniakeys/wdlf/internal/survey"
	"github.com/soniakeys/wdlf/internal/wdbin"
	"github.com/soniakeys/wdlf/internal/wdcool"
	"github.com/soniakeys/wdlf/internal/wdsolver"
)

// SFR kinds.
const (
	SFRConstant    = "constant"
	SFRExponential = "exponential"
	SFRTable       = "table"
)

// SFR selects a star formation history.  Times are lookback times in
// years.
type SFR struct {
	Kind string  `yaml:"kind"`
	Rate float64 `yaml:"rate,omitempty"` // constant rate, or rate at tmin
	Tau  float64 `yaml:"tau,omitempty"`  // exponential timescale
	TMin float64 `yaml:"tmin"`
	TMax float64 `yaml:"tmax"`
	File string  `yaml:"file,omitempty"` // table, as written by sfr.Write
}

// Bins are uniform absolute magnitude bins.
type Bins struct {
	Lo    float64 `yaml:"lo"`
	Hi    float64 `yaml:"hi"`
	Width float64 `yaml:"width"`
}

// CoolingTable is one cooling grid read from a file, replacing or adding
// to the grids of the named cooling model.
type CoolingTable struct {
	Filter string `yaml:"filter"`
	Atm    string `yaml:"atm"`
	File   string `yaml:"file"`
}

// Survey is the survey section, angles in degrees.
type Survey struct {
	MagBright float64    `yaml:"magBright"`
	MagFaint  float64    `yaml:"magFaint"`
	PMMin     float64    `yaml:"pmMin"` // arcsec/yr
	PMMax     float64    `yaml:"pmMax"`
	VtMin     float64    `yaml:"vtMin"` // km/s
	VtMax     float64    `yaml:"vtMax"`
	DecMin    float64    `yaml:"decMin"`
	DecMax    float64    `yaml:"decMax"`
	MinAbsB   float64    `yaml:"minAbsB"`
	DMax      float64    `yaml:"dMax"` // pc
	MeanUVW   [3]float64 `yaml:"meanUVW"`
	SigmaUVW  [3]float64 `yaml:"sigmaUVW"`
	Scale     float64    `yaml:"scaleHeight"`
	RACells   int        `yaml:"raCells"`
	DecCells  int        `yaml:"decCells"`
	Samples   int        `yaml:"samples"`
	Steps     int        `yaml:"steps"`
}

// Config is a run configuration.  It is a value; methods do not modify
// it.
type Config struct {
	IMF            string         `yaml:"imf"`
	SFR            SFR            `yaml:"sfr"`
	IFMR           string         `yaml:"ifmr,omitempty"`
	IFMRFile       string         `yaml:"ifmrFile,omitempty"`
	Lifetime       string         `yaml:"lifetime,omitempty"`
	LifetimeFile   string         `yaml:"lifetimeFile,omitempty"`
	Cooling        string         `yaml:"cooling,omitempty"`
	CoolingFiles   []CoolingTable `yaml:"coolingFiles,omitempty"`
	Filter         string         `yaml:"filter"`
	HFraction      float64        `yaml:"hFraction"`
	Z              float64        `yaml:"z"`
	ZSigma         float64        `yaml:"zSigma"`
	Y              float64        `yaml:"y"`
	YSigma         float64        `yaml:"ySigma"`
	MagSigma       float64        `yaml:"magSigma"`
	MinSampledMass float64        `yaml:"minSampledMass,omitempty"`
	Bins           Bins           `yaml:"bins"`
	Trials         int            `yaml:"trials"`
	Target         int            `yaml:"target,omitempty"`
	Chunk          int            `yaml:"chunk,omitempty"`
	Seed           uint64         `yaml:"seed"`
	Random         bool           `yaml:"random,omitempty"` // seed from the clock
	Workers        int            `yaml:"workers,omitempty"`
	MaxLookback    float64        `yaml:"maxLookback"`
	Survey         *Survey        `yaml:"survey,omitempty"`

	dir string
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		IMF:         "salpeter",
		SFR:         SFR{Kind: SFRConstant, Rate: 1, TMin: 0, TMax: 1e10},
		IFMR:        "kalirai2008",
		Lifetime:    "analytic",
		Cooling:     "mestel",
		Filter:      "Mbol",
		HFraction:   .8,
		Z:           .017,
		Y:           .27,
		Bins:        Bins{Lo: 4, Hi: 20, Width: .5},
		Trials:      1000000,
		Seed:        3,
		MaxLookback: 1.4e10,
	}
}

// DefaultSurvey returns a survey section for a whole sky proper motion
// survey.
func DefaultSurvey() *Survey {
	return &Survey{
		MagBright: 14,
		MagFaint:  19.5,
		PMMin:     .04,
		PMMax:     10,
		VtMin:     30,
		VtMax:     200,
		DecMin:    -90,
		DecMax:    90,
		MinAbsB:   10,
		DMax:      1000,
		SigmaUVW:  [3]float64{35, 25, 20},
		MeanUVW:   [3]float64{-10, -20, -7},
		Scale:     250,
		RACells:   24,
		DecCells:  12,
		Samples:   500,
		Steps:     40,
	}
}

// Load reads YAML over the defaults and validates the result.  Relative
// table paths resolve against dir.  Unknown keys are an error.
func Load(r io.Reader, dir string) (Config, error) {
	c := Default()
	d := yaml.NewDecoder(r)
	d.KnownFields(true)
	if err := d.Decode(&c); err != nil && err != io.EOF {
		return Config{}, errors.Wrap(err, "configuration")
	}
	c.dir = dir
	return c, c.Validate()
}

// LoadFile reads the named configuration file.
func LoadFile(fn string) (Config, error) {
	f, err := os.Open(fn)
	if err != nil {
		return Config{}, err
	}
	defer f.Close()
	c, err := Load(f, filepath.Dir(fn))
	return c, errors.Wrapf(err, "%s", fn)
}

// Write writes c as YAML.
func (c Config) Write(w io.Writer) error {
	e := yaml.NewEncoder(w)
	e.SetIndent(2)
	if err := e.Encode(c); err != nil {
		return err
	}
	return e.Close()
}

// String returns c as YAML, for output headers.
func (c Config) String() string {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err.Error()
	}
	return string(b)
}

// Validate checks values that can be checked without building models.
func (c Config) Validate() error {
	switch {
	case c.IMF == "":
		return errors.New("no IMF")
	case c.IFMR == "" && c.IFMRFile == "":
		return errors.New("no IFMR")
	case c.Lifetime == "" && c.LifetimeFile == "":
		return errors.New("no lifetime model")
	case c.Cooling == "" && len(c.CoolingFiles) == 0:
		return errors.New("no cooling model")
	case c.Filter == "":
		return errors.New("no filter")
	case !(c.HFraction >= 0 && c.HFraction <= 1):
		return errors.Newf("hFraction %g outside [0, 1]", c.HFraction)
	case c.ZSigma < 0 || c.YSigma < 0 || c.MagSigma < 0:
		return errors.New("negative dispersion")
	case !(c.Bins.Hi > c.Bins.Lo && c.Bins.Width > 0):
		return errors.Wrapf(wdbin.ErrBins, "bins lo %g hi %g width %g",
			c.Bins.Lo, c.Bins.Hi, c.Bins.Width)
	case c.Trials < 1:
		return errors.Newf("trials %d", c.Trials)
	case c.Target < 0 || c.Chunk < 0 || c.Workers < 0:
		return errors.New("negative target, chunk or workers")
	case !(c.MaxLookback > 0):
		return errors.Newf("maxLookback %g", c.MaxLookback)
	}
	switch c.SFR.Kind {
	case SFRConstant, SFRExponential:
		if c.SFR.File != "" {
			return errors.Newf("sfr file given for kind %s", c.SFR.Kind)
		}
	case SFRTable:
		if c.SFR.File == "" {
			return errors.New("sfr table with no file")
		}
	default:
		return errors.Newf("unknown sfr kind %q", c.SFR.Kind)
	}
	for _, ct := range c.CoolingFiles {
		if _, err := wdcool.ParseAtm(ct.Atm); err != nil {
			return err
		}
		if ct.Filter == "" || ct.File == "" {
			return errors.New("cooling file needs filter and file")
		}
	}
	if c.Survey != nil {
		sc := c.Survey.config(nil)
		if err := sc.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c Config) path(fn string) string {
	if filepath.IsAbs(fn) || c.dir == "" {
		return fn
	}
	return filepath.Join(c.dir, fn)
}

func (c Config) open(fn string) (*os.File, error) {
	return os.Open(c.path(fn))
}

// Models builds the model objects.
func (c Config) Models() (m wdsolver.Models, err error) {
	if m.IMF, err = imf.Lookup(c.IMF); err != nil {
		return
	}
	if m.SFR, err = c.sfr(); err != nil {
		return
	}
	if m.IFMR, err = c.ifmr(); err != nil {
		return
	}
	if m.Lifetime, err = c.lifetime(); err != nil {
		return
	}
	m.Cooling, err = c.cooling()
	return
}

func (c Config) sfr() (sfr.SFR, error) {
	s := c.SFR
	switch s.Kind {
	case SFRConstant:
		return sfr.NewConstant(s.Rate, s.TMin, s.TMax)
	case SFRExponential:
		return sfr.NewExponential(s.Rate, s.Tau, s.TMin, s.TMax)
	}
	f, err := c.open(s.File)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	t, err := sfr.Read(f)
	return t, errors.Wrapf(err, "%s", s.File)
}

func (c Config) ifmr() (ifmr.IFMR, error) {
	if c.IFMRFile == "" {
		return ifmr.Lookup(c.IFMR)
	}
	f, err := c.open(c.IFMRFile)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	t, err := ifmr.Read(f)
	return t, errors.Wrapf(err, "%s", c.IFMRFile)
}

func (c Config) lifetime() (mslife.Model, error) {
	if c.LifetimeFile == "" {
		return mslife.Lookup(c.Lifetime)
	}
	f, err := c.open(c.LifetimeFile)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	g, err := mslife.Read(f)
	return g, errors.Wrapf(err, "%s", c.LifetimeFile)
}

func (c Config) cooling() (*wdcool.Set, error) {
	s := wdcool.NewSet()
	if c.Cooling != "" {
		var err error
		if s, err = wdcool.Lookup(c.Cooling); err != nil {
			return nil, err
		}
	}
	for _, ct := range c.CoolingFiles {
		atm, err := wdcool.ParseAtm(ct.Atm)
		if err != nil {
			return nil, err
		}
		f, err := c.open(ct.File)
		if err != nil {
			return nil, err
		}
		g, err := wdcool.Read(f)
		f.Close()
		if err != nil {
			return nil, errors.Wrapf(err, "%s", ct.File)
		}
		if err = s.Add(ct.Filter, atm, g); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Params returns the sampler parameters, without a selection weight.
func (c Config) Params() wdsolver.Params {
	return wdsolver.Params{
		Filter:         c.Filter,
		HFraction:      c.HFraction,
		Z:              c.Z,
		ZSigma:         c.ZSigma,
		Y:              c.Y,
		YSigma:         c.YSigma,
		MagSigma:       c.MagSigma,
		MinSampledMass: c.MinSampledMass,
	}
}

// Layout returns the magnitude bins.
func (c Config) Layout() (wdbin.Layout, error) {
	return wdbin.Uniform(c.Bins.Lo, c.Bins.Hi, c.Bins.Width)
}

// FixSeed returns c with a Random seed replaced by a clock seed, so the
// configuration records the seed a run uses.
func (c Config) FixSeed() Config {
	if c.Random {
		c.Seed = uint64(time.Now().UnixNano())
		c.Random = false
	}
	return c
}

// config converts the survey section.  The magnitude grid spans mags.
func (s *Survey) config(mags []float64) survey.Config {
	if len(mags) == 0 {
		mags = []float64{0, 20}
	}
	return survey.Config{
		MagBright: s.MagBright,
		MagFaint:  s.MagFaint,
		PMMin:     s.PMMin,
		PMMax:     s.PMMax,
		VtMin:     s.VtMin,
		VtMax:     s.VtMax,
		DecMin:    unit.AngleFromDeg(s.DecMin),
		DecMax:    unit.AngleFromDeg(s.DecMax),
		MinAbsB:   unit.AngleFromDeg(s.MinAbsB),
		DMax:      s.DMax,
		MeanUVW:   s.MeanUVW,
		SigmaUVW:  s.SigmaUVW,
		Scale:     s.Scale,
		RACells:   s.RACells,
		DecCells:  s.DecCells,
		Samples:   s.Samples,
		Steps:     s.Steps,
		Mags:      mags,
	}
}

// weight computes the survey volume, if configured, as a selection
// weight on the bin edges.
func (c Config) weight(ctx context.Context, l wdbin.Layout, log logr.Logger) (func(float64) float64, error) {
	if c.Survey == nil || len(l) == 0 {
		return nil, nil
	}
	mags := make([]float64, 0, len(l)+1)
	for _, iv := range l {
		mags = append(mags, iv.Lo)
	}
	mags = append(mags, l[len(l)-1].Hi)
	sc := c.Survey.config(mags)
	sc.Seed = c.Seed
	sc.Workers = c.Workers
	sc.Log = log.WithName("survey")
	v, err := survey.Compute(ctx, sc)
	if err != nil {
		return nil, err
	}
	return v.Weight, nil
}

// Synthesis resolves the configuration for forward synthesis.  If a
// survey is configured its effective volume is computed here.  Callers
// recording the configuration should FixSeed it first.
func (c Config) Synthesis(ctx context.Context, log logr.Logger) (wdsolver.Config, error) {
	c = c.FixSeed()
	var s wdsolver.Config
	m, err := c.Models()
	if err != nil {
		return s, err
	}
	l, err := c.Layout()
	if err != nil {
		return s, err
	}
	p := c.Params()
	if p.Weight, err = c.weight(ctx, l, log); err != nil {
		return s, err
	}
	return wdsolver.Config{
		Models:    m,
		Params:    p,
		Layout:    l,
		Target:    c.Target,
		MaxTrials: c.Trials,
		Chunk:     c.Chunk,
		Seed:      c.Seed,
		Workers:   c.Workers,
		Log:       log.WithName("synth"),
	}, nil
}

// Inversion resolves the configuration for inversion of an observed
// luminosity function with bins l.  The SFR section is not used.
func (c Config) Inversion(ctx context.Context, l wdbin.Layout, log logr.Logger) (wdsolver.InvertConfig, error) {
	c = c.FixSeed()
	var ic wdsolver.InvertConfig
	m, err := c.Models()
	if err != nil {
		return ic, err
	}
	p := c.Params()
	if p.Weight, err = c.weight(ctx, l, log); err != nil {
		return ic, err
	}
	return wdsolver.InvertConfig{
		Models:      m,
		Params:      p,
		MaxLookback: c.MaxLookback,
		Log:         log.WithName("invert"),
	}, nil
}
