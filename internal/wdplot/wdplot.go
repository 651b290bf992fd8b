// Public domain.

// Package wdplot renders luminosity functions and star formation
// histories as images.
package wdplot

import (
	"image/color"
	"io"

	"github.com/cockroachdb/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/soniakeys/wdlf/internal/sfr"
	"github.com/soniakeys/wdlf/internal/wdbin"
)

// Default image size.
var (
	Width  = 8 * vg.Inch
	Height = 5 * vg.Inch
)

var (
	black = color.RGBA{A: 255}
	red   = color.RGBA{R: 200, A: 255}
	blue  = color.RGBA{B: 200, A: 255}
)

// errPoints are points with vertical error bars.
type errPoints struct {
	plotter.XYs
	plotter.YErrors
}

func newPlot(title, x, y string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = vg.Points(12)
	p.X.Label.Text = x
	p.X.Label.TextStyle.Font.Size = vg.Points(12)
	p.Y.Label.Text = y
	p.Y.Label.TextStyle.Font.Size = vg.Points(12)
	p.Add(plotter.NewGrid())
	return p
}

// wdlfPoints returns the non-empty bins of m.  Error bars are clipped to
// stay positive on a log axis.
func wdlfPoints(m *wdbin.ModelWdlf) *errPoints {
	var e errPoints
	for i := range m.Bins {
		b := &m.Bins[i]
		if b.Empty() || !(b.Density > 0) {
			continue
		}
		lo := b.Sigma
		if lo >= b.Density {
			lo = .9 * b.Density
		}
		e.XYs = append(e.XYs, plotter.XY{X: b.Centre, Y: b.Density})
		e.YErrors = append(e.YErrors, struct{ Low, High float64 }{lo, b.Sigma})
	}
	return &e
}

func addSeries(p *plot.Plot, name string, e *errPoints, c color.Color, g draw.GlyphDrawer) error {
	s, err := plotter.NewScatter(e)
	if err != nil {
		return err
	}
	s.Color = c
	s.Shape = g
	s.Radius = vg.Points(2)
	eb, err := plotter.NewYErrorBars(e)
	if err != nil {
		return err
	}
	eb.Color = c
	p.Add(s, eb)
	p.Legend.Add(name, s)
	return nil
}

// WDLF plots a model luminosity function, log density against magnitude,
// and optionally an observed one for comparison.  Empty bins are not
// drawn.
func WDLF(title, filter string, model, observed *wdbin.ModelWdlf) (*plot.Plot, error) {
	p := newPlot(title, "M "+filter, "density (per magnitude)")
	p.Y.Scale = plot.LogScale{}
	p.Y.Tick.Marker = plot.LogTicks{Prec: -1}
	var n int
	if model != nil {
		e := wdlfPoints(model)
		if len(e.XYs) > 0 {
			if err := addSeries(p, "model", e, black, draw.CircleGlyph{}); err != nil {
				return nil, err
			}
			n++
		}
	}
	if observed != nil {
		e := wdlfPoints(observed)
		if len(e.XYs) > 0 {
			if err := addSeries(p, "observed", e, red, draw.SquareGlyph{}); err != nil {
				return nil, err
			}
			n++
		}
	}
	if n == 0 {
		return nil, errors.New("nothing to plot, all bins empty")
	}
	p.Legend.Top = true
	return p, nil
}

// SFR plots a tabulated star formation history as steps against lookback
// time in Gyr, with error bars at bin centres.  Unconstrained bins are
// gaps.  If truth is not nil it is drawn for comparison, sampled at the
// bin edges of s.
func SFR(title string, s *sfr.Tabulated, truth sfr.SFR) (*plot.Plot, error) {
	p := newPlot(title, "lookback time (Gyr)", "star formation rate (per yr)")
	var run plotter.XYs
	var e errPoints
	flush := func() error {
		if len(run) == 0 {
			return nil
		}
		l, err := plotter.NewLine(run)
		if err != nil {
			return err
		}
		l.Color = blue
		l.Width = vg.Points(1.5)
		p.Add(l)
		run = nil
		return nil
	}
	for _, b := range s.Bins {
		if b.Unconstrained {
			if err := flush(); err != nil {
				return nil, err
			}
			continue
		}
		run = append(run,
			plotter.XY{X: b.TMin / 1e9, Y: b.Rate},
			plotter.XY{X: b.TMax / 1e9, Y: b.Rate})
		e.XYs = append(e.XYs, plotter.XY{X: (b.TMin + b.TMax) / 2e9, Y: b.Rate})
		e.YErrors = append(e.YErrors, struct{ Low, High float64 }{b.Sigma, b.Sigma})
	}
	if err := flush(); err != nil {
		return nil, err
	}
	if len(e.XYs) == 0 {
		return nil, errors.New("nothing to plot, all bins unconstrained")
	}
	eb, err := plotter.NewYErrorBars(&e)
	if err != nil {
		return nil, err
	}
	eb.Color = blue
	p.Add(eb)
	if truth != nil {
		var pts plotter.XYs
		for _, b := range s.Bins {
			for _, t := range []float64{b.TMin, b.TMax} {
				pts = append(pts, plotter.XY{X: t / 1e9, Y: truth.Rate(t)})
			}
		}
		l, err := plotter.NewLine(pts)
		if err != nil {
			return nil, err
		}
		l.Color = black
		l.Dashes = []vg.Length{vg.Points(6), vg.Points(4)}
		p.Add(l)
		p.Legend.Add("input", l)
	}
	p.Y.Min = 0
	return p, nil
}

// Save writes p to a file, the format chosen by the extension.
func Save(p *plot.Plot, fn string) error {
	return p.Save(Width, Height, fn)
}

// WritePNG writes p as a PNG image.
func WritePNG(p *plot.Plot, w io.Writer) error {
	wt, err := p.WriterTo(Width, Height, "png")
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}
