// Public domain.

package wdplot_test

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soniakeys/wdlf/internal/sfr"
	"github.com/soniakeys/wdlf/internal/wdbin"
	"github.com/soniakeys/wdlf/internal/wdplot"
)

const pngMagic = "\x89PNG\r\n\x1a\n"

func wdlf() *wdbin.ModelWdlf {
	b := wdbin.NewBinner(wdbin.Layout{{Lo: 10, Hi: 11}, {Lo: 11, Hi: 12}, {Lo: 12, Hi: 13}})
	b.Add(10.5, .6, 1e9, 1)
	b.Add(10.7, .6, 1e9, 1)
	b.Add(12.2, .7, 5e9, 1)
	return b.Finalize(1e3)
}

func TestWDLF(t *testing.T) {
	p, err := wdplot.WDLF("test", "Mbol", wdlf(), wdlf())
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, wdplot.WritePNG(p, &buf))
	assert.Equal(t, pngMagic, buf.String()[:len(pngMagic)])

	fn := filepath.Join(t.TempDir(), "wdlf.png")
	require.NoError(t, wdplot.Save(p, fn))

	empty := wdbin.NewBinner(wdbin.Layout{{Lo: 10, Hi: 11}}).Finalize(1)
	_, err = wdplot.WDLF("empty", "Mbol", empty, nil)
	assert.Error(t, err)
}

func TestSFR(t *testing.T) {
	s, err := sfr.NewTabulated([]sfr.Bin{
		{TMin: 0, TMax: 1e9, Unconstrained: true},
		{TMin: 1e9, TMax: 2e9, Rate: 1, Sigma: .1},
		{TMin: 2e9, TMax: 3e9, Rate: 1.2, Sigma: .1},
		{TMin: 3e9, TMax: 4e9, Unconstrained: true},
		{TMin: 4e9, TMax: 6e9, Rate: 2, Sigma: .3},
	})
	require.NoError(t, err)
	truth, err := sfr.NewConstant(1, 0, 6e9)
	require.NoError(t, err)
	p, err := wdplot.SFR("test", s, truth)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, wdplot.WritePNG(p, &buf))
	assert.Equal(t, pngMagic, buf.String()[:len(pngMagic)])

	none, err := sfr.NewTabulated([]sfr.Bin{{TMin: 0, TMax: 1e9, Unconstrained: true}})
	require.NoError(t, err)
	_, err = wdplot.SFR("none", none, nil)
	assert.Error(t, err)
}
