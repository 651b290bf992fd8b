// Public domain.

package wdsolver

import (
	"context"
	"runtime"

	"github.com/cockroachdb/errors"
	"github.com/go-logr/logr"
	xrand "golang.org/x/exp/rand"

	"github.com/soniakeys/wdlf/internal/wdbin"
)

// DefaultChunk is the number of trials in one unit of work.
const DefaultChunk = 10000

// Config configures a forward synthesis.
type Config struct {
	Models
	Params
	Layout wdbin.Layout

	// The run stops after the first chunk that brings the number of binned
	// stars to Target, or after MaxTrials.  Target 0 runs all trials.
	Target    int
	MaxTrials int
	Chunk     int // trials per chunk, 0 means DefaultChunk

	// Chunk i draws from a PCG stream seeded Seed+i, so results depend on
	// Seed but not on Workers.
	Seed    uint64
	Workers int // 0 means GOMAXPROCS

	Progress func(done, target int) // trials done of MaxTrials
	Log      logr.Logger            // zero value discards
}

// Stats counts the fates of the trials of a synthesis.
type Stats struct {
	Trials         int
	MainSequence   int // discarded, not yet white dwarfs
	BelowBreakdown int // discarded, below IFMR breakdown mass
	Extrapolated   int // white dwarfs kept but evaluated outside a model table
	Contributing   int // white dwarfs in magnitude bins
	OutOfRange     int // white dwarfs outside all bins
	Chunks         int
	Norm           float64 // stars formed per trial
}

// partial is the result of one chunk.
type partial struct {
	b  *wdbin.Binner
	st Stats
}

type chunkSeq struct {
	i, n int
	rch  chan *partial
}

// Synthesize runs the Monte Carlo forward model and returns the binned
// luminosity function.  Density is white dwarfs per unit magnitude for the
// star formation history as given, times the selection weight if any.
//
// Chunks are solved concurrently but merged in order.  The context is
// checked between chunks and periodically within them; on cancellation
// the context error is returned.
func Synthesize(ctx context.Context, c Config) (*wdbin.ModelWdlf, Stats, error) {
	var st Stats
	s, err := NewSampler(c.Models, c.Params)
	if err != nil {
		return nil, st, err
	}
	if len(c.Layout) == 0 {
		return nil, st, errors.Wrap(wdbin.ErrBins, "no magnitude bins")
	}
	if c.MaxTrials < 1 {
		return nil, st, errors.Newf("trial budget %d", c.MaxTrials)
	}
	chunk := c.Chunk
	if chunk < 1 {
		chunk = DefaultChunk
	}
	maxWorkers := c.Workers
	if maxWorkers < 1 {
		maxWorkers = runtime.GOMAXPROCS(0)
	}
	nChunks := (c.MaxTrials + chunk - 1) / chunk

	wctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// dispatcher.  for each chunk, a return channel is queued on prCh as a
	// ticket for picking up the result in order.  prCh is buffered so fast
	// workers can run ahead of a slow one, but not unboundedly.
	prCh := make(chan chan *partial, maxWorkers*2)
	chCh := make(chan *chunkSeq)
	go func() {
		defer close(prCh)
		defer close(chCh)
		for i := 0; i < nChunks; i++ {
			n := chunk
			if r := c.MaxTrials - i*chunk; r < n {
				n = r
			}
			rch := make(chan *partial, 1)
			select {
			case chCh <- &chunkSeq{i, n, rch}:
			case <-wctx.Done():
				return
			}
			select {
			case prCh <- rch:
			case <-wctx.Done():
				return
			}
		}
	}()
	for w := 0; w < maxWorkers; w++ {
		go func() {
			for cs := range chCh {
				cs.rch <- runChunk(wctx, s, c.Layout, c.Seed+uint64(cs.i), cs.n)
			}
		}()
	}

	total := wdbin.NewBinner(c.Layout)
	for rch := range prCh {
		var p *partial
		select {
		case p = <-rch:
		case <-ctx.Done():
			return nil, st, ctx.Err()
		}
		if err := ctx.Err(); err != nil {
			return nil, st, err
		}
		total.Merge(p.b)
		st.add(&p.st)
		st.Chunks++
		c.Log.V(1).Info("chunk", "chunk", st.Chunks, "trials", st.Trials,
			"contributing", st.Contributing)
		if c.Progress != nil {
			c.Progress(st.Trials, c.MaxTrials)
		}
		if c.Target > 0 && st.Contributing >= c.Target {
			break
		}
	}
	// a short run is complete only if it stopped on Target
	if !(c.Target > 0 && st.Contributing >= c.Target) && st.Trials < c.MaxTrials {
		if err := ctx.Err(); err != nil {
			return nil, st, err
		}
		return nil, st, errors.Newf("%d of %d trials run", st.Trials, c.MaxTrials)
	}
	tot, _ := c.SFR.Integral()
	st.Norm = tot * s.IMFFraction() / float64(st.Trials)
	c.Log.Info("synthesis complete",
		"trials", st.Trials,
		"mainSequence", st.MainSequence,
		"belowBreakdown", st.BelowBreakdown,
		"contributing", st.Contributing,
		"outOfRange", st.OutOfRange,
		"extrapolated", st.Extrapolated)
	if st.Contributing == 0 {
		c.Log.Info("no white dwarfs in magnitude range")
	}
	return total.Finalize(st.Norm), st, nil
}

func (st *Stats) add(o *Stats) {
	st.Trials += o.Trials
	st.MainSequence += o.MainSequence
	st.BelowBreakdown += o.BelowBreakdown
	st.Extrapolated += o.Extrapolated
	st.Contributing += o.Contributing
	st.OutOfRange += o.OutOfRange
}

// runChunk draws n stars from a stream seeded with seed.
func runChunk(ctx context.Context, s *Sampler, l wdbin.Layout, seed uint64, n int) *partial {
	rnd := xrand.New(&xrand.PCGSource{})
	rnd.Seed(seed)
	p := &partial{b: wdbin.NewBinner(l)}
	var star Star
	for i := 0; i < n; i++ {
		if i&1023 == 0 && ctx.Err() != nil {
			break
		}
		p.st.Trials++
		switch s.Draw(rnd, &star) {
		case MainSequence:
			p.st.MainSequence++
			continue
		case BelowBreakdown:
			p.st.BelowBreakdown++
			continue
		}
		if star.Extrapolated {
			p.st.Extrapolated++
		}
		if p.b.Add(star.Mag, star.WDMass, star.Age(), star.Weight) {
			p.st.Contributing++
		} else {
			p.st.OutOfRange++
		}
	}
	return p
}
