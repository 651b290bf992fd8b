// Public domain.

// Package wdprog is the wdlf command.
package wdprog

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/schollz/progressbar/v3"
	"github.com/soniakeys/exit"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/soniakeys/wdlf/internal/sfr"
	"github.com/soniakeys/wdlf/internal/wdbin"
	"github.com/soniakeys/wdlf/internal/wdconf"
	"github.com/soniakeys/wdlf/internal/wdplot"
	"github.com/soniakeys/wdlf/internal/wdsolver"
)

const versionString = "wdlf version 0.1 Go source."
const copyrightString = "Public domain."

const usage = `
Usage: wdlf [options] synth              synthesize a luminosity function
       wdlf [options] invert <wdlf-file> recover a star formation history
       wdlf [options] plot <wdlf-file> [<observed-file>]
                                         plot luminosity functions
       wdlf [options] config             write the configuration in effect
       wdlf -h                           display help
       wdlf --version                    display version and copyright

Options:
`

func Main() {
	defer exit.Handler()

	cl, err := parseCommandLine(os.Args[1:], os.Stderr)
	switch {
	case errors.Is(err, errHelp):
		os.Exit(0)
	case err != nil:
		exit.Log(err)
	}
	log, sync := newLogger(cl.verbose)
	defer sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, cl, log, os.Stdout); err != nil {
		exit.Log(err)
	}
}

var errHelp = errors.New("help requested")

type commandLine struct {
	cmd     string
	args    []string
	config  string // config file
	out     string // output file, - for stdout
	plot    string // image file
	seed    uint64
	trials  int
	workers int
	verbose bool
	quiet   bool // no progress bar

	seedSet, trialsSet, workersSet bool
}

func parseCommandLine(args []string, stderr io.Writer) (*commandLine, error) {
	var cl commandLine
	fs := pflag.NewFlagSet("wdlf", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	dh := fs.BoolP("help", "h", false, "display help")
	dv := fs.Bool("version", false, "display version and copyright")
	fs.StringVarP(&cl.config, "config", "c", "", "run configuration `file` (YAML)")
	fs.StringVarP(&cl.out, "output", "o", "-", "output `file`")
	fs.StringVarP(&cl.plot, "plot", "p", "", "write a PNG plot to `file`")
	fs.Uint64VarP(&cl.seed, "seed", "s", 0, "random seed")
	fs.IntVarP(&cl.trials, "trials", "n", 0, "Monte Carlo trials")
	fs.IntVarP(&cl.workers, "workers", "w", 0, "concurrent workers")
	fs.BoolVarP(&cl.verbose, "verbose", "v", false, "debug logging")
	fs.BoolVarP(&cl.quiet, "quiet", "q", false, "no progress bar")
	fs.Usage = func() {
		io.WriteString(stderr, usage)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	switch {
	case *dh:
		fs.Usage()
		return nil, errHelp
	case *dv:
		fmt.Fprintln(stderr, versionString)
		fmt.Fprintln(stderr, copyrightString)
		return nil, errHelp
	case fs.NArg() < 1:
		fs.Usage()
		return nil, errors.New("no command")
	}
	cl.cmd = fs.Arg(0)
	cl.args = fs.Args()[1:]
	cl.seedSet = fs.Changed("seed")
	cl.trialsSet = fs.Changed("trials")
	cl.workersSet = fs.Changed("workers")
	return &cl, nil
}

func newLogger(verbose bool) (logr.Logger, func()) {
	zc := zap.NewProductionConfig()
	if verbose {
		zc = zap.NewDevelopmentConfig()
		zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	zl, err := zc.Build()
	if err != nil {
		exit.Log(err)
	}
	return zapr.NewLogger(zl), func() { zl.Sync() }
}

// loadConfig reads the configuration file, if any, and applies command
// line overrides.
func loadConfig(cl *commandLine) (wdconf.Config, error) {
	c := wdconf.Default()
	if cl.config != "" {
		var err error
		if c, err = wdconf.LoadFile(cl.config); err != nil {
			return c, err
		}
	}
	if cl.seedSet {
		c.Seed = cl.seed
		c.Random = false
	}
	if cl.trialsSet {
		c.Trials = cl.trials
	}
	if cl.workersSet {
		c.Workers = cl.workers
	}
	return c.FixSeed(), c.Validate()
}

func run(ctx context.Context, cl *commandLine, log logr.Logger, stdout io.Writer) error {
	c, err := loadConfig(cl)
	if err != nil {
		return err
	}
	need := func(lo, hi int) error {
		if len(cl.args) < lo || len(cl.args) > hi {
			return errors.Newf("%s: wrong number of arguments", cl.cmd)
		}
		return nil
	}
	switch cl.cmd {
	case "synth":
		if err := need(0, 0); err != nil {
			return err
		}
		return synth(ctx, cl, c, log, stdout)
	case "invert":
		if err := need(1, 1); err != nil {
			return err
		}
		return invert(ctx, cl, c, log, stdout)
	case "plot":
		if err := need(1, 2); err != nil {
			return err
		}
		return plotFiles(cl, c)
	case "config":
		if err := need(0, 0); err != nil {
			return err
		}
		return output(cl.out, stdout, c.Write)
	}
	return errors.Newf("unknown command %q", cl.cmd)
}

// output calls write with the named file, or stdout for - or "".
func output(fn string, stdout io.Writer, write func(io.Writer) error) error {
	if fn == "" || fn == "-" {
		return write(stdout)
	}
	f, err := os.Create(fn)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func synth(ctx context.Context, cl *commandLine, c wdconf.Config, log logr.Logger, stdout io.Writer) error {
	sc, err := c.Synthesis(ctx, log)
	if err != nil {
		return err
	}
	if !cl.quiet {
		bar := progressbar.NewOptions(sc.MaxTrials,
			progressbar.OptionSetDescription("synth"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionClearOnFinish())
		sc.Progress = func(done, _ int) { bar.Set(done) }
		defer bar.Finish()
	}
	m, st, err := wdsolver.Synthesize(ctx, sc)
	if err != nil {
		return err
	}
	header := c.String() + fmt.Sprintf(`trials %d
discarded main sequence %d
discarded below breakdown %d
extrapolated %d
contributing %d
out of range %d
stars formed per trial %g
`, st.Trials, st.MainSequence, st.BelowBreakdown, st.Extrapolated,
		st.Contributing, st.OutOfRange, st.Norm)
	if err := output(cl.out, stdout, func(w io.Writer) error {
		return wdbin.Write(w, header, m)
	}); err != nil {
		return err
	}
	if cl.plot == "" {
		return nil
	}
	p, err := wdplot.WDLF("synthetic WDLF", c.Filter, m, nil)
	if err != nil {
		return err
	}
	return wdplot.Save(p, cl.plot)
}

func readWdlf(fn string) (*wdbin.ModelWdlf, error) {
	f, err := os.Open(fn)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	m, _, err := wdbin.Read(f)
	return m, errors.Wrapf(err, "%s", fn)
}

func invert(ctx context.Context, cl *commandLine, c wdconf.Config, log logr.Logger, stdout io.Writer) error {
	obs, err := readWdlf(cl.args[0])
	if err != nil {
		return err
	}
	ic, err := c.Inversion(ctx, obs.Layout(), log)
	if err != nil {
		return err
	}
	s, err := wdsolver.Invert(obs, ic)
	if err != nil {
		return err
	}
	if err := output(cl.out, stdout, func(w io.Writer) error {
		return sfr.Write(w, s)
	}); err != nil {
		return err
	}
	if cl.plot == "" {
		return nil
	}
	p, err := wdplot.SFR("recovered star formation history", s, nil)
	if err != nil {
		return err
	}
	return wdplot.Save(p, cl.plot)
}

func plotFiles(cl *commandLine, c wdconf.Config) error {
	m, err := readWdlf(cl.args[0])
	if err != nil {
		return err
	}
	var obs *wdbin.ModelWdlf
	if len(cl.args) > 1 {
		if obs, err = readWdlf(cl.args[1]); err != nil {
			return err
		}
	}
	p, err := wdplot.WDLF(filepath.Base(cl.args[0]), c.Filter, m, obs)
	if err != nil {
		return err
	}
	fn := cl.plot
	if fn == "" {
		fn = "wdlf.png"
	}
	return wdplot.Save(p, fn)
}
