/*
Command wdlf computes synthetic white dwarf luminosity functions by Monte
Carlo population synthesis, and recovers star formation histories from
observed luminosity functions.

Contents

Version 0.1

  Program overview
  Command line usage
  Configuration
  File formats
  Algorithm outline


Program overview

A white dwarf luminosity function, or WDLF, is the number density of white
dwarfs per unit absolute magnitude.  White dwarfs only cool, so the faint
end of the WDLF records the oldest star formation in a population and the
shape of the WDLF records the star formation history.

wdlf draws stars from an initial mass function and a star formation
history, evolves each through its pre-white dwarf lifetime, converts its
mass with an initial-final mass relation, then cools it as a white dwarf
to the present.  Survivors are binned by absolute magnitude, with the
mean white dwarf mass and mean age in each bin.  In the other direction,
wdlf divides lookback time into bins matched to the magnitude bins and
solves for the star formation rate in each, from the faint end.

Sample run:

   wdlf config > run.yaml       # edit as needed
   wdlf -c run.yaml -o model.txt -p model.png synth
   wdlf -c run.yaml -o sfr.txt -p sfr.png invert observed.txt
   wdlf -p cmp.png plot model.txt observed.txt


Command line usage

   Usage: wdlf [options] synth              synthesize a luminosity function
          wdlf [options] invert <wdlf-file> recover a star formation history
          wdlf [options] plot <wdlf-file> [<observed-file>]
                                            plot luminosity functions
          wdlf [options] config             write the configuration in effect
          wdlf -h                           display help
          wdlf --version                    display version and copyright

   Options:
     -c, --config file    run configuration file (YAML)
     -o, --output file    output file (default "-")
     -p, --plot file      write a PNG plot to file
     -q, --quiet          no progress bar
     -s, --seed uint      random seed
     -n, --trials int     Monte Carlo trials
     -v, --verbose        debug logging
     -w, --workers int    concurrent workers

Options -s, -n and -w override the configuration file.  Logging goes to
stderr, as JSON unless -v is given.


Configuration

The configuration is YAML.  Keys not given take default values; wdlf
config with no -c shows them all.  Models are chosen by name,

   imf        salpeter, kroupa2001, chabrier2003
   ifmr       kalirai2008, williams2009, catalan2008, cummings2018
   lifetime   analytic
   cooling    mestel

or read from tables with ifmrFile, lifetimeFile, and coolingFiles.  Cooling
files add to or replace grids of the named cooling model.  The star
formation history has kind constant, exponential, or table.

Metallicity and helium content are drawn from normal distributions, z and
zSigma, y and ySigma.  hFraction is the fraction of white dwarfs with
hydrogen atmospheres; the filter must have a cooling grid for each
atmosphere type drawn.  magSigma adds Gaussian magnitude errors.
minSampledMass skips drawing progenitors too light to have become white
dwarfs, with the normalization corrected for the skipped fraction.

The optional survey section describes a proper motion survey.  If present,
each white dwarf is weighted by the effective survey volume at its
absolute magnitude.

Runs are repeatable: work is divided into chunks, chunk i seeded seed+i,
so output depends on the seed but not on the number of workers.  Set
random: true to seed from the clock; the seed used is written to the
output header.


File formats

Luminosity functions are text, one bin per line,

   centre width density sigma mean-mass sigma mean-age sigma n

preceded by comment lines starting with #, the configuration and run
statistics.  Observed luminosity functions need only the first four
columns.  Empty bins have density 0 and sigma 1.797693e+308.

Star formation histories are text, one bin per line,

   tmin tmax rate sigma ok|unconstrained

times in years of lookback, rates in stars per year.

Model tables have one point per line, blank lines and # comments ignored:

   ifmr         initial-mass final-mass
   lifetime     Z Y mass lifetime
   cooling      mass cooling-time magnitude


Algorithm outline

1.  Synthesis.  Each trial draws a formation time from the star formation
history and a mass from the initial mass function.  Stars younger than
their pre-white dwarf lifetime are discarded, as are stars below the mass
at which the initial-final mass relation gives a white dwarf as massive as
its progenitor.  The survivor's cooling time gives its magnitude.  Density
is normalized to stars formed by the total star formation over trials.

2.  Inversion.  Lookback time bin j starts at the earliest time any star
can reach the bright edge of magnitude bin j.  The fraction of each time
bin's stars landing in each magnitude bin is integrated over the initial
mass function and the time bin, convolved with the magnitude error.  The
rates of all time bins are then fitted together to the observed densities
by weighted least squares.  With no magnitude error this is the same as
solving the faintest bin first and each brighter bin after subtracting
the older ones.  Time bins with no constraint, such as the youngest, are
reported as unconstrained rather than zero.

-------------
Public domain.
*/
package main
