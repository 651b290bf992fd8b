/*
Command wdcmp measures how well a model white dwarf luminosity function
fits an observed one.

  Usage: wdcmp [options] <model-file> <observed-file>
    -s, --scale     fit a normalization factor to the model
    -v, --version   display version and copyright

Both files are in the luminosity function format written by wdlf synth;
the observed file needs only the columns centre, width, density and sigma.
Bins are matched by centre and width.  Bins present in only one file are
reported and skipped.

For each matched bin the residual is weighted by the combined
uncertainty,

  chi2 = sum (obs - s*model)**2 / (sigma_obs**2 + s**2 sigma_model**2)

with s = 1 unless -s is given.  Empty bins carry an uncertainty so large
that they contribute nothing, and they are not counted in the degrees of
freedom.  With -s, s is the weighted least squares factor and one degree
of freedom is used for it.

Output is the number of bins used, chi-square, reduced chi-square, and the
probability of a chi-square at least as large by chance.
*/
package main
