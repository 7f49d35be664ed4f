// Package report renders the observational plots of a run as PNG files:
// a feature histogram, autocorrelation of sample sequences, training loss
// curves, and the test confusion matrix.
//
// Plots never feed back into the pipeline; a failure to render one is
// reported to the caller, which may choose to log and continue.
package report
