// Package describe produces the exploratory numbers of a labeled dataset:
// per-feature descriptive statistics, label counts, and autocorrelation of
// individual sequences.
package describe
