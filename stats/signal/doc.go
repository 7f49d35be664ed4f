// Package signal summarizes sensor sequences in the time domain.
//
// Calculate makes one pass over a sequence using Welford's update for the
// higher moments. ByClass averages the summaries of all sequences that share
// a label, which is how the exploration report contrasts healthy and
// anomalous recordings.
package signal
