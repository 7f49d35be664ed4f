// Package dataset loads labeled sensor sequences and partitions them.
//
// A Dataset is built from two sources, one per label: healthy sequences get
// label 0 and anomalies label 1. Sources are CSV files whose rows are
// sequences and whose columns are sample positions; files ending in ".sz" are
// read through a snappy framed stream. All sequences must share one length.
package dataset
