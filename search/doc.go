// Package search runs a sequential random hyperparameter search.
//
// A [Study] repeats SAMPLE, TRAIN, SCORE, RECORD for a fixed number of
// trials. Each trial draws named values from a [Space], hands them to an
// objective, and records the returned score. The study maximizes the score
// and keeps the earliest trial among equal scores. Objectives that fail
// with fault.ErrConfiguration mark their trial failed and the study moves
// on; any other error aborts the study.
package search
