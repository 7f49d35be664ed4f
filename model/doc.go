// Package model builds the convolutional recurrent anomaly classifier from
// a typed hyperparameter configuration.
//
// The topology is two Conv1D, BatchNorm, MaxPool1D(2), Dropout blocks (the
// second doubling the filter count) over the window axis, an L2-penalized
// LSTM with BatchNorm and Dropout, an L2-penalized ReLU dense layer with
// BatchNorm and Dropout, and one sigmoid output unit.
package model
