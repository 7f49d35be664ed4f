// Package nn is a small float64 neural network engine for sequence
// classification.
//
// Models are built as a [Sequential] stack of layers over batch-major
// tensors. Supported layers are 1-D convolution, batch normalization, 1-D
// max pooling, dropout, LSTM and dense. Training uses mini-batch Adam on a
// class-weighted binary cross-entropy with L2 kernel penalties and early
// stopping on validation loss. Trained models persist as snappy compressed
// JSON artifacts.
//
// Everything stochastic (weight initialization, dropout masks, epoch
// shuffles) draws from explicitly passed *rand.Rand handles: identical
// inputs and seeds reproduce identical models bit for bit.
package nn
