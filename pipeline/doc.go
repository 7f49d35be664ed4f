// Package pipeline wires the stages of an experiment together: loading,
// splitting, balancing, scaling, the spectral transform, the hyperparameter
// search, the final retraining and evaluation, and the artifacts a run
// leaves on disk.
//
// Every stochastic stage draws from its own generator derived from the
// configured root seed (see internal/rng), so a run is reproducible from
// its configuration alone.
package pipeline
