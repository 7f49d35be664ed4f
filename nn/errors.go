package nn

import (
	"github.com/pkg/errors"

	"github.com/cwbudde/algo-anomaly/internal/fault"
)

var errShapeMismatch = errors.Wrap(fault.ErrInput, "nn: tensor shape does not match model input")

// ErrArtifact reports an unreadable or inconsistent model artifact.
var ErrArtifact = errors.Wrap(fault.ErrInput, "nn: invalid artifact")

func validatePositive(name string, v int) error {
	if v <= 0 {
		return fault.Configuration("nn: %s must be > 0: %d", name, v)
	}
	return nil
}

func validateRate(name string, v float64) error {
	if v < 0 || v >= 1 {
		return fault.Configuration("nn: %s must be in [0, 1): %g", name, v)
	}
	return nil
}
