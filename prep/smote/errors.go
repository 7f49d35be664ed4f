package smote

import (
	"github.com/pkg/errors"

	"github.com/cwbudde/algo-anomaly/internal/fault"
)

// ErrTooFewSamples reports a class with fewer than two members, which has
// no neighbor to interpolate towards.
var ErrTooFewSamples = errors.Wrap(fault.ErrInput, "smote: class needs at least 2 samples")

func validateNeighbors(k int) error {
	if k < 1 {
		return fault.Configuration("smote: neighbors must be >= 1: %d", k)
	}
	return nil
}
