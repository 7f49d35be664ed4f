// Package fault defines the error taxonomy shared by the pipeline stages.
//
// Stages wrap one of the sentinels with context using github.com/pkg/errors;
// callers classify failures with errors.Is.
package fault

import "github.com/pkg/errors"

var (
	// ErrInput marks missing or malformed datasets: unreadable files, empty
	// collections, unequal sequence lengths. Fatal before any training.
	ErrInput = errors.New("input error")

	// ErrConfiguration marks invalid settings or a sampled hyperparameter
	// configuration that yields an impossible architecture.
	ErrConfiguration = errors.New("configuration error")

	// ErrNumeric marks NaN or Inf values in features, spectra, or losses.
	ErrNumeric = errors.New("numeric error")
)

// Input wraps ErrInput with a formatted message.
func Input(format string, args ...any) error {
	return errors.Wrapf(ErrInput, format, args...)
}

// Configuration wraps ErrConfiguration with a formatted message.
func Configuration(format string, args ...any) error {
	return errors.Wrapf(ErrConfiguration, format, args...)
}

// Numeric wraps ErrNumeric with a formatted message.
func Numeric(format string, args ...any) error {
	return errors.Wrapf(ErrNumeric, format, args...)
}

// Kind returns the name of the taxonomy class err belongs to, or "" when it
// belongs to none.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInput):
		return "input"
	case errors.Is(err, ErrConfiguration):
		return "configuration"
	case errors.Is(err, ErrNumeric):
		return "numeric"
	default:
		return ""
	}
}
