// Package validation holds the shared struct validator.
package validation

import "github.com/go-playground/validator/v10"

// Validate is safe for concurrent use and caches struct metadata.
var Validate = validator.New(validator.WithRequiredStructEnabled())
