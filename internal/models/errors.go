package models

import "errors"

// Error kinds surfaced by the estimation pipeline. Callers match them
// with errors.Is; the pipeline wraps them with context and never retries.
var (
	// ErrConfiguration is returned for invalid component counts, image
	// sizes or selection method names.
	ErrConfiguration = errors.New("invalid configuration")

	// ErrNumericDegeneracy is returned when a zeroth moment vanishes, a
	// moment estimate is not finite or a component ends up with no samples.
	ErrNumericDegeneracy = errors.New("numeric degeneracy")

	// ErrEmptySelection is returned when a selection filter leaves no samples.
	ErrEmptySelection = errors.New("empty selection")
)
