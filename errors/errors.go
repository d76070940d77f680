package errors

import "errors"

// Sentinel errors for common error conditions
var (
	// ErrNoLocation indicates that every geocoding candidate was exhausted
	// without a hit. This is expected during normal operation, not fatal.
	ErrNoLocation = errors.New("no location resolved")

	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates that input validation failed
	ErrInvalidInput = errors.New("invalid input")

	// ErrMissingConfig indicates a required configuration value is absent
	ErrMissingConfig = errors.New("missing configuration")

	// ErrMaxIterations indicates the agentic loop hit its iteration cap
	// before the oracle produced a final answer.
	ErrMaxIterations = errors.New("max iterations reached")
)
