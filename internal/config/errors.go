package config

import "errors"

// Loading and validation failures callers branch on with errors.Is.
var (
	// ErrInvalidConfig marks a configuration that loaded but fails a
	// sanity check (empty addr, non-positive page size, ...).
	ErrInvalidConfig = errors.New("configuration is invalid")

	// ErrLoadConfig wraps failures while layering the YAML file and
	// TALLY_ environment variables.
	ErrLoadConfig = errors.New("configuration load failed")
)
