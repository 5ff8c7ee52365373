package config

import "errors"

// Sentinel error kinds returned by Load and Validate.
var (
	// ErrInvalidConfig marks a value that loaded but is out of range.
	ErrInvalidConfig = errors.New("invalid config")
	// ErrLoadConfig marks a file or environment source that could not be read.
	ErrLoadConfig = errors.New("load config failed")
)
