package repository

import "errors"

// Sentinel kinds for partition errors.
var (
	// ErrStorageUnavailable wraps every failure to reach or write a partition.
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrInvalidLimit       = errors.New("invalid list limit")
	ErrUnsupportedDriver  = errors.New("unsupported partition driver")
)
