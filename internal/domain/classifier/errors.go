package classifier

import "errors"

var (
	// ErrModelUnavailable is returned when no artifact bundle is loaded.
	ErrModelUnavailable = errors.New("model unavailable")
	// ErrInvalidModel marks fitted classifier parameters with an impossible shape.
	ErrInvalidModel = errors.New("invalid model")
)
