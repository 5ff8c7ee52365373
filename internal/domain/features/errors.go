package features

import "errors"

// Sentinel kinds for feature encoding errors.
var (
	// ErrEncoding signals a missing or inconsistent vectorizer/scaler. It
	// usually means the artifact bundle is absent or corrupt.
	ErrEncoding = errors.New("encoding error")
)
