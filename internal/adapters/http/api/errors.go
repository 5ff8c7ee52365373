package api

import (
	"errors"
	"net/http"

	"github.com/zainab-hr/ProjetProduits/internal/adapters/repository"
	"github.com/zainab-hr/ProjetProduits/internal/domain/classifier"
	"github.com/zainab-hr/ProjetProduits/internal/domain/features"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest    = errors.New("bad request")
	ErrValidation    = errors.New("validation error")
	ErrNotFound      = errors.New("not found")
	ErrBatchTooLarge = errors.New("batch too large")
)

// opError tags an error with the operation that produced it and, optionally,
// a sentinel kind. Both the kind and the cause match errors.Is.
type opError struct {
	op   string
	kind error
	err  error
}

func (e *opError) Error() string {
	msg := e.op
	if e.kind != nil {
		msg += ": " + e.kind.Error()
	}
	if e.err != nil {
		msg += ": " + e.err.Error()
	}
	return msg
}

func (e *opError) Unwrap() []error {
	var errs []error
	if e.kind != nil {
		errs = append(errs, e.kind)
	}
	if e.err != nil {
		errs = append(errs, e.err)
	}
	return errs
}

// NewKind returns an error of the given kind raised by op.
func NewKind(op string, kind error) error {
	return &opError{op: op, kind: kind}
}

// WrapKind wraps err as the given kind raised by op.
func WrapKind(op string, kind, err error) error {
	return &opError{op: op, kind: kind, err: err}
}

// Wrap records op on err, keeping whatever kind err already carries.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &opError{op: op, err: err}
}

// statusFor maps an error kind to its HTTP status and error code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, ErrBadRequest), errors.Is(err, ErrBatchTooLarge), errors.Is(err, repository.ErrInvalidLimit):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, classifier.ErrModelUnavailable):
		return http.StatusServiceUnavailable, "model_unavailable"
	case errors.Is(err, features.ErrEncoding):
		return http.StatusInternalServerError, "encoding_error"
	case errors.Is(err, repository.ErrStorageUnavailable):
		return http.StatusBadGateway, "storage_unavailable"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
