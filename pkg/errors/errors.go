package errors

import (
	"net/http"
	"strconv"

	"github.com/go-kratos/kratos/v2/errors"
)

// Common errors
var (
	// ErrUnauthenticated no credential could be extracted from the request
	ErrUnauthenticated = errors.Unauthorized(ReasonUnauthenticated, "Unauthorized")
	// ErrInvalidCredential a credential was presented but failed verification.
	// It is reported with 403, one step stricter than ErrUnauthenticated.
	ErrInvalidCredential = errors.Forbidden(ReasonInvalidCredential, "Forbidden")
	// ErrForbidden the verified identity's role is not permitted
	ErrForbidden = errors.Forbidden(ReasonForbidden, "Forbidden")

	ErrTooManyRequests     = errors.New(http.StatusTooManyRequests, ReasonTooManyRequests, "Too many requests")
	ErrPayloadTooLarge     = errors.New(http.StatusRequestEntityTooLarge, ReasonPayloadTooLarge, "Upload exceeds the size limit")
	ErrInternalServerError = errors.InternalServer(ReasonInternalServerError, "Internal server error")
)

// NewValidationError creates a new validation error.
func NewValidationError(message string) *errors.Error {
	return errors.BadRequest(ReasonValidationFailed, message)
}

// NewStoreError wraps a record store failure.
func NewStoreError(cause error) *errors.Error {
	return errors.InternalServer(ReasonStoreError, "record store operation failed").WithCause(cause)
}

// NewIngestPartialFailure reports a batch insert that failed after persisting
// a prefix of the batch. No rollback is attempted.
func NewIngestPartialFailure(persisted, submitted int, cause error) *errors.Error {
	return errors.InternalServer(ReasonIngestPartialFailure, "batch insert failed; a prefix of the batch may be persisted").
		WithCause(cause).
		WithMetadata(map[string]string{
			"persisted": strconv.Itoa(persisted),
			"submitted": strconv.Itoa(submitted),
		})
}

// IsAuthDenial reports whether err is one of the request-gating denials.
func IsAuthDenial(err error) bool {
	switch errors.Reason(err) {
	case ReasonUnauthenticated, ReasonInvalidCredential, ReasonForbidden:
		return true
	}
	return false
}

// HTTPStatus returns the HTTP status code carried by err; unknown errors map to 500.
func HTTPStatus(err error) int {
	return int(errors.Code(err))
}

// Reason returns the reason carried by err, empty for foreign errors.
func Reason(err error) string {
	return errors.Reason(err)
}
