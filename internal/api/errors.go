package api

import (
	"errors"
	"net/http"

	"avencia-pm/internal/domain"
)

// statusClientClosedRequest is the non-standard status used when the caller
// went away before the response was ready.
const statusClientClosedRequest = 499

// httpStatusFromDomainError maps domain errors to HTTP status codes.
func httpStatusFromDomainError(err error) int {
	var notFound *domain.NotFoundError
	var accessDenied *domain.AccessDeniedError
	var validation *domain.ValidationError
	var conflict *domain.ConflictError
	var timeout *domain.TimeoutError
	var cancelled *domain.CancelledError

	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &accessDenied):
		return http.StatusForbidden
	case errors.As(err, &validation):
		return http.StatusBadRequest
	case errors.As(err, &conflict):
		return http.StatusConflict
	case errors.As(err, &timeout):
		return http.StatusGatewayTimeout
	case errors.As(err, &cancelled):
		return statusClientClosedRequest
	default:
		return http.StatusInternalServerError
	}
}

// errorMessage returns the text shown to clients. Storage and unknown errors
// are not echoed because they can carry SQL and driver details.
func errorMessage(status int, err error) string {
	switch status {
	case http.StatusInternalServerError:
		return "internal server error"
	case http.StatusGatewayTimeout:
		return "request timed out"
	case statusClientClosedRequest:
		return "request cancelled"
	}
	return err.Error()
}
