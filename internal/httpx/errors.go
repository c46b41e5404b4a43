package httpx

import (
	"errors"
	"net/http"

	"offerapp-backend/internal/apperr"
	"offerapp-backend/internal/transport"
)

// StatusOf maps a service error onto its HTTP status.
func StatusOf(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperr.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperr.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, apperr.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperr.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, apperr.ErrUpstream):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// WriteServiceError writes the error body for err. Upstream and unclassified
// failures are reported without their internal cause.
func WriteServiceError(w http.ResponseWriter, err error) {
	status := StatusOf(err)
	switch status {
	case http.StatusInternalServerError:
		transport.WriteError(w, status, "internal error", nil)
	case http.StatusBadGateway:
		transport.WriteError(w, status, apperr.ErrUpstream.Error(), nil)
	default:
		transport.WriteError(w, status, err.Error(), apperr.Details(err))
	}
}
