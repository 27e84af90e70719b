package httpx

import (
	"errors"
	"net/http"

	"github.com/odyssey-erp/accounts/internal/shared"
)

// StatusFor maps domain errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, shared.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, shared.ErrUsernameTaken), errors.Is(err, shared.ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, shared.ErrInvalidCredentials), errors.Is(err, shared.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, shared.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// RespondError writes the failure envelope for err.
func RespondError(w http.ResponseWriter, err error) {
	Error(w, StatusFor(err), shared.UserSafeMessage(err))
}
