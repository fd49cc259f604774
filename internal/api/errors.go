package api

import (
	"errors"
	"net/http"

	"github.com/campuswatch/campuswatch/internal/services"
)

// Machine-readable error codes carried in the error envelope. Clients branch
// on these rather than on the human-readable message.
const (
	CodeValidation       = "validation_error"
	CodeAuth             = "auth_error"
	CodeAccountPending   = "account_pending"
	CodeAccountBanned    = "account_banned"
	CodePermissionDenied = "permission_denied"
	CodeNotFound         = "not_found"
	CodeConflict         = "conflict"
	CodeTimeout          = "timeout"
	CodeInternal         = "internal_error"
)

// RespondServiceError maps a service-layer error onto the HTTP status and
// error code contract. Unclassified errors become opaque 500s so internals
// never leak to clients.
func RespondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrValidation):
		RespondErrorWithCode(w, http.StatusUnprocessableEntity, CodeValidation, err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		RespondErrorWithCode(w, http.StatusUnauthorized, CodeAuth, "Invalid email or password")
	case errors.Is(err, services.ErrAccountPending):
		RespondErrorWithCode(w, http.StatusForbidden, CodeAccountPending, "Account is awaiting approval")
	case errors.Is(err, services.ErrAccountBanned):
		RespondErrorWithCode(w, http.StatusForbidden, CodeAccountBanned, "Account is banned")
	case errors.Is(err, services.ErrPermission):
		RespondErrorWithCode(w, http.StatusForbidden, CodePermissionDenied, "You do not have permission to perform this action")
	case errors.Is(err, services.ErrNotFound):
		RespondErrorWithCode(w, http.StatusNotFound, CodeNotFound, "Resource not found")
	case errors.Is(err, services.ErrConflict):
		RespondErrorWithCode(w, http.StatusConflict, CodeConflict, err.Error())
	case errors.Is(err, services.ErrTimeout):
		RespondErrorWithCode(w, http.StatusGatewayTimeout, CodeTimeout, "The operation timed out, please retry")
	default:
		RespondErrorWithCode(w, http.StatusInternalServerError, CodeInternal, "Internal server error")
	}
}
