package httpx

import (
	"errors"
	"net/http"
)

// Sentinel errors for the domain layer. Services wrap these so the HTTP
// boundary can map them without inspecting error strings.
var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("resource not found")
	ErrValidation      = errors.New("validation failed")
	ErrPolicy          = errors.New("policy violation")
	ErrDuplicate       = errors.New("duplicate entry")
)

// RespondError maps a domain error to the error envelope. Anything outside
// the taxonomy becomes a generic 500: the caller is expected to have logged
// the full detail server-side already.
func RespondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		Error(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, ErrForbidden):
		Error(w, http.StatusForbidden, err.Error())
	case errors.Is(err, ErrNotFound):
		Error(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrValidation), errors.Is(err, ErrPolicy):
		Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrDuplicate):
		Error(w, http.StatusConflict, err.Error())
	default:
		Error(w, http.StatusInternalServerError, "internal error")
	}
}
