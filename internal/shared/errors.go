package shared

import (
	"errors"

	"github.com/arenahub/arenahub/internal/platform/httpx"
)

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)

// UserSafeMessage reduces an arbitrary error to a message that may be shown
// to a client. Taxonomy errors carry their own wording; everything else
// collapses to a generic message so store-level detail never leaks. Callers
// log the original error before calling this.
func UserSafeMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, httpx.ErrUnauthenticated),
		errors.Is(err, httpx.ErrForbidden),
		errors.Is(err, httpx.ErrNotFound),
		errors.Is(err, httpx.ErrValidation),
		errors.Is(err, httpx.ErrPolicy),
		errors.Is(err, httpx.ErrDuplicate):
		return err.Error()
	case errors.Is(err, ErrNotFound):
		return "not found"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid credentials"
	case errors.Is(err, ErrCSRFTokenMissing), errors.Is(err, ErrCSRFTokenMismatch):
		return err.Error()
	default:
		return "something went wrong, please try again"
	}
}
