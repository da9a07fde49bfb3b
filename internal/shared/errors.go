package shared

import (
	"errors"

	"github.com/odyssey-erp/odyssey-pos/internal/platform/httpx"
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

// UserSafeMessage returns the message that may be shown to an end user.
// Anything not classified as a domain error collapses to a generic text.
func UserSafeMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, httpx.ErrValidation),
		errors.Is(err, httpx.ErrForbidden),
		errors.Is(err, httpx.ErrUnauthorized),
		errors.Is(err, httpx.ErrNotFound),
		errors.Is(err, httpx.ErrDuplicate):
		return httpx.Detail(err)
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid email or password"
	default:
		return "an unexpected error occurred"
	}
}
