package auth

import (
	"errors"
	"net/http"
)

var (
	// ErrUnauthenticated indicates a missing, malformed, or rejected
	// bearer credential.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrVerifierUnavailable indicates the token verifier has not been
	// initialized, typically because provider discovery failed at startup.
	ErrVerifierUnavailable = errors.New("token verifier unavailable")
)

// MapHTTPStatus maps authentication errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrVerifierUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
