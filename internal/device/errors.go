package device

import (
	"errors"
	"fmt"
	"net/http"
)

// Domain errors for device relay operations.
var (
	ErrInvalidCommand   = errors.New("command not in accepted set")
	ErrTimeout          = errors.New("device timed out")
	ErrUnreachable      = errors.New("device unreachable")
	ErrProtocolMismatch = errors.New("device returned non-JSON response")
	ErrMalformedPayload = errors.New("device returned invalid JSON")
	ErrUnknownStatus    = errors.New("device reported unrecognized status")
	ErrDeviceBusy       = errors.New("device busy with another analysis run")
)

// RelayError wraps an unexpected transport failure with its underlying cause.
type RelayError struct {
	Err error
}

func (e *RelayError) Error() string {
	return fmt.Sprintf("relay failure: %v", e.Err)
}

func (e *RelayError) Unwrap() error {
	return e.Err
}

// MapHTTPStatus maps device domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrInvalidCommand) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrTimeout) {
		return http.StatusGatewayTimeout
	}
	if errors.Is(err, ErrUnreachable) {
		return http.StatusServiceUnavailable
	}
	if errors.Is(err, ErrProtocolMismatch) {
		return http.StatusBadGateway
	}
	if errors.Is(err, ErrUnknownStatus) {
		return http.StatusBadGateway
	}
	if errors.Is(err, ErrDeviceBusy) {
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
