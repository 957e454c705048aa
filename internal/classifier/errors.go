package classifier

import (
	"errors"
	"net/http"
)

// Domain errors for classification operations.
var (
	ErrModelUnavailable    = errors.New("scoring model not loaded")
	ErrInvalidImage        = errors.New("image data missing or undecodable")
	ErrThresholdOutOfRange = errors.New("threshold must be between 0.0 and 1.0")
)

// MapHTTPStatus maps classifier domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrModelUnavailable) {
		return http.StatusServiceUnavailable
	}
	if errors.Is(err, ErrInvalidImage) || errors.Is(err, ErrThresholdOutOfRange) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
