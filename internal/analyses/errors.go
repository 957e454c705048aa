package analyses

import (
	"errors"
	"net/http"
)

var (
	// ErrEvidenceUpload indicates the evidence image could not be stored.
	// The record insert never runs when evidence capture fails.
	ErrEvidenceUpload = errors.New("evidence upload failed")

	// ErrPersistence indicates the record insert failed. An
	// already-uploaded evidence blob is not compensated.
	ErrPersistence = errors.New("analysis record not saved")

	// ErrNotFound indicates no record exists for the requested ID.
	ErrNotFound = errors.New("analysis not found")

	// ErrInvalidID indicates the path parameter is not a valid UUID.
	ErrInvalidID = errors.New("invalid analysis id")
)

// MapHTTPStatus maps analysis domain errors to HTTP status codes.
func MapHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidID):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
