package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/terrasense/regolith/pkg/handlers"
)

// Recover returns middleware that converts handler panics into logged 500
// responses instead of letting them propagate to the connection.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error(
						"handler panic",
						"method", r.Method,
						"uri", r.URL.RequestURI(),
						"panic", rec,
					)
					handlers.RespondError(
						w, logger,
						http.StatusInternalServerError,
						errors.New("internal server error"),
					)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
