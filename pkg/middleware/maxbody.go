package middleware

import "net/http"

// MaxBody caps request body reads at limit bytes. Reads past the limit fail
// with http.MaxBytesError, which JSON decoding surfaces to the handler.
func MaxBody(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}
