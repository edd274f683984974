package middleware

import (
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
)

const RequestIDHeader = "X-Request-ID"

// RequestID runs chi's request id middleware, which reuses an incoming
// X-Request-ID or generates one, and echoes the id on the response.
func RequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		echo := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set(RequestIDHeader, chimw.GetReqID(r.Context()))
			next.ServeHTTP(w, r)
		})
		return chimw.RequestID(echo)
	}
}
