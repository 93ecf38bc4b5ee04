// Package requesttime pins one "now" per request, so every record a unit
// produces carries the same capture time.
package requesttime

import (
	"net/http"
	"time"

	"audittrail/pkg/requestcontext"
)

// Middleware stores the request start time in the context.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
