package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"offerapp-backend/internal/metrics"
)

// Metrics records request counts and latency labelled by the matched chi
// route pattern, keeping IDs out of the label set.
func Metrics(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)

			route := ""
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				route = rctx.RoutePattern()
			}
			m.ObserveRequest(r.Method, route, rec.statusCode(), time.Since(start))
		})
	}
}
