package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"campuspulse/internal/platform/metrics"
)

// Latency records request latency per route pattern. Using the chi route
// pattern instead of the raw path keeps metric cardinality bounded.
func Latency(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			pattern := chi.RouteContext(r.Context()).RoutePattern()
			if pattern == "" {
				pattern = "unmatched"
			}
			m.ObserveRequest(r.Method, pattern, time.Since(start).Seconds())
		})
	}
}
