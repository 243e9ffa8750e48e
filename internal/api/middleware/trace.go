// Package middleware holds the HTTP middleware applied in front of every
// routed pipeline.
package middleware

import (
	"log/slog"
	"net/http"

	"github.com/trailway/trailway/internal/api/shared"
)

// Trace adds a trace ID to the request context so all subsequent
// handlers and the error emitter can correlate their logs. Apply it
// early in the middleware chain.
func Trace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := shared.SetTraceID(r.Context())

		slog.Debug("request started",
			slog.String("trace_id", shared.GetTraceID(ctx)),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("remote_addr", r.RemoteAddr))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
