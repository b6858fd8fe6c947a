package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rpattn/logstack/internal/logger"
)

// RequestObserver records served HTTP requests.
type RequestObserver interface {
	ObserveRequest(method, path string, status int, d time.Duration)
}

// responseWriter captures HTTP status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware attaches a request scoped logger carrying a request id,
// then logs and records every request once it completes. observer may be nil.
func LoggingMiddleware(base zerolog.Logger, observer RequestObserver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = uuid.NewString()
			}
			rw.Header().Set("X-Request-ID", requestID)

			lg := base.With().Str("request_id", requestID).Logger()
			req := r.WithContext(logger.Set(r.Context(), &lg))

			// Process HTTP request
			next.ServeHTTP(rw, req)

			duration := time.Since(start)
			route := req.Pattern
			if route == "" {
				route = "unmatched"
			}
			if observer != nil {
				observer.ObserveRequest(r.Method, route, rw.statusCode, duration)
			}

			event := lg.Info()
			if rw.statusCode >= http.StatusInternalServerError {
				event = lg.Error()
			}
			event.
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", rw.statusCode).
				Dur("duration", duration).
				Str("remote_addr", r.RemoteAddr).
				Msg("http request")
		})
	}
}
