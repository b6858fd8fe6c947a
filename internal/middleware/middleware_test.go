package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpattn/logstack/internal/logger"
)

type observed struct {
	method, path string
	status       int
}

type stubObserver struct {
	requests []observed
}

func (o *stubObserver) ObserveRequest(method, path string, status int, _ time.Duration) {
	o.requests = append(o.requests, observed{method, path, status})
}

func TestLoggingMiddleware(t *testing.T) {
	var buf bytes.Buffer
	base := zerolog.New(&buf)
	obs := &stubObserver{}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/data/stats", func(w http.ResponseWriter, r *http.Request) {
		logger.Get(r.Context()).Info().Msg("inside handler")
		w.WriteHeader(http.StatusTeapot)
	})
	handler := LoggingMiddleware(base, obs)(mux)

	req := httptest.NewRequest(http.MethodPost, "/api/data/stats", nil)
	req.Header.Set("X-Request-ID", "req-1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.Equal(t, "req-1", rec.Header().Get("X-Request-ID"))
	require.Len(t, obs.requests, 1)
	assert.Equal(t, observed{"POST", "POST /api/data/stats", http.StatusTeapot}, obs.requests[0])

	logs := buf.String()
	assert.Contains(t, logs, `"message":"inside handler"`)
	assert.Contains(t, logs, `"request_id":"req-1"`)
	assert.Contains(t, logs, `"status":418`)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "unmatched", obs.requests[1].path)
}
