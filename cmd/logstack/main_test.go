package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpattn/logstack/internal/config"
	"github.com/rpattn/logstack/internal/ingestion"
)

func TestIngestDryRun(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "errors.folded")
	require.NoError(t, os.WriteFile(path, []byte(";api;users 4\n;api;orders 2\nbroken\n"), 0o600))

	var out bytes.Buffer
	err := newApp(&out).execute(context.Background(), []string{
		"--config", dir, "ingest", "--dry-run", "--from", "2024-03-01", "--to", "2024-03-08", path,
	})
	require.NoError(t, err)

	var summary ingestion.Summary
	require.NoError(t, json.Unmarshal(out.Bytes(), &summary))
	assert.Equal(t, 3, summary.TotalLines)
	assert.Equal(t, 2, summary.ValidRecords)
	assert.Equal(t, 1, summary.InvalidLines)
	assert.NotEmpty(t, summary.UploadID)
}

func TestIngestRejectsBadDates(t *testing.T) {
	err := newApp(&bytes.Buffer{}).execute(context.Background(), []string{
		"--config", t.TempDir(), "ingest", "--dry-run", "--from", "March", "x.txt",
	})
	assert.ErrorContains(t, err, "--from")
}

func TestMigrateRejectsUnknownDirection(t *testing.T) {
	err := newApp(&bytes.Buffer{}).execute(context.Background(), []string{"--config", t.TempDir(), "migrate", "sideways"})
	assert.ErrorContains(t, err, "sideways")
}

func TestRouterServesEndToEnd(t *testing.T) {
	cfg := config.Default()
	handler, err := newRouter(cfg, memoryStores(), prometheus.NewRegistry())
	require.NoError(t, err)

	upload := func(body string) {
		t.Helper()
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/ingestion/event", strings.NewReader(body))
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}
	upload(`{"prefix": "/api/users", "error_count": 3, "upload_id": "u1"}`)
	upload(`{"prefix": "/api/orders", "error_count": 1, "upload_id": "u1"}`)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/data/autocomplete", strings.NewReader(`{"prefix": "/api/"}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"result": ["orders", "users"]}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `logstack_ingestion_records_total{source="event"} 2`)
	assert.Contains(t, rec.Body.String(), `logstack_analytics_operation_duration_seconds_count{operation="autocomplete",outcome="ok"} 1`)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
