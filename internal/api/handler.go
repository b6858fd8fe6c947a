// Package api serves the analytics engines over JSON HTTP endpoints.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rpattn/logstack/internal/analytics"
	"github.com/rpattn/logstack/internal/domain"
	"github.com/rpattn/logstack/internal/logger"
	"github.com/rpattn/logstack/pkg/validator"
)

const (
	maxBodyBytes           = 1 << 20
	maxPageNumber          = 1_000_000
	defaultComparePageSize = 50
)

// Limits bounds the page sizes a client may request.
type Limits struct {
	MaxPageSize        int
	CompareMaxPageSize int
}

// Handler exposes the analytics service as HTTP endpoints.
type Handler struct {
	service   *analytics.Service
	validator *validator.RequestValidator
	limits    Limits
	health    func(context.Context) error
}

// NewHTTPHandler wraps the service. health backs GET /healthz and may be nil.
func NewHTTPHandler(service *analytics.Service, limits Limits, health func(context.Context) error) *Handler {
	if limits.MaxPageSize <= 0 {
		limits.MaxPageSize = analytics.DefaultPageSize
	}
	if limits.CompareMaxPageSize <= 0 {
		limits.CompareMaxPageSize = 100
	}
	return &Handler{
		service:   service,
		validator: validator.NewRequestValidator(),
		limits:    limits,
		health:    health,
	}
}

// Register mounts the analytics routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/data/uploads", h.handleUploads)
	mux.HandleFunc("POST /api/data/all-uploads", h.handleAllUploads)
	mux.HandleFunc("POST /api/data/diffs", h.handleDiffs)
	mux.HandleFunc("POST /api/data/trends", h.handleTrends)
	mux.HandleFunc("POST /api/data/trend-chart", h.handleTrendChart)
	mux.HandleFunc("POST /api/data/stats", h.handleStats)
	mux.HandleFunc("POST /api/data/stats-chart", h.handleStatsChart)
	mux.HandleFunc("POST /api/data/compare", h.handleCompare)
	mux.HandleFunc("POST /api/data/autocomplete", h.handleAutocomplete)
	mux.HandleFunc("GET /healthz", h.handleHealth)
}

type prefixPayload struct {
	Prefix string `json:"prefix"`
}

type pagePayload struct {
	Page     *int `json:"page"`
	PageSize *int `json:"page_size"`
}

func (p pagePayload) page(defaultSize int) analytics.Page {
	page := analytics.Page{Number: 1, Size: defaultSize}
	if p.Page != nil {
		page.Number = *p.Page
	}
	if p.PageSize != nil {
		page.Size = *p.PageSize
	}
	return page
}

type orderPayload struct {
	OrderBy    string `json:"order_by"`
	Descending *bool  `json:"descending"`
}

func (o orderPayload) descending() bool {
	return o.Descending == nil || *o.Descending
}

type uploadsPayload struct {
	prefixPayload
	pagePayload
}

type allUploadsPayload struct {
	pagePayload
	orderPayload
}

type diffsPayload struct {
	prefixPayload
	pagePayload
	orderPayload
	UploadIDs []string `json:"upload_ids"`
}

type trendsPayload struct {
	prefixPayload
	pagePayload
	Descending *bool `json:"descending"`
}

type statsPayload struct {
	prefixPayload
	pagePayload
	orderPayload
}

type comparePayload struct {
	prefixPayload
	pagePayload
	UploadA string `json:"upload_id_1"`
	UploadB string `json:"upload_id_2"`
}

func (h *Handler) handleUploads(w http.ResponseWriter, r *http.Request) {
	var payload uploadsPayload
	if !h.decode(w, r, h.pagedFields(h.limits.MaxPageSize, prefixField()), &payload) {
		return
	}
	result, err := h.service.ListUploads(r.Context(), analytics.UploadsRequest{
		Query: payload.Prefix,
		Page:  payload.page(h.limits.MaxPageSize),
	})
	h.respond(w, r, result, err)
}

func (h *Handler) handleAllUploads(w http.ResponseWriter, r *http.Request) {
	var payload allUploadsPayload
	fields := h.pagedFields(h.limits.MaxPageSize, orderFields(
		domain.UploadSortFieldUploadID, domain.UploadSortFieldFileName,
		domain.UploadSortFieldCreatedAt, domain.UploadSortFieldErrorsTotal,
	))
	if !h.decode(w, r, fields, &payload) {
		return
	}
	result, err := h.service.ListAllUploads(r.Context(), analytics.AllUploadsRequest{
		OrderBy:    payload.OrderBy,
		Descending: payload.descending(),
		Page:       payload.page(h.limits.MaxPageSize),
	})
	h.respond(w, r, result, err)
}

func (h *Handler) handleDiffs(w http.ResponseWriter, r *http.Request) {
	var payload diffsPayload
	fields := h.pagedFields(h.limits.MaxPageSize, prefixField(), orderFields(
		domain.DiffSortFieldImprovements, domain.DiffSortFieldDegradations,
	), map[string]validator.FieldDefinition{
		"upload_ids": {Type: validator.FieldTypeStringArray},
	})
	if !h.decode(w, r, fields, &payload) {
		return
	}
	result, err := h.service.Diffs(r.Context(), analytics.DiffsRequest{
		Query:      payload.Prefix,
		UploadIDs:  payload.UploadIDs,
		OrderBy:    payload.OrderBy,
		Descending: payload.descending(),
		Page:       payload.page(h.limits.MaxPageSize),
	})
	h.respond(w, r, result, err)
}

func (h *Handler) handleTrends(w http.ResponseWriter, r *http.Request) {
	var payload trendsPayload
	fields := h.pagedFields(h.limits.MaxPageSize, prefixField(), map[string]validator.FieldDefinition{
		"descending": {Type: validator.FieldTypeBoolean},
	})
	if !h.decode(w, r, fields, &payload) {
		return
	}
	result, err := h.service.Trends(r.Context(), analytics.TrendsRequest{
		Query:      payload.Prefix,
		Descending: payload.Descending == nil || *payload.Descending,
		Page:       payload.page(h.limits.MaxPageSize),
	})
	h.respond(w, r, result, err)
}

func (h *Handler) handleTrendChart(w http.ResponseWriter, r *http.Request) {
	var payload prefixPayload
	if !h.decode(w, r, prefixField(), &payload) {
		return
	}
	result, err := h.service.TrendChart(r.Context(), payload.Prefix)
	h.respond(w, r, result, err)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	var payload statsPayload
	fields := h.pagedFields(h.limits.MaxPageSize, prefixField(), orderFields(
		domain.StatsSortFieldCount, domain.StatsSortFieldMean, domain.StatsSortFieldMedian,
		domain.StatsSortFieldStddev, domain.StatsSortFieldMin, domain.StatsSortFieldMax,
	))
	if !h.decode(w, r, fields, &payload) {
		return
	}
	result, err := h.service.BasicStats(r.Context(), analytics.StatsRequest{
		Query:      payload.Prefix,
		OrderBy:    payload.OrderBy,
		Descending: payload.descending(),
		Page:       payload.page(h.limits.MaxPageSize),
	})
	h.respond(w, r, result, err)
}

func (h *Handler) handleStatsChart(w http.ResponseWriter, r *http.Request) {
	var payload prefixPayload
	if !h.decode(w, r, prefixField(), &payload) {
		return
	}
	result, err := h.service.StatsChart(r.Context(), payload.Prefix)
	h.respond(w, r, result, err)
}

func (h *Handler) handleCompare(w http.ResponseWriter, r *http.Request) {
	var payload comparePayload
	fields := h.pagedFields(h.limits.CompareMaxPageSize, prefixField(), map[string]validator.FieldDefinition{
		"upload_id_1": {Type: validator.FieldTypeString, Required: true, NotBlank: true},
		"upload_id_2": {Type: validator.FieldTypeString, Required: true, NotBlank: true},
	})
	if !h.decode(w, r, fields, &payload) {
		return
	}

	defaultSize := min(defaultComparePageSize, h.limits.CompareMaxPageSize)
	result, err := h.service.Compare(r.Context(), analytics.CompareRequest{
		UploadA: payload.UploadA,
		UploadB: payload.UploadB,
		Query:   payload.Prefix,
		Page:    payload.page(defaultSize),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) handleAutocomplete(w http.ResponseWriter, r *http.Request) {
	var payload prefixPayload
	if !h.decode(w, r, prefixField(), &payload) {
		return
	}
	result, err := h.service.Autocomplete(r.Context(), payload.Prefix)
	h.respond(w, r, result, err)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health(r.Context()); err != nil {
			logger.Get(r.Context()).Error().Err(err).Msg("health check failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func prefixField() map[string]validator.FieldDefinition {
	return map[string]validator.FieldDefinition{
		"prefix": {Type: validator.FieldTypeString},
	}
}

func orderFields[T ~string](keys ...T) map[string]validator.FieldDefinition {
	allowed := make([]string, len(keys))
	for i, key := range keys {
		allowed[i] = string(key)
	}
	return map[string]validator.FieldDefinition{
		"order_by":   {Type: validator.FieldTypeString, OneOf: allowed},
		"descending": {Type: validator.FieldTypeBoolean},
	}
}

// pagedFields merges the page fields, bounded by maxPageSize, into extra.
func (h *Handler) pagedFields(maxPageSize int, extra ...map[string]validator.FieldDefinition) map[string]validator.FieldDefinition {
	fields := map[string]validator.FieldDefinition{
		"page":      {Type: validator.FieldTypeInteger, Min: validator.Int64(1), Max: validator.Int64(maxPageNumber)},
		"page_size": {Type: validator.FieldTypeInteger, Min: validator.Int64(1), Max: validator.Int64(int64(maxPageSize))},
	}
	for _, set := range extra {
		for name, def := range set {
			fields[name] = def
		}
	}
	return fields
}

// decode validates the JSON body against fields and then unmarshals it into
// dst. An empty body is treated as {}. It writes the 400 response itself and
// reports whether the handler should continue.
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, fields map[string]validator.FieldDefinition, dst any) bool {
	defer r.Body.Close()
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to read body: %v", err), http.StatusBadRequest)
		return false
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		raw = []byte("{}")
	}

	properties := map[string]any{}
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	if err := decoder.Decode(&properties); err != nil {
		http.Error(w, fmt.Sprintf("invalid payload: %v", err), http.StatusBadRequest)
		return false
	}
	if result := h.validator.ValidateProperties(properties, fields); !result.IsValid {
		writeJSON(w, http.StatusBadRequest, result)
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		http.Error(w, fmt.Sprintf("invalid payload: %v", err), http.StatusBadRequest)
		return false
	}
	return true
}

func (h *Handler) respond(w http.ResponseWriter, r *http.Request, result any, err error) {
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"result": result})
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, domain.ErrInvalidArgument) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	logger.Get(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("analytics request failed")
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}
