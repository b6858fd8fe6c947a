package ingestion

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rpattn/logstack/internal/domain"
	"github.com/rpattn/logstack/internal/logger"
	"github.com/rpattn/logstack/pkg/validator"
)

var timeLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.000",
	"2006-01-02 15:04:05.000000",
	"2006/01/02",
	"01/02/2006",
	"02/01/2006",
}

var eventFields = map[string]validator.FieldDefinition{
	"prefix":      {Type: validator.FieldTypeString, Required: true, NotBlank: true},
	"error_count": {Type: validator.FieldTypeInteger},
	"filename":    {Type: validator.FieldTypeString, NotBlank: true},
	"upload_id":   {Type: validator.FieldTypeString, NotBlank: true},
	"from_date":   {Type: validator.FieldTypeTimestamp},
	"to_date":     {Type: validator.FieldTypeTimestamp},
	"environment": {Type: validator.FieldTypeString},
}

// Handler exposes ingestion as HTTP endpoints.
type Handler struct {
	service        *Service
	validator      *validator.RequestValidator
	maxUploadBytes int64
}

// NewHTTPHandler wraps the service. Uploads larger than maxUploadBytes are rejected.
func NewHTTPHandler(service *Service, maxUploadBytes int64) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 32 << 20
	}
	return &Handler{
		service:        service,
		validator:      validator.NewRequestValidator(timeLayouts...),
		maxUploadBytes: maxUploadBytes,
	}
}

// Register mounts the ingestion routes on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/ingestion/upload-file", h.uploadFile)
	mux.HandleFunc("POST /api/ingestion/event", h.recordEvent)
	mux.HandleFunc("GET /api/ingestion/logs/{uploadID}", h.listLogs)
}

func (h *Handler) uploadFile(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	fromDate, err := h.requiredDate(query.Get("from_date"), "from_date")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	toDate, err := h.requiredDate(query.Get("to_date"), "to_date")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var environment *string
	if env := strings.TrimSpace(query.Get("environment")); env != "" {
		environment = &env
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		http.Error(w, fmt.Sprintf("invalid form data: %v", err), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, fmt.Sprintf("file required: %v", err), http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to read file: %v", err), http.StatusBadRequest)
		return
	}

	summary, err := h.service.IngestFile(r.Context(), FileRequest{
		FileName:    header.Filename,
		FromDate:    fromDate,
		ToDate:      toDate,
		Environment: environment,
		Data:        bytes.NewReader(data),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

type eventPayload struct {
	Prefix      string  `json:"prefix"`
	ErrorCount  *int64  `json:"error_count"`
	FileName    *string `json:"filename"`
	UploadID    *string `json:"upload_id"`
	FromDate    *string `json:"from_date"`
	ToDate      *string `json:"to_date"`
	Environment *string `json:"environment"`
}

func (h *Handler) recordEvent(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to read body: %v", err), http.StatusBadRequest)
		return
	}

	properties := map[string]any{}
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	if err := decoder.Decode(&properties); err != nil {
		http.Error(w, fmt.Sprintf("invalid JSON body: %v", err), http.StatusBadRequest)
		return
	}
	if result := h.validator.ValidateProperties(properties, eventFields); !result.IsValid {
		writeJSON(w, http.StatusBadRequest, result)
		return
	}

	var payload eventPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		http.Error(w, fmt.Sprintf("invalid JSON body: %v", err), http.StatusBadRequest)
		return
	}

	req := EventRequest{
		Prefix:      payload.Prefix,
		ErrorCount:  payload.ErrorCount,
		FileName:    payload.FileName,
		UploadID:    payload.UploadID,
		Environment: payload.Environment,
	}
	if req.FromDate, err = h.optionalDate(payload.FromDate); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if req.ToDate, err = h.optionalDate(payload.ToDate); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	record, err := h.service.RecordEvent(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]int64{"id": record.ID})
}

func (h *Handler) listLogs(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	offset, err := intParam(r, "offset")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	entries, err := h.service.Logs(r.Context(), r.PathValue("uploadID"), limit, offset)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"result": entries})
}

func (h *Handler) requiredDate(raw, name string) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return time.Time{}, fmt.Errorf("%s is required", name)
	}
	ts, err := h.validator.ParseTimestamp(raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s %v", name, err)
	}
	return ts, nil
}

func (h *Handler) optionalDate(raw *string) (*time.Time, error) {
	if raw == nil {
		return nil, nil
	}
	ts, err := h.validator.ParseTimestamp(*raw)
	if err != nil {
		return nil, err
	}
	return &ts, nil
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, domain.ErrInvalidArgument) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	logger.Get(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("ingestion failed")
	http.Error(w, "internal server error", http.StatusInternalServerError)
}

func intParam(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", name)
	}
	return v, nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}
