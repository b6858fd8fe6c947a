package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rpattn/logstack/internal/domain"
	"github.com/rpattn/logstack/internal/logger"
	"github.com/rpattn/logstack/internal/repository"
)

const (
	sourceFile  = "file"
	sourceEvent = "event"
)

// Counter receives the number of records persisted per source.
type Counter interface {
	AddIngested(source string, n int)
}

// Service turns uploaded files and single events into error records.
type Service struct {
	records repository.ErrorRecordRepository
	logRepo repository.IngestionLogRepository
	counter Counter
	now     func() time.Time
	newID   func() string
}

// NewService creates a new ingestion service. counter may be nil.
func NewService(
	records repository.ErrorRecordRepository,
	logRepo repository.IngestionLogRepository,
	counter Counter,
) *Service {
	return &Service{
		records: records,
		logRepo: logRepo,
		counter: counter,
		now:     time.Now,
		newID:   func() string { return uuid.NewString() },
	}
}

// FileRequest describes one uploaded file.
type FileRequest struct {
	FileName    string
	FromDate    time.Time
	ToDate      time.Time
	Environment *string
	Data        io.Reader
}

// Summary reports the outcome of a file ingestion.
type Summary struct {
	UploadID     string `json:"upload_id"`
	TotalLines   int    `json:"total_lines"`
	ValidRecords int    `json:"valid_records"`
	InvalidLines int    `json:"invalid_lines"`
}

// EventRequest describes one measurement pushed outside a file upload.
// Nil fields take their defaults.
type EventRequest struct {
	Prefix      string
	ErrorCount  *int64
	FileName    *string
	UploadID    *string
	FromDate    *time.Time
	ToDate      *time.Time
	Environment *string
}

// IngestFile stores every valid line of the file as one upload sharing a new
// upload id and creation time. Rejected lines are written to the ingestion
// log; a file without any valid line is an error.
func (s *Service) IngestFile(ctx context.Context, req FileRequest) (Summary, error) {
	if req.Data == nil {
		return Summary{}, errors.New("data reader is required")
	}
	if req.ToDate.Before(req.FromDate) {
		return Summary{}, fmt.Errorf("%w: to_date %s is before from_date %s",
			domain.ErrInvalidArgument, req.ToDate.Format(time.DateOnly), req.FromDate.Format(time.DateOnly))
	}

	payload, err := io.ReadAll(req.Data)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to read upload: %w", err)
	}
	if len(strings.TrimSpace(string(payload))) == 0 {
		return Summary{}, fmt.Errorf("%w: file is empty", domain.ErrInvalidArgument)
	}

	parsed, err := parseUpload(req.FileName, payload)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{
		UploadID:     s.newID(),
		TotalLines:   parsed.total,
		InvalidLines: len(parsed.invalid),
	}
	for _, invalid := range parsed.invalid {
		s.logIngestionError(ctx, summary.UploadID, req.FileName, &invalid.line, invalid.err)
	}
	if len(parsed.lines) == 0 {
		return summary, fmt.Errorf("%w: no valid records in %s", domain.ErrInvalidArgument, req.FileName)
	}

	createdAt := s.now().UTC()
	records := make([]domain.ErrorRecord, 0, len(parsed.lines))
	for _, line := range parsed.lines {
		record := domain.NewErrorRecord(summary.UploadID, req.FileName, line.prefix, line.errorCount, req.FromDate, req.ToDate, createdAt)
		record.Environment = req.Environment
		records = append(records, record)
	}

	inserted, err := s.records.CreateBatch(ctx, records)
	if err != nil {
		s.logIngestionError(ctx, summary.UploadID, req.FileName, nil, err)
		return summary, fmt.Errorf("failed to store upload: %w", err)
	}
	summary.ValidRecords = int(inserted)
	s.count(sourceFile, summary.ValidRecords)

	logger.Get(ctx).Info().
		Str("upload_id", summary.UploadID).
		Str("filename", req.FileName).
		Int("records", summary.ValidRecords).
		Int("invalid_lines", summary.InvalidLines).
		Msg("upload ingested")

	return summary, nil
}

// RecordEvent stores a single measurement. error_count defaults to 1,
// filename and upload id to "event", and both dates to the creation time.
func (s *Service) RecordEvent(ctx context.Context, req EventRequest) (domain.ErrorRecord, error) {
	prefix := strings.TrimSpace(req.Prefix)
	if prefix == "" {
		return domain.ErrorRecord{}, fmt.Errorf("%w: prefix is required", domain.ErrInvalidArgument)
	}

	createdAt := s.now().UTC()
	record := domain.NewErrorRecord(
		valueOr(req.UploadID, domain.EventUploadID),
		valueOr(req.FileName, domain.EventUploadID),
		prefix,
		valueOr(req.ErrorCount, 1),
		valueOr(req.FromDate, createdAt),
		valueOr(req.ToDate, createdAt),
		createdAt,
	)
	record.Environment = req.Environment

	created, err := s.records.Create(ctx, record)
	if err != nil {
		return domain.ErrorRecord{}, fmt.Errorf("failed to store event: %w", err)
	}
	s.count(sourceEvent, 1)
	return created, nil
}

// Logs lists the rejected lines recorded for an upload.
func (s *Service) Logs(ctx context.Context, uploadID string, limit, offset int) ([]domain.IngestionLogEntry, error) {
	if s.logRepo == nil {
		return []domain.IngestionLogEntry{}, nil
	}
	entries, err := s.logRepo.List(ctx, uploadID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list ingestion logs: %w", err)
	}
	return entries, nil
}

func (s *Service) count(source string, n int) {
	if s.counter != nil {
		s.counter.AddIngested(source, n)
	}
}

func (s *Service) logIngestionError(ctx context.Context, uploadID, fileName string, lineNumber *int, err error) {
	if s.logRepo == nil || err == nil {
		return
	}
	entry := domain.IngestionLogEntry{
		UploadID:     uploadID,
		FileName:     fileName,
		LineNumber:   lineNumber,
		ErrorMessage: err.Error(),
	}
	if recordErr := s.logRepo.Record(ctx, entry); recordErr != nil {
		logger.Get(ctx).Error().Err(recordErr).Str("upload_id", uploadID).Msg("failed to record ingestion error")
	}
}

func valueOr[T any](value *T, fallback T) T {
	if value == nil {
		return fallback
	}
	return *value
}
