package repository

import (
	"context"

	"github.com/rpattn/logstack/internal/domain"
)

// ErrorRecordReader is the read side of the event store.
type ErrorRecordReader interface {
	ListRecords(ctx context.Context, query domain.RecordQuery) ([]domain.ErrorRecord, error)
	// ListPrefixes returns distinct prefixes matching prefix, ascending, at most limit.
	ListPrefixes(ctx context.Context, prefix string, limit int) ([]string, error)
	// ListUploadSummaries groups records by upload; nil uploadIDs selects all uploads.
	ListUploadSummaries(ctx context.Context, uploadIDs []string) ([]domain.UploadSummary, error)
}

// ErrorRecordRepository defines the event store operations
type ErrorRecordRepository interface {
	ErrorRecordReader

	// ReadSnapshot runs fn against a single consistent, read-only view of the store.
	ReadSnapshot(ctx context.Context, fn func(ErrorRecordReader) error) error
	Create(ctx context.Context, record domain.ErrorRecord) (domain.ErrorRecord, error)
	CreateBatch(ctx context.Context, records []domain.ErrorRecord) (int64, error)
}

// IngestionLogRepository stores ingestion errors for observability.
type IngestionLogRepository interface {
	Record(ctx context.Context, entry domain.IngestionLogEntry) error
	List(ctx context.Context, uploadID string, limit int, offset int) ([]domain.IngestionLogEntry, error)
}
