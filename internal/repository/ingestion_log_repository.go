package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rpattn/logstack/internal/domain"
)

type ingestionLogRepository struct {
	pool *pgxpool.Pool
}

// NewIngestionLogRepository wires a repository backed by pgxpool.
func NewIngestionLogRepository(pool *pgxpool.Pool) IngestionLogRepository {
	return &ingestionLogRepository{pool: pool}
}

func (r *ingestionLogRepository) Record(ctx context.Context, entry domain.IngestionLogEntry) error {
	if r.pool == nil {
		return fmt.Errorf("ingestion log repository not initialized")
	}

	var lineNumber any
	if entry.LineNumber != nil {
		lineNumber = *entry.LineNumber
	}

	_, err := r.pool.Exec(
		ctx,
		`INSERT INTO ingestion_logs (upload_id, filename, line_number, error_message)
		 VALUES ($1, $2, $3, $4)`,
		entry.UploadID,
		entry.FileName,
		lineNumber,
		entry.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("failed to record ingestion log: %w", err)
	}

	return nil
}

func (r *ingestionLogRepository) List(ctx context.Context, uploadID string, limit int, offset int) ([]domain.IngestionLogEntry, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("ingestion log repository not initialized")
	}

	limit, offset = normalizeLogWindow(limit, offset)

	rows, err := r.pool.Query(
		ctx,
		`SELECT id, upload_id, filename, line_number, error_message, created_at
		 FROM ingestion_logs
		 WHERE upload_id = $1
		 ORDER BY line_number NULLS FIRST, id
		 LIMIT $2 OFFSET $3`,
		uploadID,
		limit,
		offset,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list ingestion logs: %w", err)
	}
	defer rows.Close()

	logs := []domain.IngestionLogEntry{}
	for rows.Next() {
		var (
			entry      domain.IngestionLogEntry
			lineNumber pgtype.Int4
			createdAt  pgtype.Timestamptz
		)
		if scanErr := rows.Scan(
			&entry.ID,
			&entry.UploadID,
			&entry.FileName,
			&lineNumber,
			&entry.ErrorMessage,
			&createdAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan ingestion log: %w", scanErr)
		}

		if lineNumber.Valid {
			value := int(lineNumber.Int32)
			entry.LineNumber = &value
		}
		if createdAt.Valid {
			entry.CreatedAt = createdAt.Time
		}

		logs = append(logs, entry)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate ingestion logs: %w", rowsErr)
	}

	return logs, nil
}

func normalizeLogWindow(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
