package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/rpattn/logstack/internal/db"
	"github.com/rpattn/logstack/internal/domain"
)

const recordColumns = "id, upload_id, filename, prefix, error_count, environment, from_date, to_date, created_at"

var copyColumns = []string{"upload_id", "filename", "prefix", "error_count", "environment", "from_date", "to_date", "created_at"}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// errorRecordReader runs read queries against a pool or a transaction.
type errorRecordReader struct {
	q querier
}

// errorRecordRepository implements ErrorRecordRepository interface
type errorRecordRepository struct {
	errorRecordReader
	conn *db.Connection
}

// NewErrorRecordRepository creates a new error record repository
func NewErrorRecordRepository(conn *db.Connection) ErrorRecordRepository {
	return &errorRecordRepository{
		errorRecordReader: errorRecordReader{q: conn.Pool},
		conn:              conn,
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern turns an already normalized prefix into a LIKE pattern with %, _ and \ escaped.
func likePattern(normalized string) string {
	return likeEscaper.Replace(normalized) + "%"
}

// buildRecordQuery renders the SELECT for q and its positional arguments.
func buildRecordQuery(q domain.RecordQuery) (string, []any) {
	var (
		conditions []string
		args       []any
	)

	if normalized := domain.NormalizePrefix(q.Prefix); normalized != "" {
		args = append(args, likePattern(normalized))
		conditions = append(conditions, fmt.Sprintf(`prefix LIKE $%d ESCAPE '\'`, len(args)))
	}
	if len(q.UploadIDs) > 0 {
		args = append(args, q.UploadIDs)
		conditions = append(conditions, fmt.Sprintf("upload_id = ANY($%d)", len(args)))
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(recordColumns)
	sb.WriteString(" FROM error_records")
	if len(conditions) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(conditions, " AND "))
	}

	switch q.Order {
	case domain.OrderByTime:
		sb.WriteString(" ORDER BY created_at, id")
	default:
		sb.WriteString(` ORDER BY prefix COLLATE "C", created_at, id`)
	}

	if q.Limit > 0 {
		args = append(args, q.Limit)
		sb.WriteString(fmt.Sprintf(" LIMIT $%d", len(args)))
	}
	if q.Offset > 0 {
		args = append(args, q.Offset)
		sb.WriteString(fmt.Sprintf(" OFFSET $%d", len(args)))
	}

	return sb.String(), args
}

// ListRecords scans records matching query in the requested order
func (r *errorRecordReader) ListRecords(ctx context.Context, query domain.RecordQuery) ([]domain.ErrorRecord, error) {
	sql, args := buildRecordQuery(query)
	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list error records: %w", err)
	}
	defer rows.Close()

	records := []domain.ErrorRecord{}
	for rows.Next() {
		var (
			record      domain.ErrorRecord
			environment pgtype.Text
		)
		if scanErr := rows.Scan(
			&record.ID,
			&record.UploadID,
			&record.FileName,
			&record.Prefix,
			&record.ErrorCount,
			&environment,
			&record.FromDate,
			&record.ToDate,
			&record.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan error record: %w", scanErr)
		}
		if environment.Valid {
			value := environment.String
			record.Environment = &value
		}
		records = append(records, record)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate error records: %w", rowsErr)
	}

	return records, nil
}

// ListPrefixes returns distinct matching prefixes in byte order
func (r *errorRecordReader) ListPrefixes(ctx context.Context, prefix string, limit int) ([]string, error) {
	rows, err := r.q.Query(
		ctx,
		`SELECT prefix FROM error_records
		 WHERE prefix LIKE $1 ESCAPE '\'
		 GROUP BY prefix
		 ORDER BY prefix COLLATE "C"
		 LIMIT $2`,
		likePattern(domain.NormalizePrefix(prefix)),
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list prefixes: %w", err)
	}
	defer rows.Close()

	prefixes, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to scan prefixes: %w", err)
	}
	return prefixes, nil
}

// ListUploadSummaries groups records by upload and sums their error counts
func (r *errorRecordReader) ListUploadSummaries(ctx context.Context, uploadIDs []string) ([]domain.UploadSummary, error) {
	sql := `SELECT upload_id, filename, created_at, COALESCE(SUM(error_count), 0)::BIGINT
		FROM error_records`
	var args []any
	if uploadIDs != nil {
		sql += ` WHERE upload_id = ANY($1)`
		args = append(args, uploadIDs)
	}
	sql += ` GROUP BY upload_id, filename, created_at`

	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list uploads: %w", err)
	}
	defer rows.Close()

	summaries := []domain.UploadSummary{}
	for rows.Next() {
		var summary domain.UploadSummary
		if scanErr := rows.Scan(&summary.UploadID, &summary.FileName, &summary.CreatedAt, &summary.ErrorsTotal); scanErr != nil {
			return nil, fmt.Errorf("failed to scan upload summary: %w", scanErr)
		}
		summaries = append(summaries, summary)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate upload summaries: %w", rowsErr)
	}

	return summaries, nil
}

// ReadSnapshot runs fn inside one read-only repeatable-read transaction
func (r *errorRecordRepository) ReadSnapshot(ctx context.Context, fn func(ErrorRecordReader) error) error {
	return r.conn.WithSnapshot(ctx, func(tx pgx.Tx) error {
		return fn(&errorRecordReader{q: tx})
	})
}

// Create inserts a single record and returns it with its assigned ID
func (r *errorRecordRepository) Create(ctx context.Context, record domain.ErrorRecord) (domain.ErrorRecord, error) {
	err := r.q.QueryRow(
		ctx,
		`INSERT INTO error_records (upload_id, filename, prefix, error_count, environment, from_date, to_date, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		record.UploadID,
		record.FileName,
		record.Prefix,
		record.ErrorCount,
		record.Environment,
		record.FromDate,
		record.ToDate,
		record.CreatedAt,
	).Scan(&record.ID)
	if err != nil {
		return domain.ErrorRecord{}, fmt.Errorf("failed to create error record: %w", err)
	}
	return record, nil
}

// CreateBatch copies all records of an upload in one transaction
func (r *errorRecordRepository) CreateBatch(ctx context.Context, records []domain.ErrorRecord) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}

	var copied int64
	err := r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		n, err := tx.CopyFrom(
			ctx,
			pgx.Identifier{"error_records"},
			copyColumns,
			pgx.CopyFromSlice(len(records), func(i int) ([]any, error) {
				rec := records[i]
				return []any{rec.UploadID, rec.FileName, rec.Prefix, rec.ErrorCount, rec.Environment, rec.FromDate, rec.ToDate, rec.CreatedAt}, nil
			}),
		)
		if err != nil {
			return fmt.Errorf("failed to copy error records: %w", err)
		}
		copied = n
		return nil
	})
	if err != nil {
		return 0, err
	}
	return copied, nil
}
