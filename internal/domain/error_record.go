package domain

import (
	"time"
)

// EventUploadID labels records that arrived through the single-event endpoint
// without an explicit upload.
const EventUploadID = "event"

// ErrorRecord is one immutable error-count measurement for a prefix within an upload.
type ErrorRecord struct {
	ID          int64     `json:"id"`
	UploadID    string    `json:"upload_id"`
	FileName    string    `json:"filename"`
	Prefix      string    `json:"prefix"`
	ErrorCount  int64     `json:"error_count"`
	Environment *string   `json:"environment,omitempty"`
	FromDate    time.Time `json:"from_date"`
	ToDate      time.Time `json:"to_date"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewErrorRecord builds a record for insertion; the store assigns ID.
func NewErrorRecord(uploadID, fileName, prefix string, errorCount int64, from, to, createdAt time.Time) ErrorRecord {
	return ErrorRecord{
		UploadID:   uploadID,
		FileName:   fileName,
		Prefix:     prefix,
		ErrorCount: errorCount,
		FromDate:   from,
		ToDate:     to,
		CreatedAt:  createdAt,
	}
}

// UploadSummary aggregates the records of one upload.
type UploadSummary struct {
	UploadID    string    `json:"upload_id"`
	FileName    string    `json:"filename"`
	CreatedAt   time.Time `json:"created_at"`
	ErrorsTotal int64     `json:"errors_total"`
}

// SummarizeUploads groups records by (upload_id, filename, created_at) and sums
// their error counts. The output order is unspecified.
func SummarizeUploads(records []ErrorRecord) []UploadSummary {
	type uploadKey struct {
		uploadID  string
		fileName  string
		createdAt int64
	}

	index := make(map[uploadKey]int)
	summaries := []UploadSummary{}
	for _, record := range records {
		key := uploadKey{record.UploadID, record.FileName, record.CreatedAt.UnixNano()}
		if pos, ok := index[key]; ok {
			summaries[pos].ErrorsTotal += record.ErrorCount
			continue
		}
		index[key] = len(summaries)
		summaries = append(summaries, UploadSummary{
			UploadID:    record.UploadID,
			FileName:    record.FileName,
			CreatedAt:   record.CreatedAt,
			ErrorsTotal: record.ErrorCount,
		})
	}
	return summaries
}
