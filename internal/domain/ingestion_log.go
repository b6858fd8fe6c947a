package domain

import (
	"time"
)

// IngestionLogEntry captures a line that could not be ingested.
type IngestionLogEntry struct {
	ID           int64     `json:"id"`
	UploadID     string    `json:"upload_id"`
	FileName     string    `json:"filename"`
	LineNumber   *int      `json:"line_number,omitempty"`
	ErrorMessage string    `json:"error_message"`
	CreatedAt    time.Time `json:"created_at"`
}
