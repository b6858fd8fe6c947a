package domain

import (
	"fmt"
	"strings"
)

// StatsSortField enumerates the columns basic stats can be ordered by.
type StatsSortField string

const (
	StatsSortFieldCount  StatsSortField = "count"
	StatsSortFieldMean   StatsSortField = "mean"
	StatsSortFieldMedian StatsSortField = "median"
	StatsSortFieldStddev StatsSortField = "stddev"
	StatsSortFieldMin    StatsSortField = "min"
	StatsSortFieldMax    StatsSortField = "max"
)

// DiffSortField enumerates the columns diffs can be ordered by.
type DiffSortField string

const (
	DiffSortFieldImprovements DiffSortField = "improvements"
	DiffSortFieldDegradations DiffSortField = "degradations"
)

// UploadSortField enumerates the columns upload summaries can be ordered by.
type UploadSortField string

const (
	UploadSortFieldUploadID    UploadSortField = "upload_id"
	UploadSortFieldFileName    UploadSortField = "filename"
	UploadSortFieldCreatedAt   UploadSortField = "created_at"
	UploadSortFieldErrorsTotal UploadSortField = "errors_total"
)

// ParseStatsSortField validates a stats order key. Empty selects mean.
func ParseStatsSortField(raw string) (StatsSortField, error) {
	switch field := StatsSortField(strings.TrimSpace(raw)); field {
	case "":
		return StatsSortFieldMean, nil
	case StatsSortFieldCount, StatsSortFieldMean, StatsSortFieldMedian,
		StatsSortFieldStddev, StatsSortFieldMin, StatsSortFieldMax:
		return field, nil
	default:
		return "", fmt.Errorf("%w: order_by must be one of [count mean median stddev min max], got %q", ErrInvalidArgument, raw)
	}
}

// ParseDiffSortField validates a diff order key. Empty selects improvements.
func ParseDiffSortField(raw string) (DiffSortField, error) {
	switch field := DiffSortField(strings.TrimSpace(raw)); field {
	case "":
		return DiffSortFieldImprovements, nil
	case DiffSortFieldImprovements, DiffSortFieldDegradations:
		return field, nil
	default:
		return "", fmt.Errorf("%w: order_by must be one of [improvements degradations], got %q", ErrInvalidArgument, raw)
	}
}

// ParseUploadSortField validates an upload listing order key. Empty selects created_at.
func ParseUploadSortField(raw string) (UploadSortField, error) {
	switch field := UploadSortField(strings.TrimSpace(raw)); field {
	case "":
		return UploadSortFieldCreatedAt, nil
	case UploadSortFieldUploadID, UploadSortFieldFileName, UploadSortFieldCreatedAt, UploadSortFieldErrorsTotal:
		return field, nil
	default:
		return "", fmt.Errorf("%w: order_by must be one of [upload_id filename created_at errors_total], got %q", ErrInvalidArgument, raw)
	}
}
