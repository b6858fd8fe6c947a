package domain

import (
	"errors"
	"testing"
)

func TestParseSortFieldDefaults(t *testing.T) {
	if field, err := ParseStatsSortField(""); err != nil || field != StatsSortFieldMean {
		t.Fatalf("expected mean, got %q (%v)", field, err)
	}
	if field, err := ParseDiffSortField(" "); err != nil || field != DiffSortFieldImprovements {
		t.Fatalf("expected improvements, got %q (%v)", field, err)
	}
	if field, err := ParseUploadSortField(""); err != nil || field != UploadSortFieldCreatedAt {
		t.Fatalf("expected created_at, got %q (%v)", field, err)
	}
}

func TestParseSortFieldRejectsUnknown(t *testing.T) {
	if _, err := ParseStatsSortField("variance"); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for stats, got %v", err)
	}
	if _, err := ParseDiffSortField("count"); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for diffs, got %v", err)
	}
	if _, err := ParseUploadSortField("prefix"); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for uploads, got %v", err)
	}
}

func TestParseStatsSortFieldAcceptsEveryColumn(t *testing.T) {
	for _, raw := range []string{"count", "mean", "median", "stddev", "min", "max"} {
		field, err := ParseStatsSortField(raw)
		if err != nil {
			t.Errorf("%s: unexpected error %v", raw, err)
			continue
		}
		if string(field) != raw {
			t.Errorf("expected %q, got %q", raw, field)
		}
	}
}
