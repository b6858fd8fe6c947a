package domain

import (
	"testing"
	"time"
)

func TestMatchPrefix(t *testing.T) {
	cases := []struct {
		query  string
		prefix string
		want   bool
	}{
		{"", "/anything", true},
		{"/", "/anything", true},
		{"/api", "/api/users", true},
		{"/api/", "/api/users", true},
		{"/api/", "/api", true},
		{"/api", "/apiv2", true},
		{"/API", "/api/users", false},
		{"/web", "/api/users", false},
	}

	for _, tc := range cases {
		if got := MatchPrefix(tc.query)(tc.prefix); got != tc.want {
			t.Errorf("MatchPrefix(%q)(%q) = %v, want %v", tc.query, tc.prefix, got, tc.want)
		}
	}
}

func TestFilterByUploads(t *testing.T) {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	records := []ErrorRecord{
		NewErrorRecord("u1", "f", "/a", 1, at, at, at),
		NewErrorRecord("u2", "f", "/a", 1, at, at, at),
		NewErrorRecord("u3", "f", "/a", 1, at, at, at),
	}

	if got := FilterByUploads(records, nil); len(got) != 3 {
		t.Fatalf("expected empty set to keep all records, got %d", len(got))
	}
	got := FilterByUploads(records, []string{"u3", "u1"})
	if len(got) != 2 || got[0].UploadID != "u1" || got[1].UploadID != "u3" {
		t.Fatalf("expected u1 and u3 in input order, got %+v", got)
	}
}

func TestSummarizeUploads(t *testing.T) {
	first := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	second := first.Add(time.Hour)
	records := []ErrorRecord{
		NewErrorRecord("u1", "a.folded", "/a", 2, first, first, first),
		NewErrorRecord("u1", "a.folded", "/b", 3, first, first, first),
		NewErrorRecord("u1", "a.folded", "/a", 4, first, first, second),
		NewErrorRecord("u2", "b.csv", "/a", 5, first, first, second),
	}

	summaries := SummarizeUploads(records)
	if len(summaries) != 3 {
		t.Fatalf("expected 3 groups, got %d: %+v", len(summaries), summaries)
	}
	if summaries[0].UploadID != "u1" || summaries[0].ErrorsTotal != 5 {
		t.Fatalf("expected first group u1 with 5 errors, got %+v", summaries[0])
	}
	if summaries[1].ErrorsTotal != 4 || !summaries[1].CreatedAt.Equal(second) {
		t.Fatalf("expected a separate group for the second created_at, got %+v", summaries[1])
	}
}
