package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rpattn/logstack/internal/domain"
)

func TestSortUploadsOrdersAndBreaksTies(t *testing.T) {
	summaries := []domain.UploadSummary{
		{UploadID: "c", FileName: "b.txt", CreatedAt: base, ErrorsTotal: 5},
		{UploadID: "a", FileName: "a.txt", CreatedAt: base.Add(time.Hour), ErrorsTotal: 5},
		{UploadID: "b", FileName: "c.txt", CreatedAt: base.Add(2 * time.Hour), ErrorsTotal: 9},
	}
	ids := func(rows []domain.UploadSummary) []string {
		out := make([]string, len(rows))
		for i, r := range rows {
			out[i] = r.UploadID
		}
		return out
	}

	assert.Equal(t, []string{"b", "a", "c"}, ids(SortUploads(summaries, domain.UploadSortFieldCreatedAt, true, Page{})))
	assert.Equal(t, []string{"a", "c", "b"}, ids(SortUploads(summaries, domain.UploadSortFieldErrorsTotal, false, Page{})))
	assert.Equal(t, []string{"a", "c", "b"}, ids(SortUploads(summaries, domain.UploadSortFieldFileName, false, Page{})))
	assert.Equal(t, []string{"b"}, ids(SortUploads(summaries, domain.UploadSortFieldUploadID, false, Page{Number: 2, Size: 1})))
	assert.Equal(t, "c", summaries[0].UploadID)
}
