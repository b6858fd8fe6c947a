package analytics

import (
	"cmp"
	"sort"

	"github.com/rpattn/logstack/internal/domain"
)

// SortUploads orders upload summaries by field and returns the requested
// page. Ties are broken by upload_id ascending.
func SortUploads(summaries []domain.UploadSummary, field domain.UploadSortField, descending bool, page Page) []domain.UploadSummary {
	sorted := make([]domain.UploadSummary, len(summaries))
	copy(sorted, summaries)

	sort.SliceStable(sorted, func(i, j int) bool {
		order := compareUploads(sorted[i], sorted[j], field)
		if order != 0 {
			if descending {
				return order > 0
			}
			return order < 0
		}
		return sorted[i].UploadID < sorted[j].UploadID
	})

	return Paginate(sorted, page)
}

func compareUploads(a, b domain.UploadSummary, field domain.UploadSortField) int {
	switch field {
	case domain.UploadSortFieldUploadID:
		return cmp.Compare(a.UploadID, b.UploadID)
	case domain.UploadSortFieldFileName:
		return cmp.Compare(a.FileName, b.FileName)
	case domain.UploadSortFieldErrorsTotal:
		return cmp.Compare(a.ErrorsTotal, b.ErrorsTotal)
	default:
		return a.CreatedAt.Compare(b.CreatedAt)
	}
}
