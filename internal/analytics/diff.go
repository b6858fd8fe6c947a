package analytics

import (
	"sort"

	"github.com/rpattn/logstack/internal/domain"
)

// Diffs counts, per prefix, how often error_count decreased (improvement) or
// increased (degradation) between consecutive uploads. The upload restriction
// is applied before pairing, so excluded uploads do not split a series.
func Diffs(records []domain.ErrorRecord, uploadIDs []string, field domain.DiffSortField, descending bool, page Page) []domain.DiffCount {
	counts := []domain.DiffCount{}
	for _, run := range prefixRuns(sortByPrefixThenTime(domain.FilterByUploads(records, uploadIDs))) {
		count := domain.DiffCount{Prefix: run[0].Prefix}
		for i := 1; i < len(run); i++ {
			delta := run[i].ErrorCount - run[i-1].ErrorCount
			switch {
			case delta < 0:
				count.Improvements++
			case delta > 0:
				count.Degradations++
			}
		}
		counts = append(counts, count)
	}

	sort.SliceStable(counts, func(i, j int) bool {
		a, b := diffValue(counts[i], field), diffValue(counts[j], field)
		if a != b {
			if descending {
				return a > b
			}
			return a < b
		}
		return counts[i].Prefix < counts[j].Prefix
	})

	return Paginate(counts, page)
}

func diffValue(count domain.DiffCount, field domain.DiffSortField) int {
	if field == domain.DiffSortFieldDegradations {
		return count.Degradations
	}
	return count.Improvements
}
