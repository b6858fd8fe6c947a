package analytics

import (
	"sort"

	"github.com/rpattn/logstack/internal/domain"
)

// Compare inner-joins the per-prefix totals of two uploads. Prefixes present
// in only one upload are dropped. Rows are ordered by |delta| descending, then
// prefix ascending.
func Compare(recordsA, recordsB []domain.ErrorRecord, page Page) []domain.Comparison {
	totalsA, _ := totalsByPrefix(recordsA)
	totalsB, orderB := totalsByPrefix(recordsB)

	comparisons := []domain.Comparison{}
	for _, prefix := range orderB {
		a, ok := totalsA[prefix]
		if !ok {
			continue
		}
		b := totalsB[prefix]
		comparisons = append(comparisons, domain.Comparison{
			Prefix:      prefix,
			ErrorCountA: a,
			ErrorCountB: b,
			Delta:       b - a,
		})
	}

	sort.SliceStable(comparisons, func(i, j int) bool {
		a, b := abs(comparisons[i].Delta), abs(comparisons[j].Delta)
		if a != b {
			return a > b
		}
		return comparisons[i].Prefix < comparisons[j].Prefix
	})

	return Paginate(comparisons, page)
}

func totalsByPrefix(records []domain.ErrorRecord) (map[string]int64, []string) {
	totals := make(map[string]int64)
	order := []string{}
	for _, record := range records {
		if _, ok := totals[record.Prefix]; !ok {
			order = append(order, record.Prefix)
		}
		totals[record.Prefix] += record.ErrorCount
	}
	return totals, order
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
