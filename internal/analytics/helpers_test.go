package analytics

import (
	"time"

	"github.com/rpattn/logstack/internal/domain"
)

var base = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

// upload returns the records of one upload created day days after base.
func upload(id string, day int, counts map[string]int64) []domain.ErrorRecord {
	created := base.Add(time.Duration(day) * 24 * time.Hour)
	records := make([]domain.ErrorRecord, 0, len(counts))
	for prefix, count := range counts {
		records = append(records, domain.NewErrorRecord(id, id+".txt", prefix, count, created.Add(-24*time.Hour), created, created))
	}
	return records
}

// series returns one record per value for prefix, each in its own upload.
func series(prefix string, values ...int64) []domain.ErrorRecord {
	records := make([]domain.ErrorRecord, 0, len(values))
	for i, v := range values {
		created := base.Add(time.Duration(i) * time.Hour)
		record := domain.NewErrorRecord("u"+string(rune('a'+i)), "f.txt", prefix, v, created, created, created)
		record.ID = int64(i + 1)
		records = append(records, record)
	}
	return records
}
