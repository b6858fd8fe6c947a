package analytics

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/rpattn/logstack/internal/domain"
)

type summary struct {
	sum    float64
	mean   float64
	median float64
	stddev float64
	min    float64
	max    float64
	n      int
}

// summarize computes sum, mean, median (linear interpolation), population
// standard deviation, min and max. values must be non-empty.
func summarize(values []int64) summary {
	sorted := make([]float64, len(values))
	var sum float64
	for i, v := range values {
		sorted[i] = float64(v)
		sum += float64(v)
	}
	sort.Float64s(sorted)

	n := float64(len(sorted))
	mean := sum / n

	var squares float64
	for _, v := range sorted {
		squares += (v - mean) * (v - mean)
	}

	return summary{
		sum:    sum,
		mean:   mean,
		median: percentile(sorted, 0.5),
		stddev: math.Sqrt(squares / n),
		min:    sorted[0],
		max:    sorted[len(sorted)-1],
		n:      len(sorted),
	}
}

// percentile matches PostgreSQL percentile_cont over an ascending slice.
func percentile(sorted []float64, fraction float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := fraction * float64(len(sorted)-1)
	lower := int(math.Floor(pos))
	upper := int(math.Ceil(pos))
	if lower == upper {
		return sorted[lower]
	}
	return sorted[lower] + (pos-float64(lower))*(sorted[upper]-sorted[lower])
}

// BasicStats groups records by exact prefix, orders the groups by field and
// returns the requested page. Ties are broken by prefix ascending.
func BasicStats(records []domain.ErrorRecord, field domain.StatsSortField, descending bool, page Page) []domain.BasicStat {
	order := []string{}
	groups := make(map[string][]int64)
	for _, record := range records {
		if _, ok := groups[record.Prefix]; !ok {
			order = append(order, record.Prefix)
		}
		groups[record.Prefix] = append(groups[record.Prefix], record.ErrorCount)
	}

	stats := make([]domain.BasicStat, 0, len(order))
	for _, prefix := range order {
		s := summarize(groups[prefix])
		stats = append(stats, domain.BasicStat{
			Prefix:  prefix,
			Count:   s.sum,
			Records: s.n,
			Mean:    s.mean,
			Median:  s.median,
			Stddev:  s.stddev,
			Min:     s.min,
			Max:     s.max,
		})
	}

	sort.SliceStable(stats, func(i, j int) bool {
		a, b := statValue(stats[i], field), statValue(stats[j], field)
		if a != b {
			if descending {
				return a > b
			}
			return a < b
		}
		return stats[i].Prefix < stats[j].Prefix
	})

	return Paginate(stats, page)
}

func statValue(stat domain.BasicStat, field domain.StatsSortField) float64 {
	switch field {
	case domain.StatsSortFieldCount:
		return stat.Count
	case domain.StatsSortFieldMedian:
		return stat.Median
	case domain.StatsSortFieldStddev:
		return stat.Stddev
	case domain.StatsSortFieldMin:
		return stat.Min
	case domain.StatsSortFieldMax:
		return stat.Max
	default:
		return stat.Mean
	}
}

// StatsChart buckets records by to_date, and additionally by the prefix
// truncated to len(query) when a query is given. Only records starting with
// the query as given are counted. Points are ordered by to_date, then prefix.
func StatsChart(records []domain.ErrorRecord, query string) []domain.StatsChartPoint {

	type bucketKey struct {
		prefix string
		toDate int64
	}
	type bucket struct {
		toDate time.Time
		values []int64
	}

	order := []bucketKey{}
	buckets := make(map[bucketKey]*bucket)
	for _, record := range records {
		if !strings.HasPrefix(record.Prefix, query) {
			continue
		}
		key := bucketKey{toDate: record.ToDate.UnixNano()}
		if query != "" {
			key.prefix = truncatePrefix(record.Prefix, len(query))
		}
		b, ok := buckets[key]
		if !ok {
			b = &bucket{toDate: record.ToDate}
			buckets[key] = b
			order = append(order, key)
		}
		b.values = append(b.values, record.ErrorCount)
	}

	sort.SliceStable(order, func(i, j int) bool {
		if order[i].toDate != order[j].toDate {
			return order[i].toDate < order[j].toDate
		}
		return order[i].prefix < order[j].prefix
	})

	points := make([]domain.StatsChartPoint, 0, len(order))
	for _, key := range order {
		b := buckets[key]
		s := summarize(b.values)
		point := domain.StatsChartPoint{
			ToDate: b.toDate,
			Count:  s.sum,
			Mean:   s.mean,
			Median: s.median,
			Stddev: s.stddev,
			Min:    s.min,
			Max:    s.max,
		}
		if query != "" {
			prefix := key.prefix
			point.Prefix = &prefix
		}
		points = append(points, point)
	}
	return points
}

func truncatePrefix(prefix string, length int) string {
	if len(prefix) <= length {
		return prefix
	}
	return prefix[:length]
}
