package analytics

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rpattn/logstack/internal/domain"
)

// DegeneratePolicy decides what happens to a prefix with fewer than two points.
type DegeneratePolicy string

const (
	// DegenerateDefault reports slope=1, intercept=0 for short series.
	DegenerateDefault DegeneratePolicy = "default"
	// DegenerateSkip leaves short series out of the result.
	DegenerateSkip DegeneratePolicy = "skip"
)

const (
	degenerateSlope     = 1.0
	degenerateIntercept = 0.0
)

// ParseDegeneratePolicy validates a configured policy. Empty selects DegenerateDefault.
func ParseDegeneratePolicy(raw string) (DegeneratePolicy, error) {
	switch policy := DegeneratePolicy(strings.ToLower(strings.TrimSpace(raw))); policy {
	case "":
		return DegenerateDefault, nil
	case DegenerateDefault, DegenerateSkip:
		return policy, nil
	default:
		return "", fmt.Errorf("%w: degenerate trend policy must be default or skip, got %q", domain.ErrInvalidArgument, raw)
	}
}

// FitLine fits y = slope*x + intercept by ordinary least squares with
// x = 0..len(ys)-1. ok is false when fewer than two points are given.
func FitLine(ys []float64) (slope, intercept float64, ok bool) {
	n := len(ys)
	if n < 2 {
		return 0, 0, false
	}

	xMean := float64(n-1) / 2
	var yMean float64
	for _, y := range ys {
		yMean += y
	}
	yMean /= float64(n)

	var sxx, sxy float64
	for i, y := range ys {
		dx := float64(i) - xMean
		sxx += dx * dx
		sxy += dx * (y - yMean)
	}

	slope = sxy / sxx
	intercept = yMean - slope*xMean
	return slope, intercept, true
}

// fit applies policy to a series; ok is false when the series must be omitted.
func fit(ys []float64, policy DegeneratePolicy) (slope, intercept float64, ok bool) {
	if slope, intercept, fitted := FitLine(ys); fitted {
		return slope, intercept, true
	}
	if policy == DegenerateSkip {
		return 0, 0, false
	}
	return degenerateSlope, degenerateIntercept, true
}

// sortByPrefixThenTime orders a copy of records by (prefix, created_at, id).
func sortByPrefixThenTime(records []domain.ErrorRecord) []domain.ErrorRecord {
	sorted := make([]domain.ErrorRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Prefix != b.Prefix {
			return a.Prefix < b.Prefix
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
	return sorted
}

// prefixRuns splits records sorted by prefix into contiguous same-prefix runs.
func prefixRuns(sorted []domain.ErrorRecord) [][]domain.ErrorRecord {
	if len(sorted) == 0 {
		return nil
	}
	runs := [][]domain.ErrorRecord{}
	start := 0
	for i := 1; i <= len(sorted); i++ {
		if i == len(sorted) || sorted[i].Prefix != sorted[start].Prefix {
			runs = append(runs, sorted[start:i])
			start = i
		}
	}
	return runs
}

// Trends fits one regression line per prefix over its uploads in time order,
// sorts the lines by prefix and returns the requested page.
func Trends(records []domain.ErrorRecord, policy DegeneratePolicy, descending bool, page Page) []domain.Trend {
	trends := []domain.Trend{}
	for _, run := range prefixRuns(sortByPrefixThenTime(records)) {
		ys := make([]float64, len(run))
		for i, record := range run {
			ys[i] = float64(record.ErrorCount)
		}
		slope, intercept, ok := fit(ys, policy)
		if !ok {
			continue
		}
		trends = append(trends, domain.Trend{
			Prefix:    run[0].Prefix,
			Slope:     slope,
			Intercept: intercept,
			Points:    len(run),
		})
	}

	sort.SliceStable(trends, func(i, j int) bool {
		if descending {
			return trends[i].Prefix > trends[j].Prefix
		}
		return trends[i].Prefix < trends[j].Prefix
	})

	return Paginate(trends, page)
}

type chartRow struct {
	uploadID   string
	group      string
	toDate     time.Time
	createdAt  time.Time
	errorCount int64
}

// TrendChart sums the records starting with query per (upload, prefix
// truncated to len(query), to_date), keeps the rows whose truncated prefix is
// exactly query and pairs each with the fitted value at its index. The query
// is matched as given, so "/a/" never picks up "/ab". Fewer than two rows use
// slope=1, intercept=0.
func TrendChart(records []domain.ErrorRecord, query string) []domain.TrendChartPoint {

	type rowKey struct {
		uploadID string
		group    string
		toDate   int64
	}
	index := make(map[rowKey]int)
	rows := []chartRow{}
	for _, record := range records {
		if !strings.HasPrefix(record.Prefix, query) {
			continue
		}
		group := truncatePrefix(record.Prefix, len(query))
		key := rowKey{record.UploadID, group, record.ToDate.UnixNano()}
		if pos, ok := index[key]; ok {
			rows[pos].errorCount += record.ErrorCount
			if record.CreatedAt.Before(rows[pos].createdAt) {
				rows[pos].createdAt = record.CreatedAt
			}
			continue
		}
		index[key] = len(rows)
		rows = append(rows, chartRow{
			uploadID:   record.UploadID,
			group:      group,
			toDate:     record.ToDate,
			createdAt:  record.CreatedAt,
			errorCount: record.ErrorCount,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if !a.toDate.Equal(b.toDate) {
			return a.toDate.Before(b.toDate)
		}
		if !a.createdAt.Equal(b.createdAt) {
			return a.createdAt.Before(b.createdAt)
		}
		return a.uploadID < b.uploadID
	})

	series := []chartRow{}
	for _, row := range rows {
		if row.group == query {
			series = append(series, row)
		}
	}

	ys := make([]float64, len(series))
	for i, row := range series {
		ys[i] = float64(row.errorCount)
	}
	slope, intercept, _ := fit(ys, DegenerateDefault)

	points := make([]domain.TrendChartPoint, 0, len(series))
	for n, row := range series {
		points = append(points, domain.TrendChartPoint{
			UploadID:   row.uploadID,
			ToDate:     row.toDate,
			ErrorCount: row.errorCount,
			Predict:    slope*float64(n) + intercept,
		})
	}
	return points
}
