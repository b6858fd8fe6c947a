package analytics

import (
	"math"
	"testing"

	"github.com/rpattn/logstack/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBasicStatsSingleGroup(t *testing.T) {
	stats := BasicStats(series("/a", 1, 2, 3, 4), domain.StatsSortFieldMean, true, Page{})
	require.Len(t, stats, 1)

	s := stats[0]
	assert.Equal(t, "/a", s.Prefix)
	assert.Equal(t, 10.0, s.Count)
	assert.Equal(t, 4, s.Records)
	assert.Equal(t, 2.5, s.Mean)
	assert.Equal(t, 2.5, s.Median)
	assert.InDelta(t, math.Sqrt(1.25), s.Stddev, 1e-12)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 4.0, s.Max)
}

func TestBasicStatsMedianInterpolates(t *testing.T) {
	stats := BasicStats(series("/a", 7, 1, 3), domain.StatsSortFieldMedian, true, Page{})
	require.Len(t, stats, 1)
	assert.Equal(t, 3.0, stats[0].Median)
	assert.Equal(t, 0.0, BasicStats(series("/b", 4), domain.StatsSortFieldStddev, true, Page{})[0].Stddev)
}

func TestBasicStatsOrdering(t *testing.T) {
	records := append(series("/b", 10, 10), series("/a", 1, 100)...)
	records = append(records, series("/c", 10, 10)...)

	byMax := BasicStats(records, domain.StatsSortFieldMax, true, Page{})
	require.Len(t, byMax, 3)
	assert.Equal(t, "/a", byMax[0].Prefix)
	// /b and /c tie on max and fall back to prefix ascending.
	assert.Equal(t, "/b", byMax[1].Prefix)
	assert.Equal(t, "/c", byMax[2].Prefix)

	byMinAsc := BasicStats(records, domain.StatsSortFieldMin, false, Page{})
	assert.Equal(t, "/a", byMinAsc[0].Prefix)

	paged := BasicStats(records, domain.StatsSortFieldMax, true, Page{Number: 2, Size: 2})
	require.Len(t, paged, 1)
	assert.Equal(t, "/c", paged[0].Prefix)
}

func TestStatsChartBuckets(t *testing.T) {
	records := append(upload("u1", 0, map[string]int64{"/a/x": 2, "/a/y": 4, "/b": 6}), upload("u2", 1, map[string]int64{"/a/x": 8})...)

	all := StatsChart(records, "")
	require.Len(t, all, 2)
	assert.Nil(t, all[0].Prefix)
	assert.Equal(t, 12.0, all[0].Count)
	assert.Equal(t, 4.0, all[0].Mean)
	assert.True(t, all[0].ToDate.Before(all[1].ToDate))

	scoped := StatsChart(domain.FilterByPrefix(records, "/a/"), "/a/")
	require.Len(t, scoped, 2)
	require.NotNil(t, scoped[0].Prefix)
	assert.Equal(t, "/a/", *scoped[0].Prefix)
	assert.Equal(t, 6.0, scoped[0].Count)
	assert.Equal(t, 3.0, scoped[0].Median)
	assert.Equal(t, 8.0, scoped[1].Max)
}

func TestStatsChartTrailingSlashExcludesSibling(t *testing.T) {
	records := append(upload("u1", 0, map[string]int64{"/a/x": 1, "/ab/y": 100}), upload("u2", 1, map[string]int64{"/a/x": 2, "/ab/y": 200})...)

	points := StatsChart(records, "/a/")
	require.Len(t, points, 2)
	for i, want := range []float64{1, 2} {
		require.NotNil(t, points[i].Prefix)
		assert.Equal(t, "/a/", *points[i].Prefix)
		assert.Equal(t, want, points[i].Count)
	}

	grouped := StatsChart(records, "/a")
	require.Len(t, grouped, 2)
	assert.Equal(t, 101.0, grouped[0].Count)
}
