package analytics

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rpattn/logstack/internal/domain"
	"github.com/rpattn/logstack/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	operations []string
	failures   int
}

func (o *recordingObserver) ObserveAnalytics(operation string, _ time.Duration, err error) {
	o.operations = append(o.operations, operation)
	if err != nil {
		o.failures++
	}
}

type failingStore struct {
	repository.ErrorRecordRepository
}

func (failingStore) ReadSnapshot(context.Context, func(repository.ErrorRecordReader) error) error {
	return errors.New("connection refused")
}

func seededService(t *testing.T, opts Options) *Service {
	t.Helper()
	var records []domain.ErrorRecord
	records = append(records, upload("u1", 0, map[string]int64{"/a/x": 10, "/a/y": 5, "/b": 1})...)
	records = append(records, upload("u2", 1, map[string]int64{"/a/x": 7, "/a/y": 5, "/a/z/q": 1})...)
	records = append(records, upload("u3", 2, map[string]int64{"/a/x": 9})...)
	return NewService(repository.NewMemoryStore(records...), opts)
}

func TestServiceBasicStats(t *testing.T) {
	svc := seededService(t, Options{})
	ctx := context.Background()

	stats, err := svc.BasicStats(ctx, StatsRequest{Query: "/a/", OrderBy: "max", Descending: true})
	require.NoError(t, err)
	require.Len(t, stats, 3)
	assert.Equal(t, "/a/x", stats[0].Prefix)
	assert.Equal(t, 26.0, stats[0].Count)
	assert.Equal(t, 3, stats[0].Records)

	_, err = svc.BasicStats(ctx, StatsRequest{OrderBy: "prefix"})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestServiceTrendsAndChart(t *testing.T) {
	obs := &recordingObserver{}
	svc := seededService(t, Options{DegeneratePolicy: DegenerateSkip, Observer: obs})
	ctx := context.Background()

	trends, err := svc.Trends(ctx, TrendsRequest{Query: "/a", Descending: false})
	require.NoError(t, err)
	require.Len(t, trends, 2)
	assert.Equal(t, "/a/x", trends[0].Prefix)
	assert.InDelta(t, -0.5, trends[0].Slope, 1e-12)
	assert.Equal(t, "/a/y", trends[1].Prefix)
	assert.InDelta(t, 0, trends[1].Slope, 1e-12)

	chart, err := svc.TrendChart(ctx, "/a/x")
	require.NoError(t, err)
	require.Len(t, chart, 3)
	assert.Equal(t, int64(7), chart[1].ErrorCount)

	root, err := svc.TrendChart(ctx, "")
	require.NoError(t, err)
	require.Len(t, root, 3)
	assert.Equal(t, []int64{16, 13, 9}, []int64{root[0].ErrorCount, root[1].ErrorCount, root[2].ErrorCount})

	assert.Equal(t, []string{"trends", "trend_chart", "trend_chart"}, obs.operations)
	assert.Zero(t, obs.failures)
}

func TestServiceDiffs(t *testing.T) {
	svc := seededService(t, Options{})

	diffs, err := svc.Diffs(context.Background(), DiffsRequest{Query: "/a/x", Descending: true})
	require.NoError(t, err)
	assert.Equal(t, []domain.DiffCount{{Prefix: "/a/x", Improvements: 1, Degradations: 1}}, diffs)

	diffs, err = svc.Diffs(context.Background(), DiffsRequest{Query: "/a/x", UploadIDs: []string{"u1", "u3"}})
	require.NoError(t, err)
	assert.Equal(t, []domain.DiffCount{{Prefix: "/a/x", Improvements: 1}}, diffs)

	_, err = svc.Diffs(context.Background(), DiffsRequest{OrderBy: "delta"})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestServiceCompare(t *testing.T) {
	svc := seededService(t, Options{})

	compared, err := svc.Compare(context.Background(), CompareRequest{UploadA: "u1", UploadB: "u2"})
	require.NoError(t, err)
	assert.Equal(t, []domain.Comparison{
		{Prefix: "/a/x", ErrorCountA: 10, ErrorCountB: 7, Delta: -3},
		{Prefix: "/a/y", ErrorCountA: 5, ErrorCountB: 5, Delta: 0},
	}, compared.Result)
	require.Len(t, compared.Uploads["u1"], 1)
	require.Len(t, compared.Uploads["u2"], 1)
	assert.Equal(t, "u2", compared.Uploads["u2"][0].UploadID)

	_, err = svc.Compare(context.Background(), CompareRequest{UploadA: "u1", UploadB: "u1"})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestServiceAutocomplete(t *testing.T) {
	svc := seededService(t, Options{})

	segments, err := svc.Autocomplete(context.Background(), "/a/")
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y", "z/"}, segments)

	limited := seededService(t, Options{AutocompleteLimit: 1})
	segments, err = limited.Autocomplete(context.Background(), "/a/")
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, segments)
}

func TestServiceUploadListings(t *testing.T) {
	svc := seededService(t, Options{})
	ctx := context.Background()

	records, err := svc.ListUploads(ctx, UploadsRequest{Query: "/a/x", Page: Page{Number: 2, Size: 2}})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "u3", records[0].UploadID)

	empty, err := svc.ListUploads(ctx, UploadsRequest{Query: "/none"})
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	summaries, err := svc.ListAllUploads(ctx, AllUploadsRequest{Descending: true})
	require.NoError(t, err)
	require.Len(t, summaries, 3)
	assert.Equal(t, "u3", summaries[0].UploadID)

	byTotal, err := svc.ListAllUploads(ctx, AllUploadsRequest{OrderBy: "errors_total", Descending: true})
	require.NoError(t, err)
	assert.Equal(t, "u1", byTotal[0].UploadID)
	assert.Equal(t, int64(16), byTotal[0].ErrorsTotal)

	_, err = svc.ListAllUploads(ctx, AllUploadsRequest{OrderBy: "size"})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestServiceReadsAreIdempotent(t *testing.T) {
	svc := seededService(t, Options{})
	ctx := context.Background()

	run := func() []byte {
		stats, err := svc.BasicStats(ctx, StatsRequest{OrderBy: "mean", Descending: true})
		require.NoError(t, err)
		trends, err := svc.Trends(ctx, TrendsRequest{Descending: true})
		require.NoError(t, err)
		diffs, err := svc.Diffs(ctx, DiffsRequest{Descending: true})
		require.NoError(t, err)
		chart, err := svc.StatsChart(ctx, "/a")
		require.NoError(t, err)
		out, err := json.Marshal([]any{stats, trends, diffs, chart})
		require.NoError(t, err)
		return out
	}

	assert.Equal(t, run(), run())
}

func TestServiceWrapsStoreFailures(t *testing.T) {
	obs := &recordingObserver{}
	svc := NewService(failingStore{}, Options{Observer: obs})

	_, err := svc.Autocomplete(context.Background(), "/a")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrInvalidArgument)
	assert.Equal(t, 1, obs.failures)
}

func TestServiceTrendChartMatchesQueryAsGiven(t *testing.T) {
	var records []domain.ErrorRecord
	records = append(records, upload("u1", 0, map[string]int64{"/a/x": 1, "/ab/y": 100, "worker": 40})...)
	records = append(records, upload("u2", 1, map[string]int64{"/a/x": 2, "/ab/y": 200})...)
	svc := NewService(repository.NewMemoryStore(records...), Options{})
	ctx := context.Background()

	chart, err := svc.TrendChart(ctx, "/a/")
	require.NoError(t, err)
	require.Len(t, chart, 2)
	assert.Equal(t, int64(1), chart[0].ErrorCount)
	assert.Equal(t, int64(2), chart[1].ErrorCount)

	root, err := svc.TrendChart(ctx, "")
	require.NoError(t, err)
	require.Len(t, root, 2)
	assert.Equal(t, int64(101), root[0].ErrorCount)
	assert.Equal(t, int64(202), root[1].ErrorCount)

	explicit, err := svc.TrendChart(ctx, "/")
	require.NoError(t, err)
	assert.Equal(t, root, explicit)
}

func TestServiceListUploadsPastTheEnd(t *testing.T) {
	svc := seededService(t, Options{})

	rows, err := svc.ListUploads(context.Background(), UploadsRequest{Page: Page{Number: 1 << 62, Size: 4}})
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)

	summaries, err := svc.ListAllUploads(context.Background(), AllUploadsRequest{Page: Page{Number: 1 << 62, Size: 4}})
	require.NoError(t, err)
	assert.Empty(t, summaries)
}
