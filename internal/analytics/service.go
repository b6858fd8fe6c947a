package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/rpattn/logstack/internal/domain"
	"github.com/rpattn/logstack/internal/logger"
	"github.com/rpattn/logstack/internal/repository"
	"github.com/rpattn/logstack/internal/uploadloader"
)

// DefaultAutocompleteLimit caps the candidate prefixes scanned per autocomplete.
const DefaultAutocompleteLimit = 1000

// Observer receives the duration and outcome of every analytics operation.
type Observer interface {
	ObserveAnalytics(operation string, d time.Duration, err error)
}

// Options tunes the Service.
type Options struct {
	AutocompleteLimit int
	DegeneratePolicy  DegeneratePolicy
	Observer          Observer
}

// Service answers analytics queries. Each operation reads from one snapshot
// of the store and runs the in-memory engines over it.
type Service struct {
	store             repository.ErrorRecordRepository
	autocompleteLimit int
	policy            DegeneratePolicy
	observer          Observer
}

// NewService creates a new analytics service.
func NewService(store repository.ErrorRecordRepository, opts Options) *Service {
	if opts.AutocompleteLimit <= 0 {
		opts.AutocompleteLimit = DefaultAutocompleteLimit
	}
	if opts.DegeneratePolicy == "" {
		opts.DegeneratePolicy = DegenerateDefault
	}
	return &Service{
		store:             store,
		autocompleteLimit: opts.AutocompleteLimit,
		policy:            opts.DegeneratePolicy,
		observer:          opts.Observer,
	}
}

// StatsRequest selects the prefixes and ordering of BasicStats.
type StatsRequest struct {
	Query      string
	OrderBy    string
	Descending bool
	Page       Page
}

// TrendsRequest selects the prefixes and page of Trends.
type TrendsRequest struct {
	Query      string
	Descending bool
	Page       Page
}

// DiffsRequest selects the prefixes, uploads and ordering of Diffs.
type DiffsRequest struct {
	Query      string
	UploadIDs  []string
	OrderBy    string
	Descending bool
	Page       Page
}

// CompareRequest names the two uploads to compare.
type CompareRequest struct {
	UploadA string
	UploadB string
	Query   string
	Page    Page
}

// UploadsRequest pages through raw records in insertion order.
type UploadsRequest struct {
	Query string
	Page  Page
}

// AllUploadsRequest pages through upload summaries.
type AllUploadsRequest struct {
	OrderBy    string
	Descending bool
	Page       Page
}

func (s *Service) observe(ctx context.Context, operation string, start time.Time, err error) {
	elapsed := time.Since(start)
	if s.observer != nil {
		s.observer.ObserveAnalytics(operation, elapsed, err)
	}
	event := logger.Get(ctx).Debug()
	if err != nil {
		event = logger.Get(ctx).Warn().Err(err)
	}
	event.Str("operation", operation).Dur("elapsed", elapsed).Msg("analytics query")
}

// matching reads every record selected by query from reader.
func matching(ctx context.Context, reader repository.ErrorRecordReader, query domain.RecordQuery) ([]domain.ErrorRecord, error) {
	records, err := reader.ListRecords(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	return records, nil
}

// BasicStats returns per-prefix descriptive statistics.
func (s *Service) BasicStats(ctx context.Context, req StatsRequest) (result []domain.BasicStat, err error) {
	defer func(start time.Time) { s.observe(ctx, "stats", start, err) }(time.Now())

	field, err := domain.ParseStatsSortField(req.OrderBy)
	if err != nil {
		return nil, err
	}
	err = s.store.ReadSnapshot(ctx, func(reader repository.ErrorRecordReader) error {
		records, err := matching(ctx, reader, domain.RecordQuery{Prefix: req.Query})
		if err != nil {
			return err
		}
		result = BasicStats(records, field, req.Descending, req.Page)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// StatsChart returns statistics bucketed by to_date for charting.
func (s *Service) StatsChart(ctx context.Context, query string) (result []domain.StatsChartPoint, err error) {
	defer func(start time.Time) { s.observe(ctx, "stats_chart", start, err) }(time.Now())

	err = s.store.ReadSnapshot(ctx, func(reader repository.ErrorRecordReader) error {
		records, err := matching(ctx, reader, domain.RecordQuery{Prefix: query})
		if err != nil {
			return err
		}
		result = StatsChart(records, query)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Trends fits a regression line per prefix.
func (s *Service) Trends(ctx context.Context, req TrendsRequest) (result []domain.Trend, err error) {
	defer func(start time.Time) { s.observe(ctx, "trends", start, err) }(time.Now())

	err = s.store.ReadSnapshot(ctx, func(reader repository.ErrorRecordReader) error {
		records, err := matching(ctx, reader, domain.RecordQuery{Prefix: req.Query, Order: domain.OrderByPrefixThenTime})
		if err != nil {
			return err
		}
		result = Trends(records, s.policy, req.Descending, req.Page)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// TrendChart returns the observations and fitted values of one prefix group.
// An empty query charts the root prefix "/".
func (s *Service) TrendChart(ctx context.Context, query string) (result []domain.TrendChartPoint, err error) {
	defer func(start time.Time) { s.observe(ctx, "trend_chart", start, err) }(time.Now())

	if query == "" {
		query = "/"
	}
	err = s.store.ReadSnapshot(ctx, func(reader repository.ErrorRecordReader) error {
		records, err := matching(ctx, reader, domain.RecordQuery{Prefix: query, Order: domain.OrderByTime})
		if err != nil {
			return err
		}
		result = TrendChart(records, query)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Diffs counts improvements and degradations per prefix.
func (s *Service) Diffs(ctx context.Context, req DiffsRequest) (result []domain.DiffCount, err error) {
	defer func(start time.Time) { s.observe(ctx, "diffs", start, err) }(time.Now())

	field, err := domain.ParseDiffSortField(req.OrderBy)
	if err != nil {
		return nil, err
	}
	err = s.store.ReadSnapshot(ctx, func(reader repository.ErrorRecordReader) error {
		records, err := matching(ctx, reader, domain.RecordQuery{
			Prefix:    req.Query,
			UploadIDs: req.UploadIDs,
			Order:     domain.OrderByPrefixThenTime,
		})
		if err != nil {
			return err
		}
		result = Diffs(records, req.UploadIDs, field, req.Descending, req.Page)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CompareResult is one page of comparisons together with the summaries of
// both uploads, all read from the same snapshot.
type CompareResult struct {
	Result  []domain.Comparison               `json:"result"`
	Uploads map[string][]domain.UploadSummary `json:"uploads"`
}

// Compare joins the per-prefix totals of two distinct uploads.
func (s *Service) Compare(ctx context.Context, req CompareRequest) (result CompareResult, err error) {
	defer func(start time.Time) { s.observe(ctx, "compare", start, err) }(time.Now())

	if req.UploadA == req.UploadB {
		return CompareResult{}, fmt.Errorf("%w: upload ids must differ, got %q twice", domain.ErrInvalidArgument, req.UploadA)
	}
	err = s.store.ReadSnapshot(ctx, func(reader repository.ErrorRecordReader) error {
		recordsA, err := matching(ctx, reader, domain.RecordQuery{Prefix: req.Query, UploadIDs: []string{req.UploadA}})
		if err != nil {
			return err
		}
		recordsB, err := matching(ctx, reader, domain.RecordQuery{Prefix: req.Query, UploadIDs: []string{req.UploadB}})
		if err != nil {
			return err
		}
		uploads, err := uploadloader.Load(ctx, uploadloader.NewUploadLoader(reader).Loader, req.UploadA, req.UploadB)
		if err != nil {
			return err
		}
		result = CompareResult{Result: Compare(recordsA, recordsB, req.Page), Uploads: uploads}
		return nil
	})
	if err != nil {
		return CompareResult{}, err
	}
	return result, nil
}

// Autocomplete suggests the next path segments after query.
func (s *Service) Autocomplete(ctx context.Context, query string) (result []string, err error) {
	defer func(start time.Time) { s.observe(ctx, "autocomplete", start, err) }(time.Now())

	err = s.store.ReadSnapshot(ctx, func(reader repository.ErrorRecordReader) error {
		candidates, err := reader.ListPrefixes(ctx, query, s.autocompleteLimit)
		if err != nil {
			return fmt.Errorf("failed to list prefixes: %w", err)
		}
		result = NextSegments(query, candidates)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ListUploads pages through the raw records matching query in insertion order.
func (s *Service) ListUploads(ctx context.Context, req UploadsRequest) (result []domain.ErrorRecord, err error) {
	defer func(start time.Time) { s.observe(ctx, "uploads", start, err) }(time.Now())

	page := NewPage(req.Page.Number, req.Page.Size)
	err = s.store.ReadSnapshot(ctx, func(reader repository.ErrorRecordReader) error {
		records, err := matching(ctx, reader, domain.RecordQuery{
			Prefix: req.Query,
			Order:  domain.OrderByTime,
			Limit:  page.Size,
			Offset: page.Offset(),
		})
		if err != nil {
			return err
		}
		result = records
		return nil
	})
	if err != nil {
		return nil, err
	}
	if result == nil {
		result = []domain.ErrorRecord{}
	}
	return result, nil
}

// ListAllUploads pages through one summary per upload.
func (s *Service) ListAllUploads(ctx context.Context, req AllUploadsRequest) (result []domain.UploadSummary, err error) {
	defer func(start time.Time) { s.observe(ctx, "all_uploads", start, err) }(time.Now())

	field, err := domain.ParseUploadSortField(req.OrderBy)
	if err != nil {
		return nil, err
	}
	err = s.store.ReadSnapshot(ctx, func(reader repository.ErrorRecordReader) error {
		summaries, err := reader.ListUploadSummaries(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to list upload summaries: %w", err)
		}
		result = SortUploads(summaries, field, req.Descending, req.Page)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
