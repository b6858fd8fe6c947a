package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rpattn/logstack/internal/domain"
)

// MemoryStore is an in-process event store with the same semantics as the
// PostgreSQL repository. It backs tests and the server's --memory mode.
type MemoryStore struct {
	mu      sync.RWMutex
	records []domain.ErrorRecord
	logs    []domain.IngestionLogEntry
	nextID  int64
	nextLog int64
	now     func() time.Time
}

// NewMemoryStore creates a store seeded with records. Seeded records keep
// their IDs when set; the rest are numbered in order.
func NewMemoryStore(records ...domain.ErrorRecord) *MemoryStore {
	s := &MemoryStore{now: time.Now}
	for _, record := range records {
		s.insert(record)
	}
	return s
}

func (s *MemoryStore) insert(record domain.ErrorRecord) domain.ErrorRecord {
	if record.ID == 0 {
		s.nextID++
		record.ID = s.nextID
	} else if record.ID > s.nextID {
		s.nextID = record.ID
	}
	s.records = append(s.records, record)
	return record
}

// ReadSnapshot hands fn a copy of the records taken under the read lock.
func (s *MemoryStore) ReadSnapshot(ctx context.Context, fn func(ErrorRecordReader) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(s.snapshot())
}

func (s *MemoryStore) snapshot() memoryReader {
	s.mu.RLock()
	defer s.mu.RUnlock()
	records := make([]domain.ErrorRecord, len(s.records))
	copy(records, s.records)
	return memoryReader{records: records}
}

func (s *MemoryStore) ListRecords(ctx context.Context, query domain.RecordQuery) ([]domain.ErrorRecord, error) {
	return s.snapshot().ListRecords(ctx, query)
}

func (s *MemoryStore) ListPrefixes(ctx context.Context, prefix string, limit int) ([]string, error) {
	return s.snapshot().ListPrefixes(ctx, prefix, limit)
}

func (s *MemoryStore) ListUploadSummaries(ctx context.Context, uploadIDs []string) ([]domain.UploadSummary, error) {
	return s.snapshot().ListUploadSummaries(ctx, uploadIDs)
}

func (s *MemoryStore) Create(ctx context.Context, record domain.ErrorRecord) (domain.ErrorRecord, error) {
	if err := ctx.Err(); err != nil {
		return domain.ErrorRecord{}, err
	}
	if record.Prefix == "" {
		return domain.ErrorRecord{}, fmt.Errorf("failed to create error record: empty prefix")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	record.ID = 0
	return s.insert(record), nil
}

func (s *MemoryStore) CreateBatch(ctx context.Context, records []domain.ErrorRecord) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	for _, record := range records {
		if record.Prefix == "" {
			return 0, fmt.Errorf("failed to copy error records: empty prefix")
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, record := range records {
		record.ID = 0
		s.insert(record)
	}
	return int64(len(records)), nil
}

func (s *MemoryStore) Record(ctx context.Context, entry domain.IngestionLogEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextLog++
	entry.ID = s.nextLog
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now().UTC()
	}
	s.logs = append(s.logs, entry)
	return nil
}

func (s *MemoryStore) List(ctx context.Context, uploadID string, limit int, offset int) ([]domain.IngestionLogEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	limit, offset = normalizeLogWindow(limit, offset)

	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := []domain.IngestionLogEntry{}
	for _, entry := range s.logs {
		if entry.UploadID == uploadID {
			entries = append(entries, entry)
		}
	}
	if offset >= len(entries) {
		return []domain.IngestionLogEntry{}, nil
	}
	end := offset + limit
	if end > len(entries) {
		end = len(entries)
	}
	return entries[offset:end], nil
}

// memoryReader answers queries over an immutable copy of the records.
type memoryReader struct {
	records []domain.ErrorRecord
}

func (r memoryReader) ListRecords(ctx context.Context, query domain.RecordQuery) ([]domain.ErrorRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	records := domain.FilterByUploads(domain.FilterByPrefix(r.records, query.Prefix), query.UploadIDs)

	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if query.Order == domain.OrderByPrefixThenTime && a.Prefix != b.Prefix {
			return a.Prefix < b.Prefix
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})

	if query.Offset > 0 {
		if query.Offset >= len(records) {
			return []domain.ErrorRecord{}, nil
		}
		records = records[query.Offset:]
	}
	if query.Limit > 0 && query.Limit < len(records) {
		records = records[:query.Limit]
	}
	return records, nil
}

func (r memoryReader) ListPrefixes(ctx context.Context, prefix string, limit int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	match := domain.MatchPrefix(prefix)
	seen := make(map[string]struct{})
	prefixes := []string{}
	for _, record := range r.records {
		if _, ok := seen[record.Prefix]; ok || !match(record.Prefix) {
			continue
		}
		seen[record.Prefix] = struct{}{}
		prefixes = append(prefixes, record.Prefix)
	}
	sort.Strings(prefixes)
	if limit > 0 && limit < len(prefixes) {
		prefixes = prefixes[:limit]
	}
	return prefixes, nil
}

func (r memoryReader) ListUploadSummaries(ctx context.Context, uploadIDs []string) ([]domain.UploadSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	records := r.records
	if uploadIDs != nil {
		records = domain.FilterByUploads(records, uploadIDs)
		if len(uploadIDs) == 0 {
			records = nil
		}
	}
	return domain.SummarizeUploads(records), nil
}

var (
	_ ErrorRecordRepository  = (*MemoryStore)(nil)
	_ IngestionLogRepository = (*MemoryStore)(nil)
)
