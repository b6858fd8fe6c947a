package uploadloader

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rpattn/logstack/internal/domain"
	"github.com/rpattn/logstack/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingReader struct {
	repository.ErrorRecordReader
	mu    sync.Mutex
	calls [][]string
	err   error
}

func (r *countingReader) ListUploadSummaries(ctx context.Context, ids []string) ([]domain.UploadSummary, error) {
	r.mu.Lock()
	r.calls = append(r.calls, ids)
	r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	return r.ErrorRecordReader.ListUploadSummaries(ctx, ids)
}

func TestLoadBatchesLookups(t *testing.T) {
	created := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	store := repository.NewMemoryStore(
		domain.NewErrorRecord("u1", "a.txt", "/a", 3, created, created, created),
		domain.NewErrorRecord("u1", "a.txt", "/b", 4, created, created, created),
		domain.NewErrorRecord("u2", "b.txt", "/a", 1, created, created, created.Add(time.Hour)),
	)
	reader := &countingReader{ErrorRecordReader: store}
	loader := NewUploadLoader(reader).Loader

	uploads, err := Load(context.Background(), loader, "u1", "u2", "missing")
	require.NoError(t, err)

	require.Len(t, uploads["u1"], 1)
	assert.Equal(t, int64(7), uploads["u1"][0].ErrorsTotal)
	assert.Equal(t, "b.txt", uploads["u2"][0].FileName)
	assert.NotNil(t, uploads["missing"])
	assert.Empty(t, uploads["missing"])
	assert.Len(t, reader.calls, 1)
}

func TestLoadPropagatesErrors(t *testing.T) {
	reader := &countingReader{ErrorRecordReader: repository.NewMemoryStore(), err: errors.New("down")}
	_, err := Load(context.Background(), NewUploadLoader(reader).Loader, "u1")
	assert.ErrorContains(t, err, "down")
}
