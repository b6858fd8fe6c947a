package uploadloader

import (
	"context"
	"fmt"
	"time"

	"github.com/rpattn/logstack/internal/domain"
	"github.com/rpattn/logstack/internal/repository"

	"github.com/graph-gophers/dataloader"
)

// UploadLoader wraps a dataloader that resolves upload ids to their summaries.
type UploadLoader struct {
	Loader *dataloader.Loader
}

// NewUploadLoader batches upload summary lookups by upload id. Each key
// resolves to the summaries of that upload (more than one when records share
// an upload id across ingestion times) or an empty slice.
func NewUploadLoader(repo repository.ErrorRecordReader) *UploadLoader {
	batchFn := func(ctx context.Context, keys dataloader.Keys) []*dataloader.Result {
		ids := make([]string, len(keys))
		for i, k := range keys {
			ids[i] = k.String()
		}

		summaries, err := repo.ListUploadSummaries(ctx, ids)
		if err != nil {
			results := make([]*dataloader.Result, len(keys))
			for i := range results {
				results[i] = &dataloader.Result{Error: fmt.Errorf("failed to load uploads: %w", err)}
			}
			return results
		}

		byID := make(map[string][]domain.UploadSummary)
		for _, s := range summaries {
			byID[s.UploadID] = append(byID[s.UploadID], s)
		}

		// Build results in the same order as keys
		results := make([]*dataloader.Result, len(keys))
		for i, id := range ids {
			found, ok := byID[id]
			if !ok {
				found = []domain.UploadSummary{}
			}
			results[i] = &dataloader.Result{Data: found}
		}

		return results
	}

	loader := dataloader.NewBatchedLoader(batchFn, dataloader.WithWait(5*time.Millisecond))

	return &UploadLoader{Loader: loader}
}

// Load resolves the summaries of every id, batching them into one query.
func Load(ctx context.Context, loader *dataloader.Loader, ids ...string) (map[string][]domain.UploadSummary, error) {
	keys := dataloader.NewKeysFromStrings(ids)
	values, errs := loader.LoadMany(ctx, keys)()

	out := make(map[string][]domain.UploadSummary, len(ids))
	for i, id := range ids {
		if i < len(errs) && errs[i] != nil {
			return nil, errs[i]
		}
		summaries, ok := values[i].([]domain.UploadSummary)
		if !ok {
			return nil, fmt.Errorf("unexpected loader value %T for upload %s", values[i], id)
		}
		out[id] = summaries
	}
	return out, nil
}
