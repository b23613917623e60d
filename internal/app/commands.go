package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"airbnb_eda/internal/domain"
)

// IngestionService copies a cleaned listings snapshot into the repository.
type IngestionService struct {
	load      LoadFunc
	repo      domain.ListingRepository
	source    string
	workers   int
	batchSize int
}

func NewIngestionService(load LoadFunc, r domain.ListingRepository, source string, workers, batchSize int) *IngestionService {
	if workers < 1 {
		workers = 1
	}
	if batchSize < 1 {
		batchSize = 500
	}
	return &IngestionService{load: load, repo: r, source: source, workers: workers, batchSize: batchSize}
}

// Ingest loads the dataset, upserts it in batches written by a bounded set of
// goroutines and records the snapshot. It returns the number of rows stored.
func (s *IngestionService) Ingest(ctx context.Context) (int, error) {
	df, err := s.load(ctx)
	if err != nil {
		return 0, err
	}
	listings := ToListings(df)
	if len(listings) == 0 {
		return 0, domain.ErrEmptyDataset
	}

	sem := semaphore.NewWeighted(int64(s.workers))
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	for start := 0; start < len(listings); start += s.batchSize {
		end := min(start+s.batchSize, len(listings))

		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			wg.Wait()
			return 0, fmt.Errorf("acquire ingest worker: %w", err)
		}

		wg.Add(1)
		go func(batch []domain.Listing, offset int) {
			defer wg.Done()
			defer sem.Release(1)

			if err := s.repo.UpsertListings(ctx, batch); err != nil {
				log.Warn().Int("offset", offset).Int("rows", len(batch)).Err(err).Msg("batch upsert failed")
				mu.Lock()
				if firstErr == nil {
					firstErr = fmt.Errorf("upsert listings at %d: %w", offset, err)
				}
				mu.Unlock()
				return
			}
			log.Debug().Int("offset", offset).Int("rows", len(batch)).Msg("batch upsert ok")
		}(listings[start:end], start)
	}
	wg.Wait()
	if firstErr != nil {
		return 0, firstErr
	}

	if err := s.repo.RecordSnapshot(ctx, s.source, len(listings)); err != nil {
		return 0, fmt.Errorf("record snapshot: %w", err)
	}
	return len(listings), nil
}
