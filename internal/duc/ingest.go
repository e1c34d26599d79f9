package duc

import (
	"context"
	"fmt"
	"sync"
)

// Syncer drives one reconcile-then-ingest run against a cache and a
// repository: it deletes snapshots the repository no longer has, then
// ingests snapshots the cache doesn't have yet, using up to Concurrency
// worker goroutines (spec.md §4.4, §4.5).
type Syncer struct {
	Cache       Cache
	Repository  Repository
	Concurrency int // J, default 4
	Logger      Logger
	Reporter    Reporter
	IDGen       IDGenerator
}

// SyncResult summarizes one run for the caller (CLI status line, tests).
type SyncResult struct {
	Added   []string
	Deleted []string
	Failed  map[string]error
}

// Sync performs one reconcile-then-ingest cycle. It returns as soon as the
// repository's snapshot list and hash set have been fetched, deletions
// completed, and every add attempted; per-snapshot ingestion failures are
// reported in the result rather than returned as the overall error (spec.md
// §4.5: "other snapshots continue"). The overall error is non-nil only for
// failures that make the whole run meaningless: listing snapshots, reading
// the cache's hash set, or deleting a snapshot the repository no longer has.
func (s *Syncer) Sync(ctx context.Context) (SyncResult, error) {
	runID := s.IDGen.New()
	j := s.Concurrency
	if j <= 0 {
		j = 4
	}

	metas, err := s.Repository.ListSnapshots(ctx)
	if err != nil {
		return SyncResult{}, fmt.Errorf("listing repository snapshots: %w", err)
	}
	byHash := make(map[string]SnapshotMeta, len(metas))
	repoHashes := make([]string, 0, len(metas))
	for _, m := range metas {
		byHash[m.Hash] = m
		repoHashes = append(repoHashes, m.Hash)
	}

	cacheHashes, err := s.Cache.GetSnapshotHashes()
	if err != nil {
		return SyncResult{}, fmt.Errorf("reading cache snapshot hashes: %w", err)
	}
	cacheSet := make(map[string]struct{}, len(cacheHashes))
	for h := range cacheHashes {
		cacheSet[h] = struct{}{}
	}

	plan := Reconcile(repoHashes, cacheSet)
	result := SyncResult{Failed: make(map[string]error)}

	for _, hash := range plan.ToDelete {
		id, ok := cacheHashes[hash]
		if !ok {
			continue
		}
		if err := s.Cache.DeleteSnapshot(id); err != nil {
			return result, fmt.Errorf("deleting snapshot %s: %w", hash, err)
		}
		result.Deleted = append(result.Deleted, hash)
		s.Logger.Info("snapshot removed", "run", runID, "hash", hash)
	}

	work := make(chan string, len(plan.ToAdd))
	for _, hash := range plan.ToAdd {
		work <- hash
	}
	close(work)

	var (
		mu        sync.Mutex
		wg        sync.WaitGroup
		completed int
	)
	total := len(plan.ToAdd)
	workers := j
	if workers > total {
		workers = total
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for hash := range work {
				select {
				case <-ctx.Done():
					mu.Lock()
					result.Failed[hash] = ErrCancelled
					completed++
					s.Reporter.ProgressTick(completed, total)
					mu.Unlock()
					continue
				default:
				}
				err := s.ingestOne(ctx, runID, byHash[hash])
				mu.Lock()
				if err != nil {
					result.Failed[hash] = err
				} else {
					result.Added = append(result.Added, hash)
				}
				completed++
				s.Reporter.ProgressTick(completed, total)
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	return result, nil
}

// ingestOne ingests a single snapshot: streams its entries from the
// repository and hands them to the cache as one ingestion transaction
// (spec.md §4.5 step 4).
func (s *Syncer) ingestOne(ctx context.Context, runID string, meta SnapshotMeta) error {
	s.Reporter.SnapshotStarted(meta.Hash)

	stream, err := s.Repository.StreamEntries(ctx, meta.Hash)
	if err != nil {
		werr := fmt.Errorf("streaming entries for snapshot %s: %w", meta.Hash, err)
		s.Reporter.SnapshotFinished(meta.Hash, werr)
		s.Logger.Error("ingestion failed", "run", runID, "hash", meta.Hash, "err", werr)
		return werr
	}
	defer stream.Close()

	var records []EntryRecord
	for stream.Next() {
		select {
		case <-ctx.Done():
			s.Reporter.SnapshotFinished(meta.Hash, ErrCancelled)
			return ErrCancelled
		default:
		}
		records = append(records, stream.Record())
	}
	if err := stream.Err(); err != nil {
		werr := fmt.Errorf("parsing entries for snapshot %s: %w", meta.Hash, err)
		s.Reporter.SnapshotFinished(meta.Hash, werr)
		s.Logger.Error("ingestion failed", "run", runID, "hash", meta.Hash, "err", werr)
		return werr
	}

	if _, err := s.Cache.IngestSnapshot(meta, records); err != nil {
		werr := fmt.Errorf("ingesting snapshot %s: %w", meta.Hash, err)
		s.Reporter.SnapshotFinished(meta.Hash, werr)
		s.Logger.Error("ingestion failed", "run", runID, "hash", meta.Hash, "err", werr)
		return werr
	}

	s.Reporter.SnapshotFinished(meta.Hash, nil)
	s.Logger.Info("snapshot ingested", "run", runID, "hash", meta.Hash, "entries", len(records))
	return nil
}
