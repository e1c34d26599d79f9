package testutil

import (
	"context"
	"sync"

	"resticdu/internal/duc"
)

// FakeEntryStream is a canned duc.EntryStream over a fixed slice of records.
type FakeEntryStream struct {
	records []duc.EntryRecord
	pos     int
	err     error
	failAt  int // index at which Next() starts returning err instead of the record
}

// NewFakeEntryStream returns a stream that yields records in order and then
// ends cleanly.
func NewFakeEntryStream(records []duc.EntryRecord) *FakeEntryStream {
	return &FakeEntryStream{records: records, failAt: -1}
}

// NewFailingEntryStream returns a stream that yields records[:failAt] and
// then fails with err.
func NewFailingEntryStream(records []duc.EntryRecord, failAt int, err error) *FakeEntryStream {
	return &FakeEntryStream{records: records, failAt: failAt, err: err}
}

func (s *FakeEntryStream) Next() bool {
	if s.failAt >= 0 && s.pos >= s.failAt {
		return false
	}
	if s.pos >= len(s.records) {
		return false
	}
	s.pos++
	return true
}

func (s *FakeEntryStream) Record() duc.EntryRecord { return s.records[s.pos-1] }

func (s *FakeEntryStream) Err() error {
	if s.failAt >= 0 && s.pos >= s.failAt {
		return s.err
	}
	return nil
}

func (s *FakeEntryStream) Close() error { return nil }

// FakeRepository is an in-memory duc.Repository for tests.
type FakeRepository struct {
	mu        sync.Mutex
	Snapshots []duc.SnapshotMeta
	Entries   map[string][]duc.EntryRecord
	// StreamErr, keyed by hash, forces StreamEntries to fail for that hash.
	StreamErr map[string]error
	// StreamOverride, keyed by hash, substitutes a caller-built stream
	// (e.g. one that fails mid-iteration) instead of building one from
	// Entries.
	StreamOverride map[string]duc.EntryStream
	// ListErr, if set, forces ListSnapshots to fail.
	ListErr error
}

// NewFakeRepository returns an empty fake repository.
func NewFakeRepository() *FakeRepository {
	return &FakeRepository{Entries: map[string][]duc.EntryRecord{}, StreamErr: map[string]error{}}
}

func (r *FakeRepository) ListSnapshots(ctx context.Context) ([]duc.SnapshotMeta, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ListErr != nil {
		return nil, r.ListErr
	}
	out := make([]duc.SnapshotMeta, len(r.Snapshots))
	copy(out, r.Snapshots)
	return out, nil
}

func (r *FakeRepository) StreamEntries(ctx context.Context, hash string) (duc.EntryStream, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err, ok := r.StreamErr[hash]; ok {
		return nil, err
	}
	if s, ok := r.StreamOverride[hash]; ok {
		return s, nil
	}
	return NewFakeEntryStream(r.Entries[hash]), nil
}
