package testutil

import "sync"

// ProgressTick records one call to duc.Reporter.ProgressTick.
type ProgressTick struct {
	Done, Total int
}

// FakeReporter records every call it receives instead of printing anything,
// so tests can assert on exactly what the ingestion pipeline reported. Safe
// for concurrent use by multiple ingestion workers.
type FakeReporter struct {
	mu        sync.Mutex
	Started   []string
	Finished  []string
	Ticks     []ProgressTick
	FinishErr map[string]error
}

func NewFakeReporter() *FakeReporter {
	return &FakeReporter{FinishErr: make(map[string]error)}
}

func (r *FakeReporter) Print(string) {}

func (r *FakeReporter) SnapshotStarted(hash string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Started = append(r.Started, hash)
}

func (r *FakeReporter) SnapshotFinished(hash string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Finished = append(r.Finished, hash)
	if err != nil {
		r.FinishErr[hash] = err
	}
}

func (r *FakeReporter) ProgressTick(done, total int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Ticks = append(r.Ticks, ProgressTick{Done: done, Total: total})
}
