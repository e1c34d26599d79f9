package testutil

import (
	"sort"
	"sync"

	"resticdu/internal/duc"
)

// FakeCache is an in-memory duc.Cache for tests that don't need real SQL
// (the reconciler and ingestion pipeline only need the interface).
type FakeCache struct {
	mu        sync.Mutex
	nextID    duc.SnapshotID
	snapshots map[duc.SnapshotID]duc.Snapshot
	entries   map[duc.SnapshotID][]duc.EntryRecord
	marks     map[string]struct{}

	// IngestErr, keyed by hash, forces IngestSnapshot to fail for that hash.
	IngestErr map[string]error
}

func NewFakeCache() *FakeCache {
	return &FakeCache{
		snapshots: map[duc.SnapshotID]duc.Snapshot{},
		entries:   map[duc.SnapshotID][]duc.EntryRecord{},
		marks:     map[string]struct{}{},
		IngestErr: map[string]error{},
	}
}

func (c *FakeCache) IngestSnapshot(meta duc.SnapshotMeta, records []duc.EntryRecord) (duc.SnapshotID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err, ok := c.IngestErr[meta.Hash]; ok {
		return 0, err
	}
	for _, s := range c.snapshots {
		if s.Hash == meta.Hash {
			return 0, duc.ErrDuplicateSnapshotHash
		}
	}
	c.nextID++
	id := c.nextID
	c.snapshots[id] = duc.Snapshot{ID: id, SnapshotMeta: meta}
	c.entries[id] = append([]duc.EntryRecord(nil), records...)
	return id, nil
}

func (c *FakeCache) GetSnapshots() ([]duc.Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]duc.Snapshot, 0, len(c.snapshots))
	for _, s := range c.snapshots {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (c *FakeCache) GetSnapshotHashes() (map[string]duc.SnapshotID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]duc.SnapshotID, len(c.snapshots))
	for id, s := range c.snapshots {
		out[s.Hash] = id
	}
	return out, nil
}

func (c *FakeCache) DeleteSnapshot(id duc.SnapshotID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.snapshots, id)
	delete(c.entries, id)
	return nil
}

func (c *FakeCache) ListDirectory(parent duc.PathID) ([]duc.DirectoryEntry, error) {
	return nil, nil
}

func (c *FakeCache) PathDetails(id duc.PathID) (duc.PathDetails, error) {
	return duc.PathDetails{}, nil
}

func (c *FakeCache) ResolvePath(path string) (duc.PathID, error) {
	return 0, duc.ErrPathNotFound
}

func (c *FakeCache) PathString(id duc.PathID) (string, error) {
	return "", duc.ErrPathNotFound
}

func (c *FakeCache) Marks() (map[string]struct{}, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]struct{}, len(c.marks))
	for m := range c.marks {
		out[m] = struct{}{}
	}
	return out, nil
}

func (c *FakeCache) Mark(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.marks[path] = struct{}{}
	return nil
}

func (c *FakeCache) Unmark(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.marks, path)
	return nil
}

func (c *FakeCache) ClearMarks() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.marks = map[string]struct{}{}
	return nil
}

func (c *FakeCache) SortedMarks() ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.marks))
	for m := range c.marks {
		out = append(out, m)
	}
	sort.Strings(out)
	return out, nil
}

func (c *FakeCache) Path() string { return ":memory:" }

func (c *FakeCache) Close() error { return nil }

// EntryCount returns the number of entries stored for id, for test
// assertions.
func (c *FakeCache) EntryCount(id duc.SnapshotID) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries[id])
}
