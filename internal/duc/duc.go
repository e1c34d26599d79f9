// Package duc holds the core, storage-agnostic logic of resticdu: the
// snapshot reconciler, the ingestion pipeline, and the small capability
// interfaces (Cache, Repository, Reporter) that let those be tested without
// a real database or a real restic binary.
package duc

import (
	"context"
)

// Cache is the typed interface the synchronization engine and the CLI use
// to talk to the aggregation cache store (spec.md §4.2). Every method is a
// single transaction. Implemented by internal/cache.SQLiteCache.
type Cache interface {
	// IngestSnapshot inserts a new snapshot row, interns every path in
	// records, and inserts every entry, as one transaction (spec.md
	// §4.5 step 4: snapshot atomicity). Returns ErrDuplicateSnapshotHash
	// if the hash already exists; on any other failure nothing is
	// committed.
	IngestSnapshot(meta SnapshotMeta, records []EntryRecord) (SnapshotID, error)

	// GetSnapshots returns every stored snapshot.
	GetSnapshots() ([]Snapshot, error)

	// GetSnapshotHashes returns every stored snapshot's hash mapped to its
	// internal id, so a caller can both reconcile and delete by hash.
	GetSnapshotHashes() (map[string]SnapshotID, error)

	// DeleteSnapshot removes a snapshot and all its Entry rows. Path rows
	// are left in place. Marks are untouched.
	DeleteSnapshot(id SnapshotID) error

	// ListDirectory returns the aggregated children of parent (PathID(0)
	// for the root), sorted by max_size descending then name ascending.
	ListDirectory(parent PathID) ([]DirectoryEntry, error)

	// PathDetails answers the path_details query for a path-id.
	PathDetails(id PathID) (PathDetails, error)

	// ResolvePath returns the interned path-id for an absolute path
	// string, or ErrPathNotFound if it was never interned.
	ResolvePath(path string) (PathID, error)

	// PathString reconstructs the absolute path string for a path-id.
	PathString(id PathID) (string, error)

	// Marks returns the current mark set.
	Marks() (map[string]struct{}, error)

	// Mark adds path to the mark set. Idempotent.
	Mark(path string) error

	// Unmark removes path from the mark set. Idempotent.
	Unmark(path string) error

	// ClearMarks empties the mark set.
	ClearMarks() error

	// SortedMarks returns the mark set in ascending lexicographic order.
	SortedMarks() ([]string, error)

	// Path returns the cache file's location on disk, or ":memory:".
	Path() string

	// Close closes the underlying database connection.
	Close() error
}

// Repository is the capability set the ingestion pipeline drives (spec.md
// §6's "external tool contract"). Implemented by internal/restic.Restic.
type Repository interface {
	// ListSnapshots lists every snapshot's metadata. Fatal for the whole
	// run on failure (spec.md §7).
	ListSnapshots(ctx context.Context) ([]SnapshotMeta, error)

	// StreamEntries opens one snapshot's file listing. The returned
	// stream must be drained to completion or closed via ctx
	// cancellation.
	StreamEntries(ctx context.Context, hash string) (EntryStream, error)
}

// EntryStream is a pull-based iterator over one snapshot's entries,
// mirroring the streaming shape of `restic ls --json`.
type EntryStream interface {
	// Next advances to the next record. Returns false at end of stream or
	// on error; call Err to distinguish the two.
	Next() bool
	Record() EntryRecord
	Err() error
	Close() error
}

// Reporter is the progress-reporting collaborator of spec.md §6, modeled
// after original_source/src/reporter.rs's Reporter/Item/Counter traits.
// Its methods return nothing, so the core never blocks on it or inspects
// a result from it.
type Reporter interface {
	Print(msg string)
	SnapshotStarted(hash string)
	SnapshotFinished(hash string, err error)
	ProgressTick(done, total int)
}

// NullReporter discards everything. Used in tests and in every
// non-interactive run.
type NullReporter struct{}

func (NullReporter) Print(string)                  {}
func (NullReporter) SnapshotStarted(string)         {}
func (NullReporter) SnapshotFinished(string, error) {}
func (NullReporter) ProgressTick(int, int)          {}
