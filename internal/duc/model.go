package duc

import "time"

// PathID identifies an interned path. 0 is the root sentinel (spec.md §4.1).
type PathID int64

// SnapshotID is the internal, auto-assigned identity of a Snapshot row.
// The snapshot Hash, not this id, is its external identity.
type SnapshotID int64

// SnapshotMeta is the metadata the external tool reports for one snapshot,
// as returned by its "list snapshots" invocation (spec.md §6).
type SnapshotMeta struct {
	Hash            string
	Time            time.Time
	TreeHash        string
	Host            string
	User            string
	UID             int
	GID             int
	OriginalID      string
	ProgramVersion  string
	Tags            []string
	IncludePaths    []string
	ExcludePatterns []string
}

// Snapshot is a stored Snapshot row (spec.md §3), keyed by its internal id.
type Snapshot struct {
	ID SnapshotID
	SnapshotMeta
}

// EntryKind is a record kind reported by the external tool's per-snapshot
// entry stream (spec.md §4.5): either a regular file or a directory.
type EntryKind int

const (
	EntryFile EntryKind = iota
	EntryDir
)

// EntryRecord is one line of a snapshot's streamed file listing, after
// tolerant parsing (spec.md §4.5): unknown fields are ignored, and records
// with a Kind other than EntryFile/EntryDir are never constructed.
type EntryRecord struct {
	Path string
	Kind EntryKind
	Size int64
}

// DirectoryEntry is one row of a list_directory result (spec.md §4.6).
type DirectoryEntry struct {
	PathID  PathID
	Name    string
	IsDir   bool
	MaxSize int64
	Witness SnapshotID
	Marked  bool
}

// PathDetails answers the path_details query (spec.md §4.6).
type PathDetails struct {
	FirstSnapshot *Snapshot
	LastSnapshot  *Snapshot
	WitnessSize   int64
	Witness       *Snapshot
}
