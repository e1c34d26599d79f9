// Package cache implements resticdu's persistent aggregation cache: an
// embedded SQLite store fronted by a path interner, a mark set, and the
// directory-listing aggregation queries the rest of the program reads
// through.
package cache

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"resticdu/internal/cache/migrations"
	"resticdu/internal/duc"
)

// SQLiteCache implements duc.Cache on top of a single SQLite file (or
// ":memory:" for tests), split into a single-connection writer pool and a
// multi-connection reader pool so ls/details/marks queries never queue
// behind an in-flight ingestion transaction (spec.md §4.2: "one writer at a
// time, many readers concurrently").
type SQLiteCache struct {
	writeDB *sql.DB
	readDB  *sql.DB
	path    string
	marks   *markSet
}

var _ duc.Cache = (*SQLiteCache)(nil)

// pragmaDSN builds the DSN query string common to both pools: foreign keys
// enforced, normal synchronous flushing, and a busy_timeout so a reader that
// does race a writer's commit waits briefly instead of failing outright.
// WAL journaling is requested for real files only; SQLite doesn't support
// WAL for ":memory:" databases.
func pragmaDSN(path string) string {
	q := "_foreign_keys=1&_synchronous=NORMAL&_busy_timeout=5000"
	if path != ":memory:" {
		q += "&_journal_mode=WAL"
	}
	return q
}

// dsnFor returns the writer and reader DSNs for path. Both point at the same
// underlying database; only the writer DSN adds `_txlock=immediate`, which
// makes every `sql.Tx` opened against it acquire SQLite's write lock at BEGIN
// rather than at the first write statement. In-memory databases need
// `cache=shared` so the two pools (and every connection within the reader
// pool) see the same in-process database instead of each getting its own
// private one.
func dsnFor(path string) (writeDSN, readDSN string) {
	if path == ":memory:" {
		base := "file::memory:?cache=shared&" + pragmaDSN(path)
		return base + "&_txlock=immediate", base
	}
	base := fmt.Sprintf("file:%s?%s", path, pragmaDSN(path))
	return base + "&_txlock=immediate", base
}

// Open opens (creating and migrating if necessary) the cache file at path.
func Open(path string) (*SQLiteCache, error) {
	writeDSN, readDSN := dsnFor(path)

	writeDB, err := sql.Open("sqlite3", writeDSN)
	if err != nil {
		return nil, fmt.Errorf("opening cache %s: %w", path, err)
	}
	// Exactly one physical connection, so every write transaction goes
	// through the same immediate-lock-configured connection and ingestion
	// transactions never interleave on the driver side.
	writeDB.SetMaxOpenConns(1)

	readDB, err := sql.Open("sqlite3", readDSN)
	if err != nil {
		writeDB.Close()
		return nil, fmt.Errorf("opening cache %s for reads: %w", path, err)
	}
	// Several read connections, so ls/details/marks queries proceed
	// concurrently with an in-flight ingestion write via SQLite's WAL
	// readers instead of queuing behind it.
	readDB.SetMaxOpenConns(4)

	if err := migrations.CheckAndMigrate(writeDB); err != nil {
		writeDB.Close()
		readDB.Close()
		return nil, fmt.Errorf("migrating cache schema: %w", err)
	}

	ms, err := loadMarkSet(writeDB)
	if err != nil {
		writeDB.Close()
		readDB.Close()
		return nil, fmt.Errorf("loading mark set: %w", err)
	}

	return &SQLiteCache{writeDB: writeDB, readDB: readDB, path: path, marks: ms}, nil
}

func (c *SQLiteCache) Path() string { return c.path }

func (c *SQLiteCache) Close() error {
	var writeErr, readErr error
	if c.writeDB != nil {
		writeErr = c.writeDB.Close()
	}
	if c.readDB != nil {
		readErr = c.readDB.Close()
	}
	if writeErr != nil {
		return writeErr
	}
	return readErr
}

// IngestSnapshot inserts the snapshot row and every entry as one
// transaction (spec.md §4.5 step 4, §3's snapshot-atomicity invariant).
func (c *SQLiteCache) IngestSnapshot(meta duc.SnapshotMeta, records []duc.EntryRecord) (duc.SnapshotID, error) {
	tx, err := c.writeDB.Begin()
	if err != nil {
		return 0, fmt.Errorf("starting ingestion transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		INSERT INTO snapshots (hash, time, tree_hash, host, user, uid, gid, original_id, program_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		meta.Hash, meta.Time.UTC(), meta.TreeHash, meta.Host, meta.User, meta.UID, meta.GID, meta.OriginalID, meta.ProgramVersion)
	if err != nil {
		if isUniqueConstraintErr(err) {
			return 0, duc.ErrDuplicateSnapshotHash
		}
		return 0, fmt.Errorf("inserting snapshot: %w", err)
	}
	id64, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading new snapshot id: %w", err)
	}
	id := duc.SnapshotID(id64)

	for _, tag := range meta.Tags {
		if _, err := tx.Exec(`INSERT INTO snapshot_tags (snapshot_id, tag) VALUES (?, ?)`, id, tag); err != nil {
			return 0, fmt.Errorf("inserting tag: %w", err)
		}
	}
	for _, p := range meta.IncludePaths {
		if _, err := tx.Exec(`INSERT INTO snapshot_include_paths (snapshot_id, path) VALUES (?, ?)`, id, p); err != nil {
			return 0, fmt.Errorf("inserting include path: %w", err)
		}
	}
	for _, p := range meta.ExcludePatterns {
		if _, err := tx.Exec(`INSERT INTO snapshot_exclude_patterns (snapshot_id, pattern) VALUES (?, ?)`, id, p); err != nil {
			return 0, fmt.Errorf("inserting exclude pattern: %w", err)
		}
	}

	interner := &pathInterner{tx: tx}
	interned := make(map[string]duc.PathID, len(records))
	for _, rec := range records {
		pathID, err := interner.intern(rec.Path)
		if err != nil {
			return 0, fmt.Errorf("interning path %q: %w", rec.Path, err)
		}
		interned[rec.Path] = pathID
		isDir := 0
		if rec.Kind == duc.EntryDir {
			isDir = 1
		}
		if _, err := tx.Exec(`INSERT INTO entries (snapshot_id, path_id, size, is_dir) VALUES (?, ?, ?, ?)`,
			id, pathID, rec.Size, isDir); err != nil {
			return 0, fmt.Errorf("inserting entry for %q: %w", rec.Path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing ingestion transaction: %w", err)
	}

	// Only now that the paths are durably committed can newly-interned
	// paths that happen to already be marked be reflected in the bitmap.
	for path, pathID := range interned {
		c.marks.syncIfMarked(path, pathID)
	}
	return id, nil
}

func (c *SQLiteCache) GetSnapshots() ([]duc.Snapshot, error) {
	rows, err := c.readDB.Query(`
		SELECT id, hash, time, tree_hash, host, user, uid, gid, original_id, program_version
		FROM snapshots ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying snapshots: %w", err)
	}
	defer rows.Close()

	var out []duc.Snapshot
	for rows.Next() {
		var s duc.Snapshot
		var t time.Time
		if err := rows.Scan(&s.ID, &s.Hash, &t, &s.TreeHash, &s.Host, &s.User, &s.UID, &s.GID, &s.OriginalID, &s.ProgramVersion); err != nil {
			return nil, fmt.Errorf("scanning snapshot: %w", err)
		}
		s.Time = t
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		tags, err := c.stringsWhere("SELECT tag FROM snapshot_tags WHERE snapshot_id = ?", out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Tags = tags
		inc, err := c.stringsWhere("SELECT path FROM snapshot_include_paths WHERE snapshot_id = ?", out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].IncludePaths = inc
		exc, err := c.stringsWhere("SELECT pattern FROM snapshot_exclude_patterns WHERE snapshot_id = ?", out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].ExcludePatterns = exc
	}
	return out, nil
}

func (c *SQLiteCache) stringsWhere(query string, id duc.SnapshotID) ([]string, error) {
	rows, err := c.readDB.Query(query, id)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", query, err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (c *SQLiteCache) GetSnapshotHashes() (map[string]duc.SnapshotID, error) {
	rows, err := c.readDB.Query(`SELECT id, hash FROM snapshots`)
	if err != nil {
		return nil, fmt.Errorf("querying snapshot hashes: %w", err)
	}
	defer rows.Close()

	out := map[string]duc.SnapshotID{}
	for rows.Next() {
		var id duc.SnapshotID
		var hash string
		if err := rows.Scan(&id, &hash); err != nil {
			return nil, err
		}
		out[hash] = id
	}
	return out, rows.Err()
}

// DeleteSnapshot removes the snapshot row; ON DELETE CASCADE removes its
// entries and auxiliary tag/include/exclude rows. Path rows are untouched
// (spec.md §4.2).
func (c *SQLiteCache) DeleteSnapshot(id duc.SnapshotID) error {
	tx, err := c.writeDB.Begin()
	if err != nil {
		return fmt.Errorf("starting delete transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM snapshots WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting snapshot %d: %w", id, err)
	}
	return tx.Commit()
}

func isUniqueConstraintErr(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrConstraint
	}
	return false
}
