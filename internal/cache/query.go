package cache

import (
	"database/sql"
	"fmt"
	"sort"
	"time"

	"resticdu/internal/duc"
)

// ListDirectory answers spec.md §4.6's core aggregation: for every distinct
// child path-id that appears under parent in any snapshot, the max size it
// ever reached, a witness snapshot realizing that size, whether it was
// ever seen as a directory, and whether the resolved path is marked.
// Results are sorted by max_size descending, component ascending on ties.
func (c *SQLiteCache) ListDirectory(parent duc.PathID) ([]duc.DirectoryEntry, error) {
	rows, err := c.readDB.Query(`
		SELECT p.id, p.component, MAX(e.is_dir) AS is_dir, MAX(e.size) AS max_size
		FROM entries e
		JOIN paths p ON p.id = e.path_id
		WHERE p.parent_id = ?
		GROUP BY p.id, p.component`, parent)
	if err != nil {
		return nil, fmt.Errorf("listing directory %d: %w", parent, err)
	}

	type row struct {
		id      duc.PathID
		name    string
		isDir   bool
		maxSize int64
	}
	var base []row
	for rows.Next() {
		var r row
		var isDir int
		if err := rows.Scan(&r.id, &r.name, &isDir, &r.maxSize); err != nil {
			rows.Close()
			return nil, err
		}
		r.isDir = isDir != 0
		base = append(base, r)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	out := make([]duc.DirectoryEntry, 0, len(base))
	for _, r := range base {
		witness, err := c.witnessSnapshot(r.id, r.maxSize)
		if err != nil {
			return nil, fmt.Errorf("finding witness for %q: %w", r.name, err)
		}
		out = append(out, duc.DirectoryEntry{
			PathID:  r.id,
			Name:    r.name,
			IsDir:   r.isDir,
			MaxSize: r.maxSize,
			Witness: witness,
			Marked:  c.marks.isMarked(r.id),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].MaxSize != out[j].MaxSize {
			return out[i].MaxSize > out[j].MaxSize
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

// witnessSnapshot returns the highest snapshot-id whose entry for pathID
// realizes maxSize — the deterministic tie-break spec.md §4.6 requires.
func (c *SQLiteCache) witnessSnapshot(pathID duc.PathID, maxSize int64) (duc.SnapshotID, error) {
	var id duc.SnapshotID
	err := c.readDB.QueryRow(`
		SELECT snapshot_id FROM entries
		WHERE path_id = ? AND size = ?
		ORDER BY snapshot_id DESC LIMIT 1`, pathID, maxSize).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// PathDetails answers spec.md §4.6's path_details query.
func (c *SQLiteCache) PathDetails(id duc.PathID) (duc.PathDetails, error) {
	first, err := c.snapshotByExtreme(id, "ASC")
	if err != nil && err != sql.ErrNoRows {
		return duc.PathDetails{}, fmt.Errorf("finding first snapshot for path %d: %w", id, err)
	}
	last, err := c.snapshotByExtreme(id, "DESC")
	if err != nil && err != sql.ErrNoRows {
		return duc.PathDetails{}, fmt.Errorf("finding last snapshot for path %d: %w", id, err)
	}

	var maxSize int64
	err = c.readDB.QueryRow(`SELECT MAX(size) FROM entries WHERE path_id = ?`, id).Scan(&maxSize)
	if err != nil && err != sql.ErrNoRows {
		return duc.PathDetails{}, fmt.Errorf("finding max size for path %d: %w", id, err)
	}

	var witness *duc.Snapshot
	if first != nil {
		witnessID, werr := c.witnessSnapshot(id, maxSize)
		if werr == nil {
			s, serr := c.snapshotByID(witnessID)
			if serr != nil {
				return duc.PathDetails{}, fmt.Errorf("loading witness snapshot %d: %w", witnessID, serr)
			}
			witness = s
		} else if werr != sql.ErrNoRows {
			return duc.PathDetails{}, fmt.Errorf("finding witness for path %d: %w", id, werr)
		}
	}

	return duc.PathDetails{
		FirstSnapshot: first,
		LastSnapshot:  last,
		WitnessSize:   maxSize,
		Witness:       witness,
	}, nil
}

func (c *SQLiteCache) snapshotByExtreme(pathID duc.PathID, order string) (*duc.Snapshot, error) {
	query := fmt.Sprintf(`
		SELECT s.id FROM entries e
		JOIN snapshots s ON s.id = e.snapshot_id
		WHERE e.path_id = ?
		ORDER BY s.time %s, s.id %s LIMIT 1`, order, order)
	var id duc.SnapshotID
	if err := c.readDB.QueryRow(query, pathID).Scan(&id); err != nil {
		return nil, err
	}
	return c.snapshotByID(id)
}

func (c *SQLiteCache) snapshotByID(id duc.SnapshotID) (*duc.Snapshot, error) {
	var s duc.Snapshot
	var t time.Time
	err := c.readDB.QueryRow(`
		SELECT id, hash, time, tree_hash, host, user, uid, gid, original_id, program_version
		FROM snapshots WHERE id = ?`, id).
		Scan(&s.ID, &s.Hash, &t, &s.TreeHash, &s.Host, &s.User, &s.UID, &s.GID, &s.OriginalID, &s.ProgramVersion)
	if err != nil {
		return nil, err
	}
	s.Time = t
	return &s, nil
}

func (c *SQLiteCache) ResolvePath(path string) (duc.PathID, error) {
	return resolvePathID(c.readDB, path)
}

func (c *SQLiteCache) PathString(id duc.PathID) (string, error) {
	return resolvePath(c.readDB, id)
}

func (c *SQLiteCache) Marks() (map[string]struct{}, error) {
	return c.marks.all(), nil
}

// Mark, Unmark and ClearMarks go through the writer pool: they mutate the
// `marks` table and then resolve the affected path on the very same
// connection, so the resolve is guaranteed to see the write it just made
// rather than racing a reader pool connection's view.
func (c *SQLiteCache) Mark(path string) error {
	if _, err := c.writeDB.Exec(`INSERT INTO marks (path) VALUES (?) ON CONFLICT (path) DO NOTHING`, path); err != nil {
		return fmt.Errorf("marking %q: %w", path, err)
	}
	id, err := resolvePathID(c.writeDB, path)
	c.marks.mark(id, err == nil, path)
	if err != nil && err != duc.ErrPathNotFound {
		return err
	}
	return nil
}

func (c *SQLiteCache) Unmark(path string) error {
	if _, err := c.writeDB.Exec(`DELETE FROM marks WHERE path = ?`, path); err != nil {
		return fmt.Errorf("unmarking %q: %w", path, err)
	}
	id, err := resolvePathID(c.writeDB, path)
	c.marks.unmark(id, err == nil, path)
	if err != nil && err != duc.ErrPathNotFound {
		return err
	}
	return nil
}

func (c *SQLiteCache) ClearMarks() error {
	if _, err := c.writeDB.Exec(`DELETE FROM marks`); err != nil {
		return fmt.Errorf("clearing marks: %w", err)
	}
	c.marks.clear()
	return nil
}

func (c *SQLiteCache) SortedMarks() ([]string, error) {
	return c.marks.sorted(), nil
}
