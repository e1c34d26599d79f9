package cache

import (
	"database/sql"
	"fmt"
	"sort"
	"sync"

	"github.com/RoaringBitmap/roaring"

	"resticdu/internal/duc"
)

// markSet accelerates list_directory's mark_flag column (spec.md §4.6)
// with an in-memory RoaringBitmap of interned path-ids that are currently
// marked. The `marks` table (keyed by path text) remains the single
// source of truth; this bitmap is a derived index, rebuilt from it on
// open and kept in sync as marks and paths change. It is never itself
// persisted.
type markSet struct {
	mu     sync.RWMutex
	bitmap *roaring.Bitmap
	// text is the same source-of-truth set of marked path strings the
	// `marks` table holds, kept in memory so newly interned paths can be
	// checked against it without a round trip.
	text map[string]struct{}
}

// loadMarkSet rebuilds the bitmap from the `marks` table and whatever
// paths are already interned.
func loadMarkSet(db *sql.DB) (*markSet, error) {
	rows, err := db.Query(`SELECT path FROM marks`)
	if err != nil {
		return nil, fmt.Errorf("loading marks: %w", err)
	}
	defer rows.Close()

	ms := &markSet{bitmap: roaring.New(), text: map[string]struct{}{}}
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, err
		}
		ms.text[path] = struct{}{}
		id, err := resolvePathID(db, path)
		if err == nil {
			ms.bitmap.Add(uint32(id))
		} else if err != duc.ErrPathNotFound {
			return nil, err
		}
	}
	return ms, rows.Err()
}

func (m *markSet) isMarked(id duc.PathID) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.bitmap.Contains(uint32(id))
}

// syncIfMarked is called after a path is freshly interned, so a mark set
// before that path ever appeared in the repository still applies as soon
// as the path exists.
func (m *markSet) syncIfMarked(path string, id duc.PathID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.text[path]; ok {
		m.bitmap.Add(uint32(id))
	}
}

// mark records path as marked and, when found reports that the caller
// already resolved it to path-id id, adds id to the bitmap immediately.
func (m *markSet) mark(id duc.PathID, found bool, path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text[path] = struct{}{}
	if found {
		m.bitmap.Add(uint32(id))
	}
}

func (m *markSet) unmark(id duc.PathID, found bool, path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.text, path)
	if found {
		m.bitmap.Remove(uint32(id))
	}
}

func (m *markSet) clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text = map[string]struct{}{}
	m.bitmap.Clear()
}

func (m *markSet) all() map[string]struct{} {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]struct{}, len(m.text))
	for p := range m.text {
		out[p] = struct{}{}
	}
	return out
}

func (m *markSet) sorted() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.text))
	for p := range m.text {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
