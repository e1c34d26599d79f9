package cache

import (
	"database/sql"
	"fmt"
	"strings"

	"resticdu/internal/duc"
)

// rootPathID is the virtual sentinel every top-level path component hangs
// off of (spec.md §4.1). No row in `paths` ever has this as its own id.
const rootPathID duc.PathID = 0

// pathInterner implements spec.md §4.1's intern/resolve/parent_of/
// children_of against the `paths` table, scoped to a single transaction so
// concurrent ingestion workers never observe a half-created ancestor
// chain.
type pathInterner struct {
	tx *sql.Tx
}

// intern walks path's components from the root, creating any missing
// (parent_id, component) link with an upsert, and returns the leaf's
// path-id. Idempotent: interning the same path twice returns the same id.
func (p *pathInterner) intern(path string) (duc.PathID, error) {
	parent := rootPathID
	for _, component := range splitPath(path) {
		id, err := p.internOne(parent, component)
		if err != nil {
			return 0, err
		}
		parent = id
	}
	return parent, nil
}

func (p *pathInterner) internOne(parent duc.PathID, component string) (duc.PathID, error) {
	var id duc.PathID
	err := p.tx.QueryRow(`SELECT id FROM paths WHERE parent_id = ? AND component = ?`, parent, component).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("looking up path component %q: %w", component, err)
	}

	res, err := p.tx.Exec(`INSERT INTO paths (parent_id, component) VALUES (?, ?)
		ON CONFLICT (parent_id, component) DO NOTHING`, parent, component)
	if err != nil {
		return 0, fmt.Errorf("inserting path component %q: %w", component, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking insert result for %q: %w", component, err)
	}
	if n == 1 {
		id64, err := res.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("reading new path id for %q: %w", component, err)
		}
		return duc.PathID(id64), nil
	}

	// Lost the race to a concurrent insert of the same (parent, component);
	// the row now exists, read it back.
	if err := p.tx.QueryRow(`SELECT id FROM paths WHERE parent_id = ? AND component = ?`, parent, component).Scan(&id); err != nil {
		return 0, fmt.Errorf("re-reading path component %q after race: %w", component, err)
	}
	return id, nil
}

// splitPath breaks a repository-absolute path into its components,
// forward-slash separated regardless of host OS (spec.md §4.1).
func splitPath(path string) []string {
	normalized := strings.ReplaceAll(path, "\\", "/")
	trimmed := strings.Trim(normalized, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

// resolvePath reconstructs the full path string for id by walking parent
// links to the root and joining components with a forward slash.
func resolvePath(q queryer, id duc.PathID) (string, error) {
	if id == rootPathID {
		return "/", nil
	}
	var components []string
	cur := id
	for cur != rootPathID {
		var parent duc.PathID
		var component string
		err := q.QueryRow(`SELECT parent_id, component FROM paths WHERE id = ?`, cur).Scan(&parent, &component)
		if err == sql.ErrNoRows {
			return "", duc.ErrPathNotFound
		}
		if err != nil {
			return "", fmt.Errorf("resolving path id %d: %w", id, err)
		}
		components = append(components, component)
		cur = parent
	}
	// components were collected leaf-first; reverse to root-first.
	for i, j := 0, len(components)-1; i < j; i, j = i+1, j-1 {
		components[i], components[j] = components[j], components[i]
	}
	return "/" + strings.Join(components, "/"), nil
}

// resolvePathID looks up the path-id for an absolute path string without
// creating anything.
func resolvePathID(q queryer, path string) (duc.PathID, error) {
	parent := rootPathID
	components := splitPath(path)
	if len(components) == 0 {
		return rootPathID, nil
	}
	for _, component := range components {
		var id duc.PathID
		err := q.QueryRow(`SELECT id FROM paths WHERE parent_id = ? AND component = ?`, parent, component).Scan(&id)
		if err == sql.ErrNoRows {
			return 0, duc.ErrPathNotFound
		}
		if err != nil {
			return 0, fmt.Errorf("resolving path %q: %w", path, err)
		}
		parent = id
	}
	return parent, nil
}

// queryer is the subset of *sql.DB / *sql.Tx that read-only path
// operations need, so they work identically inside or outside a
// transaction.
type queryer interface {
	QueryRow(query string, args ...any) *sql.Row
	Query(query string, args ...any) (*sql.Rows, error)
}
