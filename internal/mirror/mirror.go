// Package mirror implements the optional shared-cache mirror: pushing a
// point-in-time copy of the local aggregation cache to a shared location,
// and pulling one down, so a teammate analyzing the same repository can
// skip re-running ingestion from scratch.
package mirror

import "io"

// Mirror is the capability set a shared-cache backend provides. Push and
// Pull move the raw cache file (or, when encryption is configured, an
// age-encrypted stream wrapping it) as an opaque blob; the mirror itself
// has no knowledge of the cache's SQLite schema.
type Mirror interface {
	// Push uploads size bytes read from r as the new mirrored artifact,
	// replacing whatever was there before.
	Push(r io.Reader, size int64) error
	// Pull writes the current mirrored artifact to w.
	Pull(w io.Writer) error
	// Validate checks that the backend is reachable without transferring
	// the artifact itself. It does not check that the backend is writable.
	Validate() error
}
