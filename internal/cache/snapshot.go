package cache

import (
	"context"
	"fmt"
	"time"
)

// writerProbeTimeout bounds how long SnapshotTo waits for the writer pool's
// one connection before giving up. It exists so a mirror push run under an
// in-flight ingestion doesn't sit queued behind it for the whole sync; the
// caller is expected to retry the push later instead.
const writerProbeTimeout = 2 * time.Second

// SnapshotTo copies a consistent, point-in-time image of the cache to
// destPath via SQLite's VACUUM INTO, for the mirror push feature. It first
// takes and immediately releases a write transaction against the writer
// pool's single connection as a best-effort check that no ingestion worker
// currently holds it; VACUUM INTO itself must run outside any transaction.
// The probe is bounded by writerProbeTimeout so it fails fast under
// contention instead of queuing indefinitely behind an in-progress sync.
func (c *SQLiteCache) SnapshotTo(destPath string) error {
	ctx, cancel := context.WithTimeout(context.Background(), writerProbeTimeout)
	defer cancel()

	tx, err := c.writeDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("checking for an in-progress writer: %w", err)
	}
	if err := tx.Rollback(); err != nil {
		return fmt.Errorf("releasing write-lock check: %w", err)
	}

	if _, err := c.writeDB.Exec(`VACUUM INTO ?`, destPath); err != nil {
		return fmt.Errorf("snapshotting cache to %s: %w", destPath, err)
	}
	return nil
}
