// Package reporter implements duc.Reporter, the progress-reporting
// collaborator described in original_source/src/reporter.rs. Unlike the
// original's indicatif-based multi-bar display, no progress-bar library
// exists anywhere in the retrieved example pack, so the terminal
// implementation here is a plain, line-oriented writer to stderr.
package reporter

import (
	"fmt"
	"io"
	"sync"

	"resticdu/internal/duc"
)

// Term is a duc.Reporter that writes human-readable progress lines to an
// io.Writer (normally os.Stderr), gated by whether that writer is an
// interactive terminal. On a non-terminal (redirected output, CI), it
// only prints Print messages and SnapshotFinished failures, to avoid
// flooding a log file with per-tick noise.
type Term struct {
	w           io.Writer
	interactive bool

	mu      sync.Mutex
	started map[string]struct{}
}

// NewTerm builds a Term reporter. interactive should be the result of
// golang.org/x/term.IsTerminal on w's file descriptor, decided once by
// the caller (cmd/resticdu) since io.Writer alone doesn't expose one.
func NewTerm(w io.Writer, interactive bool) *Term {
	return &Term{w: w, interactive: interactive, started: make(map[string]struct{})}
}

var _ duc.Reporter = (*Term)(nil)

func (t *Term) Print(msg string) {
	fmt.Fprintln(t.w, msg)
}

func (t *Term) SnapshotStarted(hash string) {
	t.mu.Lock()
	t.started[hash] = struct{}{}
	t.mu.Unlock()
	if t.interactive {
		fmt.Fprintf(t.w, "syncing %s...\n", shortHash(hash))
	}
}

func (t *Term) SnapshotFinished(hash string, err error) {
	t.mu.Lock()
	delete(t.started, hash)
	t.mu.Unlock()

	switch {
	case err != nil:
		fmt.Fprintf(t.w, "snapshot %s failed: %v\n", shortHash(hash), err)
	case t.interactive:
		fmt.Fprintf(t.w, "snapshot %s done\n", shortHash(hash))
	}
}

func (t *Term) ProgressTick(done, total int) {
	if !t.interactive {
		return
	}
	fmt.Fprintf(t.w, "\r%d/%d snapshots", done, total)
	if done == total {
		fmt.Fprintln(t.w)
	}
}

func shortHash(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}
