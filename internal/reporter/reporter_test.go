package reporter

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestTermPrintWritesLine(t *testing.T) {
	var buf bytes.Buffer
	r := NewTerm(&buf, false)
	r.Print("hello")
	if buf.String() != "hello\n" {
		t.Errorf("Print() wrote %q", buf.String())
	}
}

func TestTermNonInteractiveSuppressesStartedAndSuccess(t *testing.T) {
	var buf bytes.Buffer
	r := NewTerm(&buf, false)
	r.SnapshotStarted("abcdef1234567890")
	r.SnapshotFinished("abcdef1234567890", nil)
	if buf.Len() != 0 {
		t.Errorf("non-interactive reporter should stay quiet on success, got %q", buf.String())
	}
}

func TestTermReportsFailuresRegardlessOfInteractivity(t *testing.T) {
	var buf bytes.Buffer
	r := NewTerm(&buf, false)
	r.SnapshotStarted("abcdef1234567890")
	r.SnapshotFinished("abcdef1234567890", errors.New("boom"))
	if !strings.Contains(buf.String(), "abcdef12") || !strings.Contains(buf.String(), "boom") {
		t.Errorf("expected failure to be reported, got %q", buf.String())
	}
}

func TestTermInteractivePrintsProgress(t *testing.T) {
	var buf bytes.Buffer
	r := NewTerm(&buf, true)
	r.SnapshotStarted("abcdef1234567890")
	r.ProgressTick(1, 2)
	r.ProgressTick(2, 2)
	if !strings.Contains(buf.String(), "syncing abcdef12") {
		t.Errorf("expected interactive start line, got %q", buf.String())
	}
	if !strings.Contains(buf.String(), "2/2 snapshots") {
		t.Errorf("expected progress tick, got %q", buf.String())
	}
}

func TestShortHash(t *testing.T) {
	if got := shortHash("abc"); got != "abc" {
		t.Errorf("shortHash(short) = %q", got)
	}
	if got := shortHash("abcdefgh12345"); got != "abcdefgh" {
		t.Errorf("shortHash(long) = %q", got)
	}
}
