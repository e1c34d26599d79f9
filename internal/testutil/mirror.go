package testutil

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"resticdu/internal/mirror"
)

// FakeMirror is an in-memory mirror.Mirror, adapted from the teacher's
// in-memory vault for the mirror push/pull round trip.
type FakeMirror struct {
	mu        sync.RWMutex
	artifact  []byte
	ValidateErr error
}

var _ mirror.Mirror = (*FakeMirror)(nil)

func NewFakeMirror() *FakeMirror {
	return &FakeMirror{}
}

func (m *FakeMirror) Push(r io.Reader, size int64) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("reading pushed artifact: %w", err)
	}
	if int64(len(data)) != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, len(data))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.artifact = data
	return nil
}

func (m *FakeMirror) Pull(w io.Writer) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.artifact == nil {
		return fmt.Errorf("no mirrored cache found")
	}
	_, err := io.Copy(w, bytes.NewReader(m.artifact))
	return err
}

func (m *FakeMirror) Validate() error {
	return m.ValidateErr
}
