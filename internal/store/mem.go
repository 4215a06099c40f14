package store

import (
	"bytes"
	"fmt"
	"io"
	"sync"
	"time"
)

// Mem is an in-memory store driven by a virtual logical clock: every write
// or touch happens one tick after the previous one, so "strictly newer"
// comparisons are exact and tests never have to sleep to separate
// modification times.
type Mem struct {
	mu      sync.Mutex
	clock   int64
	entries map[string]memEntry
}

type memEntry struct {
	data  []byte
	mtime time.Time
}

// NewMem creates an empty in-memory store.
func NewMem() *Mem {
	return &Mem{entries: make(map[string]memEntry)}
}

// tick advances the virtual clock and returns the new instant.
// Callers must hold mu.
func (s *Mem) tick() time.Time {
	s.clock++
	return time.Unix(s.clock, 0)
}

// Stat reports the entry's virtual modification time and existence.
func (s *Mem) Stat(path string) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[path]
	if !ok {
		return time.Time{}, false, nil
	}
	return e.mtime, true, nil
}

// Read returns the entry's content.
func (s *Mem) Read(path string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[path]
	if !ok {
		return nil, fmt.Errorf("read %s: entry does not exist", path)
	}
	out := make([]byte, len(e.data))
	copy(out, e.data)
	return out, nil
}

// Write buffers the producer's output and commits it as a single entry only
// if the producer succeeds, mirroring the FS temp-file-then-rename behavior.
func (s *Mem) Write(path string, produce func(w io.Writer) error) error {
	var buf bytes.Buffer
	if err := produce(&buf); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[path] = memEntry{data: buf.Bytes(), mtime: s.tick()}
	return nil
}

// Touch bumps the entry's timestamp to the next tick, creating it empty
// if absent.
func (s *Mem) Touch(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entries[path]
	e.mtime = s.tick()
	if e.data == nil {
		e.data = []byte{}
	}
	s.entries[path] = e
	return nil
}
