package store

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// FS is the filesystem-backed store. Timestamps are real file modification
// times, so incrementality survives across process invocations.
type FS struct{}

// NewFS creates a filesystem-backed store.
func NewFS() *FS {
	return &FS{}
}

// Stat reports the file's modification time and existence.
func (s *FS) Stat(path string) (time.Time, bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("stat %s: %w", path, err)
	}
	return info.ModTime(), true, nil
}

// Read returns the file's content.
func (s *FS) Read(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// Write streams the producer's output into a temp file in the destination
// directory and renames it into place only after the producer succeeds.
// A producer error or an interrupt therefore never leaves a partial
// artifact that appears newer than its inputs.
func (s *FS) Write(path string, produce func(w io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	// Temp file lives in the same directory so the rename is atomic.
	tmp, err := os.CreateTemp(dir, ".tmp-"+filepath.Base(path)+"-")
	if err != nil {
		return fmt.Errorf("creating temp file in %s: %w", dir, err)
	}
	committed := false
	defer func() {
		if committed {
			return
		}
		tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	if err := produce(tmp); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file for %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("committing %s: %w", path, err)
	}
	committed = true
	return nil
}

// Touch updates the file's timestamp to now, creating it empty if absent.
func (s *FS) Touch(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Dir(path), err)
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
		return f.Close()
	}
	now := time.Now()
	if err := os.Chtimes(path, now, now); err != nil {
		return fmt.Errorf("touching %s: %w", path, err)
	}
	return nil
}
