package duckdb

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ErrInMemoryStore is returned when a snapshot is requested for a store
// that has no backing file.
var ErrInMemoryStore = errors.New("duckdb: in-memory store cannot be snapshotted")

// DBPath returns the database file path. Empty means in-memory.
func (s *Store) DBPath() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dbPath
}

// SnapshotTo writes a consistent copy of the metrics database to dstPath.
// The CHECKPOINT runs under the write lock so no insert lands between the
// flush and the copy start; the copy itself runs unlocked.
func (s *Store) SnapshotTo(dstPath string) error {
	if err := os.MkdirAll(filepath.Dir(dstPath), 0755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	s.mu.Lock()
	src := s.dbPath
	if src == "" {
		s.mu.Unlock()
		return ErrInMemoryStore
	}
	_, err := s.db.Exec("CHECKPOINT")
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}

	if err := copyAtomic(src, dstPath); err != nil {
		return fmt.Errorf("copy database file: %w", err)
	}
	return nil
}

// copyAtomic copies src into a temporary sibling of dst and renames it into
// place, so readers never observe a half-written snapshot.
func copyAtomic(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp := dst + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			out.Close()
			_ = os.Remove(tmp)
		}
	}()

	if _, err = io.Copy(out, in); err != nil {
		return err
	}
	if err = out.Sync(); err != nil {
		return err
	}
	if err = out.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dst)
}
