// Package docstore implements the local content-addressed store of
// ciphertext document blobs, keyed by (file id, document HMAC) per spec
// §4.5. Filenames encode both components so retain() can reconstruct the
// live set without a side index.
package docstore

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/lockbookgo/lbcore/internal/model"
)

// Store is a directory of ciphertext blobs named "<uuid>.<base64url-hmac>".
type Store struct {
	dir    string
	logger *slog.Logger
}

// New opens (creating if absent) a document store rooted at dir.
func New(dir string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("docstore: creating %s: %w", dir, err)
	}
	return &Store{dir: dir, logger: logger}, nil
}

func fileName(id uuid.UUID, hmac [32]byte) string {
	return id.String() + "." + base64.RawURLEncoding.EncodeToString(hmac[:])
}

func parseFileName(name string) (uuid.UUID, [32]byte, bool) {
	parts := strings.SplitN(name, ".", 2)
	if len(parts) != 2 {
		return uuid.UUID{}, [32]byte{}, false
	}

	id, err := uuid.Parse(parts[0])
	if err != nil {
		return uuid.UUID{}, [32]byte{}, false
	}

	raw, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil || len(raw) != 32 {
		return uuid.UUID{}, [32]byte{}, false
	}

	var hmac [32]byte
	copy(hmac[:], raw)
	return id, hmac, true
}

func (s *Store) path(id uuid.UUID, hmac [32]byte) string {
	return filepath.Join(s.dir, fileName(id, hmac))
}

// Insert atomically writes ciphertext under (id, hmac): write to a temp
// file in the same directory, then rename into place. Idempotent — writing
// the same key twice with the same bytes is a no-op in effect.
func (s *Store) Insert(id uuid.UUID, hmac [32]byte, ciphertext []byte) error {
	target := s.path(id, hmac)

	tmp, err := os.CreateTemp(s.dir, "tmp-*")
	if err != nil {
		return fmt.Errorf("docstore: creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(ciphertext); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("docstore: writing %s: %w", target, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("docstore: fsync %s: %w", target, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("docstore: closing temp file: %w", err)
	}

	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("docstore: renaming into place: %w", err)
	}

	return nil
}

// Has reports whether ciphertext is already stored under (id, hmac), so
// callers (the sync engine's downloading phase) can skip a redundant fetch.
func (s *Store) Has(id uuid.UUID, hmac [32]byte) bool {
	_, err := os.Stat(s.path(id, hmac))
	return err == nil
}

// Get reads the ciphertext stored under (id, hmac).
func (s *Store) Get(id uuid.UUID, hmac [32]byte) ([]byte, error) {
	data, err := os.ReadFile(s.path(id, hmac))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, model.New(model.ErrNonexistentDocument, fmt.Sprintf("%s/%x", id, hmac))
	}
	if err != nil {
		return nil, fmt.Errorf("docstore: reading %s: %w", id, err)
	}
	return data, nil
}

// Delete best-effort unlinks the blob at (id, hmac); a missing file is not
// an error.
func (s *Store) Delete(id uuid.UUID, hmac [32]byte) error {
	err := os.Remove(s.path(id, hmac))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("docstore: deleting %s: %w", id, err)
	}
	return nil
}

// LiveKey identifies a blob that must survive a Retain pass.
type LiveKey struct {
	ID   uuid.UUID
	HMAC [32]byte
}

// Retain scans the store directory and deletes every blob whose (id, hmac)
// is not present in live, garbage-collecting documents orphaned by sync
// (spec §3.3, §4.6).
func (s *Store) Retain(live map[LiveKey]bool) (deleted int, err error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("docstore: listing %s: %w", s.dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), "tmp-") {
			continue
		}

		id, hmac, ok := parseFileName(entry.Name())
		if !ok {
			s.logger.Warn("docstore: skipping unrecognized file during retain", "name", entry.Name())
			continue
		}

		if live[LiveKey{ID: id, HMAC: hmac}] {
			continue
		}

		if err := os.Remove(filepath.Join(s.dir, entry.Name())); err != nil {
			return deleted, fmt.Errorf("docstore: removing stale blob %s: %w", entry.Name(), err)
		}
		deleted++
	}

	s.logger.Info("docstore: retain complete", "deleted", deleted, "kept", len(live))
	return deleted, nil
}
