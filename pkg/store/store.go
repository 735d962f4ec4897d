// Package store owns the on-disk store document. Every operation loads
// the full document from disk and mutating operations rewrite it whole,
// so the persisted form is always a complete snapshot and state survives
// process restarts without any in-memory session cache.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	apperrors "github.com/entrhq/chronos/pkg/errors"
	"github.com/entrhq/chronos/pkg/models"
)

// FileName is the store document file name inside the data directory.
const FileName = "time_server_data.json"

// FileStore persists the store document as a single JSON file.
//
// Mutations are serialized by a process-local mutex: this design assumes
// a single active server process per store path. Concurrent writers from
// other processes are an operational constraint, not a supported mode.
type FileStore struct {
	path string
	mu   sync.RWMutex
}

// NewFileStore creates a store backed by the document file inside dir.
// The directory must already exist and be writable (the storage locator
// guarantees both at startup).
func NewFileStore(dir string) *FileStore {
	return &FileStore{path: filepath.Join(dir, FileName)}
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

// Read loads the current document from disk. A missing file is the
// expected first-run state and yields an empty document; a file that
// exists but fails to parse is a storage error, never silent data loss.
func (s *FileStore) Read() (*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.load()
}

// Write persists the document atomically: the new serialized form is
// written to a temporary file and renamed over the previous one, so a
// crash mid-write leaves either the old or the new complete snapshot.
func (s *FileStore) Write(doc *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(doc)
}

// Mutate runs fn against the current document and persists the result
// as one logical unit. At most one mutation proceeds at a time, which
// prevents two near-simultaneous operations from reading the same stale
// snapshot and losing one of the updates.
func (s *FileStore) Mutate(fn func(*models.Document) error) (*models.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	if err := fn(doc); err != nil {
		return nil, err
	}
	if err := s.save(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *FileStore) load() (*models.Document, error) {
	b, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return models.NewDocument(), nil
	}
	if err != nil {
		return nil, apperrors.NewStorageError(fmt.Sprintf("read store file %s", s.path), err)
	}

	var doc models.Document
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, apperrors.NewStorageError(
			fmt.Sprintf("store file %s is corrupt", s.path), err)
	}
	if doc.Activities == nil {
		doc.Activities = make(map[string]*models.Activity)
	}
	if doc.Reminders == nil {
		doc.Reminders = make(map[string]*models.Reminder)
	}
	return &doc, nil
}

func (s *FileStore) save(doc *models.Document) error {
	doc.SchemaVersion = models.SchemaVersion

	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return apperrors.NewStorageError("encode store document", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return apperrors.NewStorageError(fmt.Sprintf("write temp store file %s", tmp), err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp) // best-effort cleanup
		return apperrors.NewStorageError(fmt.Sprintf("replace store file %s", s.path), err)
	}
	return nil
}
