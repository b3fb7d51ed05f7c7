// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache persists abstract records as one JSON file per record.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pdiddy/pubmed-harvester/pkg/types"
)

// CorruptEntryError reports a cache file whose contents do not parse into a
// valid record. Callers treat it as a cache miss and re-fetch; the next
// Save overwrites the bad file.
type CorruptEntryError struct {
	ID  string
	Err error
}

func (e *CorruptEntryError) Error() string {
	return fmt.Sprintf("corrupt cache entry %s: %v", e.ID, e.Err)
}

func (e *CorruptEntryError) Unwrap() error { return e.Err }

// Store maps record identifiers to JSON files under a single directory.
// Files are keyed uniquely by identifier, so concurrent writes for
// different records never touch the same file.
type Store struct {
	dir string
}

// NewStore returns a Store rooted at dir. The directory is created lazily
// on first Save.
func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Path returns the cache file path for id.
func (s *Store) Path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

// Exists reports whether a cache file for id is present.
func (s *Store) Exists(id string) bool {
	_, err := os.Stat(s.Path(id))
	return err == nil
}

// Load reads and parses the cache file for id. Malformed JSON or a record
// missing its required fields yields a CorruptEntryError.
func (s *Store) Load(id string) (*types.Record, error) {
	data, err := os.ReadFile(s.Path(id))
	if err != nil {
		return nil, fmt.Errorf("reading cache entry %s: %w", id, err)
	}

	var rec types.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, &CorruptEntryError{ID: id, Err: err}
	}
	if rec.ID == "" || rec.Title == "" {
		return nil, &CorruptEntryError{ID: id, Err: fmt.Errorf("missing required fields")}
	}
	return &rec, nil
}

// Save serializes rec to the cache file for id, creating the cache
// directory if absent. Any prior content is replaced. A crash mid-write
// may leave a truncated file; Load rejects it as corrupt and the record is
// re-fetched on the next run.
func (s *Store) Save(id string, rec *types.Record) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating cache directory %s: %w", s.dir, err)
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling record %s: %w", id, err)
	}
	if err := os.WriteFile(s.Path(id), data, 0o644); err != nil {
		return fmt.Errorf("writing cache entry %s: %w", id, err)
	}
	return nil
}
