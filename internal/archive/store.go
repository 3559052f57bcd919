package archive

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/gofrs/flock"
)

// ProgressStore persists per-target acquisition progress between polls.
// Implementations can be file-backed or in-memory.
type ProgressStore interface {
	// Load returns the stored record, or the all-zero default when no state
	// has been written yet. Unparsable state never aborts a poll; it degrades
	// to the default record.
	Load() (ProgressRecord, error)

	// Save replaces the stored record.
	Save(ProgressRecord) error
}

// FileProgressStore stores the record as JSON in a single file. A sidecar
// flock guards against two processes racing on the same path; concurrent
// pollers against one state path remain unsupported and should be serialized
// by the external trigger.
type FileProgressStore struct {
	path string
	lock *flock.Flock
}

// NewFileProgressStore returns a store backed by the file at path.
func NewFileProgressStore(path string) *FileProgressStore {
	return &FileProgressStore{
		path: path,
		lock: flock.New(path + ".lock"),
	}
}

// Load implements ProgressStore.Load. A file containing only a bare float is
// read as the last-seen timestamp with every other field defaulted; this
// keeps state files written by the earlier single-value format readable
// without migration tooling.
func (s *FileProgressStore) Load() (ProgressRecord, error) {
	if err := s.lock.Lock(); err != nil {
		return ProgressRecord{}, fmt.Errorf("lock state file: %w", err)
	}
	defer s.lock.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return ProgressRecord{}, nil
	}
	if err != nil {
		return ProgressRecord{}, fmt.Errorf("read state file: %w", err)
	}

	return decodeProgressRecord(string(data)), nil
}

// Save implements ProgressStore.Save. The record is written to a temp file
// and renamed into place so a crash mid-write never leaves partial state.
func (s *FileProgressStore) Save(record ProgressRecord) error {
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("lock state file: %w", err)
	}
	defer s.lock.Unlock()

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}

// decodeProgressRecord tries the structured format first, then the legacy
// bare-float format. Content that parses as neither yields the default
// record rather than an error.
func decodeProgressRecord(content string) ProgressRecord {
	content = strings.TrimSpace(content)

	var record ProgressRecord
	if err := json.Unmarshal([]byte(content), &record); err == nil {
		return record
	}

	if ts, err := strconv.ParseFloat(content, 64); err == nil {
		return ProgressRecord{LastTimestamp: ts}
	}

	return ProgressRecord{}
}

// MemoryProgressStore is an in-memory ProgressStore for tests and dry runs.
type MemoryProgressStore struct {
	record ProgressRecord
	saves  int
}

// NewMemoryProgressStore returns an empty in-memory store.
func NewMemoryProgressStore() *MemoryProgressStore {
	return &MemoryProgressStore{}
}

// Load implements ProgressStore.Load.
func (s *MemoryProgressStore) Load() (ProgressRecord, error) {
	return s.record, nil
}

// Save implements ProgressStore.Save.
func (s *MemoryProgressStore) Save(record ProgressRecord) error {
	s.record = record
	s.saves++
	return nil
}

// Saves returns how many times Save has been called.
func (s *MemoryProgressStore) Saves() int {
	return s.saves
}
