// Package fingerprintstore implements the persistent fingerprint store
// (spec §3, layout in §6): a single JSON document under
// <cache_dir>/fingerprints/state.json, written atomically (temp file +
// rename) and coordinated across processes with an exclusive/shared
// flock on Unix.
package fingerprintstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"syscall"
	"time"
)

// Entry is one fingerprint's record, per spec §6's documented layout.
type Entry struct {
	FirstSeen   time.Time `json:"first_seen"`
	LastSeen    time.Time `json:"last_seen"`
	Occurrences int       `json:"occurrences"`
	IssueKey    *string   `json:"issue_key"`
}

// Store is the on-disk fingerprint → Entry map. One Store instance is
// shared by every worker in a process; in-process access is guarded by
// mu, cross-process access by an advisory flock around each read-modify-
// write.
type Store struct {
	mu   sync.Mutex
	path string
}

// New opens (without yet reading) the store at <cacheDir>/fingerprints/state.json.
func New(cacheDir string) (*Store, error) {
	dir := filepath.Join(cacheDir, "fingerprints")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("fingerprintstore: create dir: %w", err)
	}
	return &Store{path: filepath.Join(dir, "state.json")}, nil
}

// Lookup satisfies pkg/dedup.PersistentStore: it reports whether
// fingerprint is recorded and returns its issue key; a fingerprint
// recorded by RecordSeen (no issue key) is found with an empty key. The
// read holds a shared flock. A corrupt or unreadable store is treated as
// empty (spec §7 "persistent store corruption"), not an error, so
// strategy 2 degrades to Unique rather than failing the task.
func (s *Store) Lookup(_ context.Context, fingerprint string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if f, err := os.Open(s.path); err == nil {
		defer f.Close() // closing the descriptor releases the lock
		_ = syscall.Flock(int(f.Fd()), syscall.LOCK_SH)
	}

	doc := s.readLocked()
	entry, ok := doc[fingerprint]
	if !ok {
		return "", false
	}
	if entry.IssueKey == nil {
		return "", true
	}
	return *entry.IssueKey, true
}

// RecordCreated inserts fingerprint with the tracker-confirmed issueKey.
// Per spec §4.I's idempotence note, callers MUST call this only AFTER
// the tracker confirms creation, never before.
func (s *Store) RecordCreated(fingerprint, issueKey string) error {
	return s.update(fingerprint, &issueKey)
}

// RecordSeen marks fingerprint as seen without an issue key, used by
// dry-run commits (spec §4.I step 6a) when
// persist_fingerprints_on_dry_run is enabled.
func (s *Store) RecordSeen(fingerprint string) error {
	return s.update(fingerprint, nil)
}

func (s *Store) update(fingerprint string, issueKey *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	unlock, err := s.lockFile()
	if err != nil {
		return err
	}
	defer unlock()

	doc := s.readLocked()
	now := time.Now().UTC()
	entry, exists := doc[fingerprint]
	if !exists {
		entry = Entry{FirstSeen: now}
	}
	entry.LastSeen = now
	entry.Occurrences++
	if issueKey != nil {
		entry.IssueKey = issueKey
	}
	doc[fingerprint] = entry

	return s.writeLocked(doc)
}

func (s *Store) readLocked() map[string]Entry {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("fingerprintstore: read failed, treating store as empty", "error", err)
		}
		return map[string]Entry{}
	}

	var doc map[string]Entry
	if err := json.Unmarshal(raw, &doc); err != nil {
		slog.Warn("fingerprintstore: corrupt store, treating as empty", "error", err)
		return map[string]Entry{}
	}
	return doc
}

func (s *Store) writeLocked(doc map[string]Entry) error {
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("fingerprintstore: encode: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".state-*.tmp")
	if err != nil {
		return fmt.Errorf("fingerprintstore: create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("fingerprintstore: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("fingerprintstore: close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("fingerprintstore: rename temp file: %w", err)
	}
	return nil
}

// lockFile takes an exclusive flock on the state file (creating it if
// absent) and returns a function that releases it.
func (s *Store) lockFile() (func(), error) {
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_RDONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("fingerprintstore: open for lock: %w", err)
	}
	if err := syscall.Flock(int(f.Fd()), syscall.LOCK_EX); err != nil {
		f.Close()
		return nil, fmt.Errorf("fingerprintstore: flock: %w", err)
	}
	return func() {
		syscall.Flock(int(f.Fd()), syscall.LOCK_UN)
		f.Close()
	}, nil
}
