// Package audit implements the append-only per-log audit sink (spec §3,
// layout in §6): one JSON line per task outcome, written to
// <cache_dir>/audit_logs.jsonl.
package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Action is the terminal outcome of a per-log task.
type Action string

const (
	ActionCreate   Action = "create"
	ActionComment  Action = "comment"
	ActionSkip     Action = "skip"
	ActionSimulate Action = "simulate"
	ActionCap      Action = "cap"
	ActionError    Action = "error"
)

// Record is one audit line, per spec §3.
type Record struct {
	ID           string    `json:"id"`
	Timestamp    time.Time `json:"timestamp"`
	Service      string    `json:"service"`
	Env          string    `json:"env"`
	Fingerprint  string    `json:"fingerprint"`
	Action       Action    `json:"action"`
	StrategyName string    `json:"strategy_name,omitempty"`
	IssueKey     string    `json:"issue_key,omitempty"`
	Severity     string    `json:"severity,omitempty"`
	ErrorType    string    `json:"error_type,omitempty"`
	Reason       string    `json:"reason,omitempty"`
	DurationMS   int64     `json:"duration_ms"`
}

// SummaryRecord closes out a run with aggregate counters, a supplement
// beyond the per-log schema so a run's audit file is self-describing
// without replaying every line.
type SummaryRecord struct {
	ID                string    `json:"id"`
	Timestamp         time.Time `json:"timestamp"`
	Kind              string    `json:"kind"`
	RunID             string    `json:"run_id"`
	LogsFetched       int64     `json:"logs_fetched"`
	TicketsCreated    int64     `json:"tickets_created"`
	CommentsAdded     int64     `json:"comments_added"`
	InRunDuplicates   int64     `json:"in_run_duplicates"`
	PersistentDuplicates int64  `json:"persistent_duplicates"`
	CapsHit           int64     `json:"caps_hit"`
	Errors            int64     `json:"errors"`
	DurationMS        int64     `json:"duration_ms"`
}

// Sink appends records to a single JSONL file. Concurrent tasks call
// Write from multiple goroutines; mu serializes the writes so lines
// never interleave.
type Sink struct {
	mu   sync.Mutex
	file *os.File
}

// Open appends to (creating if absent) <cacheDir>/audit_logs.jsonl.
func Open(cacheDir string) (*Sink, error) {
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("audit: create cache dir: %w", err)
	}
	f, err := os.OpenFile(fmt.Sprintf("%s/audit_logs.jsonl", cacheDir), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("audit: open audit log: %w", err)
	}
	return &Sink{file: f}, nil
}

// Close closes the underlying file.
func (s *Sink) Close() error {
	return s.file.Close()
}

// Write appends rec as one JSON line, assigning an ID and timestamp if
// unset.
func (s *Sink) Write(rec Record) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	return s.appendLine(rec)
}

// WriteSummary appends the closing per-run summary line.
func (s *Sink) WriteSummary(rec SummaryRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	rec.Kind = "run_summary"
	return s.appendLine(rec)
}

func (s *Sink) appendLine(v any) error {
	line, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("audit: encode record: %w", err)
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.file.Write(line); err != nil {
		return fmt.Errorf("audit: write record: %w", err)
	}
	return nil
}
