// Package logbackend defines the log-backend consumer contract (spec §6)
// and an in-memory reference implementation for tests.
package logbackend

import (
	"context"
	"sync"
	"time"
)

// Record is the immutable log record spec §3 defines.
type Record struct {
	Logger            string
	Thread            string
	Message           string
	Detail            string
	Timestamp         time.Time
	Service           string
	Env               string
	OccurrenceCount24h int

	// RunbookURL optionally points at a GitHub-hosted runbook document
	// for this alert's category. Empty when the source never attaches
	// one; the Ticket Node then tries its resolver's category URL for the
	// error type and otherwise adds no runbook section.
	RunbookURL string

	// LogURL is a deep link back to this record in the log backend's own
	// UI (a Datadog-style saved-view/trace URL). Opaque to the core;
	// carried through to the ticket description verbatim when present.
	LogURL string
}

// Filters bounds a fetch: window, page size, and arbitrary extra filters
// opaque to the core (spec §6 `fetch_logs(service, env, window, limit,
// extra_filters)`).
type Filters struct {
	Service      string
	Env          string
	Window       time.Duration
	Limit        int
	ExtraFilters map[string]string
}

// Fetcher is the log-backend consumer contract.
type Fetcher interface {
	FetchLogs(ctx context.Context, f Filters) ([]Record, error)
}

// InMemoryFetcher is a reference Fetcher for tests: a fixed slice of
// records, paginated by Filters.Limit.
type InMemoryFetcher struct {
	mu      sync.Mutex
	records []Record
}

// NewInMemoryFetcher builds a fetcher seeded with records.
func NewInMemoryFetcher(records []Record) *InMemoryFetcher {
	return &InMemoryFetcher{records: append([]Record(nil), records...)}
}

// Seed appends additional records, for tests that build up state across
// "runs".
func (f *InMemoryFetcher) Seed(records ...Record) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, records...)
}

func (f *InMemoryFetcher) FetchLogs(_ context.Context, filters Filters) ([]Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var matched []Record
	for _, r := range f.records {
		if filters.Service != "" && r.Service != filters.Service {
			continue
		}
		if filters.Env != "" && r.Env != filters.Env {
			continue
		}
		matched = append(matched, r)
	}

	if filters.Limit > 0 && len(matched) > filters.Limit {
		matched = matched[:filters.Limit]
	}
	return matched, nil
}
