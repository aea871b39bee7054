package dedup

import (
	"sync"
	"time"
)

// RunState is the per-process mutable aggregate shared by every worker
// during a single pipeline run. All access goes through its mutex; callers
// never read created_fingerprints or the counters directly. Grounded on
// the teacher's per-resource-mutex discipline (pool/worker state guarded
// by a single embedded sync.Mutex, never accessed field-by-field from
// outside).
type RunState struct {
	mu sync.Mutex

	maxTicketsPerRun  int
	ticketsCreated    int
	createdFingerprints map[string]bool
	seenLoghashes       map[string]bool
	commentTimestamps   map[string]time.Time

	Stats Statistics
}

// Statistics are the atomically-reported counters of spec §4.J. Reads and
// writes happen under RunState.mu alongside the state they summarize, so
// they don't additionally need atomic.Int64 — the mutex already
// linearizes every mutation.
type Statistics struct {
	LogsFetched          int64
	InRunDuplicates      int64
	PersistentDuplicates int64
	LoghashMatches       int64
	ErrorTypeMatches     int64
	SimilarityMatches    int64
	TicketsCreated       int64
	CommentsAdded        int64
	CapsHit              int64
	Errors               int64
}

// NewRunState builds a fresh run state with the given per-run ticket cap.
func NewRunState(maxTicketsPerRun int) *RunState {
	return &RunState{
		maxTicketsPerRun:    maxTicketsPerRun,
		createdFingerprints: make(map[string]bool),
		seenLoghashes:       make(map[string]bool),
		commentTimestamps:   make(map[string]time.Time),
	}
}

// MarkLoghashSeen is strategy 1's atomic check-and-insert: loghash (not
// the classification-dependent fingerprint, since strategy 1 runs before
// analysis — spec §4.D/§4.E) is recorded the first time it appears in
// this run. Returns true if loghash was already seen earlier in the run
// (this occurrence is an in-run duplicate), false on its first
// appearance.
func (rs *RunState) MarkLoghashSeen(loghash string) bool {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if rs.seenLoghashes[loghash] {
		return true
	}
	rs.seenLoghashes[loghash] = true
	return false
}

// TicketsCreated returns the current count, guarded.
func (rs *RunState) TicketsCreated() int {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.ticketsCreated
}

// MaxTicketsPerRun returns the configured cap.
func (rs *RunState) MaxTicketsPerRun() int {
	return rs.maxTicketsPerRun
}

// TryReserveSlot is the single critical section mandated by spec §5: check
// cap and record the fingerprint as created in one atomic step. Returns
// false without reserving anything if the cap is already reached or the
// fingerprint was already reserved by a concurrent worker; a cap
// rejection also increments Stats.CapsHit.
func (rs *RunState) TryReserveSlot(fingerprint string) bool {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.createdFingerprints[fingerprint] {
		return false
	}
	if rs.ticketsCreated >= rs.maxTicketsPerRun {
		rs.Stats.CapsHit++
		return false
	}
	rs.createdFingerprints[fingerprint] = true
	rs.ticketsCreated++
	rs.Stats.TicketsCreated++
	return true
}

// IncrementErrors bumps the run-wide error counter under the mutex. Used
// by the pipeline for failures that occur outside any strategy or the
// Ticket Node itself (pre-analysis errors, analysis errors, panics).
func (rs *RunState) IncrementErrors() {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.Stats.Errors++
}

// ReleaseSlot undoes a TryReserveSlot reservation after a failed tracker
// commit (spec §4.I step 7: a tracker error during commit "leaves
// run_state unchanged"). Holding the slot for the duration of the
// tracker call still prevents a concurrent worker from exceeding the
// cap; releasing it on failure restores run_state to its pre-reservation
// shape once the call is known to have failed.
func (rs *RunState) ReleaseSlot(fingerprint string) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if !rs.createdFingerprints[fingerprint] {
		return
	}
	delete(rs.createdFingerprints, fingerprint)
	rs.ticketsCreated--
	rs.Stats.TicketsCreated--
}

// CommentTimestamp returns the last comment time for fingerprint and
// whether one has ever been recorded.
func (rs *RunState) CommentTimestamp(fingerprint string) (time.Time, bool) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	t, ok := rs.commentTimestamps[fingerprint]
	return t, ok
}

// SetCommentTimestamp records the instant a comment was last added for
// fingerprint. The cooldown clock is per-fingerprint, not per-issue: two
// distinct fingerprints mapped to the same issue (rare, but possible via
// the loghash label) cool down independently.
func (rs *RunState) SetCommentTimestamp(fingerprint string, at time.Time) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.commentTimestamps[fingerprint] = at
}
