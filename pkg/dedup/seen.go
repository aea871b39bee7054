package dedup

import "context"

// InMemorySeenLogs is strategy 1: an O(1), no-I/O lookup keyed on
// loghash, not the classification-dependent fingerprint — it runs
// pre-analysis, before any LLM call (spec §4.D/§4.E), so the pipeline
// never pays for classifying a log whose normalized message it has
// already seen earlier in the same run. Two logs sharing a normalized
// message necessarily share a loghash regardless of how each is later
// classified, so this is a sound pre-analysis proxy for the real
// fingerprint.
type InMemorySeenLogs struct{}

// NewInMemorySeenLogs constructs strategy 1.
func NewInMemorySeenLogs() *InMemorySeenLogs { return &InMemorySeenLogs{} }

func (s *InMemorySeenLogs) Name() string { return "InMemorySeenLogs" }

func (s *InMemorySeenLogs) Check(_ context.Context, in Input, rs *RunState) (Result, error) {
	if in.Loghash != "" && rs.MarkLoghashSeen(in.Loghash) {
		return Result{Kind: DuplicateInRun, StrategyName: s.Name()}, nil
	}
	return UniqueResult(), nil
}
