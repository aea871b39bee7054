package dedup

import "context"

// Orchestrator runs a fixed-order strategy list and short-circuits on the
// first non-Unique result. State is flat, no loops: spec §4.E. The
// ordered slice is constructed once at wiring time and never mutated, so
// Orchestrator itself holds no lock.
type Orchestrator struct {
	strategies []Strategy
}

// NewOrchestrator builds an orchestrator over strategies, evaluated in the
// given order. The pipeline builds one orchestrator over strategy 1
// (pre-analysis) and one over strategies 2-5 (post-analysis); tests may
// pass any subset.
func NewOrchestrator(strategies []Strategy) *Orchestrator {
	return &Orchestrator{strategies: strategies}
}

// Check runs every strategy in order against in, returning the first
// non-Unique result. If every strategy reports Unique, it returns
// UniqueResult().
func (o *Orchestrator) Check(ctx context.Context, in Input, rs *RunState) (Result, error) {
	for _, strat := range o.strategies {
		result, err := strat.Check(ctx, in, rs)
		if err != nil {
			return Result{}, err
		}
		if result.Kind != Unique {
			recordMatch(rs, result.Kind)
			return result, nil
		}
	}
	return UniqueResult(), nil
}

// recordMatch increments the statistics counter matching the strategy
// that fired, under the run state's mutex.
func recordMatch(rs *RunState, kind Kind) {
	if rs == nil {
		return
	}
	rs.mu.Lock()
	defer rs.mu.Unlock()
	switch kind {
	case DuplicateInRun:
		rs.Stats.InRunDuplicates++
	case DuplicateByFingerprint:
		rs.Stats.PersistentDuplicates++
	case DuplicateByLoghashLabel:
		rs.Stats.LoghashMatches++
	case DuplicateByErrorTypeLabel:
		rs.Stats.ErrorTypeMatches++
	case DuplicateBySimilarity:
		rs.Stats.SimilarityMatches++
	}
}
