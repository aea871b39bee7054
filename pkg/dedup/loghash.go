package dedup

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cenkalti/backoff/v4"
)

// LoghashLabelSearch is strategy 3: an exact-label tracker query for
// `loghash-<hex>`, giving O(1) cross-run lookup without any similarity
// scoring. A transient search error is swallowed to Unique with a warning
// per spec §4.D's tie policy — it must never mask strategies 4/5.
type LoghashLabelSearch struct {
	searcher      Searcher
	windowDays    int
	maxResults    int
}

// NewLoghashLabelSearch constructs strategy 3.
func NewLoghashLabelSearch(searcher Searcher, windowDays, maxResults int) *LoghashLabelSearch {
	return &LoghashLabelSearch{searcher: searcher, windowDays: windowDays, maxResults: maxResults}
}

func (s *LoghashLabelSearch) Name() string { return "LoghashLabelSearch" }

func (s *LoghashLabelSearch) Check(ctx context.Context, in Input, _ *RunState) (Result, error) {
	if in.Loghash == "" || s.searcher == nil {
		return UniqueResult(), nil
	}

	label := fmt.Sprintf("loghash-%s", in.Loghash)
	var issues []IssueRef
	op := func() error {
		var err error
		issues, err = s.searcher.SearchByLabel(ctx, label, s.windowDays, s.maxResults)
		return err
	}
	if err := backoff.Retry(op, retryPolicy(ctx)); err != nil {
		slog.Warn("loghash label search failed, treating as unique", "error", err, "label", label)
		return UniqueResult(), nil
	}

	if len(issues) == 0 {
		return UniqueResult(), nil
	}
	return Result{
		Kind:         DuplicateByLoghashLabel,
		StrategyName: s.Name(),
		IssueKey:     issues[0].IssueKey,
	}, nil
}
