package dedup

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cenkalti/backoff/v4"

	"github.com/codeready-toolchain/logtriage/pkg/similarity"
)

// ErrorTypeLabelSearch is strategy 4: a tracker query for
// `error_type-<type>` within the search window, scored locally against the
// similarity engine. It fires only when strategy 3 missed, i.e. the
// loghash itself isn't already labelled on any issue.
type ErrorTypeLabelSearch struct {
	searcher   Searcher
	engine     *similarity.Engine
	windowDays int
	maxResults int
}

// NewErrorTypeLabelSearch constructs strategy 4.
func NewErrorTypeLabelSearch(searcher Searcher, engine *similarity.Engine, windowDays, maxResults int) *ErrorTypeLabelSearch {
	return &ErrorTypeLabelSearch{searcher: searcher, engine: engine, windowDays: windowDays, maxResults: maxResults}
}

func (s *ErrorTypeLabelSearch) Name() string { return "ErrorTypeLabelSearch" }

func (s *ErrorTypeLabelSearch) Check(ctx context.Context, in Input, _ *RunState) (Result, error) {
	if in.ErrorType == "" || s.searcher == nil {
		return UniqueResult(), nil
	}

	label := fmt.Sprintf("error_type-%s", in.ErrorType)
	var issues []IssueRef
	op := func() error {
		var err error
		issues, err = s.searcher.SearchByLabel(ctx, label, s.windowDays, s.maxResults)
		return err
	}
	if err := backoff.Retry(op, retryPolicy(ctx)); err != nil {
		slog.Warn("error_type label search failed, treating as unique", "error", err, "label", label)
		return UniqueResult(), nil
	}
	if len(issues) == 0 {
		return UniqueResult(), nil
	}

	query := similarity.Query{
		Title:             in.Title,
		Description:       in.Description,
		ErrorType:         in.ErrorType,
		Logger:            in.Logger,
		NormalizedCurrent: in.NormalizedMessage,
	}
	candidates := toCandidates(issues)

	best, ok := s.engine.Best(ctx, query, candidates)
	if !ok || best.IsDirectMatch {
		if ok && best.IsDirectMatch {
			return Result{Kind: DuplicateBySimilarity, StrategyName: s.Name(), IssueKey: best.IssueKey, Score: best.Score}, nil
		}
		return UniqueResult(), nil
	}
	if best.Score >= s.engine.Thresholds().SimilarityThreshold {
		return Result{
			Kind:         DuplicateByErrorTypeLabel,
			StrategyName: s.Name(),
			IssueKey:     best.IssueKey,
			Score:        best.Score,
		}, nil
	}
	return UniqueResult(), nil
}

func toCandidates(issues []IssueRef) []similarity.Candidate {
	candidates := make([]similarity.Candidate, len(issues))
	for i, iss := range issues {
		candidates[i] = similarity.Candidate{
			IssueKey:    iss.IssueKey,
			Title:       iss.Title,
			Description: iss.Description,
			Labels:      iss.Labels,
			Logger:      iss.Logger,
			ErrorType:   iss.ErrorType,
			OriginalLog: iss.OriginalLog,
		}
	}
	return candidates
}
