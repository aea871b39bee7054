package dedup

import (
	"context"
	"log/slog"
	"strings"

	"github.com/cenkalti/backoff/v4"

	"github.com/codeready-toolchain/logtriage/pkg/similarity"
)

// SimilaritySearch is strategy 5, the most expensive in the cascade: a
// broad tracker text query over tokens from the normalized title, scored
// against the similarity engine. It is the last line of defense before a
// new ticket is created.
type SimilaritySearch struct {
	searcher   Searcher
	engine     *similarity.Engine
	windowDays int
	maxResults int
}

// NewSimilaritySearch constructs strategy 5.
func NewSimilaritySearch(searcher Searcher, engine *similarity.Engine, windowDays, maxResults int) *SimilaritySearch {
	return &SimilaritySearch{searcher: searcher, engine: engine, windowDays: windowDays, maxResults: maxResults}
}

func (s *SimilaritySearch) Name() string { return "SimilaritySearch" }

func (s *SimilaritySearch) Check(ctx context.Context, in Input, _ *RunState) (Result, error) {
	if in.Title == "" || s.searcher == nil {
		return UniqueResult(), nil
	}

	tokens := strings.Fields(in.Title)
	var issues []IssueRef
	op := func() error {
		var err error
		issues, err = s.searcher.SearchByText(ctx, tokens, s.windowDays, s.maxResults)
		return err
	}
	if err := backoff.Retry(op, retryPolicy(ctx)); err != nil {
		slog.Warn("similarity text search failed, treating as unique", "error", err)
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
	if !ok {
		return UniqueResult(), nil
	}
	if best.IsDirectMatch || best.Score >= s.engine.Thresholds().SimilarityThreshold {
		return Result{
			Kind:         DuplicateBySimilarity,
			StrategyName: s.Name(),
			IssueKey:     best.IssueKey,
			Score:        best.Score,
		}, nil
	}
	return UniqueResult(), nil
}
