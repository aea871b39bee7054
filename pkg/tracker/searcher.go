package tracker

import (
	"context"

	"github.com/codeready-toolchain/logtriage/pkg/dedup"
)

// DedupSearcher adapts a Client to pkg/dedup.Searcher, the narrow
// interface the dedup cascade depends on instead of the full tracker
// contract.
type DedupSearcher struct {
	client Client
}

// NewDedupSearcher wraps client for use by the dedup cascade.
func NewDedupSearcher(client Client) *DedupSearcher {
	return &DedupSearcher{client: client}
}

func (s *DedupSearcher) SearchByLabel(ctx context.Context, label string, windowDays, maxResults int) ([]dedup.IssueRef, error) {
	issues, err := s.client.Search(ctx, Query{Label: label, WindowDays: windowDays, MaxResults: maxResults})
	if err != nil {
		return nil, err
	}
	return toRefs(issues), nil
}

func (s *DedupSearcher) SearchByText(ctx context.Context, tokens []string, windowDays, maxResults int) ([]dedup.IssueRef, error) {
	issues, err := s.client.Search(ctx, Query{Tokens: tokens, WindowDays: windowDays, MaxResults: maxResults})
	if err != nil {
		return nil, err
	}
	return toRefs(issues), nil
}

func toRefs(issues []Issue) []dedup.IssueRef {
	refs := make([]dedup.IssueRef, len(issues))
	for i, iss := range issues {
		refs[i] = dedup.IssueRef{
			IssueKey:    iss.Key,
			Title:       iss.Title,
			Description: iss.Description,
			Labels:      iss.Labels,
			Logger:      iss.Logger,
			ErrorType:   iss.ErrorType,
			OriginalLog: iss.OriginalLog,
		}
	}
	return refs
}
