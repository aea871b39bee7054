package similarity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/logtriage/pkg/cache"
)

func TestRatio_Symmetric(t *testing.T) {
	pairs := [][2]string{
		{"connection refused to database", "database connection was refused"},
		{"nil pointer dereference in handler", "totally unrelated text"},
		{"", "something"},
		{"", ""},
	}
	for _, p := range pairs {
		assert.Equal(t, Ratio(p[0], p[1]), Ratio(p[1], p[0]), "Ratio must be symmetric for %q / %q", p[0], p[1])
	}
}

func TestRatio_SelfSimilarityIsOne(t *testing.T) {
	for _, s := range []string{"", "a", "connection timeout while dialing postgres"} {
		assert.Equal(t, 1.0, Ratio(s, s))
	}
}

func TestRatio_UnrelatedStringsScoreLow(t *testing.T) {
	r := Ratio("database connection refused", "user login succeeded")
	assert.Less(t, r, 0.5)
}

func TestRatio_ReorderedTokensScoreHigh(t *testing.T) {
	r := Ratio("refused database connection", "database connection refused")
	assert.Greater(t, r, 0.9)
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	backend := cache.NewMemoryBackend(100, 0)
	return NewEngine(backend, 60, DefaultThresholds())
}

func TestEngine_Score_Symmetric(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	a := Query{Title: "connection refused to postgres", Description: "dial tcp: connection refused", ErrorType: "connection-error", Logger: "db.pool"}
	b := Candidate{IssueKey: "X-1", Title: "postgres connection refused", Description: "dial tcp: connection refused", ErrorType: "connection-error", Logger: "db.pool"}

	s1 := e.compute(a, b)
	s2 := e.compute(Query{Title: b.Title, Description: b.Description, ErrorType: b.ErrorType, Logger: b.Logger}, Candidate{IssueKey: "X-1", Title: a.Title, Description: a.Description, ErrorType: a.ErrorType, Logger: a.Logger})
	assert.InDelta(t, s1, s2, 1e-9)
	_ = ctx
}

func TestEngine_Score_SelfSimilarityIsOne(t *testing.T) {
	e := newTestEngine(t)
	q := Query{Title: "panic: nil pointer", Description: "goroutine crashed", ErrorType: "panic", Logger: "worker"}
	c := Candidate{IssueKey: "X-2", Title: q.Title, Description: q.Description, ErrorType: q.ErrorType, Logger: q.Logger}
	assert.Equal(t, 1.0, e.compute(q, c))
}

func TestEngine_Best_PicksHighestScoringCandidate(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	q := Query{Title: "timeout calling payments service", Description: "context deadline exceeded", ErrorType: "timeout", Logger: "payments.client"}
	candidates := []Candidate{
		{IssueKey: "LOW-1", Title: "completely unrelated issue", Description: "unrelated text here"},
		{IssueKey: "HIGH-1", Title: "timeout calling payments service", Description: "context deadline exceeded", ErrorType: "timeout", Logger: "payments.client"},
	}

	result, ok := e.Best(ctx, q, candidates)
	require.True(t, ok)
	assert.Equal(t, "HIGH-1", result.IssueKey)
	assert.Greater(t, result.Score, 0.9)
}

func TestEngine_Best_TiesBreakByLexicographicallySmallestKey(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	q := Query{Title: "identical title here", Description: "identical description here"}
	candidates := []Candidate{
		{IssueKey: "B-2", Title: q.Title, Description: q.Description},
		{IssueKey: "A-1", Title: q.Title, Description: q.Description},
	}

	result, ok := e.Best(ctx, q, candidates)
	require.True(t, ok)
	assert.Equal(t, "A-1", result.IssueKey)
}

func TestEngine_Best_NoCandidatesReturnsFalse(t *testing.T) {
	e := newTestEngine(t)
	_, ok := e.Best(context.Background(), Query{Title: "anything"}, nil)
	assert.False(t, ok)
}

func TestEngine_Best_DirectLogMatchShortCircuits(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	logText := "panic: runtime error: index out of range [5] with length 3"
	q := Query{Title: "totally different title", Description: "unrelated description", NormalizedCurrent: logText}
	candidates := []Candidate{
		{IssueKey: "DIRECT-1", Title: "some other title", Description: "some other description", OriginalLog: logText},
	}

	result, ok := e.Best(ctx, q, candidates)
	require.True(t, ok)
	assert.True(t, result.IsDirectMatch)
	assert.Equal(t, "DIRECT-1", result.IssueKey)
	assert.Equal(t, 1.0, result.Score)
}

func TestEngine_ScoreOne_CachesAcrossCalls(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	q := Query{Title: "cached lookup title", Description: "cached lookup description"}
	c := Candidate{IssueKey: "CACHE-1", Title: "cached lookup title variant", Description: "cached lookup description variant"}

	first := e.scoreOne(ctx, q, c)
	second := e.scoreOne(ctx, q, c)
	assert.Equal(t, first, second)
}

func TestJaccardTokenOverlap_IdenticalIsOne(t *testing.T) {
	assert.Equal(t, 1.0, JaccardTokenOverlap("database connection refused", "database connection refused"))
}

func TestJaccardTokenOverlap_DisjointIsZero(t *testing.T) {
	assert.Equal(t, 0.0, JaccardTokenOverlap("alpha beta", "gamma delta"))
}
