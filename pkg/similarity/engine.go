package similarity

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"sort"
	"strings"

	"github.com/codeready-toolchain/logtriage/pkg/cache"
)

// Thresholds configures the decision gates of spec.md §4.C. Defaults match
// the spec exactly.
type Thresholds struct {
	DirectLogThreshold  float64 // 0.90
	SimilarityThreshold float64 // 0.82
	PartialLogThreshold float64 // 0.70
}

// DefaultThresholds returns the spec.md-documented defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		DirectLogThreshold:  0.90,
		SimilarityThreshold: 0.82,
		PartialLogThreshold: 0.70,
	}
}

// Candidate is an existing tracker issue considered for a similarity match.
type Candidate struct {
	IssueKey    string
	Title       string
	Description string
	Labels      []string
	Logger      string  // Logger name, if recoverable from the issue (for the logger-match bonus).
	ErrorType   string  // Extracted error_type tag, if present among Labels.
	OriginalLog string  // The original log text embedded in the issue description, if extractable.
}

// Query is the candidate-under-test (the new log's classification output).
type Query struct {
	Title             string
	Description       string
	ErrorType         string
	Logger            string
	NormalizedCurrent string // normalize.Normalize(current log message)
}

// Result is the best-scoring candidate, or IsDirectMatch when the current
// log text itself matches an existing issue's embedded log near-exactly.
type Result struct {
	IssueKey      string
	Score         float64
	Title         string
	IsDirectMatch bool
}

// Engine scores a query against a slice of candidates, caching the scored
// result keyed by (title, error_type, logger) per spec.md §4.C.
type Engine struct {
	cache      cache.Backend
	cacheTTL   int64 // seconds
	thresholds Thresholds
}

// NewEngine builds a similarity engine backed by the given cache backend
// for memoizing scores. ttlSeconds<=0 uses the backend's default TTL.
func NewEngine(backend cache.Backend, ttlSeconds int64, thresholds Thresholds) *Engine {
	return &Engine{cache: backend, cacheTTL: ttlSeconds, thresholds: thresholds}
}

// Best scores q against every candidate and returns the highest-scoring
// match, or ok=false if no candidate was provided. Ties are broken by the
// lexicographically smallest issue key, per spec.md §4.C.
func (e *Engine) Best(ctx context.Context, q Query, candidates []Candidate) (Result, bool) {
	if len(candidates) == 0 {
		return Result{}, false
	}

	// Direct-log match takes priority: an (almost) exact reproduction of the
	// current log inside a candidate's description is treated as certain.
	for _, c := range candidates {
		if c.OriginalLog == "" || q.NormalizedCurrent == "" {
			continue
		}
		if Ratio(q.NormalizedCurrent, c.OriginalLog) >= e.thresholds.DirectLogThreshold {
			return Result{IssueKey: c.IssueKey, Score: 1.0, Title: c.Title, IsDirectMatch: true}, true
		}
	}

	type scored struct {
		Result
	}
	var best *scored
	for _, c := range candidates {
		score := e.scoreOne(ctx, q, c)
		if best == nil ||
			score > best.Score ||
			(score == best.Score && c.IssueKey < best.IssueKey) {
			best = &scored{Result{IssueKey: c.IssueKey, Score: score, Title: c.Title}}
		}
	}
	if best == nil {
		return Result{}, false
	}
	return best.Result, true
}

// scoreOne computes (or retrieves from cache) the composite score between q
// and a single candidate.
func (e *Engine) scoreOne(ctx context.Context, q Query, c Candidate) float64 {
	key := cacheKey(q.Title, q.ErrorType, q.Logger, c.IssueKey)

	if e.cache != nil {
		if raw, ok, err := e.cache.Get(ctx, key); err == nil && ok {
			var cached float64
			if err := json.Unmarshal(raw, &cached); err == nil {
				return cached
			}
		}
	}

	score := e.compute(q, c)

	if e.cache != nil {
		if raw, err := json.Marshal(score); err == nil {
			_ = e.cache.Set(ctx, key, raw, e.cacheTTL)
		}
	}
	return score
}

// compute implements the weighted formula and bonuses from spec.md §4.C.
func (e *Engine) compute(q Query, c Candidate) float64 {
	titleSim := Ratio(q.Title, c.Title)
	descSim := Ratio(q.Description, c.Description)

	score := 0.60*titleSim + 0.30*descSim

	if q.ErrorType != "" && sameErrorType(q.ErrorType, c) {
		score += 0.10
	}
	if q.Logger != "" && q.Logger == c.Logger {
		score += 0.05
	}
	if JaccardTokenOverlap(q.Title+" "+q.Description, c.Title+" "+c.Description) >= 0.5 {
		score += 0.05
	}
	if q.NormalizedCurrent != "" && c.OriginalLog != "" &&
		Ratio(q.NormalizedCurrent, c.OriginalLog) >= e.thresholds.PartialLogThreshold {
		score += 0.05
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}

func sameErrorType(queryType string, c Candidate) bool {
	if c.ErrorType != "" {
		return c.ErrorType == queryType
	}
	want := "error_type-" + queryType
	for _, l := range c.Labels {
		if l == want {
			return true
		}
	}
	return false
}

func cacheKey(title, errorType, logger, issueKey string) string {
	sum := sha1.Sum([]byte(strings.ToLower(title) + "|" + errorType + "|" + logger + "|" + issueKey))
	return "similarity:" + hex.EncodeToString(sum[:])
}

// Thresholds exposes the engine's configured decision gates for callers
// (dedup strategies) that need to compare a raw score without re-deriving
// which field means what.
func (e *Engine) Thresholds() Thresholds { return e.thresholds }

// SortCandidatesByKey is a small helper used by tests and strategies that
// need deterministic iteration order before scoring (tie-break fairness).
func SortCandidatesByKey(candidates []Candidate) {
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].IssueKey < candidates[j].IssueKey })
}
