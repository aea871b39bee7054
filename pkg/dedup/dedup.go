// Package dedup implements the five-strategy deduplication cascade: an
// ordered chain of equivalence checks, cheapest first, that funnels a log
// through progressively more expensive lookups until one reports a match
// or all report Unique.
package dedup

import (
	"context"
)

// Kind tags the variant carried by a Result.
type Kind int

const (
	Unique Kind = iota
	DuplicateInRun
	DuplicateByFingerprint
	DuplicateByLoghashLabel
	DuplicateByErrorTypeLabel
	DuplicateBySimilarity
)

func (k Kind) String() string {
	switch k {
	case Unique:
		return "unique"
	case DuplicateInRun:
		return "duplicate_in_run"
	case DuplicateByFingerprint:
		return "duplicate_by_fingerprint"
	case DuplicateByLoghashLabel:
		return "duplicate_by_loghash_label"
	case DuplicateByErrorTypeLabel:
		return "duplicate_by_error_type_label"
	case DuplicateBySimilarity:
		return "duplicate_by_similarity"
	default:
		return "unknown"
	}
}

// FingerprintSource distinguishes where a fingerprint hit was found.
type FingerprintSource string

const (
	SourceLocal      FingerprintSource = "local"
	SourcePersistent FingerprintSource = "persistent"
)

// Result is the tagged outcome of a single strategy's check. Only the
// fields relevant to Kind are populated.
type Result struct {
	Kind Kind

	StrategyName string
	Source       FingerprintSource
	IssueKey     string
	Score        float64
}

// UniqueResult is the zero-value-equivalent "no match" outcome.
func UniqueResult() Result { return Result{Kind: Unique} }

// Input bundles everything a strategy needs to evaluate a single log.
// Strategy 1 only needs Loghash; strategies 2-5 additionally need
// ErrorType, Title, Description, Logger and NormalizedMessage.
type Input struct {
	Fingerprint       string
	Loghash           string
	ErrorType         string
	Logger            string
	Title             string
	Description       string
	NormalizedMessage string
}

// Strategy is one link in the cascade. Name is stable and appears in audit
// records and Result.StrategyName.
type Strategy interface {
	Name() string
	Check(ctx context.Context, in Input, rs *RunState) (Result, error)
}
