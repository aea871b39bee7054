// Package analysis implements the Analysis Node (spec §4.H): builds the
// LLM prompt from a fixed log context, invokes the LLM through the
// circuit breaker, and falls back to the deterministic rule-based
// classifier on any failure. The node is stateless — the only cross-call
// state is the shared circuit breaker, matching spec §4.H's closing line.
package analysis

import (
	"context"
	"errors"
	"log/slog"

	"github.com/codeready-toolchain/logtriage/pkg/fallback"
)

// LLMClient is the subset of pkg/llmclient.Client the node needs.
type LLMClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// CircuitBreaker is the subset of pkg/breaker.Breaker the node needs;
// narrowed to an interface so the node can be tested without a real
// breaker's timing behavior.
type CircuitBreaker interface {
	Call(ctx context.Context, fn func(ctx context.Context) error) error
}

// Node is the Analysis Node. Construct once per process and share across
// workers — its only mutable state lives inside breaker.
type Node struct {
	llm             LLMClient
	breaker         CircuitBreaker
	fallback        *fallback.Classifier
	fallbackEnabled bool
}

// NewNode wires an Analysis Node. fallbackEnabled matches spec §6's
// `fallback_enabled` config flag: when false, LLM failures propagate as
// errors (skip-errors) instead of resolving through the fallback
// classifier.
func NewNode(llm LLMClient, cb CircuitBreaker, fallbackEnabled bool) *Node {
	return &Node{
		llm:             llm,
		breaker:         cb,
		fallback:        fallback.NewClassifier(),
		fallbackEnabled: fallbackEnabled,
	}
}

// Analyze runs the full contract: analyze(log) -> classification.
func (n *Node) Analyze(ctx context.Context, lc LogContext) (fallback.Classification, error) {
	prompt := buildPrompt(lc)

	var raw string
	callErr := n.breaker.Call(ctx, func(ctx context.Context) error {
		text, err := n.llm.Complete(ctx, prompt)
		raw = text
		return err
	})

	if callErr == nil {
		classification, parseErr := parseResponse(raw)
		if parseErr == nil {
			return postProcess(classification), nil
		}
		callErr = parseErr
	}

	if errors.Is(callErr, context.Canceled) || errors.Is(callErr, context.DeadlineExceeded) {
		return fallback.Classification{}, callErr
	}

	if !n.fallbackEnabled {
		return fallback.Classification{}, callErr
	}

	slog.Warn("analysis: routing to fallback classifier", "error", callErr, "logger", lc.Logger)
	classification := n.fallback.Classify(lc.NormalizedMessage)
	return classification, nil
}
