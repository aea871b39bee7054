package pipeline

import (
	"context"

	"github.com/codeready-toolchain/logtriage/pkg/ratelimit"
	"github.com/codeready-toolchain/logtriage/pkg/tracker"
)

// rateLimitedLLM decorates an analysis.LLMClient so every call to the
// LLM provider acquires a token first (spec §4.J/§5: the limiter
// applies to calls reaching external services, not local operations).
type rateLimitedLLM struct {
	client  llmCompleter
	limiter *ratelimit.Limiter
}

// llmCompleter mirrors analysis.LLMClient without importing pkg/analysis,
// avoiding a needless cross-package type dependency for a one-method
// interface.
type llmCompleter interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

func newRateLimitedLLM(client llmCompleter, limiter *ratelimit.Limiter) *rateLimitedLLM {
	return &rateLimitedLLM{client: client, limiter: limiter}
}

func (r *rateLimitedLLM) Complete(ctx context.Context, prompt string) (string, error) {
	if err := r.limiter.Acquire(ctx); err != nil {
		return "", err
	}
	return r.client.Complete(ctx, prompt)
}

// rateLimitedTracker decorates a tracker.Client the same way, token-
// gating every outbound call.
type rateLimitedTracker struct {
	client  tracker.Client
	limiter *ratelimit.Limiter
}

func newRateLimitedTracker(client tracker.Client, limiter *ratelimit.Limiter) *rateLimitedTracker {
	return &rateLimitedTracker{client: client, limiter: limiter}
}

func (r *rateLimitedTracker) Search(ctx context.Context, q tracker.Query) ([]tracker.Issue, error) {
	if err := r.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	return r.client.Search(ctx, q)
}

func (r *rateLimitedTracker) Create(ctx context.Context, payload tracker.Payload) (string, error) {
	if err := r.limiter.Acquire(ctx); err != nil {
		return "", err
	}
	return r.client.Create(ctx, payload)
}

func (r *rateLimitedTracker) AddComment(ctx context.Context, issueKey, body string) error {
	if err := r.limiter.Acquire(ctx); err != nil {
		return err
	}
	return r.client.AddComment(ctx, issueKey, body)
}

func (r *rateLimitedTracker) AddLabels(ctx context.Context, issueKey string, labels []string) error {
	if err := r.limiter.Acquire(ctx); err != nil {
		return err
	}
	return r.client.AddLabels(ctx, issueKey, labels)
}
