package dedup

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// retryPolicy bounds the transient-error resilience applied to tracker
// search calls in strategies 3-5 (domain stack: cenkalti/backoff). A
// per-log task has its own deadline (spec §4.J, default 60s), so the
// search retry budget stays small relative to it rather than competing
// for the whole task window.
func retryPolicy(ctx context.Context) backoff.BackOffContext {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxInterval = 1 * time.Second
	b.MaxElapsedTime = 5 * time.Second
	return backoff.WithContext(b, ctx)
}
