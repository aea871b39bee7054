package dedup

import "context"

// PersistentStore is the read side of the fingerprint store contract (spec
// §3 "Persistent fingerprint store") that strategy 2 needs. The concrete
// implementation lives in pkg/fingerprintstore.
type PersistentStore interface {
	// Lookup returns the issue key recorded for fingerprint, if any.
	// found=false covers both "never seen" and "store unreadable" (spec
	// §7: a corrupt store is treated as empty, not an error).
	Lookup(ctx context.Context, fingerprint string) (issueKey string, found bool)
}

// FingerprintCache is strategy 2: one local read against the persistent
// fingerprint store, consulted at the start of every per-log task.
type FingerprintCache struct {
	store PersistentStore
}

// NewFingerprintCache constructs strategy 2 against store.
func NewFingerprintCache(store PersistentStore) *FingerprintCache {
	return &FingerprintCache{store: store}
}

func (s *FingerprintCache) Name() string { return "FingerprintCache" }

func (s *FingerprintCache) Check(ctx context.Context, in Input, _ *RunState) (Result, error) {
	if in.Fingerprint == "" || s.store == nil {
		return UniqueResult(), nil
	}
	if issueKey, found := s.store.Lookup(ctx, in.Fingerprint); found {
		return Result{
			Kind:         DuplicateByFingerprint,
			StrategyName: s.Name(),
			Source:       SourcePersistent,
			IssueKey:     issueKey,
		}, nil
	}
	return UniqueResult(), nil
}
