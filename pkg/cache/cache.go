// Package cache provides the unified key/value cache contract used by the
// similarity engine and the dedup cascade, with three interchangeable
// backends (memory, file, distributed/Redis) sharing identical TTL and
// eviction semantics.
//
// Grounded on the teacher's pkg/runbook/cache.go: a small TTL-guarded store
// with lazy expiry on read, generalized here to a backend-agnostic
// interface with bounded LRU eviction for the in-process case.
package cache

import "context"

// Stats summarizes a backend's cache effectiveness.
type Stats struct {
	Size    int
	Hits    int64
	Misses  int64
	HitRate float64
}

// Backend is the contract every cache implementation satisfies. Keys are
// opaque strings; values are pre-serialized bytes so backends never need to
// know the value's Go type.
type Backend interface {
	// Get returns the value for key, or ok=false if absent or expired.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)

	// Set stores value under key with the given TTL. ttl<=0 means "use the
	// backend's default TTL".
	Set(ctx context.Context, key string, value []byte, ttl int64) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Clear removes all entries.
	Clear(ctx context.Context) error

	// Stats reports size/hit/miss counters.
	Stats() Stats

	// Name identifies the backend for logging ("memory", "file", "redis").
	Name() string

	// Close releases any resources (file handles, connections). Safe to call
	// once; backends without resources to release may no-op.
	Close() error
}
