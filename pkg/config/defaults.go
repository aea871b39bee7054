package config

import "time"

// DefaultConfig returns spec §6's documented defaults. Every tunable the
// YAML file omits falls back to one of these values.
func DefaultConfig() *Config {
	return &Config{
		MaxTicketsPerRun:            10,
		AutoCreateTicket:            false,
		CommentOnDuplicate:          true,
		CommentCooldown:             60 * time.Minute,
		PersistFingerprintsOnDryRun: true,

		SimilarityThreshold: 0.82,
		DirectLogThreshold:  0.90,
		PartialLogThreshold: 0.70,

		SearchMaxResults: 20,
		SearchWindowDays: 30,

		Workers:       3,
		RatePerSecond: 10,
		RateBurst:     10,
		TaskTimeout:   60 * time.Second,

		CacheBackend: "memory",
		CacheTTL:     5 * time.Minute,

		Circuit: CircuitConfig{
			FailureThreshold: 3,
			Timeout:          30 * time.Second,
			HalfOpenMaxCalls: 2,
		},

		FallbackEnabled: true,
		SourceLabel:     "datadog-log",
	}
}
