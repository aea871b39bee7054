package config

import "fmt"

// Validate enforces spec §6's documented ranges. Fail-fast: the first
// violation is returned, matching the teacher validator's ordering
// (stop at the first error rather than collecting all of them).
func Validate(cfg *Config) error {
	if cfg.MaxTicketsPerRun < 0 {
		return newValidationError("max_tickets_per_run", fmt.Errorf("%w: must be >= 0, got %d", ErrInvalidValue, cfg.MaxTicketsPerRun))
	}
	if cfg.CommentCooldown < 0 {
		return newValidationError("comment_cooldown_minutes", fmt.Errorf("%w: must be >= 0", ErrInvalidValue))
	}
	if err := validateUnitRange("similarity_threshold", cfg.SimilarityThreshold); err != nil {
		return err
	}
	if err := validateUnitRange("direct_log_threshold", cfg.DirectLogThreshold); err != nil {
		return err
	}
	if err := validateUnitRange("partial_log_threshold", cfg.PartialLogThreshold); err != nil {
		return err
	}
	if cfg.SearchMaxResults < 1 {
		return newValidationError("search_max_results", fmt.Errorf("%w: must be >= 1, got %d", ErrInvalidValue, cfg.SearchMaxResults))
	}
	if cfg.SearchWindowDays < 1 {
		return newValidationError("search_window_days", fmt.Errorf("%w: must be >= 1, got %d", ErrInvalidValue, cfg.SearchWindowDays))
	}
	if cfg.Workers < 1 || cfg.Workers > 20 {
		return newValidationError("workers", fmt.Errorf("%w: must be in [1, 20], got %d", ErrInvalidValue, cfg.Workers))
	}
	if cfg.RatePerSecond <= 0 {
		return newValidationError("rate_per_second", fmt.Errorf("%w: must be > 0, got %f", ErrInvalidValue, cfg.RatePerSecond))
	}
	if cfg.TaskTimeout <= 0 {
		return newValidationError("task_timeout_seconds", fmt.Errorf("%w: must be > 0", ErrInvalidValue))
	}
	switch cfg.CacheBackend {
	case "memory", "file", "distributed":
	default:
		return newValidationError("cache_backend", fmt.Errorf("%w: must be one of memory|file|distributed, got %q", ErrInvalidValue, cfg.CacheBackend))
	}
	if cfg.CacheTTL < 0 {
		return newValidationError("cache_ttl_seconds", fmt.Errorf("%w: must be >= 0", ErrInvalidValue))
	}
	if cfg.Circuit.FailureThreshold < 1 {
		return newValidationError("circuit.failure_threshold", fmt.Errorf("%w: must be >= 1, got %d", ErrInvalidValue, cfg.Circuit.FailureThreshold))
	}
	if cfg.Circuit.Timeout <= 0 {
		return newValidationError("circuit.timeout_seconds", fmt.Errorf("%w: must be > 0", ErrInvalidValue))
	}
	if cfg.Circuit.HalfOpenMaxCalls < 1 {
		return newValidationError("circuit.half_open_max_calls", fmt.Errorf("%w: must be >= 1, got %d", ErrInvalidValue, cfg.Circuit.HalfOpenMaxCalls))
	}

	return nil
}

func validateUnitRange(field string, v float64) error {
	if v < 0 || v > 1 {
		return newValidationError(field, fmt.Errorf("%w: must be in [0, 1], got %f", ErrInvalidValue, v))
	}
	return nil
}
