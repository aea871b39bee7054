// Package config loads, validates, and hot-reloads the configuration
// surface (spec §6): a single YAML file plus environment variable
// expansion, merged over documented defaults. Grounded on the teacher's
// pkg/config package (Initialize/load/validate pipeline, ExpandEnv,
// mergo-based merging) generalized from its multi-file agent/chain/MCP
// registries to this system's flat option table.
package config

import "time"

// YAMLConfig is the on-disk shape of the single recognized config file.
// Every field is optional; Initialize fills gaps from DefaultConfig.
type YAMLConfig struct {
	MaxTicketsPerRun            *int     `yaml:"max_tickets_per_run,omitempty"`
	AutoCreateTicket             *bool    `yaml:"auto_create_ticket,omitempty"`
	CommentOnDuplicate           *bool    `yaml:"comment_on_duplicate,omitempty"`
	CommentCooldownMinutes       *int     `yaml:"comment_cooldown_minutes,omitempty"`
	PersistFingerprintsOnDryRun  *bool    `yaml:"persist_fingerprints_on_dry_run,omitempty"`
	SimilarityThreshold          *float64 `yaml:"similarity_threshold,omitempty"`
	DirectLogThreshold           *float64 `yaml:"direct_log_threshold,omitempty"`
	PartialLogThreshold          *float64 `yaml:"partial_log_threshold,omitempty"`
	SearchMaxResults             *int     `yaml:"search_max_results,omitempty"`
	SearchWindowDays             *int     `yaml:"search_window_days,omitempty"`
	Workers                      *int     `yaml:"workers,omitempty"`
	RatePerSecond                *float64 `yaml:"rate_per_second,omitempty"`
	TaskTimeoutSeconds           *int     `yaml:"task_timeout_seconds,omitempty"`
	CacheBackend                 *string  `yaml:"cache_backend,omitempty"`
	CacheTTLSeconds              *int     `yaml:"cache_ttl_seconds,omitempty"`
	FallbackEnabled              *bool    `yaml:"fallback_enabled,omitempty"`
	SourceLabel                  *string  `yaml:"source_label,omitempty"`

	Circuit *CircuitYAMLConfig `yaml:"circuit,omitempty"`

	LogBackend *LogBackendYAMLConfig `yaml:"log_backend,omitempty"`
	Tracker    *TrackerYAMLConfig    `yaml:"tracker,omitempty"`
	LLM        *LLMYAMLConfig        `yaml:"llm,omitempty"`
}

// CircuitYAMLConfig groups the breaker's §4.F knobs.
type CircuitYAMLConfig struct {
	FailureThreshold *int `yaml:"failure_threshold,omitempty"`
	TimeoutSeconds   *int `yaml:"timeout_seconds,omitempty"`
	HalfOpenMaxCalls *int `yaml:"half_open_max_calls,omitempty"`
}

// LogBackendYAMLConfig is consulted only by cmd/triage-pipeline's wiring;
// the core treats the backend as opaque (spec §6).
type LogBackendYAMLConfig struct {
	Kind    string            `yaml:"kind,omitempty"`
	Options map[string]string `yaml:"options,omitempty"`
}

// TrackerYAMLConfig mirrors LogBackendYAMLConfig for the issue tracker
// consumer contract.
type TrackerYAMLConfig struct {
	Kind    string            `yaml:"kind,omitempty"`
	Options map[string]string `yaml:"options,omitempty"`
}

// LLMYAMLConfig carries the provider selection; the API key itself is
// read from the environment, never from YAML (spec's ambient secrets
// handling, mirroring the teacher's token_env-by-reference pattern).
type LLMYAMLConfig struct {
	Provider   string `yaml:"provider,omitempty"`
	Model      string `yaml:"model,omitempty"`
	APIKeyEnv  string `yaml:"api_key_env,omitempty"`
	BaseURLEnv string `yaml:"base_url_env,omitempty"`
}

// Config is the fully-resolved, validated configuration every resolved
// field is guaranteed present after Initialize returns.
type Config struct {
	configDir string

	MaxTicketsPerRun            int
	AutoCreateTicket            bool
	CommentOnDuplicate          bool
	CommentCooldown             time.Duration
	PersistFingerprintsOnDryRun bool

	SimilarityThreshold float64
	DirectLogThreshold  float64
	PartialLogThreshold float64

	SearchMaxResults int
	SearchWindowDays int

	Workers       int
	RatePerSecond float64
	RateBurst     int
	TaskTimeout   time.Duration

	CacheBackend string
	CacheTTL     time.Duration

	Circuit CircuitConfig

	FallbackEnabled bool
	SourceLabel     string

	LogBackend LogBackendYAMLConfig
	Tracker    TrackerYAMLConfig
	LLM        LLMYAMLConfig
}

// CircuitConfig is the resolved form of CircuitYAMLConfig.
type CircuitConfig struct {
	FailureThreshold int
	Timeout          time.Duration
	HalfOpenMaxCalls int
}

// ConfigDir returns the directory Config was loaded from.
func (c *Config) ConfigDir() string {
	return c.configDir
}
