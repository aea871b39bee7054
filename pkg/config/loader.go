package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// Initialize loads, merges, validates, and returns ready-to-use
// configuration. This is the primary entry point.
//
// Steps performed:
//  1. Load config.yaml from configDir (missing file is not fatal: the
//     documented defaults apply, with a warning).
//  2. If config.local.yaml is present, merge it on top (non-nil fields
//     override; meant for per-deployment overrides layered over a
//     checked-in base).
//  3. Expand environment variables in both files before parsing.
//  4. Resolve every YAML field against DefaultConfig, filling gaps.
//  5. Validate the resolved Config.
func Initialize(_ context.Context, configDir string) (*Config, error) {
	log := slog.With("config_dir", configDir)

	base, err := loadYAMLFile(configDir, "config.yaml")
	if err != nil {
		return nil, err
	}
	if base == nil {
		log.Warn("config.yaml not found, using documented defaults")
	}

	overlay, err := loadYAMLFile(configDir, "config.local.yaml")
	if err != nil {
		return nil, err
	}
	if overlay != nil {
		if base == nil {
			base = overlay
		} else if err := mergo.Merge(base, overlay, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("config: merging config.local.yaml: %w", err)
		}
	}

	cfg := resolve(base)
	cfg.configDir = configDir

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	log.Info("configuration initialized",
		"workers", cfg.Workers,
		"auto_create_ticket", cfg.AutoCreateTicket,
		"cache_backend", cfg.CacheBackend)
	return cfg, nil
}

// loadYAMLFile reads and parses name under dir, expanding environment
// variables first. A missing file returns (nil, nil): the caller treats
// absence as "nothing to merge," not an error.
func loadYAMLFile(dir, name string) (*YAMLConfig, error) {
	path := filepath.Join(dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	data = ExpandEnv(data)

	var parsed YAMLConfig
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidYAML, path, err)
	}
	return &parsed, nil
}

// resolve fills a Config from DefaultConfig, overriding each field the
// YAML document sets explicitly. y may be nil (no file present at all).
func resolve(y *YAMLConfig) *Config {
	cfg := DefaultConfig()
	if y == nil {
		return cfg
	}

	if y.MaxTicketsPerRun != nil {
		cfg.MaxTicketsPerRun = *y.MaxTicketsPerRun
	}
	if y.AutoCreateTicket != nil {
		cfg.AutoCreateTicket = *y.AutoCreateTicket
	}
	if y.CommentOnDuplicate != nil {
		cfg.CommentOnDuplicate = *y.CommentOnDuplicate
	}
	if y.CommentCooldownMinutes != nil {
		cfg.CommentCooldown = time.Duration(*y.CommentCooldownMinutes) * time.Minute
	}
	if y.PersistFingerprintsOnDryRun != nil {
		cfg.PersistFingerprintsOnDryRun = *y.PersistFingerprintsOnDryRun
	}
	if y.SimilarityThreshold != nil {
		cfg.SimilarityThreshold = *y.SimilarityThreshold
	}
	if y.DirectLogThreshold != nil {
		cfg.DirectLogThreshold = *y.DirectLogThreshold
	}
	if y.PartialLogThreshold != nil {
		cfg.PartialLogThreshold = *y.PartialLogThreshold
	}
	if y.SearchMaxResults != nil {
		cfg.SearchMaxResults = *y.SearchMaxResults
	}
	if y.SearchWindowDays != nil {
		cfg.SearchWindowDays = *y.SearchWindowDays
	}
	if y.Workers != nil {
		cfg.Workers = *y.Workers
	}
	if y.RatePerSecond != nil {
		cfg.RatePerSecond = *y.RatePerSecond
	}
	if y.TaskTimeoutSeconds != nil {
		cfg.TaskTimeout = time.Duration(*y.TaskTimeoutSeconds) * time.Second
	}
	if y.CacheBackend != nil {
		cfg.CacheBackend = *y.CacheBackend
	}
	if y.CacheTTLSeconds != nil {
		cfg.CacheTTL = time.Duration(*y.CacheTTLSeconds) * time.Second
	}
	if y.FallbackEnabled != nil {
		cfg.FallbackEnabled = *y.FallbackEnabled
	}
	if y.SourceLabel != nil {
		cfg.SourceLabel = *y.SourceLabel
	}
	if y.Circuit != nil {
		if y.Circuit.FailureThreshold != nil {
			cfg.Circuit.FailureThreshold = *y.Circuit.FailureThreshold
		}
		if y.Circuit.TimeoutSeconds != nil {
			cfg.Circuit.Timeout = time.Duration(*y.Circuit.TimeoutSeconds) * time.Second
		}
		if y.Circuit.HalfOpenMaxCalls != nil {
			cfg.Circuit.HalfOpenMaxCalls = *y.Circuit.HalfOpenMaxCalls
		}
	}
	if y.LogBackend != nil {
		cfg.LogBackend = *y.LogBackend
	}
	if y.Tracker != nil {
		cfg.Tracker = *y.Tracker
	}
	if y.LLM != nil {
		cfg.LLM = *y.LLM
	}

	return cfg
}
