// triage-pipeline runs the autonomous error-log triage pipeline: an
// HTTP server exposing health/stats/run/audit, wrapping a single
// assembled Pipeline.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/codeready-toolchain/logtriage/pkg/api"
	"github.com/codeready-toolchain/logtriage/pkg/audit"
	"github.com/codeready-toolchain/logtriage/pkg/breaker"
	"github.com/codeready-toolchain/logtriage/pkg/cache"
	"github.com/codeready-toolchain/logtriage/pkg/config"
	"github.com/codeready-toolchain/logtriage/pkg/fingerprintstore"
	"github.com/codeready-toolchain/logtriage/pkg/llmclient"
	"github.com/codeready-toolchain/logtriage/pkg/logbackend"
	"github.com/codeready-toolchain/logtriage/pkg/pipeline"
	"github.com/codeready-toolchain/logtriage/pkg/runbook"
	"github.com/codeready-toolchain/logtriage/pkg/similarity"
	"github.com/codeready-toolchain/logtriage/pkg/tracker"
)

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseCategoryURLs parses RUNBOOK_CATEGORY_URLS, a comma-separated list
// of "error_type=url" pairs, into the map runbook.Config.CategoryURLs
// expects. Malformed entries (no "=") are skipped.
func parseCategoryURLs(raw string) map[string]string {
	if raw == "" {
		return nil
	}
	urls := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || k == "" || v == "" {
			continue
		}
		urls[k] = v
	}
	return urls
}

func main() {
	configDir := flag.String("config-dir",
		getEnv("CONFIG_DIR", "./deploy/config"),
		"Path to configuration directory")
	cacheDir := flag.String("cache-dir",
		getEnv("CACHE_DIR", "./deploy/cache"),
		"Path to the fingerprint store / audit log directory")
	httpAddr := flag.String("http-addr", getEnv("HTTP_ADDR", ":8080"), "HTTP listen address")
	flag.Parse()

	envPath := filepath.Join(*configDir, ".env")
	if err := godotenv.Load(envPath); err != nil {
		log.Printf("Warning: Could not load %s file: %v", envPath, err)
		log.Printf("Continuing with existing environment variables...")
	} else {
		log.Printf("Loaded environment from %s", envPath)
	}

	gin.SetMode(getEnv("GIN_MODE", "release"))

	ctx := context.Background()

	cfg, err := config.Initialize(ctx, *configDir)
	if err != nil {
		log.Fatalf("Failed to initialize configuration: %v", err)
	}

	store, err := fingerprintstore.New(*cacheDir)
	if err != nil {
		log.Fatalf("Failed to open fingerprint store: %v", err)
	}

	auditSink, err := audit.Open(*cacheDir)
	if err != nil {
		log.Fatalf("Failed to open audit log: %v", err)
	}
	defer auditSink.Close()

	cacheManager, err := cache.NewManager(ctx, cache.Config{
		Backend:        cache.BackendKind(cfg.CacheBackend),
		MemoryCapacity: 1000,
		FileDir:        filepath.Join(*cacheDir, "cache"),
		FileSweepEvery: 100,
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		DefaultTTL:     cfg.CacheTTL,
	})
	if err != nil {
		log.Fatalf("Failed to initialize cache: %v", err)
	}

	engine := similarity.NewEngine(cacheManager.Active(), int64(cfg.CacheTTL.Seconds()), similarity.Thresholds{
		DirectLogThreshold:  cfg.DirectLogThreshold,
		SimilarityThreshold: cfg.SimilarityThreshold,
		PartialLogThreshold: cfg.PartialLogThreshold,
	})

	cb := breaker.New(breaker.Config{
		FailureThreshold: cfg.Circuit.FailureThreshold,
		Timeout:          cfg.Circuit.Timeout,
		HalfOpenMaxCalls: cfg.Circuit.HalfOpenMaxCalls,
	})

	llm := llmclient.NewClient(llmclient.Config{
		BaseURL: os.Getenv(envOrDefault(cfg.LLM.BaseURLEnv, "LLM_BASE_URL")),
		APIKey:  os.Getenv(envOrDefault(cfg.LLM.APIKeyEnv, "LLM_API_KEY")),
		Model:   cfg.LLM.Model,
	})
	defer llm.Close()

	// The log backend and issue tracker are consumer contracts the core
	// treats as opaque (spec §6); only an in-memory reference
	// implementation ships here; a real deployment supplies its own
	// logbackend.Fetcher/tracker.Client built from cfg.LogBackend/cfg.Tracker.
	fetcher := logbackend.NewInMemoryFetcher(nil)
	trackerClient := tracker.NewInMemoryClient(getEnv("TRACKER_PROJECT_PREFIX", "TRIAGE"))

	// Runbook resolution fetches content for whichever URL wins: the log's
	// own RunbookURL if the backend attaches one, otherwise a lookup in
	// RUNBOOK_CATEGORY_URLS by classifier error_type. Always wired — with
	// nothing configured it is a no-op, since Resolve("") short-circuits
	// and URLForCategory reports every category as unmapped.
	resolver := runbook.NewResolver(&runbook.Config{
		CategoryURLs:   parseCategoryURLs(getEnv("RUNBOOK_CATEGORY_URLS", "")),
		AllowedDomains: []string{"github.com", "raw.githubusercontent.com"},
		CacheTTL:       5 * cfg.CacheTTL,
	}, os.Getenv("RUNBOOK_GITHUB_TOKEN"))

	deps := pipeline.Deps{
		Fetcher:          fetcher,
		LLM:              llm,
		Breaker:          cb,
		Tracker:          trackerClient,
		Store:            store,
		AuditSink:        auditSink,
		SimilarityEngine: engine,
		RunbookResolver:  resolver,
	}

	p := pipeline.New(pipeline.Config{
		Workers:                     cfg.Workers,
		RatePerSecond:               cfg.RatePerSecond,
		RateBurst:                   cfg.RateBurst,
		TaskTimeout:                 cfg.TaskTimeout,
		MaxTicketsPerRun:            cfg.MaxTicketsPerRun,
		AutoCreateTicket:            cfg.AutoCreateTicket,
		CommentOnDuplicate:          cfg.CommentOnDuplicate,
		CommentCooldownMinutes:      int(cfg.CommentCooldown.Minutes()),
		PersistFingerprintsOnDryRun: cfg.PersistFingerprintsOnDryRun,
		SearchWindowDays:            cfg.SearchWindowDays,
		SearchMaxResults:            cfg.SearchMaxResults,
		FallbackEnabled:             cfg.FallbackEnabled,
		SourceLabel:                 cfg.SourceLabel,
	}, deps)

	auditPath := filepath.Join(*cacheDir, "audit_logs.jsonl")
	server := api.NewServer(cfg, p, auditPath)

	watcher, err := config.NewWatcher(*configDir, cfg, func(reloaded *config.Config) {
		log.Printf("configuration reloaded from %s", *configDir)
	})
	if err != nil {
		log.Printf("Warning: configuration hot-reload disabled: %v", err)
	} else {
		watcher.Start(ctx)
		defer watcher.Stop()
	}

	log.Printf("Starting triage-pipeline")
	log.Printf("HTTP listening on %s", *httpAddr)
	log.Printf("Config directory: %s", *configDir)
	log.Printf("Cache directory: %s", *cacheDir)
	if err := server.Run(*httpAddr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func envOrDefault(name, fallback string) string {
	if name != "" {
		return name
	}
	return fallback
}
