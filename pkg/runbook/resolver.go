package runbook

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Config is the subset of the deployment's configuration surface this
// package consults: a static error_type -> runbook URL fallback map for
// logs whose backend record carries no RunbookURL of its own, and the
// domain allowlist URLs are validated against.
type Config struct {
	CategoryURLs   map[string]string
	AllowedDomains []string
	CacheTTL       time.Duration
}

// Resolver fetches and caches runbook content, and answers the Ticket
// Node's category fallback lookup (see ticketing.CategoryResolver).
type Resolver struct {
	fetch *rawFetcher
	cache *ttlCache
	cfg   *Config
}

// NewResolver builds a Resolver. githubToken is the resolved token value
// (empty string = no auth, public repos only).
func NewResolver(cfg *Config, githubToken string) *Resolver {
	cacheTTL := 1 * time.Minute
	if cfg != nil && cfg.CacheTTL > 0 {
		cacheTTL = cfg.CacheTTL
	}

	return &Resolver{
		fetch: newRawFetcher(githubToken),
		cache: newTTLCache(cacheTTL),
		cfg:   cfg,
	}
}

// Resolve fetches runbook content for a URL, validating it against the
// configured domain allowlist and caching by normalized URL. An empty
// url is a no-op: callers only reach here after deciding a log needs
// runbook enrichment, either from its own RunbookURL or from
// URLForCategory.
func (r *Resolver) Resolve(ctx context.Context, rawURL string) (string, error) {
	if rawURL == "" {
		return "", nil
	}

	var allowedDomains []string
	if r.cfg != nil {
		allowedDomains = r.cfg.AllowedDomains
	}
	if err := ValidateRunbookURL(rawURL, allowedDomains); err != nil {
		return "", err
	}

	normalizedURL := ConvertToRawURL(rawURL)
	if content, ok := r.cache.Get(normalizedURL); ok {
		return content, nil
	}

	content, err := r.fetch.fetch(ctx, rawURL)
	if err != nil {
		return "", fmt.Errorf("fetch runbook %s: %w", rawURL, err)
	}

	r.cache.Set(normalizedURL, content)
	return content, nil
}

// URLForCategory looks up a configured runbook URL for a classifier
// error_type. The log-backend consumer contract (spec §6) leaves
// per-log runbook linkage entirely to the deployment; a static
// category map is this system's way of supplying one when a log's own
// RunbookURL is empty.
func (r *Resolver) URLForCategory(errorType string) (string, bool) {
	if r.cfg == nil || len(r.cfg.CategoryURLs) == 0 {
		return "", false
	}
	url, ok := r.cfg.CategoryURLs[errorType]
	return url, ok
}

// OverrideHTTPClientForTest replaces the internal fetcher's HTTP
// client. For testing only.
func (r *Resolver) OverrideHTTPClientForTest(httpClient *http.Client) {
	r.fetch.httpClient = httpClient
}
