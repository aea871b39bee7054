// Package llmclient is the Analysis Node's LLM consumer contract (spec
// §6): complete(prompt) -> json_text over a plain HTTPS call. The
// teacher's LLM wrapper (pkg/llm.Client, pkg/agent.LLMClient) talks to a
// gRPC sidecar via generated protobuf stubs that were never retrieved
// into this pack; this package keeps the wrapper's shape — NewClient,
// Close, a context-scoped call, config-driven model/temperature/
// max-tokens — over net/http instead.
package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Config configures a Client's target endpoint and generation parameters.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float32
	MaxTokens   int32
	Timeout     time.Duration
}

// Client wraps the HTTP connection to an LLM completion endpoint.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	model       string
	temperature float32
	maxTokens   int32
}

// NewClient creates a new LLM client from cfg, applying sane defaults for
// anything left zero-valued the way the teacher's NewClient falls back to
// environment defaults.
func NewClient(cfg Config) *Client {
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		baseURL:     cfg.BaseURL,
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}
}

// Close releases the client's idle connections. Kept for symmetry with
// the teacher's gRPC Client.Close; an http.Client has nothing to close
// explicitly, but CloseIdleConnections() is the nearest equivalent.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

type completionRequest struct {
	Model       string  `json:"model"`
	Prompt      string  `json:"prompt"`
	Temperature float32 `json:"temperature,omitempty"`
	MaxTokens   int32   `json:"max_tokens,omitempty"`
}

type completionResponse struct {
	Text string `json:"text"`
}

// Complete sends prompt to the configured model and returns the raw JSON
// text the caller is expected to schema-validate (spec §4.H step 2). Any
// non-2xx response or transport failure is returned as an error so the
// Analysis Node's circuit breaker can count it as a failure.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(completionRequest{
		Model:       c.model,
		Prompt:      prompt,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("llmclient: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("llmclient: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("llmclient: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("llmclient: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("llmclient: provider returned status %d: %s", resp.StatusCode, string(raw))
	}

	var parsed completionResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("llmclient: decode response: %w", err)
	}
	return parsed.Text, nil
}
