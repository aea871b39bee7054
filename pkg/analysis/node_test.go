package analysis

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/logtriage/pkg/breaker"
)

type fakeLLM struct {
	response string
	err      error
}

func (f *fakeLLM) Complete(_ context.Context, _ string) (string, error) {
	return f.response, f.err
}

// passthroughBreaker always invokes fn directly, for tests that don't
// care about breaker timing.
type passthroughBreaker struct{}

func (passthroughBreaker) Call(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// alwaysOpenBreaker simulates an Open circuit.
type alwaysOpenBreaker struct{}

func (alwaysOpenBreaker) Call(context.Context, func(ctx context.Context) error) error {
	return breaker.ErrOpen
}

func TestAnalyze_ValidLLMResponse(t *testing.T) {
	llm := &fakeLLM{response: `{"error_type":"DB Timeout","create_ticket":true,"ticket_title":"db timeout.","ticket_description":"## Problem\nx","severity":"HIGH"}`}
	node := NewNode(llm, passthroughBreaker{}, true)

	result, err := node.Analyze(context.Background(), LogContext{Logger: "db.pool", NormalizedMessage: "connection timeout"})
	require.NoError(t, err)
	assert.Equal(t, "db-timeout", result.ErrorType)
	assert.True(t, result.CreateTicket)
	assert.Equal(t, "llm", result.Source)
	assert.Equal(t, "db timeout", result.TicketTitle, "title must be cleaned of trailing punctuation")
}

func TestAnalyze_MalformedJSONRoutesToFallback(t *testing.T) {
	llm := &fakeLLM{response: "not json at all"}
	node := NewNode(llm, passthroughBreaker{}, true)

	result, err := node.Analyze(context.Background(), LogContext{NormalizedMessage: "connection refused to database"})
	require.NoError(t, err)
	assert.Equal(t, "fallback", result.Source)
	assert.Equal(t, "db-connection-refused", result.ErrorType)
}

func TestAnalyze_SchemaViolationRoutesToFallback(t *testing.T) {
	llm := &fakeLLM{response: `{"error_type":"x"}`} // missing required fields
	node := NewNode(llm, passthroughBreaker{}, true)

	result, err := node.Analyze(context.Background(), LogContext{NormalizedMessage: "out of memory detected"})
	require.NoError(t, err)
	assert.Equal(t, "fallback", result.Source)
}

func TestAnalyze_ProviderErrorRoutesToFallback(t *testing.T) {
	llm := &fakeLLM{err: errors.New("provider unavailable")}
	node := NewNode(llm, passthroughBreaker{}, true)

	result, err := node.Analyze(context.Background(), LogContext{NormalizedMessage: "request timed out"})
	require.NoError(t, err)
	assert.Equal(t, "fallback", result.Source)
}

func TestAnalyze_CircuitOpenRoutesToFallback(t *testing.T) {
	llm := &fakeLLM{}
	node := NewNode(llm, alwaysOpenBreaker{}, true)

	result, err := node.Analyze(context.Background(), LogContext{NormalizedMessage: "no space left on device"})
	require.NoError(t, err)
	assert.Equal(t, "fallback", result.Source)
	assert.Equal(t, "filesystem-disk-full", result.ErrorType)
}

func TestAnalyze_FallbackDisabledPropagatesError(t *testing.T) {
	llm := &fakeLLM{err: errors.New("provider unavailable")}
	node := NewNode(llm, passthroughBreaker{}, false)

	_, err := node.Analyze(context.Background(), LogContext{NormalizedMessage: "anything"})
	assert.Error(t, err)
}

func TestAnalyze_UnknownSeverityNormalizesToMedium(t *testing.T) {
	llm := &fakeLLM{response: `{"error_type":"weird","create_ticket":false,"ticket_title":"t","ticket_description":"d","severity":"critical"}`}
	node := NewNode(llm, passthroughBreaker{}, true)

	result, err := node.Analyze(context.Background(), LogContext{})
	require.NoError(t, err)
	assert.Equal(t, "llm", result.Source)
	assert.EqualValues(t, "medium", result.Severity)
}

func TestAnalyze_CancellationPropagatesWithoutFallback(t *testing.T) {
	llm := &fakeLLM{err: context.Canceled}
	node := NewNode(llm, passthroughBreaker{}, true)

	_, err := node.Analyze(context.Background(), LogContext{NormalizedMessage: "x"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExtractJSON_StripsCodeFence(t *testing.T) {
	raw := "```json\n{\"a\":1}\n```"
	assert.Equal(t, `{"a":1}`, extractJSON(raw))
}

func TestToKebabCase(t *testing.T) {
	assert.Equal(t, "db-timeout", toKebabCase("DB Timeout"))
	assert.Equal(t, "nil-pointer", toKebabCase("  Nil_Pointer!! "))
}
