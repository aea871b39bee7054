package fallback

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify_DatabaseConnectionRefused(t *testing.T) {
	c := NewClassifier()
	result := c.Classify("dial tcp 10.0.0.5:5432: connect: connection refused")
	assert.Equal(t, "db-connection-refused", result.ErrorType)
	assert.Equal(t, High, result.Severity)
	assert.True(t, result.CreateTicket)
	assert.Equal(t, "fallback", result.Source)
}

func TestClassify_Timeout(t *testing.T) {
	c := NewClassifier()
	result := c.Classify("context deadline exceeded while calling payments service")
	assert.Equal(t, "timeout", result.ErrorType)
	assert.Equal(t, Medium, result.Severity)
}

func TestClassify_UnknownFallsBackToCatchAll(t *testing.T) {
	c := NewClassifier()
	result := c.Classify("something entirely unprecedented happened in the widget renderer")
	assert.Equal(t, "unknown", result.ErrorType)
	assert.InDelta(t, 0.1, result.Confidence, 1e-9, "catch-all confidence is floored at 0.1")
}

func TestClassify_AuthMarkerEscalatesSeverityByOneLevel(t *testing.T) {
	c := NewClassifier()
	result := c.Classify("request timed out during login authentication handshake")
	// timeout pattern is Medium by default; the login/auth marker should escalate to High.
	assert.Equal(t, High, result.Severity)
}

func TestClassify_EscalationIsCappedAtHigh(t *testing.T) {
	c := NewClassifier()
	result := c.Classify("connection refused while processing a payment charge")
	assert.Equal(t, High, result.Severity, "already-High severity must not escalate past High")
}

func TestClassify_LowSeverityRequiresHighConfidenceToCreateTicket(t *testing.T) {
	c := NewClassifier()
	result := c.Classify("rate limit exceeded")
	if result.Confidence >= 0.7 {
		assert.True(t, result.CreateTicket)
	} else {
		assert.False(t, result.CreateTicket)
	}
}

func TestClassify_MediumSeverityNeedsConfidenceThreshold(t *testing.T) {
	c := NewClassifier()
	// Single keyword match only: confidence should land below 0.4 for a
	// multi-regex pattern, so create_ticket should be false.
	result := c.Classify("something about a deadlock maybe")
	if result.Severity == Medium && result.Confidence < 0.4 {
		assert.False(t, result.CreateTicket)
	}
}

func TestClassify_HighSeverityAlwaysCreatesTicket(t *testing.T) {
	c := NewClassifier()
	result := c.Classify("OOMKilled: container exceeded memory limit")
	assert.Equal(t, "out-of-memory", result.ErrorType)
	assert.Equal(t, High, result.Severity)
	assert.True(t, result.CreateTicket)
}

func TestClassify_DescriptionContainsProblemCauseActionSkeleton(t *testing.T) {
	c := NewClassifier()
	result := c.Classify("no space left on device")
	assert.Contains(t, result.TicketDescription, "## Problem")
	assert.Contains(t, result.TicketDescription, "## Cause")
	assert.Contains(t, result.TicketDescription, "## Action")
	assert.Contains(t, result.TicketDescription, "filesystem-disk-full")
}

func TestClassify_IsDeterministic(t *testing.T) {
	c := NewClassifier()
	msg := "connection timed out: could not connect to database"
	a := c.Classify(msg)
	b := c.Classify(msg)
	assert.Equal(t, a, b)
}

func TestSeverity_EscalateCapsAtHigh(t *testing.T) {
	assert.Equal(t, Medium, Low.Escalate())
	assert.Equal(t, High, Medium.Escalate())
	assert.Equal(t, High, High.Escalate())
}
