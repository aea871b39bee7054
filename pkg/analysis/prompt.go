package analysis

import (
	"fmt"
	"strings"
)

// detailTruncateLen bounds how much of LogContext.Detail is embedded in
// the prompt, keeping token usage predictable regardless of how large the
// structured detail payload is.
const detailTruncateLen = 4000

// LogContext is the small, fixed context the prompt is built from (spec
// §4.H step 1). It intentionally carries no raw tracker or LLM types —
// the Analysis Node is stateless and this is its only input shape.
type LogContext struct {
	Logger            string
	Thread            string
	NormalizedMessage string
	Detail            string
	Service           string
	Env               string
	OccurrenceCount24h int
	TeamSeverityHint  string // optional, empty if not provided
}

// buildPrompt renders LogContext into the fixed-shape prompt sent to the
// LLM, asking for strict JSON matching the Classification schema.
func buildPrompt(lc LogContext) string {
	var b strings.Builder
	b.WriteString("You are triaging a production error log. Respond with strict JSON only, no prose, matching exactly this schema:\n")
	b.WriteString(`{"error_type": "kebab-case-tag", "create_ticket": true|false, "ticket_title": "short action-oriented title", "ticket_description": "markdown with Problem/Causes/Actions sections", "severity": "low|medium|high"}`)
	b.WriteString("\n\nLog context:\n")
	fmt.Fprintf(&b, "logger: %s\n", lc.Logger)
	fmt.Fprintf(&b, "thread: %s\n", lc.Thread)
	fmt.Fprintf(&b, "service: %s\n", lc.Service)
	fmt.Fprintf(&b, "environment: %s\n", lc.Env)
	fmt.Fprintf(&b, "occurrences in last 24h: %d\n", lc.OccurrenceCount24h)
	if lc.TeamSeverityHint != "" {
		fmt.Fprintf(&b, "team severity hint: %s\n", lc.TeamSeverityHint)
	}
	fmt.Fprintf(&b, "normalized message: %s\n", lc.NormalizedMessage)
	if lc.Detail != "" {
		fmt.Fprintf(&b, "detail: %s\n", truncate(lc.Detail, detailTruncateLen))
	}
	return b.String()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "…(truncated)"
}
