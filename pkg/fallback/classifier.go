package fallback

import (
	"fmt"
	"regexp"
	"strings"
)

// Classifier runs the deterministic catalog scoring algorithm of spec
// §4.G. It holds no mutable state; the catalog is package-level and
// compiled once at init.
type Classifier struct{}

// NewClassifier constructs the fallback classifier.
func NewClassifier() *Classifier { return &Classifier{} }

// Classify maps normalized log text to a Classification, per spec §4.G's
// six-step algorithm. message should already be normalize.Normalize'd so
// scoring is stable regardless of incidental formatting differences.
func (c *Classifier) Classify(message string) Classification {
	best, score, isUnknown := bestMatch(message)

	confidence := 0.0
	if best.maxScore() > 0 {
		confidence = score / best.maxScore()
	}
	if isUnknown && confidence < 0.1 {
		confidence = 0.1
	}

	severity := best.Severity
	if matchesAny(message, escalationMarkers) {
		severity = severity.Escalate()
	}

	createTicket := decideCreateTicket(severity, confidence)

	return Classification{
		ErrorType:         best.ErrorType,
		CreateTicket:      createTicket,
		TicketTitle:       best.TitleTemplate,
		TicketDescription: buildDescription(best, confidence, message),
		Severity:          severity,
		Confidence:        confidence,
		Source:            "fallback",
	}
}

// bestMatch scores every catalog pattern against message and returns the
// highest scorer. A completely unmatched message falls through to the
// catch-all unknown pattern (spec §4.G step 2).
func bestMatch(message string) (pattern, float64, bool) {
	var best pattern
	bestScore := -1.0

	for _, p := range catalog[:len(catalog)-1] {
		score := scorePattern(message, p)
		if score > bestScore {
			best = p
			bestScore = score
		}
	}

	if bestScore <= 0 {
		return unknownPattern, 0, true
	}
	return best, bestScore, false
}

// scorePattern implements step 1: regex hit = weight 1, keyword hit =
// weight 0.5.
func scorePattern(message string, p pattern) float64 {
	score := 0.0
	for _, re := range p.Regexes {
		if re.MatchString(message) {
			score += 1.0
		}
	}
	lower := strings.ToLower(message)
	for _, kw := range p.Keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			score += 0.5
		}
	}
	return score
}

func matchesAny(message string, patterns []*regexp.Regexp) bool {
	for _, p := range patterns {
		if p.MatchString(message) {
			return true
		}
	}
	return false
}

// decideCreateTicket implements step 5's three-way threshold.
func decideCreateTicket(severity Severity, confidence float64) bool {
	switch severity {
	case High:
		return true
	case Medium:
		return confidence >= 0.4
	case Low:
		return confidence >= 0.7
	default:
		return false
	}
}

// buildDescription produces the standard Problem/Cause/Action skeleton
// (spec §4.G step 6), citing the matched pattern's name and confidence.
func buildDescription(p pattern, confidence float64, message string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Problem\n\n%s (classified by fallback rule `%s`, confidence %.2f).\n\n", p.TitleTemplate, p.ErrorType, confidence)
	b.WriteString("## Cause\n\n")
	if p.ErrorType == unknownPattern.ErrorType {
		b.WriteString("No catalog pattern matched this log; classification is a placeholder pending manual triage.\n\n")
	} else {
		fmt.Fprintf(&b, "Matched against the `%s` fallback pattern, triggered while the LLM analysis path was unavailable.\n\n", p.ErrorType)
	}
	b.WriteString("## Action\n\nInvestigate the underlying log entry and confirm severity; this classification was produced by the deterministic fallback, not the LLM.\n\n")
	fmt.Fprintf(&b, "```\n%s\n```\n", truncate(message, 2000))
	return b.String()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
