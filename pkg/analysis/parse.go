package analysis

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"github.com/codeready-toolchain/logtriage/pkg/fallback"
	"github.com/codeready-toolchain/logtriage/pkg/normalize"
)

// ErrSchemaViolation is returned by parseResponse when the LLM's JSON is
// well-formed but missing a required field (spec §4.H step 2 "schema
// validation"), and, joined with the decode error, when the JSON is
// malformed.
var ErrSchemaViolation = errors.New("analysis: response violates classification schema")

// rawClassification mirrors the wire schema described in the prompt.
// Fields are all strings/bool at the JSON layer; severity/error_type are
// normalized in postProcess, not here.
type rawClassification struct {
	ErrorType         string `json:"error_type"`
	CreateTicket      *bool  `json:"create_ticket"`
	TicketTitle       string `json:"ticket_title"`
	TicketDescription string `json:"ticket_description"`
	Severity          string `json:"severity"`
}

// parseResponse strict-parses raw LLM JSON text into a Classification.
// Malformed JSON or a schema violation (missing required field) returns
// an error, routing the caller to the fallback analyzer per spec §4.H
// step 3.
func parseResponse(raw string) (fallback.Classification, error) {
	var rc rawClassification
	if err := json.Unmarshal([]byte(extractJSON(raw)), &rc); err != nil {
		return fallback.Classification{}, errors.Join(ErrSchemaViolation, err)
	}

	if rc.ErrorType == "" || rc.TicketTitle == "" || rc.TicketDescription == "" || rc.Severity == "" || rc.CreateTicket == nil {
		return fallback.Classification{}, ErrSchemaViolation
	}

	return fallback.Classification{
		ErrorType:         rc.ErrorType,
		CreateTicket:      *rc.CreateTicket,
		TicketTitle:       rc.TicketTitle,
		TicketDescription: rc.TicketDescription,
		Severity:          fallback.Severity(strings.ToLower(rc.Severity)),
		Confidence:        1.0,
		Source:            "llm",
	}, nil
}

// codeFencePattern strips a ```json ... ``` wrapper some providers add
// despite being asked for strict JSON.
var codeFencePattern = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if m := codeFencePattern.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1])
	}
	return raw
}

// postProcess implements spec §4.H step 4: normalize severity to one of
// {low,medium,high} (unknown -> medium), kebab-case error_type, and clean
// the title via the normalizer's shared clean_title rule.
func postProcess(c fallback.Classification) fallback.Classification {
	switch c.Severity {
	case fallback.Low, fallback.Medium, fallback.High:
		// already valid
	default:
		c.Severity = fallback.Medium
	}
	c.ErrorType = toKebabCase(c.ErrorType)
	c.TicketTitle = normalize.CleanTitle(c.TicketTitle, 120)
	return c
}

var nonKebabRunPattern = regexp.MustCompile(`[^a-z0-9]+`)

func toKebabCase(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = nonKebabRunPattern.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
