// Package normalize canonicalizes raw log text and derives the stable
// identifiers (fingerprint, loghash) the dedup cascade keys on.
//
// The pipeline is a fixed, ordered sweep of compiled patterns, the same
// shape as the teacher's masking pipeline: compile once, apply in a fixed
// order, never reorder per-call. Its output is an identity key, so the
// built-in pattern set is closed and versioned with the rest of this
// package; NormalizeWithOptions lets a caller append extra patterns after
// the built-in sweep without changing it.
package normalize

import (
	"crypto/sha1"
	"encoding/hex"
	"regexp"
	"strings"
)

// Fingerprint/loghash are truncated to this many hex characters.
const hashPrefixLen = 12

// Compiled once at package init — the pipeline order below is an invariant,
// not a convenience; reordering changes the identity space of every
// fingerprint already recorded in a persistent store.
var (
	emailPattern     = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	urlPattern       = regexp.MustCompile(`\b[a-zA-Z][a-zA-Z0-9+.\-]*://[^\s]+`)
	uuidPattern      = regexp.MustCompile(`(?i)\b[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}\b`)
	timestampPattern = regexp.MustCompile(`(?i)\b\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}:\d{2}(?:\.\d+)?(?:Z|[+\-]\d{2}:?\d{2})?\b`)
	hexRunPattern    = regexp.MustCompile(`(?i)\b[0-9a-f]{8,}\b`)
	digitRunPattern  = regexp.MustCompile(`\d{5,}`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// NamedPattern is one entry of an extended redaction set: a compiled
// regex applied in Normalize's fixed sweep, identified by name for
// logging/diagnostics.
type NamedPattern struct {
	Name        string
	Regex       *regexp.Regexp
	Replacement string
}

// Options extends the fixed built-in redaction sweep with additional
// deployment-specific patterns (e.g. an internal account-ID format).
// The zero value behaves identically to the plain sweep: extra patterns
// are appended after the built-ins and before whitespace collapse, so
// the default identity space (no Options) is unaffected by this field
// existing at all.
type Options struct {
	ExtraPatterns []NamedPattern
}

// Normalize canonicalizes a raw log message per spec: lowercase, redact
// emails/URLs/UUIDs/timestamps/hex-blobs/long-digit-runs, then collapse
// whitespace. The result is deterministic and idempotent:
// Normalize(Normalize(x)) == Normalize(x).
func Normalize(text string) string {
	return NormalizeWithOptions(text, Options{})
}

// NormalizeWithOptions runs the same fixed sweep as Normalize, then
// applies opts.ExtraPatterns in order before collapsing whitespace.
// Extending the pattern set this way never changes the built-in
// identity space: a caller that never sets ExtraPatterns gets exactly
// Normalize's output.
func NormalizeWithOptions(text string, opts Options) string {
	if text == "" {
		return ""
	}

	out := toASCIILower(text)
	out = emailPattern.ReplaceAllString(out, "<email>")
	out = urlPattern.ReplaceAllString(out, "<url>")
	out = uuidPattern.ReplaceAllString(out, " ")
	out = timestampPattern.ReplaceAllString(out, " ")
	out = hexRunPattern.ReplaceAllString(out, " ")
	out = digitRunPattern.ReplaceAllString(out, " ")
	for _, p := range opts.ExtraPatterns {
		out = p.Regex.ReplaceAllString(out, p.Replacement)
	}
	out = whitespacePattern.ReplaceAllString(out, " ")
	return strings.TrimSpace(out)
}

// toASCIILower lowercases only ASCII letters, so normalization never depends
// on the process locale (spec: "no locale-dependent casing").
func toASCIILower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// Fingerprint derives the 12-hex identity of a log for dedup: the prefix of
// SHA-1 over "<error_type>|<normalized_message>". Two logs with equal
// normalized messages and equal error_type produce equal fingerprints.
func Fingerprint(errorType, message string) string {
	sum := sha1.Sum([]byte(errorType + "|" + Normalize(message)))
	return hex.EncodeToString(sum[:])[:hashPrefixLen]
}

// Loghash derives the 12-hex label key from the normalized message alone
// (no error_type), used as the `loghash-<hex>` tracker label.
func Loghash(message string) string {
	sum := sha1.Sum([]byte(Normalize(message)))
	return hex.EncodeToString(sum[:])[:hashPrefixLen]
}

// CleanTitle truncates a ticket title to maxLen on a word boundary where
// possible, strips trailing punctuation, and appends an ellipsis if
// truncated. maxLen<=0 defaults to 120 per spec.
func CleanTitle(title string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = 120
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return title
	}
	title = strings.TrimRight(title, ".,;:!? \t")
	if len(title) <= maxLen {
		return title
	}

	truncated := title[:maxLen]
	if idx := strings.LastIndexByte(truncated, ' '); idx > 0 {
		truncated = truncated[:idx]
	}
	truncated = strings.TrimRight(truncated, ".,;:!? \t")
	return truncated + "…"
}
