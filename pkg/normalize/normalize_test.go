package normalize

import (
	"regexp"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		"Connection refused to db-primary-01.internal at 2024-03-04T10:22:31Z from user@example.com",
		"Timeout calling https://api.example.com/v2/orders?id=12345678901 after 30001ms",
		"Request 9f8e7d6c-5b4a-3c2d-1e0f-abcdef123456 failed with code deadbeefcafe",
		"ALL CAPS ERROR MESSAGE with ID 123456789",
	}

	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		assert.Equal(t, once, twice, "Normalize must be idempotent for input: %q", in)
	}
}

func TestNormalize_EmptyInput(t *testing.T) {
	assert.Equal(t, "", Normalize(""))
}

func TestNormalize_RedactsEmail(t *testing.T) {
	out := Normalize("failed login for alice@example.com")
	assert.Contains(t, out, "<email>")
	assert.NotContains(t, out, "alice@example.com")
}

func TestNormalize_RedactsURL(t *testing.T) {
	out := Normalize("GET https://service.internal/path/to/thing?x=1 timed out")
	assert.Contains(t, out, "<url>")
	assert.NotContains(t, out, "https://")
}

func TestNormalize_RedactsUUID(t *testing.T) {
	out := Normalize("request 9f8e7d6c-5b4a-3c2d-1e0f-abcdef123456 failed")
	assert.NotContains(t, out, "9f8e7d6c")
}

func TestNormalize_RedactsTimestamp(t *testing.T) {
	out := Normalize("error at 2024-03-04T10:22:31Z during retry")
	assert.NotContains(t, out, "2024-03-04")
}

func TestNormalize_RedactsLongHexRuns(t *testing.T) {
	out := Normalize("checksum deadbeefcafe00112233 mismatch")
	assert.NotContains(t, out, "deadbeefcafe00112233")
}

func TestNormalize_RedactsLongDigitRuns(t *testing.T) {
	out := Normalize("order 123456789 failed to process")
	assert.NotContains(t, out, "123456789")
}

func TestNormalize_PreservesShortDigitRuns(t *testing.T) {
	out := Normalize("retry attempt 3 of 5 failed")
	assert.Contains(t, out, "3")
	assert.Contains(t, out, "5")
}

func TestNormalize_CollapsesWhitespaceAndLowercases(t *testing.T) {
	out := Normalize("DB   Connection    REFUSED")
	assert.Equal(t, "db connection refused", out)
}

func TestFingerprint_StableAcrossEquivalentMessages(t *testing.T) {
	a := Fingerprint("db-timeout", "Connection to db-01 timed out at 2024-03-04T10:22:31Z")
	b := Fingerprint("db-timeout", "connection to db-01 timed    out at 2024-03-05T11:00:00Z")
	assert.Equal(t, a, b, "fingerprints must match when normalized messages match")
}

func TestFingerprint_DiffersByErrorType(t *testing.T) {
	a := Fingerprint("db-timeout", "connection refused")
	b := Fingerprint("auth-failure", "connection refused")
	assert.NotEqual(t, a, b)
}

func TestFingerprint_Length(t *testing.T) {
	fp := Fingerprint("x", "y")
	require.Len(t, fp, 12)
}

func TestLoghash_IgnoresErrorType(t *testing.T) {
	a := Loghash("connection refused")
	b := Loghash("connection refused")
	assert.Equal(t, a, b)
	require.Len(t, a, 12)
}

func TestLoghash_DiffersFromFingerprint(t *testing.T) {
	lh := Loghash("connection refused")
	fp := Fingerprint("", "connection refused")
	// Same input content ("|connection refused" vs "connection refused") yields
	// different SHA-1 preimages, so these should not coincidentally collide.
	assert.NotEqual(t, lh, fp)
}

func TestCleanTitle_NoTruncationNeeded(t *testing.T) {
	assert.Equal(t, "Database timeout", CleanTitle("Database timeout", 120))
}

func TestCleanTitle_TruncatesOnWordBoundary(t *testing.T) {
	title := strings.Repeat("word ", 40) // 200 chars
	out := CleanTitle(title, 20)
	assert.LessOrEqual(t, utf8.RuneCountInString(out), 21) // 20 + ellipsis rune is multi-byte but single char
	assert.True(t, strings.HasSuffix(out, "…"))
	assert.False(t, strings.HasSuffix(strings.TrimSuffix(out, "…"), " "))
}

func TestCleanTitle_NoTrailingPunctuation(t *testing.T) {
	out := CleanTitle("Database connection failed...", 120)
	assert.Equal(t, "Database connection failed", out)
}

func TestCleanTitle_DefaultMaxLen(t *testing.T) {
	title := strings.Repeat("a", 200)
	out := CleanTitle(title, 0)
	assert.True(t, strings.HasSuffix(out, "…"))
	assert.LessOrEqual(t, utf8.RuneCountInString(out), 121)
}

func TestCleanTitle_Empty(t *testing.T) {
	assert.Equal(t, "", CleanTitle("", 120))
	assert.Equal(t, "", CleanTitle("   ", 120))
}

func TestNormalizeWithOptions_ZeroValueMatchesNormalize(t *testing.T) {
	in := "Connection refused to db-primary-01.internal at 2024-03-04T10:22:31Z from user@example.com"
	assert.Equal(t, Normalize(in), NormalizeWithOptions(in, Options{}))
}

func TestNormalizeWithOptions_AppliesExtraPattern(t *testing.T) {
	opts := Options{
		ExtraPatterns: []NamedPattern{
			{Name: "account-id", Regex: regexp.MustCompile(`\bacct-[a-z0-9]+\b`), Replacement: "<account>"},
		},
	}
	out := NormalizeWithOptions("billing failure for acct-f00bar", opts)
	assert.Contains(t, out, "<account>")
	assert.NotContains(t, out, "acct-f00bar")
}

func TestNormalizeWithOptions_ExtraPatternsRunBeforeWhitespaceCollapse(t *testing.T) {
	opts := Options{
		ExtraPatterns: []NamedPattern{
			{Name: "tenant-tag", Regex: regexp.MustCompile(`\[tenant:[a-z0-9]+\]`), Replacement: "  "},
		},
	}
	out := NormalizeWithOptions("request [tenant:acme]   failed", opts)
	assert.Equal(t, "request failed", out)
}
