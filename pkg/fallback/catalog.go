package fallback

import "regexp"

// pattern is the fallback catalog's unit, shaped after the teacher's
// CompiledPattern (pkg/masking/pattern.go): a stable name, a set of
// compiled regexes, and a replacement/template string — here a ticket
// title template instead of a redaction replacement. The catalog is a
// closed, built-in table compiled once at package init, same as the
// teacher's builtin masking patterns.
type pattern struct {
	ErrorType     string
	Regexes       []*regexp.Regexp
	Keywords      []string
	Severity      Severity
	TitleTemplate string
}

// maxScore is the total weight available to a pattern: one point per
// regex, half a point per keyword (spec §4.G step 1).
func (p pattern) maxScore() float64 {
	return float64(len(p.Regexes)) + 0.5*float64(len(p.Keywords))
}

func mustCompileAll(exprs ...string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		compiled[i] = regexp.MustCompile(e)
	}
	return compiled
}

// catalog is the closed, ~20-30 entry pattern set spec §4.G names:
// database connection, timeout, 5xx/4xx HTTP, authentication, file
// system, out-of-memory, configuration, message-broker lag/consumer,
// plus the generic unknown catch-all.
var catalog = []pattern{
	{
		ErrorType: "db-connection-refused",
		Regexes:   mustCompileAll(`(?i)connection refused`, `(?i)could not connect to (server|database|postgres|mysql|redis)`),
		Keywords:  []string{"connection refused", "econnrefused"},
		Severity:  High,
		TitleTemplate: "Database connection refused",
	},
	{
		ErrorType: "db-connection-timeout",
		Regexes:   mustCompileAll(`(?i)connection timed? ?out`, `(?i)dial tcp.*i/o timeout`),
		Keywords:  []string{"database", "pool exhausted"},
		Severity:  High,
		TitleTemplate: "Database connection timeout",
	},
	{
		ErrorType: "db-pool-exhausted",
		Regexes:   mustCompileAll(`(?i)connection pool (exhausted|full)`, `(?i)too many (connections|clients)`),
		Keywords:  []string{"pool", "max connections"},
		Severity:  High,
		TitleTemplate: "Database connection pool exhausted",
	},
	{
		ErrorType: "db-deadlock",
		Regexes:   mustCompileAll(`(?i)deadlock detected`, `(?i)lock wait timeout exceeded`),
		Keywords:  []string{"deadlock", "lock wait"},
		Severity:  Medium,
		TitleTemplate: "Database deadlock detected",
	},
	{
		ErrorType: "timeout",
		Regexes:   mustCompileAll(`(?i)context deadline exceeded`, `(?i)request timed? ?out`, `(?i)i/o timeout`),
		Keywords:  []string{"timeout", "timed out", "deadline exceeded"},
		Severity:  Medium,
		TitleTemplate: "Request timeout",
	},
	{
		ErrorType: "upstream-unavailable",
		Regexes:   mustCompileAll(`(?i)upstream (connect error|unavailable)`, `(?i)no healthy upstream`),
		Keywords:  []string{"upstream", "unavailable"},
		Severity:  High,
		TitleTemplate: "Upstream service unavailable",
	},
	{
		ErrorType: "http-5xx",
		Regexes:   mustCompileAll(`(?i)\b5\d\d\b.*(error|response)`, `(?i)internal server error`, `(?i)bad gateway`, `(?i)service unavailable`, `(?i)gateway timeout`),
		Keywords:  []string{"500", "502", "503", "504"},
		Severity:  High,
		TitleTemplate: "Upstream 5xx response",
	},
	{
		ErrorType: "http-4xx",
		Regexes:   mustCompileAll(`(?i)\b4\d\d\b.*(error|response)`, `(?i)bad request`, `(?i)not found`, `(?i)unprocessable entity`),
		Keywords:  []string{"400", "404", "422"},
		Severity:  Low,
		TitleTemplate: "Client 4xx response",
	},
	{
		ErrorType: "auth-failure",
		Regexes:   mustCompileAll(`(?i)authentication failed`, `(?i)invalid (credentials|token|api key)`, `(?i)unauthorized`),
		Keywords:  []string{"auth", "token expired", "forbidden"},
		Severity:  Medium,
		TitleTemplate: "Authentication failure",
	},
	{
		ErrorType: "permission-denied",
		Regexes:   mustCompileAll(`(?i)permission denied`, `(?i)access denied`, `(?i)forbidden`),
		Keywords:  []string{"permission", "denied", "forbidden"},
		Severity:  Medium,
		TitleTemplate: "Permission denied",
	},
	{
		ErrorType: "filesystem-not-found",
		Regexes:   mustCompileAll(`(?i)no such file or directory`, `(?i)file not found`, `(?i)enoent`),
		Keywords:  []string{"file not found", "enoent"},
		Severity:  Medium,
		TitleTemplate: "File not found",
	},
	{
		ErrorType: "filesystem-disk-full",
		Regexes:   mustCompileAll(`(?i)no space left on device`, `(?i)disk (full|quota exceeded)`, `(?i)enospc`),
		Keywords:  []string{"disk full", "enospc"},
		Severity:  High,
		TitleTemplate: "Disk space exhausted",
	},
	{
		ErrorType: "out-of-memory",
		Regexes:   mustCompileAll(`(?i)out of memory`, `(?i)oom[- ]?killed?`, `(?i)cannot allocate memory`, `(?i)java\.lang\.outofmemoryerror`),
		Keywords:  []string{"oom", "memory", "heap space"},
		Severity:  High,
		TitleTemplate: "Out of memory",
	},
	{
		ErrorType: "cpu-throttled",
		Regexes:   mustCompileAll(`(?i)cpu throttl(ed|ing)`, `(?i)context deadline.*cpu`),
		Keywords:  []string{"throttled", "cpu"},
		Severity:  Medium,
		TitleTemplate: "CPU throttling detected",
	},
	{
		ErrorType: "configuration-missing",
		Regexes:   mustCompileAll(`(?i)missing (required )?(config|configuration|environment variable)`, `(?i)env(ironment)? var(iable)? .* not set`),
		Keywords:  []string{"config", "environment variable", "not set"},
		Severity:  Medium,
		TitleTemplate: "Missing configuration",
	},
	{
		ErrorType: "configuration-invalid",
		Regexes:   mustCompileAll(`(?i)invalid configuration`, `(?i)failed to parse config`, `(?i)config validation (failed|error)`),
		Keywords:  []string{"invalid config", "validation"},
		Severity:  Medium,
		TitleTemplate: "Invalid configuration",
	},
	{
		ErrorType: "broker-consumer-lag",
		Regexes:   mustCompileAll(`(?i)consumer lag`, `(?i)partition (rebalance|lag)`, `(?i)offset (commit failed|out of range)`),
		Keywords:  []string{"lag", "kafka", "rebalance"},
		Severity:  Medium,
		TitleTemplate: "Message broker consumer lag",
	},
	{
		ErrorType: "broker-publish-failure",
		Regexes:   mustCompileAll(`(?i)failed to publish`, `(?i)broker not available`, `(?i)message (send|publish) failed`),
		Keywords:  []string{"publish", "broker", "queue full"},
		Severity:  High,
		TitleTemplate: "Message broker publish failure",
	},
	{
		ErrorType: "serialization-error",
		Regexes:   mustCompileAll(`(?i)(json|yaml|proto).*(unmarshal|parse) error`, `(?i)unexpected (end of (json )?input|token)`),
		Keywords:  []string{"unmarshal", "malformed", "parse error"},
		Severity:  Low,
		TitleTemplate: "Serialization error",
	},
	{
		ErrorType: "nil-pointer-panic",
		Regexes:   mustCompileAll(`(?i)nil pointer dereference`, `(?i)panic:.*nil`, `(?i)segmentation fault`),
		Keywords:  []string{"panic", "nil pointer", "segfault"},
		Severity:  High,
		TitleTemplate: "Nil pointer panic",
	},
	{
		ErrorType: "index-out-of-range-panic",
		Regexes:   mustCompileAll(`(?i)index out of range`, `(?i)array index out of bounds`, `(?i)slice bounds out of range`),
		Keywords:  []string{"index out of range", "panic"},
		Severity:  Medium,
		TitleTemplate: "Index out of range panic",
	},
	{
		ErrorType: "rate-limit-exceeded",
		Regexes:   mustCompileAll(`(?i)rate limit exceeded`, `(?i)too many requests`, `(?i)\b429\b`),
		Keywords:  []string{"rate limit", "429", "throttled"},
		Severity:  Low,
		TitleTemplate: "Rate limit exceeded",
	},
	{
		ErrorType: "certificate-error",
		Regexes:   mustCompileAll(`(?i)x509.*certificate`, `(?i)certificate (expired|verify failed|has expired)`, `(?i)tls handshake error`),
		Keywords:  []string{"certificate", "tls", "x509"},
		Severity:  High,
		TitleTemplate: "TLS certificate error",
	},
	{
		ErrorType: "unknown",
		Regexes:   nil,
		Keywords:  nil,
		Severity:  Low,
		TitleTemplate: "Unclassified error",
	},
}

// unknownPattern is the catch-all (spec §4.G step 2), always the last
// catalog entry.
var unknownPattern = catalog[len(catalog)-1]

// escalationMarkers are the auth/payment/billing context markers that
// bump severity one level regardless of which pattern matched (spec
// §4.G step 4).
var escalationMarkers = mustCompileAll(
	`(?i)\b(auth|login|session)\b`,
	`(?i)\b(payment|billing|invoice|charge|subscription)\b`,
)
