package policy

import (
	"math"
	"regexp"
	"strings"
)

// Secret-like key names: values under these keys are always truncated
var secretKeyPattern = regexp.MustCompile(
	`(?i)(password|passwd|secret|token|credential|api[_-]?key|private[_-]?key|access[_-]?key|client[_-]?secret)`)

// Known credential shapes recognized inside free-form string values
var knownShapePattern = regexp.MustCompile(
	`sk_(?:live|test)_[A-Za-z0-9]{8,}` +
		`|AKIA[0-9A-Z]{16}` +
		`|gh[pousr]_[A-Za-z0-9]{20,}` +
		`|xox[baprs]-[A-Za-z0-9-]{10,}` +
		`|eyJ[A-Za-z0-9_-]{20,}\.[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}` +
		`|-----BEGIN [A-Z ]*PRIVATE KEY-----`)

// Candidate runs checked for Shannon entropy. The character class excludes
// '/' so filesystem paths are not flagged.
var entropyCandidate = regexp.MustCompile(`[A-Za-z0-9+_=\-]{24,}`)

const entropyThreshold = 3.7

// RedactOutput returns a deep copy of a tool result with secret values
// truncated. Keys matching secret-like names keep only a short prefix and
// suffix; free-form string values are scanned for known credential shapes
// and high-entropy runs, which are truncated in place even under innocuous
// key names.
func RedactOutput(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			if s, ok := item.(string); ok && secretKeyPattern.MatchString(k) {
				out[k] = truncateSecret(s)
				continue
			}
			out[k] = RedactOutput(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = RedactOutput(item)
		}
		return out
	case string:
		return redactString(val)
	default:
		return v
	}
}

// redactString truncates known credential shapes and high-entropy runs
// inside a free-form string value
func redactString(s string) string {
	s = knownShapePattern.ReplaceAllStringFunc(s, truncateSecret)
	return entropyCandidate.ReplaceAllStringFunc(s, func(run string) string {
		if shannonEntropy(run) >= entropyThreshold {
			return truncateSecret(run)
		}
		return run
	})
}

// truncateSecret keeps a short prefix and suffix of a secret value
func truncateSecret(s string) string {
	if len(s) <= 8 {
		return "[REDACTED]"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

// shannonEntropy returns bits per character for the string
func shannonEntropy(s string) float64 {
	if s == "" {
		return 0
	}
	freq := make(map[rune]int)
	total := 0
	for _, r := range s {
		freq[r]++
		total++
	}
	entropy := 0.0
	for _, n := range freq {
		p := float64(n) / float64(total)
		entropy -= p * math.Log2(p)
	}
	return entropy
}

// ContainsSecretKey reports whether a key name looks secret-like. Exposed
// for callers that want to skip logging such fields entirely.
func ContainsSecretKey(key string) bool {
	return secretKeyPattern.MatchString(key)
}

// HasTraversal reports whether a single string contains a path-traversal
// sequence, using the same rule SanitizeParams applies to nested values.
func HasTraversal(s string) bool {
	return hasTraversal(strings.TrimSpace(s))
}
