package policy

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode"
)

// ErrTraversal is returned by SanitizeParams when a string value contains a
// path-traversal sequence.
type ErrTraversal struct {
	Field string
	Value string
}

func (e *ErrTraversal) Error() string {
	return fmt.Sprintf("path traversal attempt in field %q: %s", e.Field, e.Value)
}

// SanitizeParams returns a deep copy of params with control characters
// stripped from every string value. If any string value contains a
// path-traversal sequence the sanitized copy is still returned (for
// forensic recording) together with an *ErrTraversal.
func SanitizeParams(params map[string]any) (map[string]any, error) {
	out, err := sanitizeMap("", params)
	return out, err
}

func sanitizeMap(prefix string, m map[string]any) (map[string]any, error) {
	var firstErr error
	out := make(map[string]any, len(m))
	for k, v := range m {
		field := k
		if prefix != "" {
			field = prefix + "." + k
		}
		cleaned, err := sanitizeValue(field, v)
		if err != nil && firstErr == nil {
			firstErr = err
		}
		out[k] = cleaned
	}
	return out, firstErr
}

func sanitizeValue(field string, v any) (any, error) {
	switch val := v.(type) {
	case string:
		cleaned := stripControl(val)
		if hasTraversal(cleaned) {
			return cleaned, &ErrTraversal{Field: field, Value: cleaned}
		}
		return cleaned, nil
	case map[string]any:
		return sanitizeMap(field, val)
	case []any:
		var firstErr error
		out := make([]any, len(val))
		for i, item := range val {
			cleaned, err := sanitizeValue(fmt.Sprintf("%s[%d]", field, i), item)
			if err != nil && firstErr == nil {
				firstErr = err
			}
			out[i] = cleaned
		}
		return out, firstErr
	default:
		return v, nil
	}
}

// hasTraversal detects ".." path elements surviving filepath.Clean, the
// same check applied to workspace paths at the transport boundary
func hasTraversal(s string) bool {
	if !strings.Contains(s, "..") {
		return false
	}
	cleaned := filepath.Clean(s)
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") || strings.Contains(cleaned, "/../") || strings.HasSuffix(cleaned, "/..") {
		return true
	}
	// Clean resolves "a/../b"; a bare ".." that survived means escape intent
	return strings.HasPrefix(cleaned, "..")
}

func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			return -1
		}
		return r
	}, s)
}
