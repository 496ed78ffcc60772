package filter

import (
	"strings"
)

// matchSubstring checks a value against initial, any and final parts.
// Matching is case-insensitive and the parts must appear in order
// without overlapping.
func matchSubstring(value string, sf *SubstringFilter) bool {
	v := strings.ToLower(value)
	pos := 0

	if sf.Initial != "" {
		initial := strings.ToLower(sf.Initial)
		if !strings.HasPrefix(v, initial) {
			return false
		}
		pos = len(initial)
	}

	for _, part := range sf.Any {
		if part == "" {
			continue
		}
		part = strings.ToLower(part)
		idx := strings.Index(v[pos:], part)
		if idx < 0 {
			return false
		}
		pos += idx + len(part)
	}

	if sf.Final != "" {
		if !strings.HasSuffix(v[pos:], strings.ToLower(sf.Final)) {
			return false
		}
	}

	return true
}

// compareFold orders two values lexicographically, ignoring case.
func compareFold(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

// matchApprox compares two values after lowercasing and collapsing runs of
// whitespace.
func matchApprox(a, b string) bool {
	return normalizeForApprox(a) == normalizeForApprox(b)
}

func normalizeForApprox(value string) string {
	return strings.Join(strings.Fields(strings.ToLower(value)), " ")
}
