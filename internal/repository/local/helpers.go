package local

import "strings"

// matches treats an empty want as a wildcard.
func matches(want, got string) bool {
	return want == "" || want == got
}

// containsFold reports whether any field contains query, ignoring case.
func containsFold(query string, fields ...string) bool {
	query = strings.TrimSpace(query)
	if query == "" {
		return true
	}
	query = strings.ToLower(query)
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func setRef[T any](dst **T, src *T) {
	if src != nil {
		v := *src
		*dst = &v
	}
}
