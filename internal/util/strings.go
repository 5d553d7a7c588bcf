package util

import "strings"

// AlphanumericPrefix returns the first n lowercase letters and digits of s.
func AlphanumericPrefix(s string, n int) string {
	s = strings.ToLower(s)

	var builder strings.Builder
	for _, r := range s {
		if builder.Len() >= n {
			break
		}
		if ('a' <= r && r <= 'z') || ('0' <= r && r <= '9') {
			builder.WriteRune(r)
		}
	}

	return builder.String()
}
