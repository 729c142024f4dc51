// Package util provides small string helpers shared by the CLI and the demos.
package util

import (
	"fmt"
	"strings"
)

// TruncateRunes truncates s to at most maxRunes Unicode code points,
// appending "..." if truncation occurred.
// If maxRunes <= 0, s is returned unchanged.
func TruncateRunes(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	return string(runes[:maxRunes]) + "..."
}

// Preview renders v on one line for logs: whitespace runs collapse to a
// single space and the result is cut to maxRunes.
func Preview(v any, maxRunes int) string {
	return TruncateRunes(strings.Join(strings.Fields(fmt.Sprintf("%+v", v)), " "), maxRunes)
}
