// Package strings holds small string helpers shared by the CLI output code.
package strings

import (
	"strings"
)

// DefaultScopeMaxLen is the default maximum length for scope lists in
// formatted output, shared so tables stay aligned.
const DefaultScopeMaxLen = 40

// minTruncateLen leaves room for at least one character plus "...".
const minTruncateLen = 4

// TruncateLine collapses a string to a single line of at most maxLen
// characters, adding "..." if truncated. Newlines and runs of whitespace
// become single spaces, and truncation operates on runes so multi-byte
// characters are never split.
func TruncateLine(s string, maxLen int) string {
	if maxLen < minTruncateLen {
		maxLen = minTruncateLen
	}

	s = strings.Join(strings.Fields(s), " ")

	runes := []rune(s)
	if len(runes) > maxLen {
		return string(runes[:maxLen-3]) + "..."
	}
	return s
}
