package strings

import (
	"testing"
)

func TestTruncateLine(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		maxLen   int
		expected string
	}{
		{
			name:     "short string unchanged",
			input:    "repo",
			maxLen:   10,
			expected: "repo",
		},
		{
			name:     "exact length unchanged",
			input:    "hello",
			maxLen:   5,
			expected: "hello",
		},
		{
			name:     "long string truncated",
			input:    "repo, read:user, user:email, gist, workflow",
			maxLen:   15,
			expected: "repo, read:u...",
		},
		{
			name:     "newlines replaced with spaces",
			input:    "hello\nworld",
			maxLen:   20,
			expected: "hello world",
		},
		{
			name:     "runs of whitespace collapsed",
			input:    "hello \t\n  world",
			maxLen:   20,
			expected: "hello world",
		},
		{
			name:     "leading and trailing whitespace trimmed",
			input:    "  hello world  ",
			maxLen:   20,
			expected: "hello world",
		},
		{
			name:     "unicode truncation safe",
			input:    "日本語テスト文字列",
			maxLen:   6,
			expected: "日本語...",
		},
		{
			name:     "empty string",
			input:    "",
			maxLen:   10,
			expected: "",
		},
		{
			name:     "whitespace only becomes empty",
			input:    "   \n\t  ",
			maxLen:   10,
			expected: "",
		},
		{
			name:     "tiny maxLen clamped",
			input:    "hello",
			maxLen:   2,
			expected: "h...",
		},
		{
			name:     "negative maxLen clamped",
			input:    "hello",
			maxLen:   -5,
			expected: "h...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := TruncateLine(tt.input, tt.maxLen)
			if result != tt.expected {
				t.Errorf("TruncateLine(%q, %d) = %q, want %q",
					tt.input, tt.maxLen, result, tt.expected)
			}
		})
	}
}

func TestTruncateLine_RuneLength(t *testing.T) {
	// Truncation must respect rune count, not byte count.
	input := "日本語テスト" // 6 characters, 18 bytes in UTF-8
	result := TruncateLine(input, 5)

	expected := "日本..."
	if result != expected {
		t.Errorf("Expected %q but got %q", expected, result)
	}

	runeCount := 0
	for range result {
		runeCount++
	}
	if runeCount != 5 {
		t.Errorf("Expected 5 runes but got %d", runeCount)
	}
}
