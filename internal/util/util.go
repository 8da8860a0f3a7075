// Package util holds small text and file helpers shared by the commands.
package util

import (
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// WriteFile writes data with 0o644 permissions, creating parent directories as needed.
func WriteFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// TruncateRunes cuts text to maxRunes runes and marks the cut with an ellipsis.
func TruncateRunes(text string, maxRunes int) string {
	return TruncateWithSuffix(text, maxRunes, "…")
}

// TruncateWithSuffix keeps the first maxRunes runes and appends suffix when anything was cut.
// A negative maxRunes disables truncation.
func TruncateWithSuffix(text string, maxRunes int, suffix string) string {
	if maxRunes < 0 || utf8.RuneCountInString(text) <= maxRunes {
		return text
	}
	return string([]rune(text)[:maxRunes]) + suffix
}

// WrapToWidth greedily wraps each line of text at width runes. Lines that already
// fit are kept verbatim and words longer than width are split. A non-positive
// width returns text unchanged.
func WrapToWidth(text string, width int) string {
	if width <= 0 {
		return text
	}
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		out = append(out, wrapLine(line, width)...)
	}
	return strings.Join(out, "\n")
}

func wrapLine(line string, width int) []string {
	if utf8.RuneCountInString(line) <= width {
		return []string{line}
	}
	words := strings.Fields(line)
	if len(words) == 0 {
		return []string{""}
	}

	var (
		rows []string
		cur  []rune
	)
	for _, word := range words {
		w := []rune(word)
		for len(w) > width {
			if len(cur) > 0 {
				rows = append(rows, string(cur))
				cur = nil
			}
			rows = append(rows, string(w[:width]))
			w = w[width:]
		}
		switch {
		case len(w) == 0:
		case len(cur) == 0:
			cur = w
		case len(cur)+1+len(w) <= width:
			cur = append(append(cur, ' '), w...)
		default:
			rows = append(rows, string(cur))
			cur = w
		}
	}
	if len(cur) > 0 {
		rows = append(rows, string(cur))
	}
	return rows
}
