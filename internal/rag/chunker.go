package rag

import (
	"strings"
	"unicode"
)

// ChunkText splits text into overlapping chunks of at most chunkSize runes.
// A chunk ends at the last whitespace inside its window when one exists past the overlap.
func ChunkText(text string, chunkSize, overlap int) []chunk {
	if chunkSize <= 0 {
		return nil
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = 0
	}

	runes := []rune(strings.TrimSpace(text))
	if len(runes) == 0 {
		return nil
	}

	var chunks []chunk
	start := 0
	for start < len(runes) {
		end := start + chunkSize
		if end >= len(runes) {
			end = len(runes)
		} else if cut := lastSpace(runes[start:end]); cut > overlap {
			end = start + cut
		}

		piece := strings.TrimSpace(string(runes[start:end]))
		if piece != "" {
			chunks = append(chunks, chunk{Offset: start, Text: piece, Chars: len([]rune(piece))})
		}
		if end == len(runes) {
			break
		}
		next := end - overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return chunks
}

func lastSpace(window []rune) int {
	for i := len(window) - 1; i > 0; i-- {
		if unicode.IsSpace(window[i]) {
			return i
		}
	}
	return -1
}

type chunk struct {
	Offset int
	Text   string
	Chars  int
}

// Section is one "# " heading block of an llms.txt file.
type Section struct {
	Source string
	Title  string
	Text   string
}

// ParseSections splits llms.txt content on lines starting with "# ".
// Text before the first heading becomes a section titled "intro"; empty sections are dropped.
func ParseSections(content, source string) []Section {
	var (
		sections []Section
		title    = "intro"
		body     strings.Builder
	)
	flush := func() {
		text := strings.TrimSpace(body.String())
		if text != "" {
			sections = append(sections, Section{Source: source, Title: title, Text: text})
		}
		body.Reset()
	}

	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(line, "# ") {
			flush()
			title = strings.TrimSpace(strings.TrimPrefix(line, "# "))
		}
		body.WriteString(line)
		body.WriteByte('\n')
	}
	flush()
	return sections
}
