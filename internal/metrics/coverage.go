package metrics

import "strings"

// TopicCoverage is the fraction of expected topics found anywhere in the answer, ignoring case.
// Matching is plain substring search, so "cat" matches "category".
func TopicCoverage(answer string, expected []string) float64 {
	if len(expected) == 0 {
		return 1.0
	}
	lower := strings.ToLower(answer)
	found := 0
	for _, topic := range expected {
		if strings.Contains(lower, strings.ToLower(topic)) {
			found++
		}
	}
	return float64(found) / float64(len(expected))
}

// SnippetPresence is TopicCoverage with case-sensitive matching of verbatim fragments.
func SnippetPresence(answer string, snippets []string) float64 {
	if len(snippets) == 0 {
		return 1.0
	}
	found := 0
	for _, s := range snippets {
		if strings.Contains(answer, s) {
			found++
		}
	}
	return float64(found) / float64(len(snippets))
}
