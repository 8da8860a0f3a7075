package rag

import (
	"fmt"
	"strings"

	"github.com/mwiater/docent/internal/util"
)

// FormatRanking renders kept passages as numbered lines with score, source, and a text preview.
// Each preview is cut to previewRunes; a non-positive value disables previews.
func FormatRanking(r Ranking, previewRunes int) string {
	if len(r.Passages) == 0 {
		return "no passages retrieved"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "kept %d of %d candidates (confidence %.4f)\n", len(r.Passages), r.Candidates, r.Confidence)
	for i, p := range r.Passages {
		source := p.Metadata["source"]
		if source == "" {
			source = "unknown"
		}
		if section := p.Metadata["section"]; section != "" {
			source += " / " + section
		}
		fmt.Fprintf(&b, "[%d] score=%.4f source=%s", i+1, p.RerankScore, source)
		if previewRunes > 0 {
			preview := strings.Join(strings.Fields(p.Text), " ")
			fmt.Fprintf(&b, "\n    %s", util.TruncateRunes(preview, previewRunes))
		}
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}
