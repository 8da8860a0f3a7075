package agent

import (
	"fmt"
	"strings"
)

// Mode selects which answer paths are reachable.
type Mode int

const (
	// Offline answers from the local index only.
	Offline Mode = iota
	// Online may supplement weak local context with web search.
	Online
)

// ParseMode converts a configured mode name into a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "offline":
		return Offline, nil
	case "online":
		return Online, nil
	default:
		return Offline, fmt.Errorf("unknown mode %q", s)
	}
}

func (m Mode) String() string {
	if m == Online {
		return "online"
	}
	return "offline"
}

// Decision is the routing outcome for one question.
type Decision int

const (
	// Generate answers from the retrieved contexts alone.
	Generate Decision = iota
	// WebAugmentedGenerate fetches web snippets before answering.
	WebAugmentedGenerate
)

func (d Decision) String() string {
	if d == WebAugmentedGenerate {
		return "web_augmented_generate"
	}
	return "generate"
}

// Route decides whether the retrieval confidence is too weak to answer from local context.
// Offline never reaches web search. Online searches only when confidence is strictly below threshold.
func Route(mode Mode, confidence, threshold float64) Decision {
	if mode != Online {
		return Generate
	}
	if confidence < threshold {
		return WebAugmentedGenerate
	}
	return Generate
}
