// internal/providers/provider.go

// Package providers defines the contracts for the language model backends used to answer questions.
package providers

import (
	"context"
	"time"
)

// Generator turns a prompt into completion text. Implementations return the text verbatim.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GenerationMetadata carries timing and token counts reported by a backend.
type GenerationMetadata struct {
	Model              string
	CreatedAt          time.Time
	TotalDuration      int64
	LoadDuration       int64
	PromptEvalCount    int
	PromptEvalDuration int64
	EvalCount          int
	EvalDuration       int64
}

// TokensPerSecond derives throughput from the eval counters.
func (m GenerationMetadata) TokensPerSecond() float64 {
	if m.EvalDuration <= 0 {
		return 0
	}
	return float64(m.EvalCount) / (float64(m.EvalDuration) / 1e9)
}

// Options are the sampling parameters sent with every request.
type Options struct {
	Temperature float64
	MaxTokens   int
}
