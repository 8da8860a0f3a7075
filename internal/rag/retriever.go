package rag

import (
	"context"
	"fmt"
	"sort"

	"github.com/mwiater/docent/internal/logging"
)

// OverfetchFactor is how many index candidates are requested per kept passage.
const OverfetchFactor = 2

// Stage retrieves candidates from an index and reorders them with a reranker.
type Stage struct {
	index    Index
	reranker Reranker
}

// NewStage wires an index and a reranker into a retrieval stage.
func NewStage(index Index, reranker Reranker) (*Stage, error) {
	if index == nil {
		return nil, fmt.Errorf("retrieval stage requires an index")
	}
	if reranker == nil {
		return nil, fmt.Errorf("retrieval stage requires a reranker")
	}
	return &Stage{index: index, reranker: reranker}, nil
}

// RetrieveRanked over-fetches 2k candidates, rescores every one of them, and keeps the top k.
// Confidence is the mean rerank score of the kept passages, or 0 when none were found.
func (s *Stage) RetrieveRanked(ctx context.Context, query string, k int) (Ranking, error) {
	if k <= 0 {
		return Ranking{}, nil
	}
	candidates, err := s.index.Search(ctx, query, k*OverfetchFactor)
	if err != nil {
		return Ranking{}, fmt.Errorf("vector search: %w", err)
	}
	if len(candidates) == 0 {
		logging.LogDebug("[RAG] no candidates for query %q", query)
		return Ranking{}, nil
	}

	texts := make([]string, len(candidates))
	for i, c := range candidates {
		texts[i] = c.Text
	}
	scores, err := s.reranker.ScoreMany(ctx, query, texts)
	if err != nil {
		return Ranking{}, fmt.Errorf("rerank: %w", err)
	}
	if len(scores) != len(candidates) {
		return Ranking{}, fmt.Errorf("rerank: expected %d scores, got %d", len(candidates), len(scores))
	}

	passages := make([]Passage, len(candidates))
	for i, c := range candidates {
		passages[i] = Passage{Text: c.Text, RerankScore: scores[i], Metadata: c.Metadata}
	}
	sort.SliceStable(passages, func(i, j int) bool {
		return passages[i].RerankScore > passages[j].RerankScore
	})
	if len(passages) > k {
		passages = passages[:k]
	}

	ranking := Ranking{
		Passages:   passages,
		Confidence: meanScore(passages),
		Candidates: len(candidates),
	}
	logging.LogDebug("[RAG] kept %d of %d candidates, confidence=%.4f", len(passages), len(candidates), ranking.Confidence)
	return ranking, nil
}

func meanScore(passages []Passage) float64 {
	if len(passages) == 0 {
		return 0
	}
	sum := 0.0
	for _, p := range passages {
		sum += p.RerankScore
	}
	return sum / float64(len(passages))
}
