package rerank

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

type cacheKey struct {
	query string
	text  string
}

// Cached memoizes scores per (query, text) pair. Only misses reach the wrapped Scorer.
type Cached struct {
	next  Scorer
	cache *lru.Cache[cacheKey, float64]
}

// NewCached wraps next with an LRU cache holding up to size entries.
func NewCached(next Scorer, size int) (*Cached, error) {
	if next == nil {
		return nil, fmt.Errorf("cached scorer requires a scorer")
	}
	if size <= 0 {
		size = 1024
	}
	cache, err := lru.New[cacheKey, float64](size)
	if err != nil {
		return nil, fmt.Errorf("create rerank cache: %w", err)
	}
	return &Cached{next: next, cache: cache}, nil
}

func (c *Cached) Score(ctx context.Context, query, text string) (float64, error) {
	scores, err := c.ScoreMany(ctx, query, []string{text})
	if err != nil {
		return 0, err
	}
	return scores[0], nil
}

func (c *Cached) ScoreMany(ctx context.Context, query string, texts []string) ([]float64, error) {
	scores := make([]float64, len(texts))
	var (
		missTexts []string
		missIdx   []int
	)
	for i, text := range texts {
		if score, ok := c.cache.Get(cacheKey{query, text}); ok {
			scores[i] = score
			continue
		}
		missTexts = append(missTexts, text)
		missIdx = append(missIdx, i)
	}
	if len(missTexts) == 0 {
		return scores, nil
	}

	fresh, err := c.next.ScoreMany(ctx, query, missTexts)
	if err != nil {
		return nil, err
	}
	if len(fresh) != len(missTexts) {
		return nil, fmt.Errorf("scorer returned %d scores for %d texts", len(fresh), len(missTexts))
	}
	for j, i := range missIdx {
		scores[i] = fresh[j]
		c.cache.Add(cacheKey{query, missTexts[j]}, fresh[j])
	}
	return scores, nil
}

// Len reports the number of cached pairs.
func (c *Cached) Len() int {
	return c.cache.Len()
}
