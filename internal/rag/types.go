package rag

import "context"

// Candidate is a passage returned by the vector index with its index-native similarity.
type Candidate struct {
	ID       string
	Text     string
	Score    float64
	Metadata map[string]string
}

// Passage is a candidate after reranking.
type Passage struct {
	Text        string
	RerankScore float64
	Metadata    map[string]string
}

// Ranking is the ordered output of one retrieval pass.
type Ranking struct {
	Passages   []Passage
	Confidence float64
	Candidates int
}

// Contexts returns the passage texts in rank order.
func (r Ranking) Contexts() []string {
	out := make([]string, len(r.Passages))
	for i, p := range r.Passages {
		out[i] = p.Text
	}
	return out
}

// Index returns up to k candidates for a query, ordered by the index's own similarity.
type Index interface {
	Search(ctx context.Context, query string, k int) ([]Candidate, error)
}

// Reranker scores passages against a query. Scores come back in input order.
type Reranker interface {
	ScoreMany(ctx context.Context, query string, texts []string) ([]float64, error)
}

// Document is a chunk ready to be added to the vector index.
type Document struct {
	ID       string
	Text     string
	Metadata map[string]string
}
