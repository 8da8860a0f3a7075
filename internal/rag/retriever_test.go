package rag

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
)

type fakeIndex struct {
	candidates []Candidate
	gotK       int
	err        error
}

func (f *fakeIndex) Search(_ context.Context, _ string, k int) ([]Candidate, error) {
	f.gotK = k
	if f.err != nil {
		return nil, f.err
	}
	if k < len(f.candidates) {
		return f.candidates[:k], nil
	}
	return f.candidates, nil
}

type fakeReranker struct {
	scores map[string]float64
	calls  int
	texts  int
	err    error
	short  bool
}

func (f *fakeReranker) ScoreMany(_ context.Context, _ string, texts []string) ([]float64, error) {
	f.calls++
	f.texts += len(texts)
	if f.err != nil {
		return nil, f.err
	}
	out := make([]float64, 0, len(texts))
	for _, t := range texts {
		out = append(out, f.scores[t])
	}
	if f.short {
		out = out[:len(out)-1]
	}
	return out, nil
}

func makeCandidates(n int) []Candidate {
	out := make([]Candidate, n)
	for i := range out {
		out[i] = Candidate{Text: fmt.Sprintf("passage-%d", i), Score: 1 - float64(i)/10}
	}
	return out
}

func TestRetrieveRankedOverfetchesAndKeepsTopK(t *testing.T) {
	index := &fakeIndex{candidates: makeCandidates(10)}
	scores := map[string]float64{}
	for i := 0; i < 10; i++ {
		scores[fmt.Sprintf("passage-%d", i)] = float64(i) / 10
	}
	reranker := &fakeReranker{scores: scores}
	stage, err := NewStage(index, reranker)
	if err != nil {
		t.Fatalf("NewStage error: %v", err)
	}

	ranking, err := stage.RetrieveRanked(context.Background(), "q", 5)
	if err != nil {
		t.Fatalf("RetrieveRanked error: %v", err)
	}
	if index.gotK != 10 {
		t.Fatalf("expected index to be asked for 10 candidates, got %d", index.gotK)
	}
	if reranker.texts != 10 {
		t.Fatalf("expected all 10 candidates to be reranked, got %d", reranker.texts)
	}
	if len(ranking.Passages) != 5 {
		t.Fatalf("expected 5 kept passages, got %d", len(ranking.Passages))
	}
	if ranking.Passages[0].Text != "passage-9" || ranking.Passages[4].Text != "passage-5" {
		t.Fatalf("unexpected order: %+v", ranking.Contexts())
	}
	want := (0.9 + 0.8 + 0.7 + 0.6 + 0.5) / 5
	if math.Abs(ranking.Confidence-want) > 1e-9 {
		t.Fatalf("expected confidence %v (mean of kept), got %v", want, ranking.Confidence)
	}
	if ranking.Candidates != 10 {
		t.Fatalf("expected 10 candidates recorded, got %d", ranking.Candidates)
	}
}

func TestRetrieveRankedTiesKeepIndexOrder(t *testing.T) {
	index := &fakeIndex{candidates: makeCandidates(4)}
	reranker := &fakeReranker{scores: map[string]float64{
		"passage-0": 0.5, "passage-1": 0.9, "passage-2": 0.5, "passage-3": 0.5,
	}}
	stage, _ := NewStage(index, reranker)

	ranking, err := stage.RetrieveRanked(context.Background(), "q", 2)
	if err != nil {
		t.Fatalf("RetrieveRanked error: %v", err)
	}
	got := ranking.Contexts()
	if got[0] != "passage-1" || got[1] != "passage-0" {
		t.Fatalf("expected stable tie order [passage-1 passage-0], got %v", got)
	}
}

func TestRetrieveRankedFewerThanK(t *testing.T) {
	index := &fakeIndex{candidates: makeCandidates(3)}
	reranker := &fakeReranker{scores: map[string]float64{"passage-0": 1, "passage-1": 2, "passage-2": 3}}
	stage, _ := NewStage(index, reranker)

	ranking, err := stage.RetrieveRanked(context.Background(), "q", 5)
	if err != nil {
		t.Fatalf("RetrieveRanked error: %v", err)
	}
	if len(ranking.Passages) != 3 {
		t.Fatalf("expected 3 passages, got %d", len(ranking.Passages))
	}
	if ranking.Confidence != 2 {
		t.Fatalf("expected confidence 2, got %v", ranking.Confidence)
	}
}

func TestRetrieveRankedEmptyIndex(t *testing.T) {
	reranker := &fakeReranker{}
	stage, _ := NewStage(&fakeIndex{}, reranker)

	ranking, err := stage.RetrieveRanked(context.Background(), "q", 5)
	if err != nil {
		t.Fatalf("RetrieveRanked error: %v", err)
	}
	if len(ranking.Passages) != 0 || ranking.Confidence != 0 {
		t.Fatalf("expected empty ranking with zero confidence, got %+v", ranking)
	}
	if reranker.calls != 0 {
		t.Fatalf("expected no rerank calls for an empty index, got %d", reranker.calls)
	}
}

func TestRetrieveRankedErrors(t *testing.T) {
	boom := errors.New("boom")

	stage, _ := NewStage(&fakeIndex{err: boom}, &fakeReranker{})
	if _, err := stage.RetrieveRanked(context.Background(), "q", 2); !errors.Is(err, boom) {
		t.Fatalf("expected index error to propagate, got %v", err)
	}

	stage, _ = NewStage(&fakeIndex{candidates: makeCandidates(2)}, &fakeReranker{err: boom})
	if _, err := stage.RetrieveRanked(context.Background(), "q", 2); !errors.Is(err, boom) {
		t.Fatalf("expected rerank error to propagate, got %v", err)
	}

	stage, _ = NewStage(&fakeIndex{candidates: makeCandidates(2)}, &fakeReranker{short: true})
	if _, err := stage.RetrieveRanked(context.Background(), "q", 2); err == nil {
		t.Fatalf("expected error when the reranker returns too few scores")
	}
}

func TestNewStageRequiresCollaborators(t *testing.T) {
	if _, err := NewStage(nil, &fakeReranker{}); err == nil {
		t.Fatalf("expected error for nil index")
	}
	if _, err := NewStage(&fakeIndex{}, nil); err == nil {
		t.Fatalf("expected error for nil reranker")
	}
}

func TestFormatRanking(t *testing.T) {
	r := Ranking{
		Passages: []Passage{
			{Text: "StateGraph   compiles\nnodes", RerankScore: 0.75, Metadata: map[string]string{"source": "langgraph", "section": "Graphs"}},
		},
		Confidence: 0.75,
		Candidates: 2,
	}
	got := FormatRanking(r, 10)
	want := "kept 1 of 2 candidates (confidence 0.7500)\n[1] score=0.7500 source=langgraph / Graphs\n    StateGraph…"
	if got != want {
		t.Fatalf("unexpected format:\n%s\nwant:\n%s", got, want)
	}
	if FormatRanking(Ranking{}, 10) != "no passages retrieved" {
		t.Fatalf("expected placeholder for empty ranking")
	}
}
