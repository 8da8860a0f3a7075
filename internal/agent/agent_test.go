package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/mwiater/docent/internal/rag"
	"github.com/mwiater/docent/internal/telemetry"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

type stubRetriever struct {
	ranking rag.Ranking
	err     error
	gotK    int
}

func (s *stubRetriever) RetrieveRanked(_ context.Context, _ string, k int) (rag.Ranking, error) {
	s.gotK = k
	return s.ranking, s.err
}

type stubGenerator struct {
	prompts []string
	answer  string
	err     error
}

func (s *stubGenerator) Generate(_ context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	return s.answer, s.err
}

type stubSearcher struct {
	snippets []string
	err      error
	calls    int
}

func (s *stubSearcher) Search(_ context.Context, _ string) ([]string, error) {
	s.calls++
	return s.snippets, s.err
}

func ranking(confidence float64, texts ...string) rag.Ranking {
	r := rag.Ranking{Confidence: confidence, Candidates: len(texts) * 2}
	for _, t := range texts {
		r.Passages = append(r.Passages, rag.Passage{Text: t, RerankScore: confidence})
	}
	return r
}

func TestAskOfflineGeneratesFromContext(t *testing.T) {
	retriever := &stubRetriever{ranking: ranking(-3, "ctx one", "ctx two")}
	gen := &stubGenerator{answer: "use MemorySaver"}
	search := &stubSearcher{}
	a, err := New(retriever, gen, WithSearcher(search), WithK(3), WithThreshold(0.9))
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	s, err := a.Ask(context.Background(), "  How do I persist state?  ")
	if err != nil {
		t.Fatalf("Ask error: %v", err)
	}
	if s.Decision != Generate || s.Answer != "use MemorySaver" {
		t.Fatalf("unexpected state %+v", s)
	}
	if search.calls != 0 {
		t.Fatalf("offline mode must never search")
	}
	if retriever.gotK != 3 {
		t.Fatalf("expected k=3, got %d", retriever.gotK)
	}
	wantPrompt := "Based on the following context, answer the question.\n\nContext:\nctx one\n\nctx two\n\nQuestion: How do I persist state?\n\nAnswer:"
	if gen.prompts[0] != wantPrompt {
		t.Fatalf("unexpected prompt:\n%q\nwant:\n%q", gen.prompts[0], wantPrompt)
	}
}

func TestAskOnlineLowConfidenceSearchesWeb(t *testing.T) {
	rec := telemetry.NewRecorder()
	retriever := &stubRetriever{ranking: ranking(0.1, "weak ctx")}
	gen := &stubGenerator{answer: "web answer"}
	search := &stubSearcher{snippets: []string{"snippet a", "snippet b"}}
	a, err := New(retriever, gen, WithMode(Online), WithSearcher(search), WithThreshold(0.3), WithRecorder(rec))
	if err != nil {
		t.Fatalf("New error: %v", err)
	}

	s, err := a.Ask(context.Background(), "q")
	if err != nil {
		t.Fatalf("Ask error: %v", err)
	}
	if s.Decision != WebAugmentedGenerate || len(s.WebResults) != 2 || search.calls != 1 {
		t.Fatalf("expected web-augmented answer, got %+v", s)
	}
	want := "Answer the question using both the context and web results.\n\nContext:\nweak ctx\n\nWeb Results:\nsnippet a\n\nsnippet b\n\nQuestion: q\n\nAnswer:"
	if gen.prompts[0] != want {
		t.Fatalf("unexpected prompt:\n%q", gen.prompts[0])
	}
	count, err := testutil.GatherAndCount(rec.Registry(), "docent_route_decisions_total")
	if err != nil || count != 1 {
		t.Fatalf("expected one recorded route series, got %d (%v)", count, err)
	}
}

func TestAskOnlineAtThresholdSkipsWeb(t *testing.T) {
	search := &stubSearcher{}
	a, _ := New(&stubRetriever{ranking: ranking(0.3, "ctx")}, &stubGenerator{answer: "x"}, WithMode(Online), WithSearcher(search), WithThreshold(0.3))
	s, err := a.Ask(context.Background(), "q")
	if err != nil {
		t.Fatalf("Ask error: %v", err)
	}
	if s.Decision != Generate || search.calls != 0 {
		t.Fatalf("expected plain generation at the threshold, got %+v", s)
	}
}

func TestAskPropagatesCollaboratorErrors(t *testing.T) {
	boom := errors.New("boom")

	a, _ := New(&stubRetriever{err: boom}, &stubGenerator{})
	if _, err := a.Ask(context.Background(), "q"); !errors.Is(err, boom) || !strings.Contains(err.Error(), "retrieve") {
		t.Fatalf("expected retrieve error, got %v", err)
	}

	a, _ = New(&stubRetriever{}, &stubGenerator{err: boom})
	if _, err := a.Ask(context.Background(), "q"); !errors.Is(err, boom) || !strings.Contains(err.Error(), "generate") {
		t.Fatalf("expected generate error, got %v", err)
	}

	a, _ = New(&stubRetriever{}, &stubGenerator{}, WithMode(Online), WithSearcher(&stubSearcher{err: boom}), WithThreshold(1))
	s, err := a.Ask(context.Background(), "q")
	if !errors.Is(err, boom) || !strings.Contains(err.Error(), "web search") {
		t.Fatalf("expected web search error, got %v", err)
	}
	if s.Decision != WebAugmentedGenerate {
		t.Fatalf("expected partial state to carry the decision, got %+v", s)
	}

	if _, err := a.Ask(context.Background(), "   "); err == nil {
		t.Fatalf("expected error for empty question")
	}
}

func TestNewValidatesWiring(t *testing.T) {
	if _, err := New(nil, &stubGenerator{}); err == nil {
		t.Fatalf("expected error without retriever")
	}
	if _, err := New(&stubRetriever{}, nil); err == nil {
		t.Fatalf("expected error without generator")
	}
	if _, err := New(&stubRetriever{}, &stubGenerator{}, WithMode(Online)); err == nil {
		t.Fatalf("expected error for online mode without searcher")
	}
	if _, err := New(&stubRetriever{}, &stubGenerator{}, WithK(0)); err == nil {
		t.Fatalf("expected error for k=0")
	}

	a, _ := New(&stubRetriever{}, &stubGenerator{})
	if err := a.SetMode(Online); err == nil {
		t.Fatalf("expected SetMode(Online) to fail without searcher")
	}
	if a.Mode() != Offline {
		t.Fatalf("mode must be unchanged after a refused switch")
	}
}
