package rerank

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestClientScoreManyRestoresInputOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("expected bearer auth, got %q", got)
		}
		var req rerankRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != "cross-encoder" || req.Query != "q" || len(req.Documents) != 3 {
			t.Errorf("unexpected request %+v", req)
		}
		// Results arrive sorted by relevance, not by input index.
		_, _ = w.Write([]byte(`{"results":[{"index":2,"relevance_score":0.9},{"index":0,"relevance_score":0.5},{"index":1,"relevance_score":-1.5}]}`))
	}))
	defer srv.Close()

	c, err := NewClient(srv.URL, WithAPIKey("secret"), WithModel("cross-encoder"), WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}
	scores, err := c.ScoreMany(context.Background(), "q", []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("ScoreMany error: %v", err)
	}
	want := []float64{0.5, -1.5, 0.9}
	for i := range want {
		if scores[i] != want[i] {
			t.Fatalf("score %d: expected %v, got %v", i, want[i], scores[i])
		}
	}
}

func TestClientErrors(t *testing.T) {
	if _, err := NewClient(" "); err == nil {
		t.Fatalf("expected error for empty endpoint")
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "partial") {
			_, _ = w.Write([]byte(`{"results":[{"index":0,"relevance_score":0.1}]}`))
			return
		}
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, _ := NewClient(srv.URL+"/rerank", WithHTTPClient(srv.Client()))
	if _, err := c.Score(context.Background(), "q", "a"); err == nil || !strings.Contains(err.Error(), "503") {
		t.Fatalf("expected status error, got %v", err)
	}

	partial, _ := NewClient(srv.URL+"/partial", WithHTTPClient(srv.Client()))
	if _, err := partial.ScoreMany(context.Background(), "q", []string{"a", "b"}); err == nil {
		t.Fatalf("expected error when a document has no score")
	}
}

type countingScorer struct {
	calls int
	texts []string
	err   error
}

func (c *countingScorer) Score(ctx context.Context, query, text string) (float64, error) {
	s, err := c.ScoreMany(ctx, query, []string{text})
	if err != nil {
		return 0, err
	}
	return s[0], nil
}

func (c *countingScorer) ScoreMany(_ context.Context, _ string, texts []string) ([]float64, error) {
	c.calls++
	c.texts = append(c.texts, texts...)
	if c.err != nil {
		return nil, c.err
	}
	out := make([]float64, len(texts))
	for i, t := range texts {
		out[i] = float64(len(t))
	}
	return out, nil
}

func TestCachedOnlyScoresMisses(t *testing.T) {
	inner := &countingScorer{}
	cached, err := NewCached(inner, 8)
	if err != nil {
		t.Fatalf("NewCached error: %v", err)
	}

	first, err := cached.ScoreMany(context.Background(), "q", []string{"a", "bb"})
	if err != nil {
		t.Fatalf("ScoreMany error: %v", err)
	}
	if first[0] != 1 || first[1] != 2 {
		t.Fatalf("unexpected scores %v", first)
	}

	second, err := cached.ScoreMany(context.Background(), "q", []string{"bb", "ccc", "a"})
	if err != nil {
		t.Fatalf("ScoreMany error: %v", err)
	}
	if second[0] != 2 || second[1] != 3 || second[2] != 1 {
		t.Fatalf("unexpected scores %v", second)
	}
	if inner.calls != 2 || len(inner.texts) != 3 {
		t.Fatalf("expected 2 calls over 3 distinct texts, got calls=%d texts=%v", inner.calls, inner.texts)
	}

	if _, err := cached.Score(context.Background(), "other", "a"); err != nil {
		t.Fatalf("Score error: %v", err)
	}
	if inner.calls != 3 {
		t.Fatalf("expected a different query to miss the cache")
	}
	if cached.Len() != 4 {
		t.Fatalf("expected 4 cached pairs, got %d", cached.Len())
	}
}

func TestCachedPropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	cached, _ := NewCached(&countingScorer{err: boom}, 0)
	if _, err := cached.ScoreMany(context.Background(), "q", []string{"a"}); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped scorer error, got %v", err)
	}
	if cached.Len() != 0 {
		t.Fatalf("failed scores must not be cached")
	}
	if _, err := NewCached(nil, 1); err == nil {
		t.Fatalf("expected error for nil scorer")
	}
}
