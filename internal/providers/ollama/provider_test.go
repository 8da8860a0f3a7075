// internal/providers/ollama/provider_test.go
package ollama

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mwiater/docent/internal/providers"
)

// TestProviderGenerate verifies a single non-streaming request with sampling options.
func TestProviderGenerate(t *testing.T) {
	t.Parallel()

	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Errorf("read body: %v", err)
		}
		if err := json.Unmarshal(body, &captured); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model":"llama3.2:3b","response":"  final answer\n","done":true,"eval_count":20,"eval_duration":2000000000}`))
	}))
	defer server.Close()

	p := New(server.URL+"/", "llama3.2:3b", providers.Options{Temperature: 0.1, MaxTokens: 2000}, 5*time.Second)
	got, err := p.Generate(context.Background(), "What is LangGraph?")
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if got != "  final answer\n" {
		t.Fatalf("expected verbatim response, got %q", got)
	}

	if captured["stream"] != false || captured["prompt"] != "What is LangGraph?" || captured["model"] != "llama3.2:3b" {
		t.Fatalf("unexpected request body: %v", captured)
	}
	opts, ok := captured["options"].(map[string]any)
	if !ok {
		t.Fatalf("expected options object, got %v", captured["options"])
	}
	if opts["temperature"] != 0.1 || opts["num_predict"] != float64(2000) {
		t.Fatalf("unexpected options: %v", opts)
	}

	meta := p.LastMetadata()
	if meta.EvalCount != 20 || meta.TokensPerSecond() != 10 {
		t.Fatalf("unexpected metadata: %+v", meta)
	}
}

func TestProviderGenerateErrorStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"model 'missing' not found"}`, http.StatusNotFound)
	}))
	defer server.Close()

	p := New(server.URL, "missing", providers.Options{}, time.Second)
	_, err := p.Generate(context.Background(), "hi")
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected not found error, got %v", err)
	}
	if err := p.EnsureModelReady(context.Background()); err == nil {
		t.Fatalf("expected EnsureModelReady to surface the status")
	}
}

func TestEnsureModelReadySendsNoPrompt(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if _, ok := body["prompt"]; ok {
			t.Errorf("warm-up request must not carry a prompt: %v", body)
		}
		_, _ = w.Write([]byte(`{"model":"m","done":true}`))
	}))
	defer server.Close()

	if err := New(server.URL, "m", providers.Options{}, time.Second).EnsureModelReady(context.Background()); err != nil {
		t.Fatalf("EnsureModelReady error: %v", err)
	}
}
