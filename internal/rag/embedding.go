package rag

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/mwiater/docent/internal/logging"
	chromem "github.com/philippgille/chromem-go"
)

type embeddingResponse struct {
	Embedding []float32 `json:"embedding"`
}

// NewOllamaEmbedder returns a chromem embedding function backed by the Ollama embeddings endpoint.
func NewOllamaEmbedder(client *http.Client, baseURL, model string) chromem.EmbeddingFunc {
	if client == nil {
		client = http.DefaultClient
	}
	baseURL = strings.TrimRight(baseURL, "/")
	return func(ctx context.Context, text string) ([]float32, error) {
		return EmbedText(ctx, client, baseURL, model, text)
	}
}

// EmbedText requests an embedding vector for text from an Ollama host.
func EmbedText(ctx context.Context, client *http.Client, baseURL, model, text string) ([]float32, error) {
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("embedding model is empty")
	}
	payload := map[string]any{
		"model":  model,
		"prompt": text,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal embedding request: %w", err)
	}

	endpoint := baseURL + "/api/embeddings"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	logging.LogRequest("Request", "ollama-embed", endpoint, map[string]any{"model": model, "chars": len(text)})

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read embedding response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding request failed: %s: %s", resp.Status, strings.TrimSpace(string(raw)))
	}

	var parsed embeddingResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse embedding response: %w", err)
	}
	if len(parsed.Embedding) == 0 {
		return nil, fmt.Errorf("embedding response returned empty vector")
	}
	logging.LogRequest("Response", "ollama-embed", endpoint, map[string]any{"dimensions": len(parsed.Embedding)})
	return parsed.Embedding, nil
}
