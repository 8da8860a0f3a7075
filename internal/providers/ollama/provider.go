// internal/providers/ollama/provider.go
// Package ollama provides a Generator backed by the Ollama /api/generate endpoint.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/mwiater/docent/internal/logging"
	"github.com/mwiater/docent/internal/providers"
)

// Provider implements providers.Generator using Ollama HTTP APIs.
type Provider struct {
	client  *http.Client
	baseURL string
	model   string
	options providers.Options

	mu   sync.Mutex
	last providers.GenerationMetadata
}

// New constructs a Provider for model on baseURL. A zero timeout leaves requests unbounded.
func New(baseURL, model string, options providers.Options, timeout time.Duration) *Provider {
	return &Provider{
		client: &http.Client{
			Timeout:   timeout,
			Transport: &http.Transport{ForceAttemptHTTP2: false},
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		options: options,
	}
}

type generateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt,omitempty"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type generateResponse struct {
	Model              string    `json:"model"`
	CreatedAt          time.Time `json:"created_at"`
	Response           string    `json:"response"`
	Done               bool      `json:"done"`
	TotalDuration      int64     `json:"total_duration"`
	LoadDuration       int64     `json:"load_duration"`
	PromptEvalCount    int       `json:"prompt_eval_count"`
	PromptEvalDuration int64     `json:"prompt_eval_duration"`
	EvalCount          int       `json:"eval_count"`
	EvalDuration       int64     `json:"eval_duration"`
}

// Model reports the configured model name.
func (p *Provider) Model() string {
	return p.model
}

// Generate sends a single non-streaming completion request.
func (p *Provider) Generate(ctx context.Context, prompt string) (string, error) {
	payload := generateRequest{
		Model:  p.model,
		Prompt: prompt,
		Stream: false,
		Options: map[string]any{
			"temperature": p.options.Temperature,
		},
	}
	if p.options.MaxTokens > 0 {
		payload.Options["num_predict"] = p.options.MaxTokens
	}

	resp, err := p.post(ctx, payload)
	if err != nil {
		return "", err
	}

	p.mu.Lock()
	p.last = providers.GenerationMetadata{
		Model:              resp.Model,
		CreatedAt:          resp.CreatedAt,
		TotalDuration:      resp.TotalDuration,
		LoadDuration:       resp.LoadDuration,
		PromptEvalCount:    resp.PromptEvalCount,
		PromptEvalDuration: resp.PromptEvalDuration,
		EvalCount:          resp.EvalCount,
		EvalDuration:       resp.EvalDuration,
	}
	p.mu.Unlock()
	return resp.Response, nil
}

// LastMetadata returns the counters of the most recent successful Generate call.
func (p *Provider) LastMetadata() providers.GenerationMetadata {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

// EnsureModelReady triggers a prompt-less generate request so the model is loaded before timing starts.
func (p *Provider) EnsureModelReady(ctx context.Context) error {
	_, err := p.post(ctx, generateRequest{Model: p.model})
	return err
}

func (p *Provider) post(ctx context.Context, payload generateRequest) (generateResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return generateResponse{}, fmt.Errorf("ollama: marshal request: %w", err)
	}
	endpoint := p.baseURL + "/api/generate"
	logging.LogRequest("DOCENT->LLM", "ollama", endpoint, body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return generateResponse{}, fmt.Errorf("ollama: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return generateResponse{}, fmt.Errorf("ollama: /api/generate: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return generateResponse{}, fmt.Errorf("ollama: read response: %w", err)
	}
	logging.LogRequest("LLM->DOCENT", "ollama", endpoint, respBody)

	if resp.StatusCode != http.StatusOK {
		return generateResponse{}, fmt.Errorf("ollama: /api/generate returned %s: %s", resp.Status, strings.TrimSpace(string(respBody)))
	}

	var parsed generateResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return generateResponse{}, fmt.Errorf("ollama: parse response: %w", err)
	}
	return parsed, nil
}
