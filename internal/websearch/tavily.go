package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/mwiater/docent/internal/logging"
)

const tavilyEndpoint = "https://api.tavily.com/search"

// Tavily queries the Tavily search API.
type Tavily struct {
	apiKey string
	opts   options
}

// NewTavily requires a non-empty API key.
func NewTavily(apiKey string, opts ...Option) (*Tavily, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("tavily: api key is required")
	}
	return &Tavily{apiKey: apiKey, opts: buildOptions(tavilyEndpoint, opts)}, nil
}

type tavilyRequest struct {
	APIKey     string `json:"api_key"`
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
}

type tavilyResponse struct {
	Results []struct {
		Title   string  `json:"title"`
		URL     string  `json:"url"`
		Content string  `json:"content"`
		Score   float64 `json:"score"`
	} `json:"results"`
}

func (t *Tavily) Search(ctx context.Context, query string) ([]string, error) {
	body, err := json.Marshal(tavilyRequest{APIKey: t.apiKey, Query: query, MaxResults: t.opts.maxResults})
	if err != nil {
		return nil, fmt.Errorf("tavily: marshal request: %w", err)
	}
	logging.LogRequest("Request", "tavily", t.opts.endpoint, map[string]any{"query": query, "max_results": t.opts.maxResults})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.opts.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("tavily: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.opts.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tavily: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("tavily: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tavily: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var parsed tavilyResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("tavily: parse response: %w", err)
	}
	results := make([]Result, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		results = append(results, Result{Title: r.Title, URL: r.URL, Content: r.Content})
	}
	out := snippets(results, t.opts.maxResults)
	logging.LogRequest("Response", "tavily", t.opts.endpoint, map[string]any{"results": len(out)})
	return out, nil
}
