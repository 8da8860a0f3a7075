// Package websearch fetches text snippets from web search backends.
package websearch

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Searcher returns text snippets for a query.
type Searcher interface {
	Search(ctx context.Context, query string) ([]string, error)
}

// Result is one hit before it is flattened into a snippet.
type Result struct {
	Title   string
	URL     string
	Content string
}

// Snippet renders a result as prompt-ready text.
func (r Result) Snippet() string {
	var b strings.Builder
	if title := strings.TrimSpace(r.Title); title != "" {
		b.WriteString(title)
		b.WriteString("\n")
	}
	b.WriteString(strings.TrimSpace(r.Content))
	if r.URL != "" {
		fmt.Fprintf(&b, "\nSource: %s", r.URL)
	}
	return b.String()
}

func snippets(results []Result, max int) []string {
	out := make([]string, 0, len(results))
	for _, r := range results {
		if strings.TrimSpace(r.Content) == "" {
			continue
		}
		out = append(out, r.Snippet())
		if max > 0 && len(out) == max {
			break
		}
	}
	return out
}

const defaultTimeout = 30 * time.Second

func defaultClient() *http.Client {
	return &http.Client{Timeout: defaultTimeout}
}

// Option configures a search backend.
type Option func(*options)

type options struct {
	endpoint   string
	maxResults int
	client     *http.Client
}

// WithEndpoint overrides the backend URL.
func WithEndpoint(endpoint string) Option {
	return func(o *options) { o.endpoint = endpoint }
}

func WithMaxResults(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxResults = n
		}
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		if client != nil {
			o.client = client
		}
	}
}

func buildOptions(endpoint string, opts []Option) options {
	o := options{endpoint: endpoint, maxResults: 3, client: defaultClient()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
