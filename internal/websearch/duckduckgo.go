package websearch

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mwiater/docent/internal/logging"
)

const duckDuckGoEndpoint = "https://html.duckduckgo.com/html/"

// DuckDuckGo scrapes the DuckDuckGo HTML results page. It needs no credential.
type DuckDuckGo struct {
	opts options
}

func NewDuckDuckGo(opts ...Option) *DuckDuckGo {
	return &DuckDuckGo{opts: buildOptions(duckDuckGoEndpoint, opts)}
}

func (d *DuckDuckGo) Search(ctx context.Context, query string) ([]string, error) {
	endpoint := d.opts.endpoint + "?q=" + url.QueryEscape(query)
	logging.LogRequest("Request", "duckduckgo", endpoint, nil)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo: create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; docent/1.0)")

	resp, err := d.opts.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo: request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("duckduckgo: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("duckduckgo: parse html: %w", err)
	}

	var results []Result
	doc.Find(".result").Each(func(_ int, s *goquery.Selection) {
		link := s.Find(".result__a").First()
		href, _ := link.Attr("href")
		results = append(results, Result{
			Title:   strings.TrimSpace(link.Text()),
			URL:     resolveRedirect(href),
			Content: strings.Join(strings.Fields(s.Find(".result__snippet").Text()), " "),
		})
	})
	out := snippets(results, d.opts.maxResults)
	logging.LogRequest("Response", "duckduckgo", endpoint, map[string]any{"results": len(out)})
	return out, nil
}

// resolveRedirect unwraps DuckDuckGo's /l/?uddg= redirect links.
func resolveRedirect(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	if u.Scheme == "" && strings.HasPrefix(href, "//") {
		return "https:" + href
	}
	return href
}
