package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ternarybob/arbor"
)

// HTTPFallback is the fallback search.Provider selected when
// ai-settings.search_provider = "http": DuckDuckGo's keyless Instant
// Answer API, following the same bare net/http request/response shape
// as the wikipedia client (no SDK, no API key required).
type HTTPFallback struct {
	httpClient *http.Client
	userAgent  string
	logger     arbor.ILogger
}

func NewHTTPFallback(logger arbor.ILogger, userAgent string, timeout time.Duration) *HTTPFallback {
	if userAgent == "" {
		userAgent = "job-finder-worker/1.0"
	}
	return &HTTPFallback{httpClient: &http.Client{Timeout: timeout}, userAgent: userAgent, logger: logger}
}

type duckDuckGoResponse struct {
	AbstractText  string `json:"AbstractText"`
	AbstractURL   string `json:"AbstractURL"`
	Heading       string `json:"Heading"`
	RelatedTopics []struct {
		Text     string `json:"Text"`
		FirstURL string `json:"FirstURL"`
	} `json:"RelatedTopics"`
}

func (h *HTTPFallback) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	reqURL := fmt.Sprintf("https://api.duckduckgo.com/?q=%s&format=json&no_html=1&skip_disambig=1", url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("User-Agent", h.userAgent)

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned status %d", resp.StatusCode)
	}

	var ddg duckDuckGoResponse
	if err := json.NewDecoder(resp.Body).Decode(&ddg); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	var results []Result
	if ddg.AbstractURL != "" {
		results = append(results, Result{Title: ddg.Heading, URL: ddg.AbstractURL, Snippet: ddg.AbstractText})
	}
	for _, topic := range ddg.RelatedTopics {
		if len(results) >= maxResults {
			break
		}
		if topic.FirstURL == "" {
			continue
		}
		results = append(results, Result{Title: topic.Text, URL: topic.FirstURL, Snippet: topic.Text})
	}
	return results, nil
}

var _ Provider = (*HTTPFallback)(nil)
