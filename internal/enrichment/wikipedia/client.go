// Package wikipedia implements the Wikipedia/Wikidata lookup enrichment
// client (spec §4.4): given a company name, returns whatever subset of
// {about, headquarters_location, industry, founded} the public REST
// summary carries; website and employee_count are not filled. Stateless
// request/response, no retries - a failure returns a typed empty
// Result with a Reason, per §9 "Enrichment clients do no retry".
package wikipedia

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
)

const summaryBaseURL = "https://en.wikipedia.org/api/rest_v1/page/summary/"

// Result is the lookup's output. Fields are left zero-valued when the
// source did not carry them - the client never invents data (spec §4.4).
type Result struct {
	Found                bool
	About                string
	Website              string
	HeadquartersLocation string
	Industry             string
	Founded              string
	EmployeeCount        int
	SourceTag            string // "wikipedia" or "" when not found
	Reason               string // populated when Found is false
}

// Client is a thin stateless wrapper over the Wikipedia REST summary
// endpoint. Industry, founding year and headquarters are parsed out of
// the summary's description/extract text on a best-effort basis, since
// the public REST summary endpoint does not expose Wikidata claims
// directly and adding a second SPARQL round trip is not justified for
// this lookup's single call site. Employee count is not parsed.
type Client struct {
	httpClient *http.Client
	logger     arbor.ILogger
	userAgent  string
}

func New(logger arbor.ILogger, userAgent string, timeout time.Duration) *Client {
	if userAgent == "" {
		userAgent = "job-finder-worker/1.0"
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		userAgent:  userAgent,
	}
}

type summaryResponse struct {
	Title       string `json:"title"`
	Extract     string `json:"extract"`
	Description string `json:"description"`
	ContentURLs struct {
		Desktop struct {
			Page string `json:"page"`
		} `json:"desktop"`
	} `json:"content_urls"`
}

// Lookup fetches the Wikipedia page summary for name. No retries: a
// transient failure is returned as a typed empty Result, not an error,
// matching spec §9's "enrichment clients return typed errors / results,
// they don't retry".
func (c *Client) Lookup(ctx context.Context, name string) Result {
	if strings.TrimSpace(name) == "" {
		return Result{Reason: "empty company name"}
	}

	reqURL := summaryBaseURL + url.PathEscape(name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return Result{Reason: fmt.Sprintf("build request: %v", err)}
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{Reason: fmt.Sprintf("request failed: %v", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return Result{Reason: "no wikipedia page found"}
	}
	if resp.StatusCode != http.StatusOK {
		return Result{Reason: fmt.Sprintf("unexpected status %d", resp.StatusCode)}
	}

	var summary summaryResponse
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		return Result{Reason: fmt.Sprintf("decode failed: %v", err)}
	}
	if summary.Extract == "" {
		return Result{Reason: "empty summary extract"}
	}

	result := Result{
		Found:     true,
		About:     summary.Extract,
		SourceTag: "wikipedia",
	}
	applyHeuristics(&result, summary.Extract, summary.Description)
	return result
}

// applyHeuristics does a best-effort scrape of founding year and
// headquarters/industry hints out of free text, since the REST summary
// does not expose these as structured fields. Conservative: leaves a
// field empty rather than guessing when no clear signal is found.
func applyHeuristics(r *Result, extract, description string) {
	if desc := strings.ToLower(description); desc != "" {
		switch {
		case strings.Contains(desc, "company") || strings.Contains(desc, "corporation"):
			r.Industry = description
		}
	}
	if year := firstFourDigitYear(extract); year != "" {
		r.Founded = year
	}
	if loc := firstHeadquartersMention(extract); loc != "" {
		r.HeadquartersLocation = loc
	}
}

func firstFourDigitYear(text string) string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !('0' <= r && r <= '9')
	})
	for _, f := range fields {
		if len(f) == 4 {
			if year, err := strconv.Atoi(f); err == nil && year > 1600 && year < 2100 {
				return f
			}
		}
	}
	return ""
}

func firstHeadquartersMention(text string) string {
	idx := strings.Index(strings.ToLower(text), "headquartered in ")
	if idx < 0 {
		return ""
	}
	rest := text[idx+len("headquartered in "):]
	end := strings.IndexAny(rest, ".,\n")
	if end < 0 {
		end = len(rest)
	}
	if end > 80 {
		end = 80
	}
	return strings.TrimSpace(rest[:end])
}
