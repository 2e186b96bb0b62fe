// Package htmlfetch implements the HTML fetch/sample enrichment client
// (spec §4.4): a bounded GET with configured timeout/user-agent, capped
// sample via goquery text extraction, optional html-to-markdown
// conversion before AI hand-off, and an optional chromedp JS-render
// path for SPA career pages. Never follows an off-host redirect beyond
// max_redirects (grounded on services/crawler/html_scraper.go's
// collector config and services/crawler/chromedp_pool.go's pool shape,
// simplified to a single-shot render since this client has no need for
// a standing browser pool).
package htmlfetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/jdubz/job-finder-worker/internal/common"
	"github.com/ternarybob/arbor"
)

// Result is Fetch's return value.
type Result struct {
	StatusCode int
	FinalURL   string
	Sample     string // goquery-extracted visible text, capped at MaxHTMLSampleLength
	Markdown   string // html-to-markdown conversion of the same content
	Success    bool
	Reason     string // populated when Success is false
}

// Config mirrors common.CrawlerConfig's per-request knobs.
type Config struct {
	UserAgent           string
	RequestTimeout      time.Duration
	MaxRedirects        int
	MaxHTMLSampleLength int
	EnableJavaScript    bool
	JavaScriptWaitTime  time.Duration
}

// Fetcher is the HTML fetch/sample client.
type Fetcher struct {
	cfg        Config
	httpClient *http.Client
	logger     arbor.ILogger
	renderer   jsRenderer
}

// jsRenderer is the optional chromedp-backed JS render step; declared
// as an interface so Fetcher can be constructed and tested without a
// real browser when config.EnableJavaScript is false.
type jsRenderer interface {
	Render(ctx context.Context, url string, wait time.Duration) (string, error)
}

// New builds a Fetcher. renderer may be nil when EnableJavaScript is
// false; passing a non-nil renderer with EnableJavaScript true enables
// the chromedp fallback path for sources whose config sets render_js.
func New(cfg Config, logger arbor.ILogger, renderer jsRenderer) *Fetcher {
	if cfg.UserAgent == "" {
		cfg.UserAgent = "Mozilla/5.0 (compatible; job-finder-worker/1.0)"
	}
	if cfg.MaxHTMLSampleLength <= 0 {
		cfg.MaxHTMLSampleLength = 20000
	}
	if cfg.MaxRedirects <= 0 {
		cfg.MaxRedirects = 5
	}

	client := &http.Client{Timeout: cfg.RequestTimeout}
	client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= cfg.MaxRedirects {
			return fmt.Errorf("stopped after %d redirects", cfg.MaxRedirects)
		}
		if len(via) > 0 && !common.SameHost(via[0].URL.String(), req.URL.String()) {
			return fmt.Errorf("refusing off-host redirect to %s", req.URL.Host)
		}
		return nil
	}

	return &Fetcher{cfg: cfg, httpClient: client, logger: logger, renderer: renderer}
}

// Fetch performs the bounded GET (or chromedp render, when renderJS is
// true and a renderer is configured) and returns a capped text/markdown
// sample. Never returns an error for an ordinary HTTP failure - a
// non-2xx status or transport error is reported via Result.Reason,
// matching spec §9's "enrichment clients return typed results, not
// errors".
func (f *Fetcher) Fetch(ctx context.Context, url string, renderJS bool) Result {
	if renderJS && f.cfg.EnableJavaScript && f.renderer != nil {
		return f.fetchRendered(ctx, url)
	}
	return f.fetchPlain(ctx, url)
}

func (f *Fetcher) fetchPlain(ctx context.Context, url string) Result {
	reqCtx, cancel := context.WithTimeout(ctx, f.cfg.RequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return Result{Reason: fmt.Sprintf("build request: %v", err)}
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return Result{Reason: fmt.Sprintf("request failed: %v", err)}
	}
	defer resp.Body.Close()

	finalURL := url
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{StatusCode: resp.StatusCode, FinalURL: finalURL, Reason: fmt.Sprintf("status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, int64(f.cfg.MaxHTMLSampleLength)*4))
	if err != nil {
		return Result{StatusCode: resp.StatusCode, FinalURL: finalURL, Reason: fmt.Sprintf("read body: %v", err)}
	}

	return f.sample(string(body), finalURL, resp.StatusCode)
}

func (f *Fetcher) fetchRendered(ctx context.Context, url string) Result {
	html, err := f.renderer.Render(ctx, url, f.cfg.JavaScriptWaitTime)
	if err != nil {
		return Result{Reason: fmt.Sprintf("js render failed: %v", err)}
	}
	return f.sample(html, url, http.StatusOK)
}

func (f *Fetcher) sample(html, finalURL string, statusCode int) Result {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Result{StatusCode: statusCode, FinalURL: finalURL, Reason: fmt.Sprintf("parse html: %v", err)}
	}

	text := strings.TrimSpace(doc.Find("body").Text())
	if len(text) > f.cfg.MaxHTMLSampleLength {
		text = text[:f.cfg.MaxHTMLSampleLength]
	}

	markdown := ""
	if converter := md.NewConverter(finalURL, true, nil); converter != nil {
		if m, err := converter.ConvertString(html); err == nil {
			if len(m) > f.cfg.MaxHTMLSampleLength {
				m = m[:f.cfg.MaxHTMLSampleLength]
			}
			markdown = m
		}
	}

	return Result{
		StatusCode: statusCode,
		FinalURL:   finalURL,
		Sample:     text,
		Markdown:   markdown,
		Success:    true,
	}
}
