package htmlfetch

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"
)

// ChromeDPRenderer is the JS-render fallback for SPA career pages
// (config.render_js=true), grounded on services/crawler/chromedp_pool.go
// but simplified to a single short-lived browser context per call
// instead of a standing pool - this client's call volume (one render
// per source validation/scrape, not per-request crawling) doesn't
// justify pool lifecycle management.
type ChromeDPRenderer struct {
	logger    arbor.ILogger
	userAgent string
}

func NewChromeDPRenderer(logger arbor.ILogger, userAgent string) *ChromeDPRenderer {
	if userAgent == "" {
		userAgent = "Mozilla/5.0 (compatible; job-finder-worker/1.0)"
	}
	return &ChromeDPRenderer{logger: logger, userAgent: userAgent}
}

// Render navigates to url in a headless Chrome instance, waits `wait`
// for JS to settle, and returns the rendered document's outer HTML.
func (r *ChromeDPRenderer) Render(ctx context.Context, url string, wait time.Duration) (string, error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserAgent(r.userAgent),
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
	)...)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	if wait <= 0 {
		wait = 2 * time.Second
	}

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.Sleep(wait),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("chromedp render of %s failed: %w", url, err)
	}
	return html, nil
}

var _ jsRenderer = (*ChromeDPRenderer)(nil)
