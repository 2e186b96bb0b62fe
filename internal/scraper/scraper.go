// Package scraper implements the Generic Scraper (spec §4.6): a single
// data-driven Scrape entry point with three unexported branch functions
// (scrapeAPI, scrapeRSS, scrapeHTML) sharing one field-extraction helper,
// replacing what would otherwise be a class hierarchy of per-site
// scrapers (spec §9).
package scraper

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/jdubz/job-finder-worker/internal/models"
	"github.com/ternarybob/arbor"
	"github.com/tidwall/gjson"
)

// Scraper fetches and normalizes job listings from a configured source,
// grounded on services/crawler/html_scraper.go's fetch/extract split but
// collapsed into one data-driven path instead of per-site scrapers.
type Scraper struct {
	httpClient *http.Client
	logger     arbor.ILogger
}

func New(timeout time.Duration, logger arbor.ILogger) *Scraper {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Scraper{httpClient: &http.Client{Timeout: timeout}, logger: logger}
}

// Scrape runs the configured source kind's branch. Per spec §4.6 it
// produces zero jobs (not an error) on scrape failure; the caller (the
// Source Processor) is responsible for turning that into a
// RecordFailure against the source's health counters.
func (s *Scraper) Scrape(ctx context.Context, cfg models.SourceConfig) ([]models.NormalizedJob, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		jobs []models.NormalizedJob
		err  error
	)
	switch cfg.Type {
	case models.SourceKindAPI:
		jobs, err = s.scrapeAPI(ctx, cfg)
	case models.SourceKindRSS:
		jobs, err = s.scrapeRSS(ctx, cfg)
	case models.SourceKindHTML:
		jobs, err = s.scrapeHTML(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported source type: %s", cfg.Type)
	}
	if err != nil {
		s.logger.Warn().Err(err).Str("url", cfg.URL).Str("type", string(cfg.Type)).Msg("scrape failed, returning zero jobs")
		return nil, nil
	}
	return jobs, nil
}

func (s *Scraper) scrapeAPI(ctx context.Context, cfg models.SourceConfig) ([]models.NormalizedJob, error) {
	body, err := s.fetch(ctx, cfg)
	if err != nil {
		return nil, err
	}

	root := gjson.ParseBytes(body)
	items := root
	if cfg.ResponsePath != "" {
		items = root.Get(cfg.ResponsePath)
	}
	if !items.IsArray() {
		return nil, fmt.Errorf("response_path %q did not resolve to an array", cfg.ResponsePath)
	}

	var jobs []models.NormalizedJob
	items.ForEach(func(_, item gjson.Result) bool {
		jobs = append(jobs, s.normalizeFromGJSON(cfg, item))
		return true
	})
	return jobs, nil
}

func (s *Scraper) scrapeRSS(ctx context.Context, cfg models.SourceConfig) ([]models.NormalizedJob, error) {
	body, err := s.fetch(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var root xmlNode
	if err := xml.Unmarshal(body, &root); err != nil {
		return nil, fmt.Errorf("parse rss/atom xml: %w", err)
	}

	asJSON, err := root.toJSON()
	if err != nil {
		return nil, fmt.Errorf("convert xml to json for field extraction: %w", err)
	}

	responsePath := cfg.ResponsePath
	if responsePath == "" {
		// Default shapes for the two feed formats so operators don't
		// have to spell out the obvious path for a plain RSS 2.0 or
		// Atom feed.
		if gjson.GetBytes(asJSON, "feed.entry").IsArray() {
			responsePath = "feed.entry"
		} else {
			responsePath = "rss.channel.item"
		}
	}

	items := gjson.GetBytes(asJSON, responsePath)
	if !items.IsArray() {
		return nil, fmt.Errorf("response_path %q did not resolve to an array in feed", responsePath)
	}

	var jobs []models.NormalizedJob
	items.ForEach(func(_, item gjson.Result) bool {
		jobs = append(jobs, s.normalizeFromGJSON(cfg, item))
		return true
	})
	return jobs, nil
}

func (s *Scraper) scrapeHTML(ctx context.Context, cfg models.SourceConfig) ([]models.NormalizedJob, error) {
	body, err := s.fetch(ctx, cfg)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var jobs []models.NormalizedJob
	doc.Find(cfg.JobSelector).Each(func(_ int, sel *goquery.Selection) {
		job := models.NormalizedJob{Company: cfg.CompanyName}
		for field, rawSelector := range cfg.Fields {
			value := extractHTMLField(sel, rawSelector)
			applyField(&job, field, value)
		}
		minSel, maxSel := cfg.SalaryMinField, cfg.SalaryMaxField
		if minSel != "" || maxSel != "" {
			job.Salary = buildSalary(extractHTMLField(sel, minSel), extractHTMLField(sel, maxSel))
		}
		if job.URL != "" && !strings.Contains(job.URL, "://") {
			job.URL = resolveRelative(cfg.URL, job.URL)
		}
		jobs = append(jobs, job)
	})
	return jobs, nil
}

// normalizeFromGJSON applies cfg.Fields (and the salary fields) as
// dotted gjson paths against one API/RSS item, sharing the same
// applyField/coerceDate/buildSalary logic the HTML branch uses.
func (s *Scraper) normalizeFromGJSON(cfg models.SourceConfig, item gjson.Result) models.NormalizedJob {
	job := models.NormalizedJob{Company: cfg.CompanyName}
	for field, path := range cfg.Fields {
		applyField(&job, field, item.Get(path).String())
	}
	if cfg.SalaryMinField != "" || cfg.SalaryMaxField != "" {
		job.Salary = buildSalary(item.Get(cfg.SalaryMinField).String(), item.Get(cfg.SalaryMaxField).String())
	}
	return job
}

// applyField routes one extracted field value (keyed by the
// NormalizedJob field name the source config names) onto the job,
// coercing posted_date through coerceDate.
func applyField(job *models.NormalizedJob, field, value string) {
	switch strings.ToLower(field) {
	case "title":
		job.Title = value
	case "company":
		if value != "" {
			job.Company = value
		}
	case "location":
		job.Location = value
	case "description":
		job.Description = value
	case "url", "link":
		job.URL = value
	case "posted_date", "pubdate", "published":
		job.PostedDate = coerceDate(value)
	}
}

// coerceDate turns a bare unix timestamp (seconds or milliseconds)
// into RFC3339; any other value is passed through unchanged since it
// is assumed to already be a parseable date string.
func coerceDate(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return raw
	}
	t := time.Unix(n, 0)
	if n > 1_000_000_000_000 {
		t = time.UnixMilli(n)
	}
	return t.UTC().Format(time.RFC3339)
}

func buildSalary(min, max string) string {
	min, max = strings.TrimSpace(min), strings.TrimSpace(max)
	switch {
	case min != "" && max != "":
		return fmt.Sprintf("%s - %s", min, max)
	case min != "":
		return min
	case max != "":
		return max
	default:
		return ""
	}
}

// extractHTMLField resolves one "selector" or "selector@attr" spec
// against a job container, returning element text or an attribute
// value.
func extractHTMLField(sel *goquery.Selection, rawSelector string) string {
	if rawSelector == "" {
		return ""
	}
	selector, attr := rawSelector, ""
	if idx := strings.LastIndex(rawSelector, "@"); idx > 0 {
		selector, attr = rawSelector[:idx], rawSelector[idx+1:]
	}

	target := sel
	if selector != "." && selector != "" {
		target = sel.Find(selector).First()
	}
	if target.Length() == 0 {
		return ""
	}
	if attr != "" {
		v, _ := target.Attr(attr)
		return strings.TrimSpace(v)
	}
	return strings.TrimSpace(target.Text())
}

func resolveRelative(base, ref string) string {
	baseURL, err := url.Parse(base)
	if err != nil {
		return ref
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return baseURL.ResolveReference(refURL).String()
}

// fetch performs the authenticated HTTP GET shared by the api and rss
// branches (the html branch also uses it to retrieve the listing page).
func (s *Scraper) fetch(ctx context.Context, cfg models.SourceConfig) ([]byte, error) {
	req, err := s.buildRequest(ctx, cfg)
	if err != nil {
		return nil, err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", cfg.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch %s: status %d", cfg.URL, resp.StatusCode)
	}

	buf := make([]byte, 0, 64*1024)
	tmp := make([]byte, 32*1024)
	for {
		n, rerr := resp.Body.Read(tmp)
		if n > 0 {
			buf = append(buf, tmp[:n]...)
		}
		if rerr != nil {
			break
		}
		if len(buf) > 16*1024*1024 {
			return nil, fmt.Errorf("fetch %s: response exceeded 16MB cap", cfg.URL)
		}
	}
	return buf, nil
}

func (s *Scraper) buildRequest(ctx context.Context, cfg models.SourceConfig) (*http.Request, error) {
	reqURL := cfg.URL
	if cfg.AuthType == models.AuthTypeQuery && cfg.AuthParam != "" {
		parsed, err := url.Parse(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid source url: %w", err)
		}
		q := parsed.Query()
		q.Set(cfg.AuthParam, cfg.APIKey)
		parsed.RawQuery = q.Encode()
		reqURL = parsed.String()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for k, v := range cfg.Headers {
		req.Header.Set(k, v)
	}
	switch cfg.AuthType {
	case models.AuthTypeHeader:
		if cfg.AuthParam != "" {
			req.Header.Set(cfg.AuthParam, cfg.APIKey)
		}
	case models.AuthTypeBearer:
		req.Header.Set("Authorization", "Bearer "+cfg.APIKey)
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json, application/xml, text/html;q=0.9, */*;q=0.8")
	}
	return req, nil
}
