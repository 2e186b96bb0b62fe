package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jdubz/job-finder-worker/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

func testScraper() *Scraper {
	return New(5*time.Second, arbor.NewLogger())
}

func TestScrapeAPI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret-token", r.Header.Get("X-Api-Key"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results":[{"name":"Go Engineer","where":"Remote","href":"/jobs/1","posted":1700000000},{"name":"SRE","where":"NYC","href":"/jobs/2","posted":1700003600}]}`))
	}))
	defer srv.Close()

	cfg := models.SourceConfig{
		Type:         models.SourceKindAPI,
		URL:          srv.URL,
		ResponsePath: "results",
		CompanyName:  "Acme",
		Fields: map[string]string{
			"title":       "name",
			"location":    "where",
			"url":         "href",
			"posted_date": "posted",
		},
		AuthType:  models.AuthTypeHeader,
		AuthParam: "X-Api-Key",
		APIKey:    "secret-token",
	}

	jobs, err := testScraper().Scrape(context.Background(), cfg)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "Go Engineer", jobs[0].Title)
	assert.Equal(t, "Remote", jobs[0].Location)
	assert.Equal(t, "Acme", jobs[0].Company)
	assert.Equal(t, "2023-11-14T22:13:20Z", jobs[0].PostedDate)
}

func TestScrapeRSS(t *testing.T) {
	feed := `<?xml version="1.0"?>
<rss version="2.0"><channel>
<title>Careers</title>
<item><title>Backend Engineer</title><link>https://acme.example/jobs/9</link><pubDate>2024-01-02</pubDate></item>
<item><title>Frontend Engineer</title><link>https://acme.example/jobs/10</link><pubDate>2024-01-03</pubDate></item>
</channel></rss>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(feed))
	}))
	defer srv.Close()

	cfg := models.SourceConfig{
		Type: models.SourceKindRSS,
		URL:  srv.URL,
		Fields: map[string]string{
			"title":       "title",
			"url":         "link",
			"posted_date": "pubDate",
		},
	}

	jobs, err := testScraper().Scrape(context.Background(), cfg)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "Backend Engineer", jobs[0].Title)
	assert.Equal(t, "https://acme.example/jobs/9", jobs[0].URL)
	assert.Equal(t, "2024-01-02", jobs[0].PostedDate)
}

func TestScrapeHTML(t *testing.T) {
	page := `<html><body>
<div class="job"><h2 class="title">Platform Engineer</h2><a class="apply" href="/apply/1">Apply</a><span class="loc">Remote</span><span class="min">120000</span><span class="max">150000</span></div>
<div class="job"><h2 class="title">Data Engineer</h2><a class="apply" href="/apply/2">Apply</a><span class="loc">Austin</span><span class="min">110000</span><span class="max">140000</span></div>
</body></html>`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page))
	}))
	defer srv.Close()

	cfg := models.SourceConfig{
		Type:           models.SourceKindHTML,
		URL:            srv.URL,
		JobSelector:    "div.job",
		SalaryMinField: "span.min",
		SalaryMaxField: "span.max",
		Fields: map[string]string{
			"title":    "h2.title",
			"url":      "a.apply@href",
			"location": "span.loc",
		},
	}

	jobs, err := testScraper().Scrape(context.Background(), cfg)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, "Platform Engineer", jobs[0].Title)
	assert.Equal(t, srv.URL+"/apply/1", jobs[0].URL)
	assert.Equal(t, "Remote", jobs[0].Location)
	assert.Equal(t, "120000 - 150000", jobs[0].Salary)
}

func TestScrapeFailureReturnsZeroJobsNotError(t *testing.T) {
	cfg := models.SourceConfig{
		Type:   models.SourceKindAPI,
		URL:    "http://127.0.0.1:1/does-not-exist",
		Fields: map[string]string{"title": "name"},
	}
	jobs, err := testScraper().Scrape(context.Background(), cfg)
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestCoerceDate(t *testing.T) {
	assert.Equal(t, "2023-11-14T22:13:20Z", coerceDate("1700000000"))
	assert.Equal(t, "2024-01-02", coerceDate("2024-01-02"))
	assert.Equal(t, "", coerceDate(""))
}

func TestBuildSalary(t *testing.T) {
	assert.Equal(t, "100000 - 150000", buildSalary("100000", "150000"))
	assert.Equal(t, "100000", buildSalary("100000", ""))
	assert.Equal(t, "", buildSalary("", ""))
}
