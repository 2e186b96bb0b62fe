package processors

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdubz/job-finder-worker/internal/common"
	"github.com/jdubz/job-finder-worker/internal/models"
)

func TestExactMatchSourceConfig_Greenhouse(t *testing.T) {
	cfg, confidence, validationRequired := exactMatchSourceConfig("https://boards.greenhouse.io/acme")
	require.NotNil(t, cfg, "expected a config for a greenhouse board url")
	assert.Equal(t, models.SourceKindAPI, cfg.Type)
	assert.Equal(t, "https://boards.greenhouse.io/acme.json", cfg.URL, "expected .json suffix appended")
	assert.Equal(t, models.ConfidenceHigh, confidence)
	assert.True(t, validationRequired)
}

func TestExactMatchSourceConfig_RSSFeed(t *testing.T) {
	cfg, confidence, _ := exactMatchSourceConfig("https://acme.example.com/careers/feed")
	require.NotNil(t, cfg)
	assert.Equal(t, models.SourceKindRSS, cfg.Type, "expected SourceKindRSS for a /feed url")
	assert.Equal(t, models.ConfidenceHigh, confidence)
}

func TestExactMatchSourceConfig_Workday(t *testing.T) {
	cfg, confidence, _ := exactMatchSourceConfig("https://acme.myworkdayjobs.com/careers")
	require.NotNil(t, cfg)
	assert.Equal(t, models.SourceKindAPI, cfg.Type, "expected SourceKindAPI for a workday url")
	assert.Equal(t, models.ConfidenceMedium, confidence, "expected medium confidence for workday")
}

func TestExactMatchSourceConfig_NoMatch(t *testing.T) {
	cfg, _, ok := exactMatchSourceConfig("https://acme.example.com/careers")
	assert.Nil(t, cfg, "expected no match for an unrecognized url")
	assert.False(t, ok)
}

func TestHandleSourceDiscovery_ExactMatchActivatesAndSpawnsScrape(t *testing.T) {
	deps, storage := newTestDeps(t, nil)

	task := models.NewRootTask(common.NewID(), models.TaskKindSourceDiscovery, models.TaskPayload{
		URL:   "https://boards.greenhouse.io/acme",
		Hints: map[string]string{"company_id": "company-1"},
	}, 3, time.Now())

	require.NoError(t, deps.HandleSourceDiscovery(context.Background(), task))
	assert.Equal(t, models.TaskStatusSuccess, task.Status)

	require.Len(t, storage.sources.sources, 1, "expected one job source saved")
	var saved *models.JobSource
	for _, s := range storage.sources.sources {
		saved = s
	}
	assert.Equal(t, models.SourceStatusActive, saved.Status, "expected exact-match source Active without validation")
	assert.Equal(t, "company-1", saved.CompanyID, "expected company_id carried from hints")

	// A greenhouse exact match spawns one ScrapeSource child via the
	// SpawnGate, which in turn enqueues onto the real in-memory lease
	// queue - check the child task landed in task storage.
	var scrapeTasks int
	for _, tk := range storage.tasks.tasks {
		if tk.Kind == models.TaskKindScrapeSource {
			scrapeTasks++
		}
	}
	assert.Equal(t, 1, scrapeTasks, "expected one spawned ScrapeSource task")
}

func TestHandleSourceDiscovery_RequiresURL(t *testing.T) {
	deps, _ := newTestDeps(t, nil)
	task := models.NewRootTask(common.NewID(), models.TaskKindSourceDiscovery, models.TaskPayload{}, 3, time.Now())
	assert.Error(t, deps.HandleSourceDiscovery(context.Background(), task), "expected error for a source_discovery task with no candidate url")
}

func TestHandleSourceDiscovery_UndiscoverableSkipsTask(t *testing.T) {
	deps, storage := newTestDeps(t, nil)
	task := models.NewRootTask(common.NewID(), models.TaskKindSourceDiscovery, models.TaskPayload{
		URL: "https://acme.example.com/careers",
	}, 3, time.Now())

	require.NoError(t, deps.HandleSourceDiscovery(context.Background(), task))
	assert.Equal(t, models.TaskStatusSkipped, task.Status, "expected task Skipped when neither exact-match nor AI discovery apply")
	assert.Empty(t, storage.sources.sources, "expected no job source saved")
}

func TestPostingAgeDaysFrom(t *testing.T) {
	now := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, -1, postingAgeDaysFrom("", now), "expected -1 for empty posted date")
	assert.Equal(t, -1, postingAgeDaysFrom("not-a-date", now), "expected -1 for unparseable posted date")
	fiveDaysAgo := now.Add(-5 * 24 * time.Hour).Format(time.RFC3339)
	assert.Equal(t, 5, postingAgeDaysFrom(fiveDaysAgo, now))
	inFuture := now.Add(24 * time.Hour).Format(time.RFC3339)
	assert.Equal(t, 0, postingAgeDaysFrom(inFuture, now), "expected 0 for a future posted date")
}

func TestIntakeScrapedJob_SavesListingAndSpawnsChild(t *testing.T) {
	deps, storage := newTestDeps(t, nil)

	source := &models.JobSource{ID: common.NewID(), CompanyID: "company-1"}
	parent := models.NewRootTask(common.NewID(), models.TaskKindScrapeSource, models.TaskPayload{SourceID: source.ID}, 3, time.Now())

	policy := &models.PrefilterPolicy{RejectDays: 60, StrikeThreshold: 3}
	job := models.NormalizedJob{URL: "https://jobs.example.com/42", Title: "Engineer", Description: "Go role"}

	require.NoError(t, deps.intakeScrapedJob(context.Background(), parent, source, job, policy, time.Now()))

	require.Len(t, storage.listings.listings, 1, "expected one job listing saved")
	var listingChildren int
	for _, tk := range storage.tasks.tasks {
		if tk.Kind == models.TaskKindJobListing {
			listingChildren++
		}
	}
	assert.Equal(t, 1, listingChildren, "expected one spawned JobListing task")
}

func TestIntakeScrapedJob_SkipsDuplicateURL(t *testing.T) {
	deps, storage := newTestDeps(t, nil)

	source := &models.JobSource{ID: common.NewID()}
	parent := models.NewRootTask(common.NewID(), models.TaskKindScrapeSource, models.TaskPayload{SourceID: source.ID}, 3, time.Now())
	policy := &models.PrefilterPolicy{RejectDays: 60, StrikeThreshold: 3}
	job := models.NormalizedJob{URL: "https://jobs.example.com/dupe", Title: "Engineer"}

	existing := &models.JobListing{ID: common.NewID(), URL: common.NormalizeURL(job.URL)}
	require.NoError(t, storage.listings.SaveJobListing(context.Background(), existing), "seed existing listing")

	require.NoError(t, deps.intakeScrapedJob(context.Background(), parent, source, job, policy, time.Now()))
	assert.Len(t, storage.listings.listings, 1, "expected the duplicate to be skipped")
}
