package processors

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jdubz/job-finder-worker/internal/ai"
	"github.com/jdubz/job-finder-worker/internal/common"
	"github.com/jdubz/job-finder-worker/internal/filter"
	"github.com/jdubz/job-finder-worker/internal/interfaces"
	"github.com/jdubz/job-finder-worker/internal/models"
)

// HandleSourceDiscovery implements the SourceDiscovery half of the
// Source Processor (spec §4.8): resolve a candidate URL into a
// SourceConfig either via exact-match vendor rules or an AI-driven
// selector guess, persist the JobSource, and spawn one ScrapeSource
// task when the result is usable immediately.
func (d *Deps) HandleSourceDiscovery(ctx context.Context, task *models.Task) error {
	candidateURL := task.Payload.URL
	if candidateURL == "" {
		return common.NewTypedError(common.ErrInvalidState, fmt.Errorf("source_discovery task %s has no candidate url", task.ID))
	}

	cfg, confidence, validationRequired, err := d.discoverSourceConfig(ctx, candidateURL)
	if err != nil {
		return err
	}
	if cfg == nil {
		d.publish(ctx, interfaces.EventSourceValidated, map[string]interface{}{
			"url":     candidateURL,
			"outcome": "undiscoverable",
		})
		task.Status = models.TaskStatusSkipped
		return d.Storage.TaskStorage().UpdateTask(ctx, task)
	}

	now := d.now()
	status := models.SourceStatusPendingValidation
	if confidence == models.ConfidenceHigh && !validationRequired {
		status = models.SourceStatusActive
	}

	source := &models.JobSource{
		ID:                  common.NewID(),
		CompanyID:           task.Payload.Hints["company_id"],
		SourceType:          cfg.Type,
		Config:              *cfg,
		Status:              status,
		DiscoveryConfidence: confidence,
		ValidationRequired:  validationRequired,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := d.Storage.JobSourceStorage().SaveJobSource(ctx, source); err != nil {
		return fmt.Errorf("save discovered job source: %w", err)
	}

	d.publish(ctx, interfaces.EventSourceValidated, map[string]interface{}{
		"source_id":  source.ID,
		"status":     string(source.Status),
		"confidence": string(source.DiscoveryConfidence),
	})

	if source.Status == models.SourceStatusActive {
		d.spawnScrapeSource(ctx, task, source)
	}

	task.Status = models.TaskStatusSuccess
	return d.Storage.TaskStorage().UpdateTask(ctx, task)
}

// discoverSourceConfig runs the exact-match vendor rules first (spec
// §4.8: Greenhouse board URL, RSS feed URL by extension or /feed path,
// Workday subdomain; the response content-type is not checked), falling back to AI-driven selector discovery from a
// fetched HTML sample. Returns a nil config when neither path produces
// anything usable.
func (d *Deps) discoverSourceConfig(ctx context.Context, candidateURL string) (*models.SourceConfig, models.DiscoveryConfidence, bool, error) {
	if cfg, confidence, ok := exactMatchSourceConfig(candidateURL); ok {
		return cfg, confidence, false, nil
	}

	if d.HTMLFetch == nil || d.AI == nil {
		return nil, "", false, nil
	}

	fetched := d.HTMLFetch.Fetch(ctx, candidateURL, false)
	if !fetched.Success {
		d.Logger.Warn().Str("url", candidateURL).Str("reason", fetched.Reason).Msg("source discovery fetch failed")
		return nil, "", false, nil
	}

	sample := fetched.Markdown
	if sample == "" {
		sample = fetched.Sample
	}

	resp, err := d.AI.Run(ctx, candidateURL, interfaces.AgentRequest{
		TaskKind: models.AITaskSourceDiscovery,
		Input:    sample,
		Context:  map[string]string{"url": candidateURL},
	})
	if err != nil {
		d.Logger.Warn().Err(err).Str("url", candidateURL).Msg("source_discovery AI call failed")
		return nil, "", false, nil
	}
	fields, err := ai.SourceDiscoveryResult(resp.RawJSON)
	if err != nil || fields.JobSelector == "" {
		return nil, "", false, nil
	}

	cfg := &models.SourceConfig{
		Type:        models.SourceKindHTML,
		URL:         candidateURL,
		JobSelector: fields.JobSelector,
		Fields:      map[string]string{},
	}
	if fields.TitleSelector != "" {
		cfg.Fields["title"] = fields.TitleSelector
	}
	if fields.URLSelector != "" {
		cfg.Fields["url"] = fields.URLSelector
	}
	if fields.LocationSelector != "" {
		cfg.Fields["location"] = fields.LocationSelector
	}
	if fields.DescriptionSelector != "" {
		cfg.Fields["description"] = fields.DescriptionSelector
	}
	if fields.PostedDateSelector != "" {
		cfg.Fields["posted_date"] = fields.PostedDateSelector
	}
	if len(cfg.Fields) == 0 {
		return nil, "", false, nil
	}

	confidence := models.DiscoveryConfidence(strings.ToLower(fields.Confidence))
	switch confidence {
	case models.ConfidenceHigh, models.ConfidenceMedium, models.ConfidenceLow:
	default:
		confidence = models.ConfidenceLow
	}
	// AI-discovered selectors always require manual validation before a
	// ScrapeSource task is allowed to run, even at high confidence -
	// spec §4.8 reserves status=active-without-validation for the
	// exact-match rules only.
	return cfg, confidence, true, nil
}

// exactMatchSourceConfig implements spec §4.8's deterministic rules:
// a Greenhouse job-board URL or an RSS/Atom feed URL (by extension or
// /feed path) maps to a complete, high-confidence SourceConfig, and a
// Workday careers subdomain to a medium-confidence one, without any AI
// call.
func exactMatchSourceConfig(candidateURL string) (*models.SourceConfig, models.DiscoveryConfidence, bool) {
	host := common.Host(candidateURL)

	switch {
	case strings.Contains(host, "greenhouse.io"):
		return &models.SourceConfig{
			Type:         models.SourceKindAPI,
			URL:          strings.TrimSuffix(candidateURL, "/") + ".json",
			ResponsePath: "jobs",
			Fields: map[string]string{
				"title":    "title",
				"url":      "absolute_url",
				"location": "location.name",
			},
		}, models.ConfidenceHigh, true

	case strings.HasSuffix(candidateURL, ".xml") || strings.HasSuffix(candidateURL, ".rss") || strings.Contains(candidateURL, "/feed"):
		return &models.SourceConfig{
			Type: models.SourceKindRSS,
			URL:  candidateURL,
			Fields: map[string]string{
				"title":       "title",
				"url":         "link",
				"posted_date": "pubDate",
			},
		}, models.ConfidenceHigh, true

	case strings.Contains(host, "myworkdayjobs.com"):
		return &models.SourceConfig{
			Type:         models.SourceKindAPI,
			URL:          candidateURL,
			ResponsePath: "jobPostings",
			Fields: map[string]string{
				"title":    "title",
				"url":      "externalPath",
				"location": "locationsText",
			},
		}, models.ConfidenceMedium, true
	}

	return nil, "", false
}

// spawnScrapeSource spawns one ScrapeSource task for a newly activated
// source, per spec §4.8 "on success, spawn one ScrapeSource task".
func (d *Deps) spawnScrapeSource(ctx context.Context, parent *models.Task, source *models.JobSource) {
	settings, err := d.Config.WorkerSettings(ctx)
	maxDepth := 5
	if err == nil {
		maxDepth = settings.MaxSpawnDepth
	}

	child := models.NewChildTask(common.NewID(), models.TaskKindScrapeSource, models.TaskPayload{
		SourceID: source.ID,
	}, parent, parent.MaxRetries, d.now())

	if err := d.SpawnGate.EnqueueChild(ctx, parent, child, maxDepth); err != nil {
		d.Logger.Debug().Err(err).Str("source_id", source.ID).Msg("ScrapeSource spawn rejected or failed")
	}
}

// HandleScrapeSource implements the ScrapeSource half of the Source
// Processor (spec §4.8): run the Generic Scraper, dedup by normalized
// URL, apply the Filter Engine's hard-rejection prefilter, and create a
// JobListing + Pending JobListing task for everything that survives.
func (d *Deps) HandleScrapeSource(ctx context.Context, task *models.Task) error {
	if task.Payload.SourceID == "" {
		return common.NewTypedError(common.ErrInvalidState, fmt.Errorf("scrape_source task %s has no source_id", task.ID))
	}

	source, err := d.Storage.JobSourceStorage().GetJobSource(ctx, task.Payload.SourceID)
	if err != nil {
		return fmt.Errorf("load job source %s: %w", task.Payload.SourceID, err)
	}
	if !source.Leasable() {
		task.Status = models.TaskStatusSkipped
		return d.Storage.TaskStorage().UpdateTask(ctx, task)
	}

	jobs, err := d.Scraper.Scrape(ctx, source.Config)
	now := d.now()
	settings, settingsErr := d.Config.WorkerSettings(ctx)
	nFailDisable := 5
	if settingsErr == nil {
		nFailDisable = settings.NFailDisable
	}

	if err != nil {
		source.RecordFailure(now, nFailDisable)
		_ = d.Storage.JobSourceStorage().UpdateJobSource(ctx, source)
		return fmt.Errorf("scrape source %s: %w", source.ID, err)
	}

	if len(jobs) == 0 {
		source.RecordFailure(now, nFailDisable)
	} else {
		source.RecordSuccess(now)
	}
	if err := d.Storage.JobSourceStorage().UpdateJobSource(ctx, source); err != nil {
		d.Logger.Warn().Err(err).Str("source_id", source.ID).Msg("failed to persist source health update")
	}
	if source.Status == models.SourceStatusDisabled {
		d.publish(ctx, interfaces.EventSourceDisabled, map[string]interface{}{"source_id": source.ID})
	}

	policy, err := d.Config.PrefilterPolicy(ctx)
	if err != nil {
		return fmt.Errorf("load prefilter policy: %w", err)
	}

	queued, rejected := 0, 0
	for _, job := range jobs {
		if err := d.intakeScrapedJob(ctx, task, source, job, policy, now); err != nil {
			d.Logger.Warn().Err(err).Str("url", job.URL).Msg("failed to intake scraped job")
			continue
		}
		if job.URL != "" {
			queued++
		}
	}
	_ = rejected

	task.Status = models.TaskStatusSuccess
	return d.Storage.TaskStorage().UpdateTask(ctx, task)
}

// intakeScrapedJob normalizes, dedups, prefilters, and - if the job
// survives - persists a new JobListing plus spawns its Pending
// JobListing task.
func (d *Deps) intakeScrapedJob(ctx context.Context, parent *models.Task, source *models.JobSource, job models.NormalizedJob, policy *models.PrefilterPolicy, now time.Time) error {
	if job.URL == "" {
		return nil
	}
	normalizedURL := common.NormalizeURL(job.URL)

	existing, err := d.Storage.JobListingStorage().GetJobListingByURL(ctx, normalizedURL)
	if err != nil && err != interfaces.ErrNotFound {
		return fmt.Errorf("check existing listing: %w", err)
	}
	if existing != nil {
		return nil
	}

	postingAgeDays := postingAgeDaysFrom(job.PostedDate, now)
	verdict := filter.Evaluate(filter.FromListing(job, postingAgeDays), policy)
	if !verdict.Passed {
		d.publish(ctx, interfaces.EventJobFiltered, map[string]interface{}{
			"url":    normalizedURL,
			"reason": strings.Join(verdict.Reasons, "; "),
		})
		return nil
	}

	listing := &models.JobListing{
		ID:          common.NewID(),
		SourceID:    source.ID,
		CompanyID:   source.CompanyID,
		URL:         normalizedURL,
		Title:       job.Title,
		Description: job.Description,
		Location:    job.Location,
		PostedDate:  job.PostedDate,
		SalaryRange: job.Salary,
		Status:      models.ListingStatusPending,
		CreatedAt:   now,
	}
	if err := d.Storage.JobListingStorage().SaveJobListing(ctx, listing); err != nil {
		return fmt.Errorf("save job listing: %w", err)
	}

	settings, err := d.Config.WorkerSettings(ctx)
	maxDepth := 5
	if err == nil {
		maxDepth = settings.MaxSpawnDepth
	}
	child := models.NewChildTask(common.NewID(), models.TaskKindJobListing, models.TaskPayload{
		ListingID: listing.ID,
	}, parent, parent.MaxRetries, now)
	if err := d.SpawnGate.EnqueueChild(ctx, parent, child, maxDepth); err != nil {
		d.Logger.Debug().Err(err).Str("listing_id", listing.ID).Msg("JobListing spawn rejected or failed")
	}
	return nil
}

func postingAgeDaysFrom(postedDate string, now time.Time) int {
	if postedDate == "" {
		return -1
	}
	t, err := time.Parse(time.RFC3339, postedDate)
	if err != nil {
		return -1
	}
	days := int(now.Sub(t).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}
