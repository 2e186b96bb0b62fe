package processors

import (
	"context"
	"fmt"
	"time"

	"github.com/jdubz/job-finder-worker/internal/common"
	"github.com/jdubz/job-finder-worker/internal/filter"
	"github.com/jdubz/job-finder-worker/internal/interfaces"
	"github.com/jdubz/job-finder-worker/internal/models"
	"github.com/jdubz/job-finder-worker/internal/queue"
	"github.com/jdubz/job-finder-worker/internal/scoring"
)

// HandleJobListing implements the Job Listing Processor (spec §4.9): the
// seven-stage pipeline from raw scraped data to a persisted JobMatch,
// including the company-wait requeue loop that lets a listing proceed
// without ever blocking on another task's completion.
func (d *Deps) HandleJobListing(ctx context.Context, task *models.Task) error {
	listing, err := d.materializeListing(ctx, task)
	if err != nil {
		return err
	}
	d.publish(ctx, interfaces.EventJobScraped, map[string]interface{}{"listing_id": listing.ID})

	company, requeued, err := d.lookupOrWaitForCompany(ctx, task, listing)
	if err != nil {
		return err
	}
	if requeued {
		task.Status = models.TaskStatusSuccess
		return d.Storage.TaskStorage().UpdateTask(ctx, task)
	}

	extraction, err := d.extractJobFields(ctx, task.ID, listing)
	if err != nil {
		return d.failListing(ctx, task, listing, err)
	}
	listing.ExtractionResult = extraction
	d.publish(ctx, interfaces.EventJobExtraction, map[string]interface{}{"listing_id": listing.ID})

	policy, err := d.Config.PrefilterPolicy(ctx)
	if err != nil {
		return fmt.Errorf("load prefilter policy: %w", err)
	}
	postingAgeDays := postingAgeDaysFrom(listing.PostedDate, d.now())
	salaryKnown, salaryAmount := parseSalaryRange(listing.SalaryRange)
	verdict := filter.Evaluate(filter.FromExtraction(listing, extraction, postingAgeDays, salaryKnown, salaryAmount), policy)
	if !verdict.Passed {
		listing.Status = models.ListingStatusSkipped
		_ = d.Storage.JobListingStorage().UpdateJobListing(ctx, listing)
		d.publish(ctx, interfaces.EventJobFiltered, map[string]interface{}{"listing_id": listing.ID})
		task.Status = models.TaskStatusSkipped
		return d.Storage.TaskStorage().UpdateTask(ctx, task)
	}

	matchPolicy, err := d.Config.MatchPolicy(ctx)
	if err != nil {
		return fmt.Errorf("load match policy: %w", err)
	}
	personal, err := d.Config.PersonalInfo(ctx)
	if err != nil {
		return fmt.Errorf("load personal info: %w", err)
	}

	breakdown := scoring.Score(scoringInputFrom(listing, extraction, company, postingAgeDays, salaryKnown, salaryAmount), personal, matchPolicy)
	listing.ScoringResult = &models.ScoringResult{
		FinalScore:      breakdown.FinalScore,
		SkillMatch:      breakdown.SkillMatch,
		SeniorityMatch:  breakdown.SeniorityMatch,
		LocationScore:   breakdown.LocationScore,
		CompanyScore:    breakdown.CompanyScore,
		FreshnessScore:  breakdown.FreshnessScore,
		Passed:          breakdown.Passed,
		RejectionReason: breakdown.RejectionReason,
	}
	d.publish(ctx, interfaces.EventJobScoring, map[string]interface{}{
		"listing_id": listing.ID,
		"passed":     breakdown.Passed,
		"score":      breakdown.FinalScore,
	})

	if !breakdown.Passed {
		listing.Status = models.ListingStatusSkipped
		if err := d.Storage.JobListingStorage().UpdateJobListing(ctx, listing); err != nil {
			return fmt.Errorf("persist skipped listing: %w", err)
		}
		task.Status = models.TaskStatusSkipped
		return d.Storage.TaskStorage().UpdateTask(ctx, task)
	}

	matchResult, err := d.runMatchAnalysis(ctx, task.ID, listing, extraction, breakdown)
	if err != nil {
		return d.failListing(ctx, task, listing, err)
	}
	d.publish(ctx, interfaces.EventJobAnalysis, map[string]interface{}{"listing_id": listing.ID})

	if matchResult.MatchScore < matchPolicy.MinMatchScore {
		listing.Status = models.ListingStatusSkipped
		if err := d.Storage.JobListingStorage().UpdateJobListing(ctx, listing); err != nil {
			return fmt.Errorf("persist skipped listing: %w", err)
		}
		task.Status = models.TaskStatusSkipped
		return d.Storage.TaskStorage().UpdateTask(ctx, task)
	}

	listing.Status = models.ListingStatusMatched
	listing.MatchScore = matchResult.MatchScore
	if err := d.Storage.JobListingStorage().UpdateJobListing(ctx, listing); err != nil {
		return fmt.Errorf("persist matched listing: %w", err)
	}

	match := &models.JobMatch{
		ID:            common.NewID(),
		JobListingID:  listing.ID,
		CompanyID:     listing.CompanyID,
		MatchScore:    matchResult.MatchScore,
		Reasoning:     matchResult.Reasoning,
		MatchedSkills: matchResult.MatchedSkills,
		MissingSkills: matchResult.MissingSkills,
		Priority:      matchResult.Priority,
		CreatedAt:     d.now(),
	}
	if err := d.Storage.JobMatchStorage().SaveJobMatch(ctx, match); err != nil {
		return fmt.Errorf("save job match: %w", err)
	}
	d.publish(ctx, interfaces.EventJobMatched, map[string]interface{}{
		"listing_id": listing.ID,
		"match_id":   match.ID,
		"priority":   string(match.Priority),
	})
	d.publish(ctx, interfaces.EventJobSaved, map[string]interface{}{"listing_id": listing.ID, "match_id": match.ID})

	task.Status = models.TaskStatusSuccess
	return d.Storage.TaskStorage().UpdateTask(ctx, task)
}

// materializeListing implements stage 1: resolve the listing row from
// either an existing id (resuming a prior attempt) or inline scraped
// data carried on the task payload for a brand-new listing.
func (d *Deps) materializeListing(ctx context.Context, task *models.Task) (*models.JobListing, error) {
	if task.Payload.ListingID != "" {
		listing, err := d.Storage.JobListingStorage().GetJobListing(ctx, task.Payload.ListingID)
		if err != nil {
			return nil, fmt.Errorf("load job listing %s: %w", task.Payload.ListingID, err)
		}
		return listing, nil
	}

	if task.Payload.ScrapedData == nil {
		return nil, common.NewTypedError(common.ErrInvalidState, fmt.Errorf("job_listing task %s has neither listing_id nor scraped_data", task.ID))
	}

	data := task.Payload.ScrapedData
	listing := &models.JobListing{
		ID:          common.NewID(),
		URL:         common.NormalizeURL(data.URL),
		Title:       data.Title,
		Description: data.Description,
		Location:    data.Location,
		PostedDate:  data.PostedDate,
		SalaryRange: data.Salary,
		Status:      models.ListingStatusPending,
		CreatedAt:   d.now(),
	}
	if err := d.Storage.JobListingStorage().SaveJobListing(ctx, listing); err != nil {
		return nil, fmt.Errorf("save manually submitted listing: %w", err)
	}
	task.Payload.ListingID = listing.ID
	return listing, nil
}

// lookupOrWaitForCompany implements stages 2-3: find or stub the
// listing's Company, and if its data is too thin, spawn a Company task
// (at most once) and requeue this same task as a new Pending task with
// company_wait_retries incremented, rather than blocking. Returns
// requeued=true when the current attempt should end without further
// pipeline stages.
func (d *Deps) lookupOrWaitForCompany(ctx context.Context, task *models.Task, listing *models.JobListing) (*models.Company, bool, error) {
	settings, err := d.Config.WorkerSettings(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("load worker settings: %w", err)
	}

	company, err := d.findOrStubCompanyForListing(ctx, listing, task.Payload.CompanyName)
	if err != nil {
		return nil, false, err
	}
	if listing.CompanyID != company.ID {
		listing.CompanyID = company.ID
		if err := d.Storage.JobListingStorage().UpdateJobListing(ctx, listing); err != nil {
			return nil, false, fmt.Errorf("persist listing company_id: %w", err)
		}
	}

	maxRetries := settings.MaxCompanyWaitRetries
	if company.HasGoodData() || task.PipelineState.CompanyWaitRetries >= maxRetries {
		return company, false, nil
	}

	d.publish(ctx, interfaces.EventJobWaitingCompany, map[string]interface{}{
		"listing_id": listing.ID,
		"company_id": company.ID,
		"attempt":    task.PipelineState.CompanyWaitRetries,
	})

	d.maybeSpawnCompanyTask(ctx, task, company)

	nextRetries := task.PipelineState.CompanyWaitRetries + 1
	delay := queue.BackoffDelay(settings.CompanyWaitBackoff, nextRetries)
	requeued := &models.Task{
		ID:            common.NewID(),
		Kind:          models.TaskKindJobListing,
		Status:        models.TaskStatusPending,
		Payload:       models.TaskPayload{ListingID: listing.ID},
		PipelineState: models.PipelineState{Stage: "wait_company", CompanyWaitRetries: nextRetries, ListingID: listing.ID},
		TrackingID:    task.TrackingID,
		AncestryChain: task.AncestryChain,
		SpawnDepth:    task.SpawnDepth,
		MaxRetries:    task.MaxRetries,
		CreatedAt:     d.now(),
		UpdatedAt:     d.now(),
	}
	if err := d.Storage.TaskStorage().SaveTask(ctx, requeued); err != nil {
		return nil, false, fmt.Errorf("save requeued job_listing task: %w", err)
	}
	common.SafeGo(d.Logger, fmt.Sprintf("company-wait-%s", requeued.ID), func() {
		time.Sleep(delay)
		_ = d.requeue(requeued)
	})

	return company, true, nil
}

// requeue is set by cmd/worker to the LeaseManager's Enqueue call; kept
// as a field-less package function var rather than adding a queue
// handle to Deps, since Deps already carries every other collaborator
// by value and this is the only place outside the dispatcher that needs
// to push a message without going through SpawnGate's parent/child
// semantics (this is the same task's lineage, not a child).
var requeueFn func(task *models.Task) error

func (d *Deps) requeue(task *models.Task) error {
	if requeueFn == nil {
		return fmt.Errorf("requeue function not configured")
	}
	return requeueFn(task)
}

// SetRequeueFunc wires the dispatcher's enqueue call into the Job
// Listing Processor's company-wait loop. Called once at startup from
// cmd/worker, after both the Dispatcher and the LeaseManager exist.
func SetRequeueFunc(fn func(task *models.Task) error) {
	requeueFn = fn
}

func (d *Deps) findOrStubCompanyForListing(ctx context.Context, listing *models.JobListing, companyNameHint string) (*models.Company, error) {
	if listing.CompanyID != "" {
		company, err := d.Storage.CompanyStorage().GetCompany(ctx, listing.CompanyID)
		if err == nil {
			return company, nil
		}
		if err != interfaces.ErrNotFound {
			return nil, fmt.Errorf("load listing company: %w", err)
		}
	}

	name := listing.Title // last-resort fallback only
	if companyNameHint != "" {
		// internal/intake's submit_job(url, company_name?, metadata?)
		// carries the caller-supplied name straight through.
		name = companyNameHint
	}
	// The scraper's NormalizedJob.Company is not carried on JobListing
	// itself (spec §3 JobListing has no company-name field, only
	// company_id). A listing materialized by the Source Processor's
	// ScrapeSource stage carries SourceID - resolve the company via that
	// source. A manually submitted listing has no SourceID and keeps the
	// name hint (or falls through to the title below).
	if listing.SourceID != "" {
		if source, err := d.Storage.JobSourceStorage().GetJobSource(ctx, listing.SourceID); err == nil {
			if source.Config.CompanyName != "" {
				name = source.Config.CompanyName
			}
			if source.CompanyID != "" {
				if company, err := d.Storage.CompanyStorage().GetCompany(ctx, source.CompanyID); err == nil {
					return company, nil
				}
			}
		}
	}

	normalized := common.NormalizeCompanyName(name)
	company, err := d.Storage.CompanyStorage().GetCompanyByName(ctx, normalized)
	if err != nil && err != interfaces.ErrNotFound {
		return nil, fmt.Errorf("lookup company by name: %w", err)
	}
	if company != nil {
		return company, nil
	}

	now := d.now()
	company = &models.Company{
		ID:             common.NewID(),
		Name:           name,
		NormalizedName: normalized,
		AnalysisStatus: models.AnalysisStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := d.Storage.CompanyStorage().SaveCompany(ctx, company); err != nil {
		return nil, fmt.Errorf("save company stub: %w", err)
	}
	return company, nil
}

// maybeSpawnCompanyTask spawns a Company task for the stub company the
// first time a listing waits on it. SpawnGate's duplicate-lineage check
// only dedups by Payload.URL and Company tasks here carry CompanyName
// instead, so later requeues (company_wait_retries > 0) skip spawning
// again rather than piling up redundant Company tasks for the same
// company within one listing's lineage.
func (d *Deps) maybeSpawnCompanyTask(ctx context.Context, parent *models.Task, company *models.Company) {
	if parent.PipelineState.CompanyWaitRetries > 0 {
		return
	}

	settings, err := d.Config.WorkerSettings(ctx)
	maxDepth := 5
	if err == nil {
		maxDepth = settings.MaxSpawnDepth
	}
	child := models.NewChildTask(common.NewID(), models.TaskKindCompany, models.TaskPayload{
		CompanyName: company.Name,
	}, parent, parent.MaxRetries, d.now())
	if err := d.SpawnGate.EnqueueChild(ctx, parent, child, maxDepth); err != nil {
		d.Logger.Debug().Err(err).Str("company_id", company.ID).Msg("Company spawn rejected or failed")
	}
}

// extractJobFields implements stage 4: the job_extraction AI call.
func (d *Deps) extractJobFields(ctx context.Context, taskID string, listing *models.JobListing) (*models.ExtractionResult, error) {
	resp, err := d.AI.Run(ctx, taskID, interfaces.AgentRequest{
		TaskKind: models.AITaskJobExtraction,
		Input:    listing.Description,
		Context: map[string]string{
			"title":    listing.Title,
			"location": listing.Location,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("job_extraction: %w", err)
	}
	if resp.ExtractionResult == nil {
		return nil, fmt.Errorf("job_extraction: empty extraction result")
	}
	return resp.ExtractionResult, nil
}

// runMatchAnalysis implements stage 6: the match_analysis AI call,
// passing the deterministic score breakdown as context per spec §4.9.
func (d *Deps) runMatchAnalysis(ctx context.Context, taskID string, listing *models.JobListing, extraction *models.ExtractionResult, breakdown scoring.Breakdown) (*models.MatchAnalysisResult, error) {
	resp, err := d.AI.Run(ctx, taskID, interfaces.AgentRequest{
		TaskKind: models.AITaskMatchAnalysis,
		Input:    listing.Description,
		Context: map[string]string{
			"title":               listing.Title,
			"seniority":           extraction.Seniority,
			"technologies":        fmt.Sprintf("%v", extraction.Technologies),
			"deterministic_score": fmt.Sprintf("%d", breakdown.FinalScore),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("match_analysis: %w", err)
	}
	if resp.MatchResult == nil {
		return nil, fmt.Errorf("match_analysis: empty match result")
	}
	return resp.MatchResult, nil
}

// failListing returns cause unchanged, since an AI call failure at stage
// 4 or 6 has no recoverable next step within this attempt: the
// dispatcher then marks the task Failed or schedules a retry. The
// listing record is left as it is.
func (d *Deps) failListing(ctx context.Context, task *models.Task, listing *models.JobListing, cause error) error {
	_ = listing
	return cause
}

func scoringInputFrom(listing *models.JobListing, extraction *models.ExtractionResult, company *models.Company, postingAgeDays int, salaryKnown bool, salaryAmount int) scoring.Input {
	in := scoring.Input{
		PostingAgeDays: postingAgeDays,
		SalaryKnown:    salaryKnown,
		SalaryAmount:   salaryAmount,
	}
	if extraction != nil {
		in.Seniority = extraction.Seniority
		in.WorkArrangement = extraction.WorkArrangement
		in.Technologies = extraction.Technologies
	}
	if company != nil {
		in.CompanyTimezoneOffset = company.TimezoneOffset
		in.HasTimezoneInfo = company.TimezoneOffset != 0
		in.CompanyAIMLFocus = company.AIMLFocus
		in.CompanyIsRemoteFirst = company.IsRemoteFirst
		in.CompanySizeCategory = company.CompanySizeCategory
	}
	return in
}

func parseSalaryRange(raw string) (bool, int) {
	if raw == "" {
		return false, 0
	}
	amount := 0
	digits := 0
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			amount = amount*10 + int(r-'0')
			digits++
			if digits >= 7 { // stop at the first plausible salary figure
				break
			}
		} else if digits > 0 {
			break
		}
	}
	return digits > 0, amount
}
