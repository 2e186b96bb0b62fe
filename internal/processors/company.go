package processors

import (
	"context"
	"fmt"
	"strings"

	"github.com/jdubz/job-finder-worker/internal/ai"
	"github.com/jdubz/job-finder-worker/internal/common"
	"github.com/jdubz/job-finder-worker/internal/enrichment/wikipedia"
	"github.com/jdubz/job-finder-worker/internal/interfaces"
	"github.com/jdubz/job-finder-worker/internal/models"
)

// HandleCompany implements the Company Processor (spec §4.7): a single
// queue item that resolves, enriches, merges, and persists one Company
// record, never spawning per-field sub-tasks.
func (d *Deps) HandleCompany(ctx context.Context, task *models.Task) error {
	if task.Payload.CompanyName == "" && task.Payload.URL == "" {
		return common.NewTypedError(common.ErrInvalidState, fmt.Errorf("company task %s has neither company_name nor url", task.ID))
	}

	company, err := d.findOrStubCompany(ctx, task)
	if err != nil {
		return err
	}

	searchName := d.resolveSearchName(ctx, company.Name, task.Payload.URL)

	wikiResult := d.Wikipedia.Lookup(ctx, searchName)

	var searchResults []searchHit
	if d.Search != nil {
		resp, err := d.Search.Search(ctx, searchName+" official site", 0)
		if err != nil {
			d.Logger.Warn().Err(err).Str("company", searchName).Msg("company web search failed, continuing without it")
		} else if !resp.Skipped {
			for _, r := range resp.Results {
				searchResults = append(searchResults, searchHit{title: r.Title, url: r.URL, snippet: r.Snippet})
			}
		}
	}

	var htmlSample string
	if len(wikiResult.About) < 100 {
		if candidate := pickFetchCandidate(searchResults); candidate != "" && d.HTMLFetch != nil {
			fetched := d.HTMLFetch.Fetch(ctx, candidate, false)
			if fetched.Success {
				htmlSample = fetched.Sample
			}
		}
	}

	extraction := d.runCompanyExtraction(ctx, task.ID, searchName, wikiResult, searchResults, htmlSample)

	mergeCompanyFields(company, wikiResult, extraction, searchResults)
	company.NormalizedName = common.NormalizeCompanyName(company.Name)

	settings, err := d.Config.WorkerSettings(ctx)
	if err == nil {
		company.CompanySizeCategory = models.SizeCategoryFromEmployeeCount(company.EmployeeCount, settings.CompanySizeSmallMax, settings.CompanySizeMediumMax)
	}

	if !models.CanTransitionCompany(company.AnalysisStatus, models.AnalysisStatusActive) {
		return common.NewTypedError(common.ErrInvalidState, fmt.Errorf("company %s cannot transition %s -> active", company.ID, company.AnalysisStatus))
	}
	company.AnalysisStatus = models.AnalysisStatusActive
	company.UpdatedAt = d.now()
	if err := d.Storage.CompanyStorage().UpdateCompany(ctx, company); err != nil {
		return fmt.Errorf("persist analyzed company: %w", err)
	}

	d.publish(ctx, interfaces.EventCompanyAnalyzed, map[string]interface{}{
		"company_id":    company.ID,
		"status":        string(company.AnalysisStatus),
		"size_category": string(company.CompanySizeCategory),
	})

	d.maybeSpawnSourceDiscovery(ctx, task, company)

	task.Status = models.TaskStatusSuccess
	return d.Storage.TaskStorage().UpdateTask(ctx, task)
}

// findOrStubCompany implements step 1: resolve an existing Company by
// normalized name, or create a Pending stub and move it to Analyzing.
func (d *Deps) findOrStubCompany(ctx context.Context, task *models.Task) (*models.Company, error) {
	name := task.Payload.CompanyName
	if name == "" {
		name = common.Host(task.Payload.URL)
	}
	normalized := common.NormalizeCompanyName(name)

	company, err := d.Storage.CompanyStorage().GetCompanyByName(ctx, normalized)
	if err != nil && err != interfaces.ErrNotFound {
		return nil, fmt.Errorf("lookup company by name: %w", err)
	}

	now := d.now()
	if company == nil {
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
	}

	if !models.CanTransitionCompany(company.AnalysisStatus, models.AnalysisStatusAnalyzing) {
		return nil, common.NewTypedError(common.ErrInvalidState, fmt.Errorf("company %s cannot transition %s -> analyzing", company.ID, company.AnalysisStatus))
	}
	company.AnalysisStatus = models.AnalysisStatusAnalyzing
	company.UpdatedAt = now
	if err := d.Storage.CompanyStorage().UpdateCompany(ctx, company); err != nil {
		return nil, fmt.Errorf("mark company analyzing: %w", err)
	}
	return company, nil
}

// resolveSearchName implements step 2: a job-board hint URL maps to the
// vendor's canonical company name via the built-in (operator-overridable)
// table, overriding the raw submitted name when it matches.
func (d *Deps) resolveSearchName(ctx context.Context, fallbackName, hintURL string) string {
	if hintURL == "" {
		return fallbackName
	}
	var overrides map[string]string
	if settings, err := d.Config.WorkerSettings(ctx); err == nil {
		overrides = settings.CompanyNameOverrides
	}
	if canonical, ok := common.CanonicalCompanyFromJobBoardURL(hintURL, overrides); ok {
		return canonical
	}
	return fallbackName
}

type searchHit struct {
	title   string
	url     string
	snippet string
}

// pickFetchCandidate implements step 5's "candidate website": the
// first search result whose host isn't itself a job board or search
// engine domain.
func pickFetchCandidate(hits []searchHit) string {
	for _, h := range hits {
		if h.url == "" {
			continue
		}
		if common.IsJobBoardHost(h.url) || common.IsSearchEngineHost(h.url) {
			continue
		}
		return h.url
	}
	return ""
}

// runCompanyExtraction calls the company_extraction AI agent with the
// gathered enrichment text as context (spec §4.5's "turn search/
// Wikipedia text + optional scraped page into a Company record"). A
// failure here is non-fatal to the overall Company Processor run - it
// simply leaves the AI source empty for the merge step, since Wikipedia
// alone may already carry usable data.
func (d *Deps) runCompanyExtraction(ctx context.Context, taskID, name string, wiki wikipedia.Result, hits []searchHit, htmlSample string) *ai.CompanyExtraction {
	var b strings.Builder
	fmt.Fprintf(&b, "Company: %s\n\n", name)
	if wiki.About != "" {
		fmt.Fprintf(&b, "Wikipedia summary:\n%s\n\n", wiki.About)
	}
	for _, h := range hits {
		fmt.Fprintf(&b, "Search result: %s (%s)\n%s\n\n", h.title, h.url, h.snippet)
	}
	if htmlSample != "" {
		fmt.Fprintf(&b, "Company site sample:\n%s\n", htmlSample)
	}
	if d.AI == nil {
		return nil
	}

	resp, err := d.AI.Run(ctx, taskID, interfaces.AgentRequest{
		TaskKind: models.AITaskCompanyExtraction,
		Input:    b.String(),
		Context:  map[string]string{"company_name": name},
	})
	if err != nil {
		d.Logger.Warn().Err(err).Str("company", name).Msg("company_extraction AI call failed, continuing with enrichment-only data")
		return nil
	}
	fields, err := ai.CompanyExtractionFields(resp.RawJSON)
	if err != nil {
		d.Logger.Warn().Err(err).Str("company", name).Msg("company_extraction response did not decode")
		return nil
	}
	return &fields
}

// mergeCompanyFields implements step 6: text fields keep the longer
// non-empty value; website prefers a first-party domain; every other
// field fills from the next available source in wiki, then AI order.
func mergeCompanyFields(c *models.Company, wiki wikipedia.Result, extracted *ai.CompanyExtraction, hits []searchHit) {
	var aiAbout, aiCulture, aiMission, aiHQ, aiIndustry, aiFounded string
	var aiEmployeeCount int
	if extracted != nil {
		aiAbout, aiCulture, aiMission = extracted.About, extracted.Culture, extracted.Mission
		aiHQ, aiIndustry, aiFounded = extracted.HeadquartersLocation, extracted.Industry, extracted.Founded
		aiEmployeeCount = extracted.EmployeeCount
	}

	c.About = longerOf(c.About, longerOf(wiki.About, aiAbout))
	c.Culture = longerOf(c.Culture, aiCulture)
	c.Mission = longerOf(c.Mission, aiMission)

	websiteCandidates := []string{wiki.Website}
	for _, h := range hits {
		websiteCandidates = append(websiteCandidates, h.url)
	}
	c.Website = pickWebsite(websiteCandidates)

	c.HeadquartersLocation = firstNonEmpty(c.HeadquartersLocation, wiki.HeadquartersLocation, aiHQ)
	c.Industry = firstNonEmpty(c.Industry, wiki.Industry, aiIndustry)
	c.Founded = firstNonEmpty(c.Founded, wiki.Founded, aiFounded)
	if c.EmployeeCount == 0 {
		if wiki.EmployeeCount > 0 {
			c.EmployeeCount = wiki.EmployeeCount
		} else if aiEmployeeCount > 0 {
			c.EmployeeCount = aiEmployeeCount
		}
	}
	if extracted != nil {
		c.IsRemoteFirst = c.IsRemoteFirst || extracted.IsRemoteFirst
		c.AIMLFocus = c.AIMLFocus || extracted.AIMLFocus
		if len(c.Products) == 0 {
			c.Products = extracted.Products
		}
		if len(c.TechStack) == 0 {
			c.TechStack = extracted.TechStack
		}
	}
}

func longerOf(a, b string) string {
	if len(b) > len(a) {
		return b
	}
	return a
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func pickWebsite(candidates []string) string {
	var fallback string
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if fallback == "" {
			fallback = c
		}
		if !common.IsJobBoardHost(c) && !common.IsSearchEngineHost(c) {
			return c
		}
	}
	return fallback
}

// maybeSpawnSourceDiscovery implements step 8: if the merged website is
// itself a job-board URL and no tracked JobSource already targets it,
// spawn at most one SourceDiscovery task.
func (d *Deps) maybeSpawnSourceDiscovery(ctx context.Context, parent *models.Task, company *models.Company) {
	if company.Website == "" || !common.IsJobBoardHost(company.Website) {
		return
	}

	normalized := common.NormalizeURL(company.Website)
	existing, err := d.Storage.JobSourceStorage().ListJobSourcesByCompany(ctx, company.ID)
	if err == nil {
		for _, src := range existing {
			if common.NormalizeURL(src.Config.URL) == normalized {
				return
			}
		}
	}

	settings, err := d.Config.WorkerSettings(ctx)
	maxDepth := 5
	if err == nil {
		maxDepth = settings.MaxSpawnDepth
	}

	child := models.NewChildTask(common.NewID(), models.TaskKindSourceDiscovery, models.TaskPayload{
		URL:      company.Website,
		Hints:    map[string]string{"company_id": company.ID},
		SourceID: "",
	}, parent, parent.MaxRetries, d.now())
	child.Payload.Hints["company_id"] = company.ID

	if err := d.SpawnGate.EnqueueChild(ctx, parent, child, maxDepth); err != nil {
		d.Logger.Debug().Err(err).Str("company_id", company.ID).Msg("SourceDiscovery spawn rejected or failed")
	}
}
