// Package intake implements the three functions spec §6 exposes to the
// (externally owned) HTTP ingress API: submit_job, submit_company, and
// submit_scrape. Each wraps one root task behind queue.SpawnGate so the
// worker's spawn-safety invariants (§4.1) apply uniformly to
// operator-submitted and worker-spawned tasks alike.
package intake

import (
	"context"
	"fmt"
	"time"

	"github.com/jdubz/job-finder-worker/internal/common"
	"github.com/jdubz/job-finder-worker/internal/interfaces"
	"github.com/jdubz/job-finder-worker/internal/models"
	"github.com/jdubz/job-finder-worker/internal/queue"
)

// Service implements spec §6's abstract Intake interface. The worker
// does not define an HTTP surface itself - an external API layer calls
// these three functions directly.
type Service struct {
	spawnGate *queue.SpawnGate
	config    interfaces.ConfigService
}

func NewService(spawnGate *queue.SpawnGate, config interfaces.ConfigService) *Service {
	return &Service{spawnGate: spawnGate, config: config}
}

func (s *Service) maxRetries(ctx context.Context) int {
	settings, err := s.config.WorkerSettings(ctx)
	if err != nil {
		return 3
	}
	return settings.MaxRetries
}

// SubmitJob implements submit_job(url, company_name?, metadata?) ->
// task_id: a root JobListing task carrying the URL as its sole known
// field. metadata may supply any of title/location/description/
// salary/posted_date to prefill the listing before extraction runs.
func (s *Service) SubmitJob(ctx context.Context, url, companyName string, metadata map[string]string) (string, error) {
	if url == "" {
		return "", fmt.Errorf("submit_job: url is required")
	}

	scraped := &models.NormalizedJob{URL: url}
	if metadata != nil {
		scraped.Title = metadata["title"]
		scraped.Location = metadata["location"]
		scraped.Description = metadata["description"]
		scraped.Salary = metadata["salary"]
		scraped.PostedDate = metadata["posted_date"]
	}

	task := models.NewRootTask(common.NewID(), models.TaskKindJobListing, models.TaskPayload{
		CompanyName: companyName,
		ScrapedData: scraped,
	}, s.maxRetries(ctx), time.Now())

	if err := s.spawnGate.EnqueueRoot(ctx, task); err != nil {
		return "", fmt.Errorf("submit_job: %w", err)
	}
	return task.ID, nil
}

// SubmitCompany implements submit_company(name, url?) -> task_id: a
// root Company task (spec §4.7).
func (s *Service) SubmitCompany(ctx context.Context, name, url string) (string, error) {
	if name == "" && url == "" {
		return "", fmt.Errorf("submit_company: name or url is required")
	}

	task := models.NewRootTask(common.NewID(), models.TaskKindCompany, models.TaskPayload{
		CompanyName: name,
		URL:         url,
	}, s.maxRetries(ctx), time.Now())

	if err := s.spawnGate.EnqueueRoot(ctx, task); err != nil {
		return "", fmt.Errorf("submit_company: %w", err)
	}
	return task.ID, nil
}

// SubmitScrape implements submit_scrape(source_id) -> task_id: a root
// ScrapeSource task re-running an already-discovered JobSource on
// demand, outside its regular lease cycle.
func (s *Service) SubmitScrape(ctx context.Context, sourceID string) (string, error) {
	if sourceID == "" {
		return "", fmt.Errorf("submit_scrape: source_id is required")
	}

	task := models.NewRootTask(common.NewID(), models.TaskKindScrapeSource, models.TaskPayload{
		SourceID: sourceID,
	}, s.maxRetries(ctx), time.Now())

	if err := s.spawnGate.EnqueueRoot(ctx, task); err != nil {
		return "", fmt.Errorf("submit_scrape: %w", err)
	}
	return task.ID, nil
}
