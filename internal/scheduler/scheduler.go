package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jdubz/job-finder-worker/internal/common"
	"github.com/jdubz/job-finder-worker/internal/interfaces"
	"github.com/jdubz/job-finder-worker/internal/metrics"
	"github.com/jdubz/job-finder-worker/internal/models"
	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
)

// Requeuer is the subset of queue.LeaseManager the health sweep needs:
// push a reclaimed task's envelope back onto the lease queue.
type Requeuer interface {
	Enqueue(ctx context.Context, msg models.QueueMessage) error
}

// Service implements interfaces.SchedulerService as a single robfig/cron
// job: the health sweep (spec §5, supplemented by SPEC_FULL.md's source
// health sweep). Grounded on the teacher's
// internal/services/scheduler/scheduler_service.go's robfig/cron
// wrapper, trimmed to the one job this worker needs instead of a
// registrable multi-job registry - the teacher's job-definition storage
// and crawler-cancellation machinery have no SPEC_FULL.md analog.
type Service struct {
	tasks    interfaces.TaskStorage
	sources  interfaces.JobSourceStorage
	config   interfaces.ConfigService
	queueMgr Requeuer
	events   interfaces.EventService
	logger   arbor.ILogger
	metrics  *metrics.Registry

	cron *cron.Cron
	mu   sync.Mutex

	running    bool
	entryID    cron.EntryID
	sweepMu    sync.Mutex
	isSweeping bool
}

// NewService constructs the health-sweep scheduler. reg may be nil, in
// which case sweep completions simply aren't published as metrics.
func NewService(tasks interfaces.TaskStorage, sources interfaces.JobSourceStorage, config interfaces.ConfigService, queueMgr Requeuer, events interfaces.EventService, logger arbor.ILogger, reg *metrics.Registry) interfaces.SchedulerService {
	return &Service{
		tasks:    tasks,
		sources:  sources,
		config:   config,
		queueMgr: queueMgr,
		events:   events,
		logger:   logger,
		metrics:  reg,
	}
}

// Start validates cronExpr, schedules the health sweep, and starts the
// cron runner. An empty cronExpr falls back to hourly, matching
// SPEC_FULL.md's "default hourly" source health sweep.
func (s *Service) Start(cronExpr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}
	if cronExpr == "" {
		cronExpr = "0 * * * *"
	}
	if err := common.ValidateCronSchedule(cronExpr); err != nil {
		return fmt.Errorf("invalid health_sweep_cron: %w", err)
	}

	s.cron = cron.New()
	entryID, err := s.cron.AddFunc(cronExpr, s.runHealthSweep)
	if err != nil {
		return fmt.Errorf("failed to schedule health sweep: %w", err)
	}
	s.entryID = entryID
	s.cron.Start()
	s.running = true
	s.logger.Info().Str("cron", cronExpr).Msg("Health sweep scheduler started")
	return nil
}

func (s *Service) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.running = false
	s.logger.Info().Msg("Health sweep scheduler stopped")
	return nil
}

func (s *Service) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// TriggerHealthSweepNow runs one sweep immediately, outside its schedule.
func (s *Service) TriggerHealthSweepNow() error {
	s.runHealthSweep()
	return nil
}

func (s *Service) runHealthSweep() {
	s.sweepMu.Lock()
	if s.isSweeping {
		s.sweepMu.Unlock()
		s.logger.Warn().Msg("Health sweep already in progress, skipping this tick")
		return
	}
	s.isSweeping = true
	s.sweepMu.Unlock()
	defer func() {
		s.sweepMu.Lock()
		s.isSweeping = false
		s.sweepMu.Unlock()
	}()

	start := time.Now()
	ctx := context.Background()

	requeued, failed := s.reclaimStaleTasks(ctx)
	surfaced := s.surfacePendingValidationSources(ctx)

	s.metrics.RecordPoll("health_sweep", time.Since(start).Seconds())

	if s.events != nil {
		_ = s.events.Publish(ctx, interfaces.Event{
			Type: interfaces.EventHealthSweepCompleted,
			Payload: map[string]interface{}{
				"requeued_count":   requeued,
				"failed_count":     failed,
				"surfaced_sources": surfaced,
				"duration_seconds": time.Since(start).Seconds(),
				"timestamp":        time.Now(),
			},
		})
	}
	s.logger.Info().
		Int("requeued", requeued).
		Int("failed", failed).
		Int("surfaced_sources", surfaced).
		Dur("duration", time.Since(start)).
		Msg("Health sweep completed")
}

// reclaimStaleTasks implements spec §3/§8's lease-reclaim guarantee as
// an application-level backstop on top of goqite's own visibility
// timeout: a task stuck in Processing past
// WorkerSettings.ProcessingTimeoutSeconds either requeues for another
// attempt (retry_count < max_retries) or terminates Failed, mirroring
// Dispatcher.handleFailure's own retry-vs-fail branch.
func (s *Service) reclaimStaleTasks(ctx context.Context) (requeued, failed int) {
	settings, err := s.config.WorkerSettings(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("health sweep: failed to load worker settings, skipping stale task reclaim")
		return 0, 0
	}

	deadline := time.Now().Add(-time.Duration(settings.ProcessingTimeoutSeconds) * time.Second).Unix()
	stale, err := s.tasks.ListStale(ctx, deadline)
	if err != nil {
		s.logger.Warn().Err(err).Msg("health sweep: failed to list stale tasks")
		return 0, 0
	}

	for _, task := range stale {
		task.Attempts = append(task.Attempts, models.Attempt{
			StartedAt: task.UpdatedAt,
			Error:     "lease expired without completion",
			ErrorKind: "stale_lease",
		})

		if task.RetryCount < task.MaxRetries {
			task.Status = models.TaskStatusFailed
			task.UpdatedAt = time.Now()
			if err := s.tasks.UpdateTask(ctx, task); err != nil {
				s.logger.Error().Err(err).Str("task_id", task.ID).Msg("health sweep: failed to fail stale task before requeue")
				continue
			}
			task.RetryCount++
			task.Status = models.TaskStatusPending
			task.UpdatedAt = time.Now()
			if err := s.tasks.UpdateTask(ctx, task); err != nil {
				s.logger.Error().Err(err).Str("task_id", task.ID).Msg("health sweep: failed to requeue stale task")
				continue
			}
			if err := s.queueMgr.Enqueue(ctx, models.QueueMessage{TaskID: task.ID, Kind: task.Kind}); err != nil {
				s.logger.Error().Err(err).Str("task_id", task.ID).Msg("health sweep: failed to re-enqueue stale task")
				continue
			}
			requeued++
			continue
		}

		task.Status = models.TaskStatusFailed
		task.ErrorDetails = "stale lease exceeded max_retries"
		task.UpdatedAt = time.Now()
		if err := s.tasks.UpdateTask(ctx, task); err != nil {
			s.logger.Error().Err(err).Str("task_id", task.ID).Msg("health sweep: failed to fail stale task")
			continue
		}
		failed++
	}
	return requeued, failed
}

// surfacePendingValidationSources implements SPEC_FULL.md's supplemented
// source health sweep: PendingValidation sources discovered at
// medium/low confidence get a fresh EventSourceValidated publish each
// sweep so operator tooling can page on "still waiting" rather than
// only on the initial discovery.
func (s *Service) surfacePendingValidationSources(ctx context.Context) int {
	pending, err := s.sources.ListJobSourcesByStatus(ctx, models.SourceStatusPendingValidation)
	if err != nil {
		s.logger.Warn().Err(err).Msg("health sweep: failed to list pending_validation sources")
		return 0
	}

	surfaced := 0
	for _, source := range pending {
		if source.DiscoveryConfidence == models.ConfidenceHigh {
			continue
		}
		if s.events != nil {
			_ = s.events.Publish(ctx, interfaces.Event{
				Type: interfaces.EventSourceValidated,
				Payload: map[string]interface{}{
					"source_id":  source.ID,
					"company_id": source.CompanyID,
					"status":     string(source.Status),
					"confidence": string(source.DiscoveryConfidence),
					"outcome":    "awaiting_manual_validation",
					"timestamp":  time.Now(),
				},
			})
		}
		surfaced++
	}
	return surfaced
}
