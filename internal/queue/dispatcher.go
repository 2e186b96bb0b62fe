package queue

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/jdubz/job-finder-worker/internal/common"
	"github.com/jdubz/job-finder-worker/internal/interfaces"
	"github.com/jdubz/job-finder-worker/internal/metrics"
	"github.com/jdubz/job-finder-worker/internal/models"
	"github.com/ternarybob/arbor"
)

// Dispatcher owns the worker pool and the spawn-safety invariants (spec
// §4.1/§8 property 2) that gate every child task before it is allowed
// onto the queue. It mirrors the teacher's WorkerPool shape (staggered
// worker goroutines, ticker polling, a kind-keyed handler registry,
// retry-on-lock-contention delete) generalized from job-type strings to
// models.TaskKind and from JobStorage to interfaces.TaskStorage.
type Dispatcher struct {
	queueMgr *LeaseManager
	tasks    interfaces.TaskStorage
	events   interfaces.EventService
	handlers map[models.TaskKind]interfaces.TaskHandler
	settings models.WorkerSettings
	logger   arbor.ILogger
	metrics  *metrics.Registry

	pollInterval time.Duration
	concurrency  int

	ctx    context.Context
	cancel context.CancelFunc
}

// NewDispatcher constructs a Dispatcher. settings.MaxSpawnDepth and
// friends come from the live WorkerSettings policy blob (internal/config),
// so spawn-safety limits can be retuned without a restart. reg may be nil,
// in which case task outcomes simply aren't published as metrics.
func NewDispatcher(queueMgr *LeaseManager, tasks interfaces.TaskStorage, events interfaces.EventService, pollInterval time.Duration, concurrency int, settings models.WorkerSettings, logger arbor.ILogger, reg *metrics.Registry) *Dispatcher {
	return &Dispatcher{
		queueMgr:     queueMgr,
		tasks:        tasks,
		events:       events,
		handlers:     make(map[models.TaskKind]interfaces.TaskHandler),
		settings:     settings,
		logger:       logger,
		metrics:      reg,
		pollInterval: pollInterval,
		concurrency:  concurrency,
	}
}

// RegisterHandler wires a TaskKind to the processor that executes it.
func (d *Dispatcher) RegisterHandler(kind models.TaskKind, handler interfaces.TaskHandler) {
	d.handlers[kind] = handler
}

// Start launches concurrency worker goroutines, each polling on its own
// staggered ticker so they don't all hit the queue in lockstep.
func (d *Dispatcher) Start() error {
	d.ctx, d.cancel = context.WithCancel(context.Background())

	for i := 0; i < d.concurrency; i++ {
		workerID := i
		common.SafeGo(d.logger, fmt.Sprintf("dispatcher-worker-%d", workerID), func() {
			d.worker(workerID)
		})
	}

	d.logger.Info().Int("concurrency", d.concurrency).Dur("poll_interval", d.pollInterval).Msg("Dispatcher started")
	return nil
}

// Stop cancels all worker goroutines and gives them a moment to exit
// their current iteration cleanly.
func (d *Dispatcher) Stop() error {
	if d.cancel != nil {
		d.cancel()
	}
	time.Sleep(500 * time.Millisecond)
	return nil
}

func (d *Dispatcher) worker(workerID int) {
	stagger := d.pollInterval / time.Duration(d.concurrency) * time.Duration(workerID)
	time.Sleep(stagger)

	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return
		case <-ticker.C:
			d.processOne(workerID)
		}
	}
}

func (d *Dispatcher) processOne(workerID int) {
	envelope, deleteFn, err := d.queueMgr.Receive(d.ctx)
	if err != nil {
		d.logger.Error().Err(err).Int("worker_id", workerID).Msg("Failed to receive from queue")
		return
	}
	if envelope == nil {
		return
	}

	task, err := d.tasks.GetTask(d.ctx, envelope.TaskID)
	if err != nil {
		d.logger.Error().Err(err).Str("task_id", envelope.TaskID).Msg("Failed to load task record for dequeued message")
		d.retryDelete(deleteFn, "load-failure")
		return
	}

	handler, ok := d.handlers[task.Kind]
	if !ok {
		d.logger.Error().Str("task_id", task.ID).Str("kind", string(task.Kind)).Msg("No handler registered for task kind")
		d.retryDelete(deleteFn, "no-handler")
		return
	}

	task.Status = models.TaskStatusProcessing
	if err := d.tasks.UpdateTask(d.ctx, task); err != nil {
		d.logger.Error().Err(err).Str("task_id", task.ID).Msg("Failed to mark task processing")
		return
	}

	attempt := models.Attempt{StartedAt: time.Now()}
	timeout := time.Duration(d.settings.ProcessingTimeoutSeconds) * time.Second
	handlerCtx, cancel := context.WithTimeout(d.ctx, timeout)
	handlerErr := handler(handlerCtx, task)
	cancel()

	finishedAt := time.Now()
	attempt.FinishedAt = &finishedAt
	if handlerErr != nil {
		attempt.Error = handlerErr.Error()
		attempt.ErrorKind = string(common.KindOf(handlerErr))
	}
	task.Attempts = append(task.Attempts, attempt)

	if handlerErr != nil {
		d.handleFailure(task, handlerErr)
	}
	// A successful handler is responsible for setting task.Status to a
	// terminal value (Success/Filtered/Skipped) and persisting it itself,
	// since only it knows which terminal outcome applies.

	d.metrics.RecordTask(string(task.Kind), string(task.Status), finishedAt.Sub(attempt.StartedAt).Seconds())
	d.publishStatusChange(task)
	d.retryDelete(deleteFn, fmt.Sprintf("task %s", task.ID))
}

func (d *Dispatcher) handleFailure(task *models.Task, handlerErr error) {
	retryable := common.IsRetryable(handlerErr)
	task.ErrorDetails = handlerErr.Error()

	if retryable && task.RetryCount < task.MaxRetries {
		task.Status = models.TaskStatusFailed
		if err := d.tasks.UpdateTask(d.ctx, task); err != nil {
			d.logger.Error().Err(err).Str("task_id", task.ID).Msg("Failed to mark task failed before retry")
			return
		}
		task.RetryCount++
		task.Status = models.TaskStatusPending
		if err := d.tasks.UpdateTask(d.ctx, task); err != nil {
			d.logger.Error().Err(err).Str("task_id", task.ID).Msg("Failed to requeue task for retry")
			return
		}
		delay := BackoffDelay(d.settings.RetryBackoff, task.RetryCount)
		common.SafeGo(d.logger, fmt.Sprintf("retry-%s", task.ID), func() {
			time.Sleep(delay)
			_ = d.queueMgr.Enqueue(context.Background(), models.QueueMessage{TaskID: task.ID, Kind: task.Kind})
		})
		return
	}

	task.Status = models.TaskStatusFailed
	if err := d.tasks.UpdateTask(d.ctx, task); err != nil {
		d.logger.Error().Err(err).Str("task_id", task.ID).Msg("Failed to mark task failed")
	}
}

func (d *Dispatcher) publishStatusChange(task *models.Task) {
	if d.events == nil {
		return
	}
	_ = d.events.Publish(d.ctx, interfaces.Event{
		Type: interfaces.EventTaskStatusChanged,
		Payload: map[string]interface{}{
			"task_id": task.ID,
			"to":      string(task.Status),
			"kind":    string(task.Kind),
		},
	})
}

// retryDelete mirrors the teacher's retryDelete: goqite deletes can hit
// SQLITE_BUSY under concurrent workers, so retry a few times with
// doubling backoff before giving up and logging the envelope as
// undeleted (it will simply become visible again after its lease
// expires and get reprocessed - safe because handlers are idempotent
// by task status).
func (d *Dispatcher) retryDelete(deleteFn func() error, context string) {
	if deleteFn == nil {
		return
	}
	delay := 200 * time.Millisecond
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		if err := deleteFn(); err == nil {
			return
		} else {
			lastErr = err
			if !strings.Contains(err.Error(), "database is locked") && !strings.Contains(err.Error(), "SQLITE_BUSY") {
				break
			}
			time.Sleep(delay)
			delay *= 2
		}
	}
	d.logger.Warn().Err(lastErr).Str("context", context).Msg("Failed to delete queue message after retries")
}

// BackoffDelay computes an exponential backoff capped at policy.MaxSeconds,
// then adds a random jitter of up to policy.JitterFraction of that delay;
// exported so other packages (the job-listing company-wait requeue) share
// the same backoff shape as the dispatcher's own retry logic.
func BackoffDelay(policy models.BackoffPolicy, attempt int) time.Duration {
	base := time.Duration(policy.BaseSeconds) * time.Second
	max := time.Duration(policy.MaxSeconds) * time.Second
	delay := base
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay > max {
			delay = max
			break
		}
	}
	if policy.JitterFraction > 0 {
		delay += time.Duration(rand.Float64() * policy.JitterFraction * float64(delay))
	}
	return delay
}
