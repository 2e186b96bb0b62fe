package badger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jdubz/job-finder-worker/internal/interfaces"
	"github.com/jdubz/job-finder-worker/internal/models"
	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"
)

// TaskStorage implements interfaces.TaskStorage for Badger. Updates go
// through a per-ID lock (taskLocks) rather than a Badger transaction,
// because badgerhold's own Update/Upsert each do a single-key
// read-modify-write without exposing a cross-call CAS primitive (the
// same limitation the teacher's JobStorage.UpdateProgressCountersAtomic
// documents) - a sharded mutex is the cheapest way to make the
// status-transition check-then-set in UpdateTask race-free within one
// process.
type TaskStorage struct {
	db     *BadgerDB
	logger arbor.ILogger

	lockMu sync.Mutex
	locks  map[string]*sync.Mutex
}

// NewTaskStorage creates a new TaskStorage instance
func NewTaskStorage(db *BadgerDB, logger arbor.ILogger) interfaces.TaskStorage {
	return &TaskStorage{
		db:     db,
		logger: logger,
		locks:  make(map[string]*sync.Mutex),
	}
}

func (s *TaskStorage) lockFor(id string) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}

func (s *TaskStorage) SaveTask(ctx context.Context, task *models.Task) error {
	if task.ID == "" {
		return fmt.Errorf("task ID is required")
	}
	l := s.lockFor(task.ID)
	l.Lock()
	defer l.Unlock()

	if err := s.db.Store().Upsert(task.ID, task); err != nil {
		return fmt.Errorf("failed to save task: %w", err)
	}
	return nil
}

func (s *TaskStorage) GetTask(ctx context.Context, taskID string) (*models.Task, error) {
	var task models.Task
	if err := s.db.Store().Get(taskID, &task); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return &task, nil
}

// UpdateTask re-reads the current record, verifies the caller's status
// transition is still legal given the record's latest status (it may
// have changed since the caller loaded it), then writes - all inside
// the per-task lock.
func (s *TaskStorage) UpdateTask(ctx context.Context, task *models.Task) error {
	if task.ID == "" {
		return fmt.Errorf("task ID is required")
	}
	l := s.lockFor(task.ID)
	l.Lock()
	defer l.Unlock()

	var current models.Task
	if err := s.db.Store().Get(task.ID, &current); err != nil {
		if err == badgerhold.ErrNotFound {
			return interfaces.ErrNotFound
		}
		return fmt.Errorf("failed to load task for update: %w", err)
	}

	if current.Status != task.Status && !models.CanTransitionTask(current.Status, task.Status) {
		return fmt.Errorf("illegal task status transition %s -> %s for task %s", current.Status, task.Status, task.ID)
	}

	task.UpdatedAt = time.Now()
	if err := s.db.Store().Upsert(task.ID, task); err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	return nil
}

func (s *TaskStorage) ListTasks(ctx context.Context, opts interfaces.TaskListOptions) ([]*models.Task, error) {
	query := badgerhold.Where("ID").Ne("")
	if opts.Status != "" {
		query = query.And("Status").Eq(opts.Status)
	}
	if opts.Kind != "" {
		query = query.And("Kind").Eq(opts.Kind)
	}
	if opts.TrackingID != "" {
		query = query.And("TrackingID").Eq(opts.TrackingID)
	}
	query = query.SortBy("CreatedAt").Reverse()
	if opts.Limit > 0 {
		query = query.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		query = query.Skip(opts.Offset)
	}

	var tasks []models.Task
	if err := s.db.Store().Find(&tasks, query); err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return toTaskPtrs(tasks), nil
}

func (s *TaskStorage) CountTasksByStatus(ctx context.Context, status models.TaskStatus) (int, error) {
	count, err := s.db.Store().Count(&models.Task{}, badgerhold.Where("Status").Eq(status))
	if err != nil {
		return 0, fmt.Errorf("failed to count tasks by status: %w", err)
	}
	return int(count), nil
}

// ListByTrackingAndURL backs the duplicate-lineage spawn-safety check:
// has any task in this ancestry already targeted (url, kind)?
func (s *TaskStorage) ListByTrackingAndURL(ctx context.Context, trackingID, url string, kind models.TaskKind) ([]*models.Task, error) {
	var tasks []models.Task
	query := badgerhold.Where("TrackingID").Eq(trackingID).And("Kind").Eq(kind).And("Payload.URL").Eq(url)
	if err := s.db.Store().Find(&tasks, query); err != nil {
		return nil, fmt.Errorf("failed to list tasks by tracking id and url: %w", err)
	}
	return toTaskPtrs(tasks), nil
}

func (s *TaskStorage) ListStale(ctx context.Context, processingDeadline int64) ([]*models.Task, error) {
	deadline := time.Unix(processingDeadline, 0)
	var tasks []models.Task
	query := badgerhold.Where("Status").Eq(models.TaskStatusProcessing).And("UpdatedAt").Lt(deadline)
	if err := s.db.Store().Find(&tasks, query); err != nil {
		return nil, fmt.Errorf("failed to list stale tasks: %w", err)
	}
	return toTaskPtrs(tasks), nil
}

func (s *TaskStorage) DeleteTask(ctx context.Context, taskID string) error {
	if err := s.db.Store().Delete(taskID, &models.Task{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil
		}
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

func toTaskPtrs(tasks []models.Task) []*models.Task {
	result := make([]*models.Task, len(tasks))
	for i := range tasks {
		result[i] = &tasks[i]
	}
	return result
}
