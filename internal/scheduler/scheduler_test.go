package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jdubz/job-finder-worker/internal/common"
	"github.com/jdubz/job-finder-worker/internal/interfaces"
	"github.com/jdubz/job-finder-worker/internal/models"
	"github.com/jdubz/job-finder-worker/internal/services/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

// memTaskStorage gives reclaimStaleTasks a ListStale it can actually
// filter against, grounded on the same fake shape used in
// internal/processors' and internal/intake's tests.
type memTaskStorage struct {
	mu    sync.Mutex
	tasks map[string]*models.Task
}

func newMemTaskStorage() *memTaskStorage {
	return &memTaskStorage{tasks: make(map[string]*models.Task)}
}

func (m *memTaskStorage) SaveTask(ctx context.Context, task *models.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[task.ID] = task
	return nil
}
func (m *memTaskStorage) GetTask(ctx context.Context, id string) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	return t, nil
}
func (m *memTaskStorage) UpdateTask(ctx context.Context, task *models.Task) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[task.ID] = task
	return nil
}
func (m *memTaskStorage) ListTasks(ctx context.Context, opts interfaces.TaskListOptions) ([]*models.Task, error) {
	return nil, nil
}
func (m *memTaskStorage) CountTasksByStatus(ctx context.Context, status models.TaskStatus) (int, error) {
	return 0, nil
}
func (m *memTaskStorage) ListByTrackingAndURL(ctx context.Context, trackingID, url string, kind models.TaskKind) ([]*models.Task, error) {
	return nil, nil
}
func (m *memTaskStorage) ListStale(ctx context.Context, deadline int64) ([]*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Task
	for _, t := range m.tasks {
		if t.Status == models.TaskStatusProcessing && t.UpdatedAt.Unix() <= deadline {
			out = append(out, t)
		}
	}
	return out, nil
}
func (m *memTaskStorage) DeleteTask(ctx context.Context, id string) error { return nil }

type memJobSourceStorage struct {
	mu      sync.Mutex
	sources map[string]*models.JobSource
}

func newMemJobSourceStorage() *memJobSourceStorage {
	return &memJobSourceStorage{sources: make(map[string]*models.JobSource)}
}
func (m *memJobSourceStorage) SaveJobSource(ctx context.Context, s *models.JobSource) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sources[s.ID] = s
	return nil
}
func (m *memJobSourceStorage) GetJobSource(ctx context.Context, id string) (*models.JobSource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sources[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	return s, nil
}
func (m *memJobSourceStorage) UpdateJobSource(ctx context.Context, s *models.JobSource) error {
	return m.SaveJobSource(ctx, s)
}
func (m *memJobSourceStorage) ListJobSourcesByCompany(ctx context.Context, companyID string) ([]*models.JobSource, error) {
	return nil, nil
}
func (m *memJobSourceStorage) ListLeasableJobSources(ctx context.Context) ([]*models.JobSource, error) {
	return nil, nil
}
func (m *memJobSourceStorage) ListJobSourcesByStatus(ctx context.Context, status models.SourceStatus) ([]*models.JobSource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.JobSource
	for _, s := range m.sources {
		if s.Status == status {
			out = append(out, s)
		}
	}
	return out, nil
}
func (m *memJobSourceStorage) DeleteJobSource(ctx context.Context, id string) error { return nil }

// fakeConfigService returns fixed settings without touching storage, so
// the scheduler tests don't need to round-trip through config.Service.
type fakeConfigService struct {
	workerSettings models.WorkerSettings
}

func (f *fakeConfigService) PrefilterPolicy(ctx context.Context) (*models.PrefilterPolicy, error) {
	return &models.PrefilterPolicy{}, nil
}
func (f *fakeConfigService) MatchPolicy(ctx context.Context) (*models.MatchPolicy, error) {
	return &models.MatchPolicy{}, nil
}
func (f *fakeConfigService) WorkerSettings(ctx context.Context) (*models.WorkerSettings, error) {
	settings := f.workerSettings
	return &settings, nil
}
func (f *fakeConfigService) AISettings(ctx context.Context) (*models.AISettings, error) {
	return &models.AISettings{}, nil
}
func (f *fakeConfigService) PersonalInfo(ctx context.Context) (*models.PersonalInfo, error) {
	return &models.PersonalInfo{}, nil
}
func (f *fakeConfigService) InvalidateCache() {}
func (f *fakeConfigService) Close() error     { return nil }

// fakeRequeuer records every Enqueue call in place of a real
// queue.LeaseManager - the scheduler only depends on the Requeuer
// interface, not the concrete goqite-backed type.
type fakeRequeuer struct {
	mu  sync.Mutex
	msg []models.QueueMessage
}

func (f *fakeRequeuer) Enqueue(ctx context.Context, msg models.QueueMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msg = append(f.msg, msg)
	return nil
}

func newTestService(t *testing.T, settings models.WorkerSettings) (*Service, *memTaskStorage, *memJobSourceStorage, *fakeRequeuer, interfaces.EventService) {
	t.Helper()
	logger := arbor.NewLogger()
	tasks := newMemTaskStorage()
	sources := newMemJobSourceStorage()
	requeuer := &fakeRequeuer{}
	eventSvc := events.NewService(logger)
	configSvc := &fakeConfigService{workerSettings: settings}

	svc := NewService(tasks, sources, configSvc, requeuer, eventSvc, logger, nil)
	return svc.(*Service), tasks, sources, requeuer, eventSvc
}

func TestReclaimStaleTasks_RequeuesUnderMaxRetries(t *testing.T) {
	svc, tasks, _, requeuer, _ := newTestService(t, models.WorkerSettings{ProcessingTimeoutSeconds: 60})

	stale := &models.Task{
		ID: common.NewID(), Kind: models.TaskKindCompany,
		Status: models.TaskStatusProcessing, RetryCount: 0, MaxRetries: 3,
		UpdatedAt: time.Now().Add(-2 * time.Hour),
	}
	require.NoError(t, tasks.SaveTask(context.Background(), stale), "seed stale task")

	requeued, failed := svc.reclaimStaleTasks(context.Background())
	assert.Equal(t, 1, requeued)
	assert.Equal(t, 0, failed)

	reloaded, err := tasks.GetTask(context.Background(), stale.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusPending, reloaded.Status, "expected task back to Pending")
	assert.Equal(t, 1, reloaded.RetryCount)
	require.Len(t, reloaded.Attempts, 1)
	assert.Equal(t, "stale_lease", reloaded.Attempts[0].ErrorKind)

	require.Len(t, requeuer.msg, 1, "expected stale task re-enqueued")
	assert.Equal(t, stale.ID, requeuer.msg[0].TaskID)
}

func TestReclaimStaleTasks_FailsAtMaxRetries(t *testing.T) {
	svc, tasks, _, requeuer, _ := newTestService(t, models.WorkerSettings{ProcessingTimeoutSeconds: 60})

	stale := &models.Task{
		ID: common.NewID(), Kind: models.TaskKindCompany,
		Status: models.TaskStatusProcessing, RetryCount: 3, MaxRetries: 3,
		UpdatedAt: time.Now().Add(-2 * time.Hour),
	}
	require.NoError(t, tasks.SaveTask(context.Background(), stale), "seed stale task")

	requeued, failed := svc.reclaimStaleTasks(context.Background())
	assert.Equal(t, 0, requeued)
	assert.Equal(t, 1, failed)

	reloaded, err := tasks.GetTask(context.Background(), stale.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusFailed, reloaded.Status)
	assert.Empty(t, requeuer.msg, "expected no re-enqueue for a task exhausting retries")
}

func TestReclaimStaleTasks_IgnoresFreshTasks(t *testing.T) {
	svc, tasks, _, requeuer, _ := newTestService(t, models.WorkerSettings{ProcessingTimeoutSeconds: 3600})

	fresh := &models.Task{
		ID: common.NewID(), Kind: models.TaskKindCompany,
		Status: models.TaskStatusProcessing, RetryCount: 0, MaxRetries: 3,
		UpdatedAt: time.Now(),
	}
	require.NoError(t, tasks.SaveTask(context.Background(), fresh), "seed fresh task")

	requeued, failed := svc.reclaimStaleTasks(context.Background())
	assert.Equal(t, 0, requeued, "expected fresh in-lease task to be left alone")
	assert.Equal(t, 0, failed)
	assert.Empty(t, requeuer.msg)
}

func TestSurfacePendingValidationSources_SkipsHighConfidence(t *testing.T) {
	svc, _, sources, _, eventSvc := newTestService(t, models.WorkerSettings{})

	var published []interfaces.Event
	var mu sync.Mutex
	err := eventSvc.Subscribe(interfaces.EventSourceValidated, func(ctx context.Context, event interfaces.Event) error {
		mu.Lock()
		defer mu.Unlock()
		published = append(published, event)
		return nil
	})
	require.NoError(t, err, "subscribe")

	high := &models.JobSource{ID: common.NewID(), Status: models.SourceStatusPendingValidation, DiscoveryConfidence: models.ConfidenceHigh}
	medium := &models.JobSource{ID: common.NewID(), Status: models.SourceStatusPendingValidation, DiscoveryConfidence: models.ConfidenceMedium}
	low := &models.JobSource{ID: common.NewID(), Status: models.SourceStatusPendingValidation, DiscoveryConfidence: models.ConfidenceLow}
	active := &models.JobSource{ID: common.NewID(), Status: models.SourceStatusActive, DiscoveryConfidence: models.ConfidenceLow}
	for _, s := range []*models.JobSource{high, medium, low, active} {
		require.NoError(t, sources.SaveJobSource(context.Background(), s), "seed source")
	}

	surfaced := svc.surfacePendingValidationSources(context.Background())
	assert.Equal(t, 2, surfaced, "expected 2 surfaced (medium + low, excluding high-confidence and non-pending)")

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, published, 2, "expected 2 EventSourceValidated publishes")
}

func TestStartRejectsInvalidCron(t *testing.T) {
	svc, _, _, _, _ := newTestService(t, models.WorkerSettings{})
	assert.Error(t, svc.Start("not a cron expression"), "expected error for invalid cron expression")
}

func TestStartStop(t *testing.T) {
	svc, _, _, _, _ := newTestService(t, models.WorkerSettings{})
	require.NoError(t, svc.Start("0 * * * *"))
	assert.True(t, svc.IsRunning(), "expected scheduler to report running after Start")
	assert.Error(t, svc.Start("0 * * * *"), "expected second Start to fail while already running")
	require.NoError(t, svc.Stop())
	assert.False(t, svc.IsRunning(), "expected scheduler to report stopped after Stop")
}
