package intake

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	"github.com/jdubz/job-finder-worker/internal/config"
	"github.com/jdubz/job-finder-worker/internal/interfaces"
	"github.com/jdubz/job-finder-worker/internal/models"
	"github.com/jdubz/job-finder-worker/internal/queue"
	"github.com/jdubz/job-finder-worker/internal/services/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	_ "modernc.org/sqlite"
)

// memTaskStorage and memConfigStorage mirror the fakes built for
// internal/processors' tests - intake only ever saves/reads tasks by id
// and by tracking_id+url, and reads config blobs, so a minimal subset
// suffices here.

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
	return m.SaveTask(ctx, task)
}
func (m *memTaskStorage) ListTasks(ctx context.Context, opts interfaces.TaskListOptions) ([]*models.Task, error) {
	return nil, nil
}
func (m *memTaskStorage) CountTasksByStatus(ctx context.Context, status models.TaskStatus) (int, error) {
	return 0, nil
}
func (m *memTaskStorage) ListByTrackingAndURL(ctx context.Context, trackingID, url string, kind models.TaskKind) ([]*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Task
	for _, t := range m.tasks {
		if t.TrackingID == trackingID && t.Payload.URL == url && t.Kind == kind {
			out = append(out, t)
		}
	}
	return out, nil
}
func (m *memTaskStorage) ListStale(ctx context.Context, deadline int64) ([]*models.Task, error) {
	return nil, nil
}
func (m *memTaskStorage) DeleteTask(ctx context.Context, id string) error { return nil }

type memConfigStorage struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func newMemConfigStorage() *memConfigStorage {
	return &memConfigStorage{blobs: make(map[string][]byte)}
}
func (m *memConfigStorage) GetConfigBlob(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.blobs[key]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	return b, nil
}
func (m *memConfigStorage) SetConfigBlob(ctx context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[key] = value
	return nil
}
func (m *memConfigStorage) ListConfigKeys(ctx context.Context) ([]string, error) {
	return nil, nil
}

func newTestLeaseManager(t *testing.T) *queue.LeaseManager {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err, "open in-memory sqlite")
	t.Cleanup(func() { db.Close() })
	leaseMgr, err := queue.NewLeaseManager(db, "intake_test_tasks")
	require.NoError(t, err, "NewLeaseManager")
	return leaseMgr
}

func newTestService(t *testing.T) (*Service, *memTaskStorage) {
	t.Helper()
	tasks := newMemTaskStorage()
	cfgStorage := newMemConfigStorage()
	logger := arbor.NewLogger()
	eventSvc := events.NewService(logger)
	configSvc, err := config.NewService(cfgStorage, eventSvc, logger)
	require.NoError(t, err, "config.NewService")
	leaseMgr := newTestLeaseManager(t)
	spawnGate := queue.NewSpawnGate(tasks, leaseMgr, eventSvc)
	return NewService(spawnGate, configSvc), tasks
}

func TestSubmitJob(t *testing.T) {
	svc, tasks := newTestService(t)

	taskID, err := svc.SubmitJob(context.Background(), "https://jobs.example.com/1", "Acme", map[string]string{
		"title":    "Engineer",
		"location": "Remote",
	})
	require.NoError(t, err, "SubmitJob")

	task, err := tasks.GetTask(context.Background(), taskID)
	require.NoError(t, err, "GetTask")
	assert.Equal(t, models.TaskKindJobListing, task.Kind)
	assert.Equal(t, "Acme", task.Payload.CompanyName)
	require.NotNil(t, task.Payload.ScrapedData)
	assert.Equal(t, "Engineer", task.Payload.ScrapedData.Title)
	assert.Equal(t, task.ID, task.TrackingID, "expected root task lineage")
	assert.Equal(t, 0, task.SpawnDepth)
}

func TestSubmitJob_RequiresURL(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.SubmitJob(context.Background(), "", "Acme", nil)
	assert.Error(t, err, "expected error for empty url")
}

func TestSubmitCompany(t *testing.T) {
	svc, tasks := newTestService(t)

	taskID, err := svc.SubmitCompany(context.Background(), "Acme", "https://acme.example.com")
	require.NoError(t, err, "SubmitCompany")

	task, err := tasks.GetTask(context.Background(), taskID)
	require.NoError(t, err, "GetTask")
	assert.Equal(t, models.TaskKindCompany, task.Kind)
	assert.Equal(t, "Acme", task.Payload.CompanyName)
	assert.Equal(t, "https://acme.example.com", task.Payload.URL)
}

func TestSubmitCompany_RequiresNameOrURL(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.SubmitCompany(context.Background(), "", "")
	assert.Error(t, err, "expected error when both name and url are empty")
}

func TestSubmitScrape(t *testing.T) {
	svc, tasks := newTestService(t)

	taskID, err := svc.SubmitScrape(context.Background(), "source-123")
	require.NoError(t, err, "SubmitScrape")

	task, err := tasks.GetTask(context.Background(), taskID)
	require.NoError(t, err, "GetTask")
	assert.Equal(t, models.TaskKindScrapeSource, task.Kind)
	assert.Equal(t, "source-123", task.Payload.SourceID)
}

func TestSubmitScrape_RequiresSourceID(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.SubmitScrape(context.Background(), "")
	assert.Error(t, err, "expected error for empty source_id")
}
