package badger

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/jdubz/job-finder-worker/internal/common"
	"github.com/jdubz/job-finder-worker/internal/interfaces"
	"github.com/jdubz/job-finder-worker/internal/models"
)

func newTestDB(t *testing.T) *BadgerDB {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "store")
	db, err := NewBadgerDB(arbor.NewLogger(), &common.BadgerConfig{Path: dir})
	require.NoError(t, err, "failed to open test badger db")
	t.Cleanup(func() { db.Close() })
	return db
}

func TestTaskStorage_SaveGetUpdate(t *testing.T) {
	db := newTestDB(t)
	ts := NewTaskStorage(db, arbor.NewLogger())
	ctx := context.Background()

	now := time.Now()
	task := models.NewRootTask("task-1", models.TaskKindCompany, models.TaskPayload{CompanyName: "Acme"}, 3, now)

	require.NoError(t, ts.SaveTask(ctx, task))

	got, err := ts.GetTask(ctx, "task-1")
	require.NoError(t, err)
	assert.Equal(t, models.TaskKindCompany, got.Kind)

	got.Status = models.TaskStatusProcessing
	require.NoError(t, ts.UpdateTask(ctx, got), "legal transition")

	reloaded, _ := ts.GetTask(ctx, "task-1")
	reloaded.Status = models.TaskStatusPending // pending is not reachable directly from processing->pending per table... actually it's illegal
	assert.Error(t, ts.UpdateTask(ctx, reloaded), "expected illegal transition processing -> pending to be rejected")
}

func TestTaskStorage_GetTask_NotFound(t *testing.T) {
	db := newTestDB(t)
	ts := NewTaskStorage(db, arbor.NewLogger())

	_, err := ts.GetTask(context.Background(), "missing")
	assert.Equal(t, interfaces.ErrNotFound, err)
}

func TestTaskStorage_ListByTrackingAndURL(t *testing.T) {
	db := newTestDB(t)
	ts := NewTaskStorage(db, arbor.NewLogger())
	ctx := context.Background()
	now := time.Now()

	root := models.NewRootTask("root-1", models.TaskKindCompany, models.TaskPayload{CompanyName: "Acme"}, 3, now)
	root.TrackingID = "track-1"
	require.NoError(t, ts.SaveTask(ctx, root))

	child := models.NewChildTask("child-1", models.TaskKindSourceDiscovery, models.TaskPayload{URL: "https://acme.com/careers"}, root, 3, now)
	require.NoError(t, ts.SaveTask(ctx, child))

	found, err := ts.ListByTrackingAndURL(ctx, "track-1", "https://acme.com/careers", models.TaskKindSourceDiscovery)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "child-1", found[0].ID)

	notFound, err := ts.ListByTrackingAndURL(ctx, "track-1", "https://acme.com/other", models.TaskKindSourceDiscovery)
	require.NoError(t, err)
	assert.Empty(t, notFound, "expected no match for different url")
}
