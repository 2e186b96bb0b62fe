package badger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/jdubz/job-finder-worker/internal/interfaces"
	"github.com/jdubz/job-finder-worker/internal/models"
)

func TestCompanyStorage_SaveGetUpdate(t *testing.T) {
	db := newTestDB(t)
	cs := NewCompanyStorage(db, arbor.NewLogger())
	ctx := context.Background()

	c := &models.Company{ID: "co-1", Name: "Acme Inc", NormalizedName: "acme", AnalysisStatus: models.AnalysisStatusPending, CreatedAt: time.Now()}
	require.NoError(t, cs.SaveCompany(ctx, c))

	byName, err := cs.GetCompanyByName(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, "co-1", byName.ID)

	byName.AnalysisStatus = models.AnalysisStatusAnalyzing
	require.NoError(t, cs.UpdateCompany(ctx, byName), "legal transition")

	byName.AnalysisStatus = models.AnalysisStatusFailed
	require.NoError(t, cs.UpdateCompany(ctx, byName), "analyzing->failed")

	byName.AnalysisStatus = models.AnalysisStatusActive
	assert.Error(t, cs.UpdateCompany(ctx, byName), "expected illegal transition failed -> active to be rejected")
}

func TestJobSourceStorage_LeasableFiltersByStatus(t *testing.T) {
	db := newTestDB(t)
	ss := NewJobSourceStorage(db, arbor.NewLogger())
	ctx := context.Background()

	active := &models.JobSource{ID: "src-active", Status: models.SourceStatusActive, CreatedAt: time.Now()}
	disabled := &models.JobSource{ID: "src-disabled", Status: models.SourceStatusDisabled, CreatedAt: time.Now()}
	require.NoError(t, ss.SaveJobSource(ctx, active))
	require.NoError(t, ss.SaveJobSource(ctx, disabled))

	leasable, err := ss.ListLeasableJobSources(ctx)
	require.NoError(t, err)
	require.Len(t, leasable, 1, "expected only src-active to be leasable, got %+v", leasable)
	assert.Equal(t, "src-active", leasable[0].ID)
}

func TestJobListingStorage_DedupByURL(t *testing.T) {
	db := newTestDB(t)
	ls := NewJobListingStorage(db, arbor.NewLogger())
	ctx := context.Background()

	listing := &models.JobListing{ID: "jl-1", URL: "https://boards.greenhouse.io/acme/jobs/1", Title: "Engineer", CreatedAt: time.Now()}
	require.NoError(t, ls.SaveJobListing(ctx, listing))

	found, err := ls.GetJobListingByURL(ctx, "https://boards.greenhouse.io/acme/jobs/1")
	require.NoError(t, err)
	assert.Equal(t, "jl-1", found.ID)

	_, err = ls.GetJobListingByURL(ctx, "https://boards.greenhouse.io/acme/jobs/2")
	assert.Equal(t, interfaces.ErrNotFound, err, "expected ErrNotFound for unseen url")
}

func TestJobMatchStorage_ListByMinPriority(t *testing.T) {
	db := newTestDB(t)
	ms := NewJobMatchStorage(db, arbor.NewLogger())
	ctx := context.Background()

	for i, p := range []models.Priority{models.PriorityLow, models.PriorityMedium, models.PriorityHigh} {
		m := &models.JobMatch{ID: string(rune('a' + i)), Priority: p, CreatedAt: time.Now()}
		require.NoError(t, ms.SaveJobMatch(ctx, m))
	}

	highOnly, err := ms.ListJobMatches(ctx, models.PriorityHigh)
	require.NoError(t, err)
	assert.Len(t, highOnly, 1, "expected 1 high-priority match")

	all, err := ms.ListJobMatches(ctx, models.PriorityLow)
	require.NoError(t, err)
	assert.Len(t, all, 3, "expected 3 matches at low threshold")
}

func TestConfigStorage_SetGetPreservesCreatedAt(t *testing.T) {
	db := newTestDB(t)
	cfg := NewConfigStorage(db, arbor.NewLogger())
	ctx := context.Background()

	require.NoError(t, cfg.SetConfigBlob(ctx, models.PrefilterPolicyKey, []byte(`{"strike_threshold":3}`)))

	got, err := cfg.GetConfigBlob(ctx, models.PrefilterPolicyKey)
	require.NoError(t, err)
	assert.Equal(t, `{"strike_threshold":3}`, string(got))

	keys, err := cfg.ListConfigKeys(ctx)
	require.NoError(t, err)
	require.Len(t, keys, 1)
	assert.Equal(t, models.PrefilterPolicyKey, keys[0])
}
