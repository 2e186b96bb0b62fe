package badger

import (
	"context"
	"fmt"

	"github.com/jdubz/job-finder-worker/internal/interfaces"
	"github.com/jdubz/job-finder-worker/internal/models"
	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"
)

// JobSourceStorage implements interfaces.JobSourceStorage for Badger.
type JobSourceStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

func NewJobSourceStorage(db *BadgerDB, logger arbor.ILogger) interfaces.JobSourceStorage {
	return &JobSourceStorage{db: db, logger: logger}
}

func (s *JobSourceStorage) SaveJobSource(ctx context.Context, source *models.JobSource) error {
	if source.ID == "" {
		return fmt.Errorf("job source ID is required")
	}
	if err := s.db.Store().Upsert(source.ID, source); err != nil {
		return fmt.Errorf("failed to save job source: %w", err)
	}
	return nil
}

func (s *JobSourceStorage) GetJobSource(ctx context.Context, id string) (*models.JobSource, error) {
	var src models.JobSource
	if err := s.db.Store().Get(id, &src); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get job source: %w", err)
	}
	return &src, nil
}

func (s *JobSourceStorage) UpdateJobSource(ctx context.Context, source *models.JobSource) error {
	return s.SaveJobSource(ctx, source)
}

func (s *JobSourceStorage) ListJobSourcesByCompany(ctx context.Context, companyID string) ([]*models.JobSource, error) {
	var sources []models.JobSource
	if err := s.db.Store().Find(&sources, badgerhold.Where("CompanyID").Eq(companyID)); err != nil {
		return nil, fmt.Errorf("failed to list job sources by company: %w", err)
	}
	return toSourcePtrs(sources), nil
}

func (s *JobSourceStorage) ListLeasableJobSources(ctx context.Context) ([]*models.JobSource, error) {
	var sources []models.JobSource
	if err := s.db.Store().Find(&sources, badgerhold.Where("Status").Eq(models.SourceStatusActive)); err != nil {
		return nil, fmt.Errorf("failed to list leasable job sources: %w", err)
	}
	return toSourcePtrs(sources), nil
}

func (s *JobSourceStorage) ListJobSourcesByStatus(ctx context.Context, status models.SourceStatus) ([]*models.JobSource, error) {
	var sources []models.JobSource
	if err := s.db.Store().Find(&sources, badgerhold.Where("Status").Eq(status)); err != nil {
		return nil, fmt.Errorf("failed to list job sources by status: %w", err)
	}
	return toSourcePtrs(sources), nil
}

func (s *JobSourceStorage) DeleteJobSource(ctx context.Context, id string) error {
	if err := s.db.Store().Delete(id, &models.JobSource{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil
		}
		return fmt.Errorf("failed to delete job source: %w", err)
	}
	return nil
}

func toSourcePtrs(sources []models.JobSource) []*models.JobSource {
	result := make([]*models.JobSource, len(sources))
	for i := range sources {
		result[i] = &sources[i]
	}
	return result
}
