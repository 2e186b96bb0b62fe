package badger

import (
	"context"
	"fmt"

	"github.com/jdubz/job-finder-worker/internal/interfaces"
	"github.com/jdubz/job-finder-worker/internal/models"
	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"
)

// JobListingStorage implements interfaces.JobListingStorage for Badger.
// URL uniqueness (spec §3 invariant) is enforced at the call site
// (Job Listing Processor checks GetJobListingByURL before inserting),
// matching the teacher's MarkURLSeen check-then-insert idiom in
// job_storage.go rather than a database-level unique constraint, since
// badgerhold has no such constraint.
type JobListingStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

func NewJobListingStorage(db *BadgerDB, logger arbor.ILogger) interfaces.JobListingStorage {
	return &JobListingStorage{db: db, logger: logger}
}

func (s *JobListingStorage) SaveJobListing(ctx context.Context, listing *models.JobListing) error {
	if listing.ID == "" {
		return fmt.Errorf("job listing ID is required")
	}
	if err := s.db.Store().Upsert(listing.ID, listing); err != nil {
		return fmt.Errorf("failed to save job listing: %w", err)
	}
	return nil
}

func (s *JobListingStorage) GetJobListing(ctx context.Context, id string) (*models.JobListing, error) {
	var l models.JobListing
	if err := s.db.Store().Get(id, &l); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get job listing: %w", err)
	}
	return &l, nil
}

func (s *JobListingStorage) GetJobListingByURL(ctx context.Context, normalizedURL string) (*models.JobListing, error) {
	var listings []models.JobListing
	if err := s.db.Store().Find(&listings, badgerhold.Where("URL").Eq(normalizedURL).Limit(1)); err != nil {
		return nil, fmt.Errorf("failed to find job listing by url: %w", err)
	}
	if len(listings) == 0 {
		return nil, interfaces.ErrNotFound
	}
	return &listings[0], nil
}

func (s *JobListingStorage) UpdateJobListing(ctx context.Context, listing *models.JobListing) error {
	return s.SaveJobListing(ctx, listing)
}

func (s *JobListingStorage) ListJobListings(ctx context.Context, status models.ListingStatus) ([]*models.JobListing, error) {
	query := badgerhold.Where("ID").Ne("")
	if status != "" {
		query = query.And("Status").Eq(status)
	}
	var listings []models.JobListing
	if err := s.db.Store().Find(&listings, query.SortBy("CreatedAt").Reverse()); err != nil {
		return nil, fmt.Errorf("failed to list job listings: %w", err)
	}
	result := make([]*models.JobListing, len(listings))
	for i := range listings {
		result[i] = &listings[i]
	}
	return result, nil
}

func (s *JobListingStorage) DeleteJobListing(ctx context.Context, id string) error {
	if err := s.db.Store().Delete(id, &models.JobListing{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil
		}
		return fmt.Errorf("failed to delete job listing: %w", err)
	}
	return nil
}
