package badger

import (
	"context"
	"fmt"

	"github.com/jdubz/job-finder-worker/internal/interfaces"
	"github.com/jdubz/job-finder-worker/internal/models"
	"github.com/ternarybob/arbor"
	"github.com/timshannon/badgerhold/v4"
)

// JobMatchStorage implements interfaces.JobMatchStorage for Badger.
type JobMatchStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

func NewJobMatchStorage(db *BadgerDB, logger arbor.ILogger) interfaces.JobMatchStorage {
	return &JobMatchStorage{db: db, logger: logger}
}

func (s *JobMatchStorage) SaveJobMatch(ctx context.Context, match *models.JobMatch) error {
	if match.ID == "" {
		return fmt.Errorf("job match ID is required")
	}
	if err := s.db.Store().Upsert(match.ID, match); err != nil {
		return fmt.Errorf("failed to save job match: %w", err)
	}
	return nil
}

func (s *JobMatchStorage) GetJobMatch(ctx context.Context, id string) (*models.JobMatch, error) {
	var m models.JobMatch
	if err := s.db.Store().Get(id, &m); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get job match: %w", err)
	}
	return &m, nil
}

var priorityRank = map[models.Priority]int{
	models.PriorityLow:    0,
	models.PriorityMedium: 1,
	models.PriorityHigh:   2,
}

func (s *JobMatchStorage) ListJobMatches(ctx context.Context, minPriority models.Priority) ([]*models.JobMatch, error) {
	var matches []models.JobMatch
	if err := s.db.Store().Find(&matches, badgerhold.Where("ID").Ne("").SortBy("CreatedAt").Reverse()); err != nil {
		return nil, fmt.Errorf("failed to list job matches: %w", err)
	}
	minRank := priorityRank[minPriority]
	result := make([]*models.JobMatch, 0, len(matches))
	for i := range matches {
		if priorityRank[matches[i].Priority] >= minRank {
			result = append(result, &matches[i])
		}
	}
	return result, nil
}

func (s *JobMatchStorage) DeleteJobMatch(ctx context.Context, id string) error {
	if err := s.db.Store().Delete(id, &models.JobMatch{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil
		}
		return fmt.Errorf("failed to delete job match: %w", err)
	}
	return nil
}
