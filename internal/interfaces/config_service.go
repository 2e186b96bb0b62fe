package interfaces

import (
	"context"

	"github.com/jdubz/job-finder-worker/internal/models"
)

// ConfigService loads and caches the five policy blobs (prefilter-policy,
// match-policy, worker-settings, ai-settings, personal-info) from
// ConfigStorage, validating each with go-playground/validator and failing
// fast on a missing required key rather than letting a zero value reach
// the Filter/Scoring Engines.
type ConfigService interface {
	PrefilterPolicy(ctx context.Context) (*models.PrefilterPolicy, error)
	MatchPolicy(ctx context.Context) (*models.MatchPolicy, error)
	WorkerSettings(ctx context.Context) (*models.WorkerSettings, error)
	AISettings(ctx context.Context) (*models.AISettings, error)
	PersonalInfo(ctx context.Context) (*models.PersonalInfo, error)

	// InvalidateCache forces a reload from ConfigStorage on next access.
	InvalidateCache()

	Close() error
}
