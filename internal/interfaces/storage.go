package interfaces

import (
	"context"
	"errors"

	"github.com/jdubz/job-finder-worker/internal/models"
)

// ErrNotFound is returned by storage lookups that find no record.
var ErrNotFound = errors.New("record not found")

// TaskListOptions filters/paginates TaskStorage.ListTasks.
type TaskListOptions struct {
	Status     models.TaskStatus
	Kind       models.TaskKind
	TrackingID string
	Limit      int
	Offset     int
}

// TaskStorage persists the durable Task record (spec §3). The queue only
// carries a lightweight lease envelope (models.QueueMessage); this is the
// full record a worker loads by TaskID once it dequeues that envelope.
type TaskStorage interface {
	SaveTask(ctx context.Context, task *models.Task) error
	GetTask(ctx context.Context, taskID string) (*models.Task, error)
	UpdateTask(ctx context.Context, task *models.Task) error
	ListTasks(ctx context.Context, opts TaskListOptions) ([]*models.Task, error)
	CountTasksByStatus(ctx context.Context, status models.TaskStatus) (int, error)
	// ListByTrackingAndURL supports the duplicate-lineage spawn-safety check:
	// has a task with this tracking id already targeted this (url, kind)?
	ListByTrackingAndURL(ctx context.Context, trackingID, url string, kind models.TaskKind) ([]*models.Task, error)
	// ListStale returns tasks stuck in Processing past the given deadline,
	// for the health-sweep cron to requeue or fail.
	ListStale(ctx context.Context, processingDeadline int64) ([]*models.Task, error)
	DeleteTask(ctx context.Context, taskID string) error
}

// CompanyStorage persists Company records, keyed by normalized name.
type CompanyStorage interface {
	SaveCompany(ctx context.Context, company *models.Company) error
	GetCompany(ctx context.Context, id string) (*models.Company, error)
	GetCompanyByName(ctx context.Context, normalizedName string) (*models.Company, error)
	UpdateCompany(ctx context.Context, company *models.Company) error
	ListCompanies(ctx context.Context, status models.AnalysisStatus) ([]*models.Company, error)
	DeleteCompany(ctx context.Context, id string) error
}

// JobSourceStorage persists JobSource records.
type JobSourceStorage interface {
	SaveJobSource(ctx context.Context, source *models.JobSource) error
	GetJobSource(ctx context.Context, id string) (*models.JobSource, error)
	UpdateJobSource(ctx context.Context, source *models.JobSource) error
	ListJobSourcesByCompany(ctx context.Context, companyID string) ([]*models.JobSource, error)
	ListLeasableJobSources(ctx context.Context) ([]*models.JobSource, error)
	// ListJobSourcesByStatus supports the scheduler's health sweep,
	// which surfaces PendingValidation sources for operator review.
	ListJobSourcesByStatus(ctx context.Context, status models.SourceStatus) ([]*models.JobSource, error)
	DeleteJobSource(ctx context.Context, id string) error
}

// JobListingStorage persists JobListing records, deduplicated by URL.
type JobListingStorage interface {
	SaveJobListing(ctx context.Context, listing *models.JobListing) error
	GetJobListing(ctx context.Context, id string) (*models.JobListing, error)
	GetJobListingByURL(ctx context.Context, normalizedURL string) (*models.JobListing, error)
	UpdateJobListing(ctx context.Context, listing *models.JobListing) error
	ListJobListings(ctx context.Context, status models.ListingStatus) ([]*models.JobListing, error)
	DeleteJobListing(ctx context.Context, id string) error
}

// JobMatchStorage persists JobMatch records, the final output of the pipeline.
type JobMatchStorage interface {
	SaveJobMatch(ctx context.Context, match *models.JobMatch) error
	GetJobMatch(ctx context.Context, id string) (*models.JobMatch, error)
	ListJobMatches(ctx context.Context, minPriority models.Priority) ([]*models.JobMatch, error)
	DeleteJobMatch(ctx context.Context, id string) error
}

// ConfigStorage persists the five named policy blobs as raw JSON, keyed by
// the constants in models/policy.go (models.PrefilterPolicyKey, etc.).
type ConfigStorage interface {
	GetConfigBlob(ctx context.Context, key string) ([]byte, error)
	SetConfigBlob(ctx context.Context, key string, value []byte) error
	ListConfigKeys(ctx context.Context) ([]string, error)
}

// CounterStorage tracks daily budget counters (e.g. search API calls) with
// an atomic increment-and-check. Backed by Redis when configured, falling
// back to the Store's own CAS update path otherwise.
type CounterStorage interface {
	// IncrementDaily increments the named counter for the given day bucket
	// (format "2006-01-02") and returns the new value.
	IncrementDaily(ctx context.Context, name, dayBucket string) (int, error)
	GetDaily(ctx context.Context, name, dayBucket string) (int, error)
}

// StorageManager is the composite root handed to every component that
// needs persistence, mirroring the teacher's StorageManager shape but
// scoped to the job-finder's six logical tables.
type StorageManager interface {
	TaskStorage() TaskStorage
	CompanyStorage() CompanyStorage
	JobSourceStorage() JobSourceStorage
	JobListingStorage() JobListingStorage
	JobMatchStorage() JobMatchStorage
	ConfigStorage() ConfigStorage
	CounterStorage() CounterStorage
	DB() interface{}
	Close() error
}
