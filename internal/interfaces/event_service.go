package interfaces

import "context"

// EventType represents different event types in the system
type EventType string

const (
	// EventTaskCreated is published when a task is enqueued, root or spawned.
	// Payload: map[string]interface{} with task_id, kind, tracking_id,
	// spawn_depth, timestamp.
	EventTaskCreated EventType = "task_created"

	// EventTaskStatusChanged is published by the dispatcher after each
	// task attempt with the status the task holds at that point.
	// Payload: task_id, to, kind.
	EventTaskStatusChanged EventType = "task_status_changed"

	// EventTaskSpawnRejected is published when the dispatcher refuses to
	// enqueue a child task for violating a spawn-safety invariant (depth
	// limit, ancestry cycle, duplicate lineage, or terminal parent).
	// Payload: parent_task_id, kind, url, reason, timestamp.
	EventTaskSpawnRejected EventType = "task_spawn_rejected"

	// EventCompanyAnalyzed is published when a Company finishes analysis
	// as active. Payload: company_id, status, size_category.
	EventCompanyAnalyzed EventType = "company_analyzed"

	// EventSourceValidated is published by the Source Processor after it
	// discovers a JobSource (source_id, status, confidence) or finds no
	// usable config for a URL (url, outcome "undiscoverable"), and by the
	// health sweep for each PendingValidation source it surfaces
	// (source_id, company_id, status, confidence, outcome, timestamp).
	EventSourceValidated EventType = "source_validated"

	// EventSourceDisabled is published when a source crosses n_fail_disable
	// consecutive failures. Payload: source_id.
	EventSourceDisabled EventType = "source_disabled"

	// EventJobFiltered is published when a listing is rejected by the
	// Filter Engine. Payload: listing_id from the Job Listing Processor;
	// url and reason from the scrape-stage prefilter.
	EventJobFiltered EventType = "job_filtered"

	// EventJobMatched is published when a JobMatch is created.
	// Payload: listing_id, match_id, priority.
	EventJobMatched EventType = "job_matched"

	// EventJobScraped marks stage 1 of the Job Listing Processor: a
	// listing row now exists, ready for company lookup.
	// Payload: listing_id.
	EventJobScraped EventType = "job_scraped"

	// EventJobWaitingCompany is published when a listing's company data
	// is still too thin and the listing requeues instead of proceeding.
	// Payload: listing_id, company_id, attempt.
	EventJobWaitingCompany EventType = "job_waiting_company"

	// EventJobExtraction marks stage 4: the job_extraction AI call
	// completed and the listing carries a structured ExtractionResult.
	// Payload: listing_id.
	EventJobExtraction EventType = "job_extraction"

	// EventJobScoring marks stage 5: the deterministic Scoring Engine
	// ran against the extracted fields. Payload: listing_id, passed,
	// score.
	EventJobScoring EventType = "job_scoring"

	// EventJobAnalysis marks stage 6: the match_analysis AI call
	// completed. Payload: listing_id.
	EventJobAnalysis EventType = "job_analysis"

	// EventJobSaved marks stage 7: the JobMatch was persisted and the
	// listing's terminal status recorded. Payload: listing_id, match_id.
	EventJobSaved EventType = "job_saved"

	// EventBudgetExhausted names a daily AI/search budget cap being hit.
	// No component of the worker publishes it; the logger subscriber
	// listens for it like every other event type.
	EventBudgetExhausted EventType = "budget_exhausted"

	// EventHealthSweepCompleted is published after a scheduler health sweep.
	// Payload: requeued_count, failed_count, surfaced_sources,
	// duration_seconds, timestamp.
	EventHealthSweepCompleted EventType = "health_sweep_completed"

	// EventConfigUpdated is published whenever a policy blob is rewritten
	// in ConfigStorage. Payload: key, timestamp. ConfigService subscribes
	// to it to invalidate its cache.
	EventConfigUpdated EventType = "config_updated"
)

// Event represents a system event
type Event struct {
	Type    EventType
	Payload interface{}
}

// EventHandler is a function that handles events
type EventHandler func(ctx context.Context, event Event) error

// EventService manages pub/sub event bus
type EventService interface {
	// Subscribe to an event type
	Subscribe(eventType EventType, handler EventHandler) error

	// Unsubscribe from an event type
	Unsubscribe(eventType EventType, handler EventHandler) error

	// Publish an event to all subscribers
	Publish(ctx context.Context, event Event) error

	// PublishSync publishes event and waits for all handlers to complete
	PublishSync(ctx context.Context, event Event) error

	// Close shuts down the event service
	Close() error
}
