package models

import "time"

// TaskKind identifies which processor handles a task.
type TaskKind string

const (
	TaskKindCompany         TaskKind = "company"
	TaskKindJobListing      TaskKind = "job_listing"
	TaskKindScrape          TaskKind = "scrape"
	TaskKindSourceDiscovery TaskKind = "source_discovery"
	TaskKindScrapeSource    TaskKind = "scrape_source"
)

// IsValid reports whether k is one of the known task kinds.
func (k TaskKind) IsValid() bool {
	switch k {
	case TaskKindCompany, TaskKindJobListing, TaskKindScrape, TaskKindSourceDiscovery, TaskKindScrapeSource:
		return true
	}
	return false
}

// TaskStatus is the task's position in the dispatcher state machine.
// Success, Filtered, Skipped and Failed are terminal.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusSuccess    TaskStatus = "success"
	TaskStatusFiltered   TaskStatus = "filtered"
	TaskStatusSkipped    TaskStatus = "skipped"
	TaskStatusFailed     TaskStatus = "failed"
)

// IsTerminal reports whether s is a terminal status - no further
// processing will happen against this task record.
func (s TaskStatus) IsTerminal() bool {
	switch s {
	case TaskStatusSuccess, TaskStatusFiltered, TaskStatusSkipped, TaskStatusFailed:
		return true
	}
	return false
}

// taskTransitions enumerates every legal (from, to) status edge. Any
// pair not present here is an InvalidState error (common.ErrInvalidState).
var taskTransitions = map[TaskStatus]map[TaskStatus]bool{
	TaskStatusPending: {
		TaskStatusProcessing: true,
	},
	TaskStatusProcessing: {
		TaskStatusSuccess:  true,
		TaskStatusFiltered: true,
		TaskStatusSkipped:  true,
		TaskStatusFailed:   true,
	},
	TaskStatusFailed: {
		TaskStatusPending: true, // internal retry only, retry_count increments
	},
}

// CanTransitionTask reports whether moving a task from `from` to `to`
// is a legal state-machine edge.
func CanTransitionTask(from, to TaskStatus) bool {
	return taskTransitions[from][to]
}

// TaskPayload is the kind-specific data carried by a task. Only the
// fields relevant to the task's kind are populated; this replaces the
// free-form config/metadata maps the pipeline used to pass around with
// a fixed, tagged-variant shape per spec's re-architecture guidance.
type TaskPayload struct {
	// Company task: URL hint (job-board/careers page) and the raw
	// company name as submitted.
	URL         string `json:"url,omitempty"`
	CompanyName string `json:"company_name,omitempty"`

	// JobListing task: either an existing listing id to resume, or
	// inline scraped data for a brand-new listing.
	ListingID   string         `json:"listing_id,omitempty"`
	ScrapedData *NormalizedJob `json:"scraped_data,omitempty"`

	// ScrapeSource task.
	SourceID string `json:"source_id,omitempty"`

	// SourceDiscovery task: candidate URL plus any hints gathered by
	// the Company Processor (e.g. expected company id).
	Hints map[string]string `json:"hints,omitempty"`
}

// PipelineState is lightweight status metadata only - never durable
// intermediate data used for routing. It exists purely for
// observability and for the job-listing pipeline's company-wait loop.
type PipelineState struct {
	Stage              string `json:"stage,omitempty"`
	CompanyWaitRetries int    `json:"company_wait_retries,omitempty"`
	ListingID          string `json:"listing_id,omitempty"`
}

// Attempt is one lease/processing record appended to Task.Attempts,
// forming the retry/error log.
type Attempt struct {
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Error      string     `json:"error,omitempty"`
	ErrorKind  string     `json:"error_kind,omitempty"`
}

// Task is the full durable record for one unit of work. The goqite
// queue only ever carries a QueueMessage pointing at a Task's id; this
// struct is the authoritative record the Store owns.
type Task struct {
	ID     string     `json:"id"`
	Kind   TaskKind   `json:"kind"`
	Status TaskStatus `json:"status"`

	Payload       TaskPayload   `json:"payload"`
	PipelineState PipelineState `json:"pipeline_state"`

	TrackingID    string   `json:"tracking_id"`
	AncestryChain []string `json:"ancestry_chain"`
	SpawnDepth    int      `json:"spawn_depth"`

	RetryCount int       `json:"retry_count"`
	MaxRetries int       `json:"max_retries"`
	Attempts   []Attempt `json:"attempts"`

	DependsOnTaskID string `json:"depends_on_task_id,omitempty"`

	ErrorDetails string `json:"error_details,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// IsRoot reports whether this task is the root of its tracking lineage.
func (t *Task) IsRoot() bool {
	return len(t.AncestryChain) == 0
}

// NewRootTask constructs a new Pending root task with a fresh tracking id.
func NewRootTask(id string, kind TaskKind, payload TaskPayload, maxRetries int, now time.Time) *Task {
	return &Task{
		ID:            id,
		Kind:          kind,
		Status:        TaskStatusPending,
		Payload:       payload,
		TrackingID:    id,
		AncestryChain: nil,
		SpawnDepth:    0,
		MaxRetries:    maxRetries,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// NewChildTask constructs a new Pending child task inheriting the
// parent's tracking id and ancestry, with spawn_depth incremented by
// one. Callers must run spawn-safety checks before persisting this.
func NewChildTask(id string, kind TaskKind, payload TaskPayload, parent *Task, maxRetries int, now time.Time) *Task {
	chain := make([]string, len(parent.AncestryChain)+1)
	copy(chain, parent.AncestryChain)
	chain[len(chain)-1] = parent.ID

	return &Task{
		ID:            id,
		Kind:          kind,
		Status:        TaskStatusPending,
		Payload:       payload,
		TrackingID:    parent.TrackingID,
		AncestryChain: chain,
		SpawnDepth:    parent.SpawnDepth + 1,
		MaxRetries:    maxRetries,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}
