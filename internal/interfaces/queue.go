package interfaces

import (
	"context"
	"time"

	"github.com/jdubz/job-finder-worker/internal/models"
)

// QueueManager manages the goqite-backed lease queue. Messages carry only
// the lightweight envelope (models.QueueMessage); the full Task record
// lives in TaskStorage and is loaded by TaskID once a message is received.
type QueueManager interface {
	Enqueue(ctx context.Context, msg models.QueueMessage) error
	// Receive returns the next leased message and a delete closure to call
	// once the handler has durably recorded the outcome. The delete
	// closure uses its own background context/timeout, independent of ctx,
	// so a long-running handler cannot cause the ack itself to expire.
	Receive(ctx context.Context) (*models.QueueMessage, func() error, error)
	Extend(ctx context.Context, messageID string, duration time.Duration) error
	Close() error
}

// TaskHandler processes one dequeued task. Implementations live in
// internal/processors, keyed by models.TaskKind in the dispatcher's
// handler registry.
type TaskHandler func(ctx context.Context, task *models.Task) error
