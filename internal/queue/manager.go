package queue

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jdubz/job-finder-worker/internal/interfaces"
	"github.com/jdubz/job-finder-worker/internal/models"
	"maragu.dev/goqite"
)

// LeaseManager wraps a goqite queue. It carries only the lightweight lease
// envelope (models.QueueMessage) - the full durable Task record lives
// in interfaces.TaskStorage and is loaded by TaskID once a message is
// received, the same split the teacher draws between its goqite
// envelope and its badgerhold-backed Job record.
type LeaseManager struct {
	q *goqite.Queue
}

// NewLeaseManager sets up the goqite schema (ignoring "already exists") and
// opens a queue of the given name on db.
func NewLeaseManager(db *sql.DB, queueName string) (*LeaseManager, error) {
	if err := goqite.Setup(context.Background(), db); err != nil {
		if !strings.Contains(err.Error(), "already exists") {
			return nil, fmt.Errorf("failed to set up goqite schema: %w", err)
		}
	}
	q := goqite.New(goqite.NewOpts{DB: db, Name: queueName})
	return &LeaseManager{q: q}, nil
}

// Enqueue marshals msg and sends it onto the queue.
func (m *LeaseManager) Enqueue(ctx context.Context, msg models.QueueMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal queue message: %w", err)
	}
	if err := m.q.Send(ctx, goqite.Message{Body: body}); err != nil {
		return fmt.Errorf("failed to enqueue message: %w", err)
	}
	return nil
}

// Receive dequeues the next available message and returns it alongside
// a delete closure. The closure uses its own background context with a
// fresh short timeout, independent of ctx, so a long-running handler
// cannot cause the final ack to fail with a context already expired -
// the same fix the teacher's Receive applies.
func (m *LeaseManager) Receive(ctx context.Context) (*models.QueueMessage, func() error, error) {
	gm, err := m.q.Receive(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to receive message: %w", err)
	}
	if gm == nil {
		return nil, nil, nil
	}

	var msg models.QueueMessage
	if err := json.Unmarshal(gm.Body, &msg); err != nil {
		return nil, nil, fmt.Errorf("failed to unmarshal queue message: %w", err)
	}

	deleteFn := func() error {
		deleteCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return m.q.Delete(deleteCtx, gm.ID)
	}

	return &msg, deleteFn, nil
}

// Extend pushes out a message's visibility timeout, used when a handler
// needs more time than the default lease allows.
func (m *LeaseManager) Extend(ctx context.Context, messageID string, duration time.Duration) error {
	return m.q.Extend(ctx, goqite.ID(messageID), duration)
}

func (m *LeaseManager) Close() error { return nil }

var _ interfaces.QueueManager = (*LeaseManager)(nil)
