package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/jdubz/job-finder-worker/internal/interfaces"
	"github.com/jdubz/job-finder-worker/internal/models"
)

// SpawnGate enforces the spec's spawn-safety invariants (§4.1, §8
// property 2) before a child task is allowed onto the queue:
//
//  1. depth limit - spawn_depth must not exceed WorkerSettings.MaxSpawnDepth
//  2. ancestry cycle - the parent's own ancestry chain must not already
//     contain a task targeting the same URL
//  3. duplicate lineage - no other task sharing this tracking_id has
//     already targeted the same (url, kind) pair
//  4. terminal-state - a parent already in a terminal status cannot spawn
type SpawnGate struct {
	tasks    interfaces.TaskStorage
	queueMgr *LeaseManager
	events   interfaces.EventService
}

func NewSpawnGate(tasks interfaces.TaskStorage, queueMgr *LeaseManager, events interfaces.EventService) *SpawnGate {
	return &SpawnGate{tasks: tasks, queueMgr: queueMgr, events: events}
}

// EnqueueRoot persists and enqueues a new root task (tracking_id == task
// id, spawn_depth == 0). Used by internal/intake.
func (g *SpawnGate) EnqueueRoot(ctx context.Context, task *models.Task) error {
	if err := g.tasks.SaveTask(ctx, task); err != nil {
		return fmt.Errorf("failed to save root task: %w", err)
	}
	return g.enqueue(ctx, task)
}

// EnqueueChild validates the spawn-safety invariants for a task that
// NewChildTask already built against parent, then persists and enqueues
// it. Returns a non-nil, non-retryable error (and publishes
// EventTaskSpawnRejected) when the spawn is unsafe - callers should
// treat that as "do not retry this spawn".
func (g *SpawnGate) EnqueueChild(ctx context.Context, parent *models.Task, child *models.Task, maxSpawnDepth int) error {
	if reason := g.reject(ctx, parent, child, maxSpawnDepth); reason != "" {
		g.publishRejected(ctx, parent, child, reason)
		return fmt.Errorf("spawn rejected: %s", reason)
	}

	if err := g.tasks.SaveTask(ctx, child); err != nil {
		return fmt.Errorf("failed to save child task: %w", err)
	}
	return g.enqueue(ctx, child)
}

func (g *SpawnGate) reject(ctx context.Context, parent *models.Task, child *models.Task, maxSpawnDepth int) string {
	if parent.Status.IsTerminal() {
		return fmt.Sprintf("parent task %s is already in terminal status %s", parent.ID, parent.Status)
	}
	if child.SpawnDepth > maxSpawnDepth {
		return fmt.Sprintf("spawn depth %d exceeds max_spawn_depth %d", child.SpawnDepth, maxSpawnDepth)
	}
	if child.Payload.URL != "" {
		for _, ancestorID := range child.AncestryChain {
			ancestor, err := g.tasks.GetTask(ctx, ancestorID)
			if err != nil {
				continue
			}
			if ancestor.Kind == child.Kind && ancestor.Payload.URL == child.Payload.URL {
				return fmt.Sprintf("ancestry cycle: ancestor task %s already targets url %s for kind %s", ancestor.ID, child.Payload.URL, child.Kind)
			}
		}
	}
	if child.Payload.URL != "" {
		dupes, err := g.tasks.ListByTrackingAndURL(ctx, child.TrackingID, child.Payload.URL, child.Kind)
		if err == nil && len(dupes) > 0 {
			return fmt.Sprintf("duplicate lineage: tracking_id %s already targeted url %s for kind %s", child.TrackingID, child.Payload.URL, child.Kind)
		}
	}
	return ""
}

func (g *SpawnGate) enqueue(ctx context.Context, task *models.Task) error {
	if err := g.queueMgr.Enqueue(ctx, models.QueueMessage{TaskID: task.ID, Kind: task.Kind}); err != nil {
		return fmt.Errorf("failed to enqueue task %s: %w", task.ID, err)
	}
	if g.events != nil {
		_ = g.events.Publish(ctx, interfaces.Event{
			Type: interfaces.EventTaskCreated,
			Payload: map[string]interface{}{
				"task_id":     task.ID,
				"kind":        string(task.Kind),
				"tracking_id": task.TrackingID,
				"spawn_depth": task.SpawnDepth,
				"timestamp":   time.Now(),
			},
		})
	}
	return nil
}

func (g *SpawnGate) publishRejected(ctx context.Context, parent, child *models.Task, reason string) {
	if g.events == nil {
		return
	}
	_ = g.events.Publish(ctx, interfaces.Event{
		Type: interfaces.EventTaskSpawnRejected,
		Payload: map[string]interface{}{
			"parent_task_id": parent.ID,
			"kind":           string(child.Kind),
			"url":            child.Payload.URL,
			"reason":         reason,
			"timestamp":      time.Now(),
		},
	})
}
