package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/jdubz/job-finder-worker/internal/common"
	"github.com/jdubz/job-finder-worker/internal/interfaces"
)

// TestNewLoggerSubscriber verifies that the logger subscriber logs events
func TestNewLoggerSubscriber(t *testing.T) {
	logger := arbor.NewLogger()
	defer common.Stop()

	subscriber := NewLoggerSubscriber(logger)

	ctx := context.Background()
	event := interfaces.Event{
		Type: interfaces.EventTaskCreated,
		Payload: map[string]interface{}{
			"task_id": "test-task-123",
			"kind":    "company",
			"status":  "pending",
		},
	}

	assert.NoError(t, subscriber(ctx, event))

	event2 := interfaces.Event{
		Type:    interfaces.EventHealthSweepCompleted,
		Payload: nil,
	}

	assert.NoError(t, subscriber(ctx, event2))
}

// TestSubscribeLoggerToAllEvents verifies logger is subscribed to all event types
func TestSubscribeLoggerToAllEvents(t *testing.T) {
	logger := arbor.NewLogger()
	defer common.Stop()

	eventService := NewService(logger)
	defer eventService.Close()
	require.NoError(t, SubscribeLoggerToAllEvents(eventService, logger))

	ctx := context.Background()

	eventTypes := []interfaces.EventType{
		interfaces.EventTaskCreated,
		interfaces.EventTaskStatusChanged,
		interfaces.EventTaskSpawnRejected,
		interfaces.EventCompanyAnalyzed,
		interfaces.EventSourceValidated,
		interfaces.EventSourceDisabled,
		interfaces.EventJobFiltered,
		interfaces.EventJobMatched,
		interfaces.EventBudgetExhausted,
		interfaces.EventHealthSweepCompleted,
	}

	for _, eventType := range eventTypes {
		event := interfaces.Event{
			Type:    eventType,
			Payload: map[string]interface{}{"test": "data"},
		}

		assert.NoError(t, eventService.Publish(ctx, event), "publishing %s event", eventType)
	}
}

// TestLoggerSubscriberDoesNotInterfere verifies logger subscriber doesn't interfere with other handlers
func TestLoggerSubscriberDoesNotInterfere(t *testing.T) {
	logger := arbor.NewLogger()
	defer common.Stop()

	eventService := NewService(logger)
	defer eventService.Close()
	require.NoError(t, SubscribeLoggerToAllEvents(eventService, logger))

	callCount := 0
	customHandler := func(ctx context.Context, event interfaces.Event) error {
		callCount++
		return nil
	}

	require.NoError(t, eventService.Subscribe(interfaces.EventTaskCreated, customHandler), "failed to subscribe custom handler")

	ctx := context.Background()
	event := interfaces.Event{
		Type: interfaces.EventTaskCreated,
		Payload: map[string]interface{}{
			"task_id": "test-task",
		},
	}

	assert.NoError(t, eventService.PublishSync(ctx, event))
	assert.Equal(t, 1, callCount, "expected custom handler to be called once")
}
