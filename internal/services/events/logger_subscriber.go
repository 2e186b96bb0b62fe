package events

import (
	"context"
	"fmt"

	"github.com/jdubz/job-finder-worker/internal/interfaces"
	"github.com/ternarybob/arbor"
)

// NewLoggerSubscriber creates an event handler that logs all events
func NewLoggerSubscriber(logger arbor.ILogger) interfaces.EventHandler {
	return func(ctx context.Context, event interfaces.Event) error {
		// Extract common fields from payload if available
		var taskID, kind, status string
		if payload, ok := event.Payload.(map[string]interface{}); ok {
			if id, ok := payload["task_id"].(string); ok {
				taskID = id
			}
			if k, ok := payload["kind"].(string); ok {
				kind = k
			}
			if s, ok := payload["status"].(string); ok {
				status = s
			}
		}

		// Log event with structured fields
		logEvent := logger.Debug().
			Str("event_type", string(event.Type))

		if taskID != "" {
			logEvent = logEvent.Str("task_id", taskID)
		}
		if kind != "" {
			logEvent = logEvent.Str("kind", kind)
		}
		if status != "" {
			logEvent = logEvent.Str("status", status)
		}

		logEvent.Msg("Event published")

		return nil
	}
}

// SubscribeLoggerToAllEvents subscribes the logger to all known event types
func SubscribeLoggerToAllEvents(eventService interfaces.EventService, logger arbor.ILogger) error {
	subscriber := NewLoggerSubscriber(logger)

	eventTypes := []interfaces.EventType{
		interfaces.EventTaskCreated,
		interfaces.EventTaskStatusChanged,
		interfaces.EventTaskSpawnRejected,
		interfaces.EventCompanyAnalyzed,
		interfaces.EventSourceValidated,
		interfaces.EventSourceDisabled,
		interfaces.EventJobFiltered,
		interfaces.EventJobMatched,
		interfaces.EventJobScraped,
		interfaces.EventJobWaitingCompany,
		interfaces.EventJobExtraction,
		interfaces.EventJobScoring,
		interfaces.EventJobAnalysis,
		interfaces.EventJobSaved,
		interfaces.EventBudgetExhausted,
		interfaces.EventHealthSweepCompleted,
	}

	for _, eventType := range eventTypes {
		if err := eventService.Subscribe(eventType, subscriber); err != nil {
			return fmt.Errorf("failed to subscribe logger to event type %s: %w", eventType, err)
		}
	}

	logger.Info().
		Int("event_type_count", len(eventTypes)).
		Msg("Logger subscribed to all event types")

	return nil
}
