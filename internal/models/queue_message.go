package models

import (
	"encoding/json"
	"errors"
)

// ErrNoMessage is returned when the lease queue is empty.
var ErrNoMessage = errors.New("no messages in queue")

// QueueMessage is the lightweight lease envelope stored in the goqite
// queue. It carries just enough to route the task to its handler; the
// full durable Task record (pipeline_state, ancestry_chain, attempts,
// etc.) lives in the Store and is looked up by TaskID.
type QueueMessage struct {
	TaskID  string          `json:"task_id"` // References tasks.id in the Store
	Kind    TaskKind        `json:"kind"`    // Task kind for handler routing
	Payload json.RawMessage `json:"payload"` // Kind-specific payload, passed through
}
