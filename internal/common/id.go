package common

import "github.com/google/uuid"

// NewID returns a new random identifier, used for task ids, company
// stub ids, match ids, and anything else the Store assigns a primary
// key to.
func NewID() string {
	return uuid.New().String()
}

// NewTrackingID returns a new tracking id for a root task. Every
// descendant task inherits the same tracking id from its ancestor.
func NewTrackingID() string {
	return uuid.New().String()
}
