package events

import (
	"github.com/harshparashar-me/leadpilot-sub000/pkg/models"
)

// EventType defines the type of event in the system
type EventType string

const (
	// Record Events
	RecordAfterCreate EventType = "record.after_create"
	RecordAfterUpdate EventType = "record.after_update"
	RecordAfterDelete EventType = "record.after_delete"

	// Workflow definition events
	WorkflowChanged EventType = "workflow.changed"
)

// String returns the string representation of the event type
func (e EventType) String() string {
	return string(e)
}

// RecordEvent is the payload of record.* events.
type RecordEvent struct {
	EntityType string
	EntityID   string
	OldValues  models.SObject
	NewValues  models.SObject
	User       *models.UserSession
}

// WorkflowEvent is the payload of workflow.changed.
type WorkflowEvent struct {
	WorkflowID string
	Deleted    bool
}
