// Package events defines the domain events emitted by the workflow and
// connected-app aggregates. Events are collected on the aggregate during a
// mutation and dispatched only after the write has been persisted.
package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

// Topic carries every domain event published by the application layer.
const Topic = "flowdeck.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Workflow lifecycle events.
	WorkflowCreatedEvent       EventType = "workflow.created"
	WorkflowStatusChangedEvent EventType = "workflow.status_changed"
	WorkflowExecutedEvent      EventType = "workflow.executed"
	WorkflowDeletedEvent       EventType = "workflow.deleted"

	// Connected-app lifecycle events.
	AppConnectedEvent    EventType = "app.connected"
	AppDisconnectedEvent EventType = "app.disconnected"

	// Template events.
	TemplateUsedEvent EventType = "template.used"
)

// Event is the contract every domain event satisfies.
type Event interface {
	GetType() EventType
}

type BaseEvent struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
	WorkflowID int64     `json:"workflow_id,omitempty"`
	UserID     int64     `json:"user_id,omitempty"`
}

func NewBaseEvent(eventType EventType, workflowID, userID int64) BaseEvent {
	return BaseEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		WorkflowID: workflowID,
		UserID:     userID,
	}
}

type WorkflowCreated struct {
	BaseEvent

	Name string `json:"name"`
}

func (e WorkflowCreated) GetType() EventType {
	return WorkflowCreatedEvent
}

type WorkflowStatusChanged struct {
	BaseEvent

	OldStatus string `json:"old_status"`
	NewStatus string `json:"new_status"`
	Reason    string `json:"reason,omitempty"`
}

func (e WorkflowStatusChanged) GetType() EventType {
	return WorkflowStatusChangedEvent
}

type WorkflowExecuted struct {
	BaseEvent

	ExecutionID string `json:"execution_id"`
	IPAddress   string `json:"ip_address,omitempty"`
}

func (e WorkflowExecuted) GetType() EventType {
	return WorkflowExecutedEvent
}

type WorkflowDeleted struct {
	BaseEvent

	Name string `json:"name"`
}

func (e WorkflowDeleted) GetType() EventType {
	return WorkflowDeletedEvent
}

type AppConnected struct {
	BaseEvent

	AppID   int64  `json:"app_id"`
	AppName string `json:"app_name"`
}

func (e AppConnected) GetType() EventType {
	return AppConnectedEvent
}

type AppDisconnected struct {
	BaseEvent

	AppID   int64  `json:"app_id"`
	AppName string `json:"app_name"`
}

func (e AppDisconnected) GetType() EventType {
	return AppDisconnectedEvent
}

type TemplateUsed struct {
	BaseEvent

	TemplateID int64 `json:"template_id"`
	UseCount   int64 `json:"use_count"`
}

func (e TemplateUsed) GetType() EventType {
	return TemplateUsedEvent
}
