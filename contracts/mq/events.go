package mq

import "time"

// Routing keys on the "events" exchange.
const (
	RoutingProjectChanged = "project.changed"
	RoutingTaskChanged    = "task.changed"
)

// Actions carried in change events.
const (
	ActionCreated  = "created"
	ActionUpdated  = "updated"
	ActionDeleted  = "deleted"
	ActionImported = "imported"
	ActionStatus   = "status_changed"
)

type ProjectChangedPayload struct {
	EventID    string    `json:"event_id"`
	ProjectID  string    `json:"project_id"`
	Action     string    `json:"action"`
	Actor      string    `json:"actor"`
	TraceID    string    `json:"trace_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

type TaskChangedPayload struct {
	EventID    string    `json:"event_id"`
	ProjectID  string    `json:"project_id"`
	TaskIDs    []string  `json:"task_ids"`
	Action     string    `json:"action"`
	Actor      string    `json:"actor"`
	TraceID    string    `json:"trace_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
