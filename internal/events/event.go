package events

import (
	"time"

	"github.com/gofrs/uuid"
)

// Routing keys published to the events exchange.
const (
	UserRegistered = "user.registered"
	UserDeleted    = "user.deleted"
	ProjectCreated = "project.created"
	ProjectUpdated = "project.updated"
	ProjectDeleted = "project.deleted"
	TaskCreated    = "task.created"
	TaskUpdated    = "task.updated"
	TaskToggled    = "task.toggled"
	TaskDeleted    = "task.deleted"
)

type Event struct {
	ID         string                 `json:"id"`
	Type       string                 `json:"type"`
	UserID     string                 `json:"user_id"`
	ProjectID  string                 `json:"project_id,omitempty"`
	TaskID     string                 `json:"task_id,omitempty"`
	Data       map[string]interface{} `json:"data,omitempty"`
	OccurredAt time.Time              `json:"occurred_at"`
}

func New(eventType string, userID uuid.UUID) Event {
	return Event{
		ID:         uuid.Must(uuid.NewV4()).String(),
		Type:       eventType,
		UserID:     userID.String(),
		OccurredAt: time.Now().UTC(),
	}
}

func (e Event) WithProject(id uuid.UUID) Event {
	e.ProjectID = id.String()
	return e
}

func (e Event) WithTask(id uuid.UUID) Event {
	e.TaskID = id.String()
	return e
}

func (e Event) With(key string, value interface{}) Event {
	data := make(map[string]interface{}, len(e.Data)+1)
	for k, v := range e.Data {
		data[k] = v
	}
	data[key] = value
	e.Data = data
	return e
}
