package queue

import (
	"time"

	"github.com/benvon/memtodo/internal/models"
	"github.com/google/uuid"
)

// ChangeEvent describes one recorded change to a todo
type ChangeEvent struct {
	ID        uuid.UUID `json:"id"`
	TodoID    string    `json:"todo_id"`
	Action    string    `json:"action"`
	Timestamp time.Time `json:"ts"`
}

// NewChangeEvent creates a new change event
func NewChangeEvent(todoID, action string, at time.Time) *ChangeEvent {
	return &ChangeEvent{
		ID:        uuid.New(),
		TodoID:    todoID,
		Action:    action,
		Timestamp: at,
	}
}

// RoutingKey returns the key the event is published under, e.g. "todo.addTag"
// for the action "addTag:home". Fanout exchanges ignore it but topic
// bindings downstream can use it.
func (e *ChangeEvent) RoutingKey() string {
	return "todo." + models.ActionKind(e.Action)
}
