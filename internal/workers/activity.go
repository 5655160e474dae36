// Package workers consumes todo change events published by the server.
package workers

import (
	"context"
	"fmt"
	"sync"
	"time"

	logpkg "github.com/benvon/memtodo/internal/logger"
	"github.com/benvon/memtodo/internal/models"
	"github.com/benvon/memtodo/internal/queue"
	"go.uber.org/zap"
)

// ActivitySnapshot summarizes the events seen so far
type ActivitySnapshot struct {
	Total      int            `json:"total"`
	ByAction   map[string]int `json:"by_action"`
	LiveTodos  int            `json:"live_todos"`
	LastChange time.Time      `json:"last_change"`
}

// ActivityTracker follows the change feed and keeps running counts per
// action kind and the set of todos that have not been deleted.
type ActivityTracker struct {
	logger *zap.Logger

	mu         sync.Mutex
	total      int
	byAction   map[string]int
	lastSeen   map[string]time.Time // todo id -> last change
	lastChange time.Time
}

// NewActivityTracker creates a new activity tracker
func NewActivityTracker(logger *zap.Logger) *ActivityTracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityTracker{
		logger:   logger,
		byAction: make(map[string]int),
		lastSeen: make(map[string]time.Time),
	}
}

// ProcessEvent applies one change event. Events with an unknown action or no
// todo id are rejected.
func (a *ActivityTracker) ProcessEvent(ctx context.Context, event *queue.ChangeEvent) error {
	if event == nil || event.TodoID == "" {
		return fmt.Errorf("todo_id is required for change events")
	}
	if !models.ValidAction(event.Action) {
		return fmt.Errorf("unknown action %q", logpkg.SanitizeString(event.Action, 64))
	}

	kind := models.ActionKind(event.Action)

	a.mu.Lock()
	a.total++
	a.byAction[kind]++
	if kind == models.ActionDeleteTodo {
		delete(a.lastSeen, event.TodoID)
	} else {
		a.lastSeen[event.TodoID] = event.Timestamp
	}
	if event.Timestamp.After(a.lastChange) {
		a.lastChange = event.Timestamp
	}
	a.mu.Unlock()

	a.logger.Info("todo_change_received",
		zap.String("event_id", event.ID.String()),
		zap.String("todo_id", logpkg.SanitizeID(event.TodoID)),
		zap.String("action", kind),
		zap.Time("ts", event.Timestamp),
	)
	return nil
}

// Snapshot returns a copy of the current counts
func (a *ActivityTracker) Snapshot() ActivitySnapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	byAction := make(map[string]int, len(a.byAction))
	for k, v := range a.byAction {
		byAction[k] = v
	}
	return ActivitySnapshot{
		Total:      a.total,
		ByAction:   byAction,
		LiveTodos:  len(a.lastSeen),
		LastChange: a.lastChange,
	}
}

// Run processes deliveries until ctx is done or the delivery channel closes.
// Processed events are acked; rejected events are dropped without requeue
// since they would fail again.
func (a *ActivityTracker) Run(ctx context.Context, deliveries <-chan *queue.Delivery, errs <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			a.logger.Error("queue_error", zap.Error(err))
		case d, ok := <-deliveries:
			if !ok {
				a.logger.Info("delivery_channel_closed")
				return
			}
			if err := a.ProcessEvent(ctx, d.Event); err != nil {
				a.logger.Warn("failed_to_process_change_event", zap.Error(err))
				if nackErr := d.Nack(false); nackErr != nil {
					a.logger.Error("failed_to_nack_delivery", zap.Error(nackErr))
				}
				continue
			}
			if err := d.Ack(); err != nil {
				a.logger.Error("failed_to_ack_delivery", zap.Error(err))
			}
		}
	}
}
