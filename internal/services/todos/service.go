// Package todos implements the todo mutations on top of the entity store and
// the auxiliary indexes.
//
// Every mutation runs as one critical section over the store, the flag set
// and the metadata map, so concurrent requests are applied in the order they
// acquire the service lock. Change events are published after the lock is
// released.
package todos

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/benvon/memtodo/internal/auxindex"
	"github.com/benvon/memtodo/internal/models"
	"github.com/benvon/memtodo/internal/queue"
	"github.com/benvon/memtodo/internal/store"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/benvon/memtodo/internal/services/todos"

// publishTimeout bounds how long a request waits on the event publisher
const publishTimeout = 5 * time.Second

// Service owns the todo state of the process
type Service struct {
	mu      sync.Mutex
	store   *store.TodoStore
	flags   *auxindex.FlagSet
	meta    *auxindex.MetadataMap
	history *auxindex.HistoryLog

	logger    *zap.Logger
	now       func() time.Time
	publisher queue.EventPublisher
	tracer    trace.Tracer
}

// Option configures a Service
type Option func(*Service)

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithPublisher publishes a change event for every recorded history entry
func WithPublisher(publisher queue.EventPublisher) Option {
	return func(s *Service) {
		s.publisher = publisher
	}
}

// WithStore replaces the entity store, e.g. one with deterministic ids
func WithStore(todoStore *store.TodoStore) Option {
	return func(s *Service) {
		s.store = todoStore
	}
}

// NewService creates a service with empty state
func NewService(logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		store:   store.NewTodoStore(),
		flags:   auxindex.NewFlagSet(),
		meta:    auxindex.NewMetadataMap(),
		history: auxindex.NewHistoryLog(),
		logger:  logger,
		now:     time.Now,
		tracer:  otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// record appends action to the history of the live todo and touches its
// metadata. Callers must hold s.mu.
func (s *Service) record(todo *models.Todo, action string) *queue.ChangeEvent {
	at := s.now()
	s.history.Record(todo, action, at)
	s.meta.Touch(todo.ID, at)
	return queue.NewChangeEvent(todo.ID, action, at)
}

func (s *Service) publish(ctx context.Context, event *queue.ChangeEvent) {
	if s.publisher == nil || event == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed_to_publish_change_event",
			zap.String("todo_id", event.TodoID),
			zap.String("action", event.Action),
			zap.Error(err),
		)
	}
}

func (s *Service) startSpan(ctx context.Context, operation, id string) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{attribute.String("todo.operation", operation)}
	if id != "" {
		attrs = append(attrs, attribute.String("todo.id", id))
	}
	return s.tracer.Start(ctx, "todos."+operation, trace.WithAttributes(attrs...))
}

// AddTodo creates a todo at the front of the list
func (s *Service) AddTodo(ctx context.Context, title string) (models.Todo, error) {
	ctx, span := s.startSpan(ctx, "AddTodo", "")
	defer span.End()

	if strings.TrimSpace(title) == "" {
		return models.Todo{}, &ValidationError{Field: "title"}
	}

	s.mu.Lock()
	id := s.store.Create(title)
	todo, _ := s.store.Get(id)
	event := s.record(todo, models.ActionAddTodo)
	created := todo.Clone()
	s.mu.Unlock()

	span.SetAttributes(attribute.String("todo.id", id))
	s.logger.Debug("todo_created", zap.String("todo_id", id))
	s.publish(ctx, event)
	return created, nil
}

// ListTodos returns all todos, most recent first
func (s *Service) ListTodos(ctx context.Context) []models.Todo {
	_, span := s.startSpan(ctx, "ListTodos", "")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	live := s.store.List()
	todos := make([]models.Todo, 0, len(live))
	for _, todo := range live {
		todos = append(todos, todo.Clone())
	}
	span.SetAttributes(attribute.Int("todo.count", len(todos)))
	return todos
}

// GetTodo returns the todo for id
func (s *Service) GetTodo(ctx context.Context, id string) (models.Todo, error) {
	_, span := s.startSpan(ctx, "GetTodo", id)
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	todo, ok := s.store.Get(id)
	if !ok {
		return models.Todo{}, ErrNotFound
	}
	return todo.Clone(), nil
}

// ToggleTodo flips the done state of the todo
func (s *Service) ToggleTodo(ctx context.Context, id string) (models.Todo, error) {
	ctx, span := s.startSpan(ctx, "ToggleTodo", id)
	defer span.End()

	s.mu.Lock()
	todo, ok := s.store.Toggle(id)
	if !ok {
		s.mu.Unlock()
		return models.Todo{}, ErrNotFound
	}
	event := s.record(todo, models.ActionToggleTodo)
	toggled := todo.Clone()
	s.mu.Unlock()

	s.logger.Debug("todo_toggled", zap.String("todo_id", id), zap.Bool("done", toggled.Done))
	s.publish(ctx, event)
	return toggled, nil
}

// AddTag attaches tag to the todo. Adding a tag twice keeps one copy but
// still records history.
func (s *Service) AddTag(ctx context.Context, id, tag string) (models.Todo, error) {
	ctx, span := s.startSpan(ctx, "AddTag", id)
	defer span.End()

	if strings.TrimSpace(tag) == "" {
		return models.Todo{}, &ValidationError{Field: "tag"}
	}

	s.mu.Lock()
	todo, ok := s.store.AddTag(id, tag)
	if !ok {
		s.mu.Unlock()
		return models.Todo{}, ErrNotFound
	}
	event := s.record(todo, models.ActionAddTag(tag))
	tagged := todo.Clone()
	s.mu.Unlock()

	s.logger.Debug("todo_tagged", zap.String("todo_id", id), zap.Int("tag_count", len(tagged.Tags)))
	s.publish(ctx, event)
	return tagged, nil
}

// FlagTodo marks the todo for review
func (s *Service) FlagTodo(ctx context.Context, id string) error {
	return s.setFlag(ctx, id, true)
}

// UnflagTodo clears the review mark
func (s *Service) UnflagTodo(ctx context.Context, id string) error {
	return s.setFlag(ctx, id, false)
}

func (s *Service) setFlag(ctx context.Context, id string, flagged bool) error {
	operation, action := "UnflagTodo", models.ActionUnflag
	if flagged {
		operation, action = "FlagTodo", models.ActionFlag
	}
	ctx, span := s.startSpan(ctx, operation, id)
	defer span.End()

	s.mu.Lock()
	todo, ok := s.store.Get(id)
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	if flagged {
		s.flags.Flag(id)
	} else {
		s.flags.Unflag(id)
	}
	event := s.record(todo, action)
	s.mu.Unlock()

	s.publish(ctx, event)
	return nil
}

// DeleteTodo removes the todo and its flag. The deletion is recorded in the
// history of the live instance first; that history is never read again and
// is reclaimed together with the instance. Metadata for id is left in place.
func (s *Service) DeleteTodo(ctx context.Context, id string) error {
	ctx, span := s.startSpan(ctx, "DeleteTodo", id)
	defer span.End()

	s.mu.Lock()
	todo, ok := s.store.Get(id)
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	event := s.record(todo, models.ActionDeleteTodo)
	s.store.Delete(id)
	s.flags.Unflag(id)
	s.mu.Unlock()

	s.logger.Debug("todo_deleted", zap.String("todo_id", id))
	s.publish(ctx, event)
	return nil
}

// GetHistory returns the history, metadata and flag state of a live todo
func (s *Service) GetHistory(ctx context.Context, id string) (models.HistoryView, error) {
	_, span := s.startSpan(ctx, "GetHistory", id)
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	todo, ok := s.store.Get(id)
	if !ok {
		return models.HistoryView{}, ErrNotFound
	}

	view := models.HistoryView{
		History: s.history.Get(todo),
		Flagged: s.flags.IsFlagged(id),
	}
	if meta, ok := s.meta.Get(id); ok {
		view.Meta = &meta
	}
	return view, nil
}

// Stats is a point-in-time view of the in-memory state sizes
type Stats struct {
	Todos     int `json:"todos"`
	Flagged   int `json:"flagged"`
	Metadata  int `json:"metadata"`
	Histories int `json:"histories"`
}

// Stats returns the current state sizes
func (s *Service) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		Todos:     s.store.Len(),
		Flagged:   s.flags.Len(),
		Metadata:  s.meta.Len(),
		Histories: s.history.Len(),
	}
}
