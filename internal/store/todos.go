// Package store holds the canonical todo records and their display order.
//
// TodoStore is not safe for concurrent use; the todos service serializes
// access to it together with the auxiliary indexes.
package store

import (
	"github.com/benvon/memtodo/internal/models"
	"github.com/google/uuid"
)

// TodoStore keeps todos keyed by ID plus an explicit display order.
// Every ID in order has an entry in entities and vice versa.
type TodoStore struct {
	entities map[string]*models.Todo
	order    []string // most recent first
	newID    func() string
}

// Option configures a TodoStore
type Option func(*TodoStore)

// WithIDGenerator overrides the UUID generator, mainly for tests
func WithIDGenerator(gen func() string) Option {
	return func(s *TodoStore) {
		s.newID = gen
	}
}

// NewTodoStore creates an empty todo store
func NewTodoStore(opts ...Option) *TodoStore {
	s := &TodoStore{
		entities: make(map[string]*models.Todo),
		newID:    func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create inserts a new todo at the front of the order and returns its ID.
// Title validation is the caller's job.
func (s *TodoStore) Create(title string) string {
	todo := s.insert(title)
	s.order = append([]string{todo.ID}, s.order...)
	return todo.ID
}

// Append inserts a new todo at the back of the order. Used for seeding.
func (s *TodoStore) Append(title string) string {
	todo := s.insert(title)
	s.order = append(s.order, todo.ID)
	return todo.ID
}

func (s *TodoStore) insert(title string) *models.Todo {
	id := s.newID()
	for _, taken := s.entities[id]; taken; _, taken = s.entities[id] {
		id = s.newID()
	}
	todo := &models.Todo{ID: id, Title: title}
	s.entities[id] = todo
	return todo
}

// Get returns the live record for id. The record is owned by the store.
func (s *TodoStore) Get(id string) (*models.Todo, bool) {
	todo, ok := s.entities[id]
	return todo, ok
}

// List returns the live records following the display order
func (s *TodoStore) List() []*models.Todo {
	todos := make([]*models.Todo, 0, len(s.order))
	for _, id := range s.order {
		todos = append(todos, s.entities[id])
	}
	return todos
}

// Toggle flips done on the record for id
func (s *TodoStore) Toggle(id string) (*models.Todo, bool) {
	todo, ok := s.entities[id]
	if !ok {
		return nil, false
	}
	todo.Done = !todo.Done
	return todo, true
}

// AddTag appends tag unless the todo already carries it
func (s *TodoStore) AddTag(id, tag string) (*models.Todo, bool) {
	todo, ok := s.entities[id]
	if !ok {
		return nil, false
	}
	if !todo.HasTag(tag) {
		todo.Tags = append(todo.Tags, tag)
	}
	return todo, true
}

// Delete removes the record and its order entry. It reports whether id existed.
func (s *TodoStore) Delete(id string) bool {
	if _, ok := s.entities[id]; !ok {
		return false
	}
	delete(s.entities, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

// Len returns the number of records
func (s *TodoStore) Len() int {
	return len(s.entities)
}
