package auxindex

import (
	"runtime"
	"sync"
	"time"
	"weak"

	"github.com/benvon/memtodo/internal/models"
)

// HistoryLog maps a todo instance to its append-only change history.
//
// Keys are weak pointers, so the log never keeps a todo alive. The first
// Record for an instance registers a runtime cleanup that drops the entry
// once the instance has been collected.
type HistoryLog struct {
	mu      sync.Mutex
	entries map[weak.Pointer[models.Todo]][]models.ChangeEntry
}

// NewHistoryLog creates an empty history log
func NewHistoryLog() *HistoryLog {
	return &HistoryLog{entries: make(map[weak.Pointer[models.Todo]][]models.ChangeEntry)}
}

// Record appends action to the history of todo, creating it on first use
func (h *HistoryLog) Record(todo *models.Todo, action string, at time.Time) {
	if todo == nil {
		return
	}
	key := weak.Make(todo)
	entry := models.NewChangeEntry(at, action)

	h.mu.Lock()
	defer h.mu.Unlock()

	history, ok := h.entries[key]
	if !ok {
		runtime.AddCleanup(todo, h.evict, key)
	}
	h.entries[key] = append(history, entry)
}

// Get returns a copy of the history of todo, oldest first.
// It never returns nil.
func (h *HistoryLog) Get(todo *models.Todo) []models.ChangeEntry {
	if todo == nil {
		return []models.ChangeEntry{}
	}
	key := weak.Make(todo)

	h.mu.Lock()
	defer h.mu.Unlock()

	history := h.entries[key]
	out := make([]models.ChangeEntry, len(history))
	copy(out, history)
	return out
}

// Len returns the number of instances that still have a history
func (h *HistoryLog) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

func (h *HistoryLog) evict(key weak.Pointer[models.Todo]) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.entries, key)
}
