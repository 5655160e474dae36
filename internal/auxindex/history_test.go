package auxindex

import (
	"runtime"
	"testing"
	"time"

	"github.com/benvon/memtodo/internal/models"
)

func TestHistoryLog_RecordAndGet(t *testing.T) {
	t.Parallel()

	h := NewHistoryLog()
	todo := &models.Todo{ID: "a", Title: "t"}

	if got := h.Get(todo); got == nil || len(got) != 0 {
		t.Fatalf("Expected empty non-nil history, got %#v", got)
	}

	h.Record(todo, models.ActionAddTodo, time.UnixMilli(10))
	h.Record(todo, models.ActionToggleTodo, time.UnixMilli(20))

	got := h.Get(todo)
	if len(got) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(got))
	}
	if got[0].Action != models.ActionAddTodo || got[0].TS != 10 {
		t.Errorf("Unexpected first entry %+v", got[0])
	}
	if got[1].Action != models.ActionToggleTodo || got[1].TS != 20 {
		t.Errorf("Unexpected second entry %+v", got[1])
	}
}

func TestHistoryLog_KeyedByInstanceNotID(t *testing.T) {
	t.Parallel()

	h := NewHistoryLog()
	original := &models.Todo{ID: "same", Title: "t"}
	replacement := &models.Todo{ID: "same", Title: "t"}

	h.Record(original, models.ActionAddTodo, time.UnixMilli(1))

	if got := h.Get(replacement); len(got) != 0 {
		t.Errorf("Expected a distinct instance with the same id to have no history, got %v", got)
	}
	if got := h.Get(original); len(got) != 1 {
		t.Errorf("Expected original instance to keep its history, got %v", got)
	}
}

func TestHistoryLog_GetReturnsCopy(t *testing.T) {
	t.Parallel()

	h := NewHistoryLog()
	todo := &models.Todo{ID: "a"}
	h.Record(todo, models.ActionFlag, time.UnixMilli(1))

	got := h.Get(todo)
	got[0].Action = "tampered"

	if h.Get(todo)[0].Action != models.ActionFlag {
		t.Error("Expected Get to return a copy")
	}
}

func TestHistoryLog_NilTodo(t *testing.T) {
	t.Parallel()

	h := NewHistoryLog()
	h.Record(nil, models.ActionFlag, time.Now())

	if h.Len() != 0 {
		t.Errorf("Expected nil todo to be ignored, got %d entries", h.Len())
	}
	if got := h.Get(nil); got == nil {
		t.Error("Expected empty slice for nil todo")
	}
}

//go:noinline
func recordUnreachable(h *HistoryLog) {
	todo := &models.Todo{ID: "gone", Title: "temporary"}
	h.Record(todo, models.ActionAddTodo, time.Now())
	h.Record(todo, models.ActionDeleteTodo, time.Now())
}

func TestHistoryLog_ReclaimsCollectedTodos(t *testing.T) {
	h := NewHistoryLog()
	live := &models.Todo{ID: "live", Title: "kept"}
	h.Record(live, models.ActionAddTodo, time.Now())

	recordUnreachable(h)
	if h.Len() != 2 {
		t.Fatalf("Expected 2 histories before collection, got %d", h.Len())
	}

	deadline := time.Now().Add(5 * time.Second)
	for h.Len() > 1 {
		if time.Now().After(deadline) {
			t.Fatalf("Expected history of unreachable todo to be reclaimed, still have %d", h.Len())
		}
		runtime.GC()
		time.Sleep(10 * time.Millisecond)
	}

	if got := h.Get(live); len(got) != 1 {
		t.Errorf("Expected live todo to keep its history, got %v", got)
	}
	runtime.KeepAlive(live)
}
