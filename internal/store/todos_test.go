package store

import (
	"fmt"
	"testing"

	"github.com/benvon/memtodo/internal/models"
)

func sequentialIDs() Option {
	n := 0
	return WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	})
}

func titles(todos []*models.Todo) []string {
	out := make([]string, 0, len(todos))
	for _, todo := range todos {
		out = append(out, todo.Title)
	}
	return out
}

func assertConsistent(t *testing.T, s *TodoStore) {
	t.Helper()
	if len(s.order) != len(s.entities) {
		t.Fatalf("order has %d ids but entities has %d", len(s.order), len(s.entities))
	}
	seen := make(map[string]bool, len(s.order))
	for _, id := range s.order {
		if _, ok := s.entities[id]; !ok {
			t.Fatalf("order references missing id %s", id)
		}
		if seen[id] {
			t.Fatalf("order contains %s twice", id)
		}
		seen[id] = true
	}
}

func TestTodoStore_CreateInsertsAtFront(t *testing.T) {
	t.Parallel()

	s := NewTodoStore(sequentialIDs())
	first := s.Create("first")
	second := s.Create("second")

	list := s.List()
	if len(list) != 2 {
		t.Fatalf("Expected 2 todos, got %d", len(list))
	}
	if list[0].ID != second || list[1].ID != first {
		t.Errorf("Expected most recent first, got %v", titles(list))
	}

	todo, ok := s.Get(first)
	if !ok {
		t.Fatal("Expected created todo to be found")
	}
	if todo.Done {
		t.Error("Expected new todo to not be done")
	}
	if len(todo.Tags) != 0 {
		t.Errorf("Expected no tags, got %v", todo.Tags)
	}
	assertConsistent(t, s)
}

func TestTodoStore_AppendKeepsSeedOrder(t *testing.T) {
	t.Parallel()

	s := NewTodoStore()
	s.Append("a")
	s.Append("b")
	s.Create("c")

	got := titles(s.List())
	want := []string{"c", "a", "b"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Expected order %v, got %v", want, got)
		}
	}
	assertConsistent(t, s)
}

func TestTodoStore_IDsAreUniqueEvenOnCollision(t *testing.T) {
	t.Parallel()

	calls := 0
	s := NewTodoStore(WithIDGenerator(func() string {
		calls++
		if calls <= 2 {
			return "dup"
		}
		return fmt.Sprintf("id-%d", calls)
	}))

	a := s.Create("a")
	b := s.Create("b")
	if a == b {
		t.Fatalf("Expected distinct ids, both were %s", a)
	}
	assertConsistent(t, s)
}

func TestTodoStore_GetAbsent(t *testing.T) {
	t.Parallel()

	s := NewTodoStore()
	todo, ok := s.Get("missing")
	if ok || todo != nil {
		t.Errorf("Expected absent, got %v, %v", todo, ok)
	}
}

func TestTodoStore_ToggleIsInvolution(t *testing.T) {
	t.Parallel()

	s := NewTodoStore()
	id := s.Create("t")

	todo, ok := s.Toggle(id)
	if !ok || !todo.Done {
		t.Fatalf("Expected done after first toggle, got %v", todo)
	}
	todo, ok = s.Toggle(id)
	if !ok || todo.Done {
		t.Fatalf("Expected not done after second toggle, got %v", todo)
	}

	if _, ok := s.Toggle("missing"); ok {
		t.Error("Expected toggle of unknown id to report absent")
	}
}

func TestTodoStore_AddTag(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		tags []string
		want []string
	}{
		{"single", []string{"home"}, []string{"home"}},
		{"duplicate ignored", []string{"home", "home"}, []string{"home"}},
		{"insertion order", []string{"b", "a", "c"}, []string{"b", "a", "c"}},
		{"duplicate in the middle", []string{"x", "y", "x", "z"}, []string{"x", "y", "z"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := NewTodoStore()
			id := s.Create("t")
			var todo *models.Todo
			for _, tag := range tt.tags {
				var ok bool
				todo, ok = s.AddTag(id, tag)
				if !ok {
					t.Fatalf("AddTag(%q) reported absent", tag)
				}
			}
			if len(todo.Tags) != len(tt.want) {
				t.Fatalf("Expected tags %v, got %v", tt.want, todo.Tags)
			}
			for i := range tt.want {
				if todo.Tags[i] != tt.want[i] {
					t.Errorf("Expected tags %v, got %v", tt.want, todo.Tags)
				}
			}
		})
	}
}

func TestTodoStore_AddTagUnknownID(t *testing.T) {
	t.Parallel()

	s := NewTodoStore()
	if _, ok := s.AddTag("missing", "x"); ok {
		t.Error("Expected AddTag on unknown id to report absent")
	}
}

func TestTodoStore_Delete(t *testing.T) {
	t.Parallel()

	s := NewTodoStore(sequentialIDs())
	a := s.Create("a")
	b := s.Create("b")
	c := s.Create("c")

	if !s.Delete(b) {
		t.Fatal("Expected delete of existing id to return true")
	}
	if s.Delete(b) {
		t.Error("Expected second delete to return false")
	}
	if _, ok := s.Get(b); ok {
		t.Error("Expected deleted todo to be absent")
	}

	list := s.List()
	if len(list) != 2 || list[0].ID != c || list[1].ID != a {
		t.Errorf("Expected [c a] after delete, got %v", titles(list))
	}
	if s.Len() != 2 {
		t.Errorf("Expected Len 2, got %d", s.Len())
	}
	assertConsistent(t, s)
}
