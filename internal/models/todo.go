package models

// Todo represents a todo item
type Todo struct {
	ID    string   `json:"id"`
	Title string   `json:"title"`
	Done  bool     `json:"done"`
	Tags  []string `json:"tags,omitempty"`
}

// HasTag reports whether tag is already attached to the todo
func (t *Todo) HasTag(tag string) bool {
	for _, existing := range t.Tags {
		if existing == tag {
			return true
		}
	}
	return false
}

// Clone returns a copy that shares no mutable state with t.
// Callers outside the store only ever see clones.
func (t *Todo) Clone() Todo {
	c := *t
	if t.Tags != nil {
		c.Tags = make([]string, len(t.Tags))
		copy(c.Tags, t.Tags)
	}
	return c
}
