package models

import (
	"strings"
	"time"
)

// History action labels
const (
	ActionAddTodo    = "addTodo"
	ActionToggleTodo = "toggleTodo"
	ActionFlag       = "flag"
	ActionUnflag     = "unflag"
	ActionDeleteTodo = "deleteTodo"

	actionAddTagPrefix = "addTag:"
)

// ActionAddTag returns the history label recorded when tag is added
func ActionAddTag(tag string) string {
	return actionAddTagPrefix + tag
}

// ActionKind returns the action without its argument, e.g. "addTag" for
// "addTag:home"
func ActionKind(action string) string {
	kind, _, _ := strings.Cut(action, ":")
	return kind
}

// ValidAction reports whether action is a label the service records
func ValidAction(action string) bool {
	switch action {
	case ActionAddTodo, ActionToggleTodo, ActionFlag, ActionUnflag, ActionDeleteTodo:
		return true
	}
	tag, ok := strings.CutPrefix(action, actionAddTagPrefix)
	return ok && tag != ""
}

// ChangeEntry is a single entry of a todo's change history
type ChangeEntry struct {
	TS     int64  `json:"ts"` // unix milliseconds
	Action string `json:"action"`
}

// NewChangeEntry creates a change entry stamped with at
func NewChangeEntry(at time.Time, action string) ChangeEntry {
	return ChangeEntry{TS: at.UnixMilli(), Action: action}
}

// HistoryView is the serializable view of everything kept beside a todo
type HistoryView struct {
	History []ChangeEntry `json:"history"`
	Meta    *Meta         `json:"meta"`
	Flagged bool          `json:"flagged"`
}
