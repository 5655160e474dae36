package models

import "time"

// Meta is the derived per-todo bookkeeping kept beside the record.
// It is a cache and may outlive the todo it describes.
type Meta struct {
	LastTouched int64 `json:"lastTouched"` // unix milliseconds
}

// NewMeta builds Meta for the given touch time
func NewMeta(touched time.Time) Meta {
	return Meta{LastTouched: touched.UnixMilli()}
}
