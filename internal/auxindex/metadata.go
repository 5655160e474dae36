package auxindex

import (
	"time"

	"github.com/benvon/memtodo/internal/models"
)

// MetadataMap tracks when each todo ID was last touched.
// Entries are never removed: stale metadata for deleted todos is tolerated.
type MetadataMap struct {
	entries map[string]models.Meta
}

// NewMetadataMap creates an empty metadata map
func NewMetadataMap() *MetadataMap {
	return &MetadataMap{entries: make(map[string]models.Meta)}
}

// Touch upserts the last-touched time for id
func (m *MetadataMap) Touch(id string, at time.Time) {
	m.entries[id] = models.NewMeta(at)
}

// Get returns the metadata for id
func (m *MetadataMap) Get(id string) (models.Meta, bool) {
	meta, ok := m.entries[id]
	return meta, ok
}

// Len returns the number of entries, stale ones included
func (m *MetadataMap) Len() int {
	return len(m.entries)
}
