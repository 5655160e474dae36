package todos

import (
	"context"

	"go.uber.org/zap"
)

// demoTitles seed an empty store. They describe the structures behind the list.
var demoTitles = []string{
	"map[string]*Todo: records by id, display order kept in a slice.",
	"weak.Pointer keys: history follows the todo instance and vanishes with it.",
	"map[string]struct{}: flag membership, cleared when the todo is deleted.",
	"Metadata map: only a cache, allowed to go stale.",
}

// Bootstrap seeds the demo todos if the store is empty and returns how many
// were added. Seeded todos have no history.
func (s *Service) Bootstrap(ctx context.Context) int {
	_, span := s.startSpan(ctx, "Bootstrap", "")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.store.Len() > 0 {
		return 0
	}
	for _, title := range demoTitles {
		s.store.Append(title)
	}
	s.logger.Info("seeded_demo_todos", zap.Int("count", len(demoTitles)))
	return len(demoTitles)
}
