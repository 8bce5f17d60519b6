package ports

import (
	"context"

	"github.com/samirrijal/saferoute/internal/core/domain"
)

// HistoryRepository persists navigation search history.
type HistoryRepository interface {
	Insert(ctx context.Context, entry *domain.HistoryEntry) error
	// ListByUser returns entries oldest first.
	ListByUser(ctx context.Context, userID string, limit int) ([]domain.HistoryEntry, error)
}
