package usecases

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/samirrijal/saferoute/internal/core/domain"
	"github.com/samirrijal/saferoute/internal/core/ports"
)

// HistoryService handles search history.
type HistoryService struct {
	history ports.HistoryRepository
}

// NewHistoryService creates a new HistoryService.
func NewHistoryService(history ports.HistoryRepository) *HistoryService {
	return &HistoryService{history: history}
}

// Add validates and stores a search.
func (s *HistoryService) Add(ctx context.Context, userID, source, destination string) (*domain.HistoryEntry, error) {
	entry := &domain.HistoryEntry{
		UserID:      userID,
		Source:      strings.TrimSpace(source),
		Destination: strings.TrimSpace(destination),
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.Record(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Record implements ports.HistoryRecorder with a synchronous insert.
func (s *HistoryService) Record(ctx context.Context, entry *domain.HistoryEntry) error {
	if entry.UserID == "" {
		return fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	}
	if entry.Source == "" || entry.Destination == "" {
		return fmt.Errorf("%w: source and destination are required", domain.ErrInvalidInput)
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if err := s.history.Insert(ctx, entry); err != nil {
		return fmt.Errorf("insert history: %w", err)
	}
	return nil
}

// List returns a user's searches, oldest first.
func (s *HistoryService) List(ctx context.Context, userID string, limit int) ([]domain.HistoryEntry, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.history.ListByUser(ctx, userID, limit)
}
